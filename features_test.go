package xmlpull_test

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/jacoelho/xmlpull"
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("feature scenarios failed")
	}
}

// scenarioState holds per-scenario state for step definitions.
type scenarioState struct {
	doc      string
	entities map[string]string
	opts     []xmlpull.Options
	tokens   []xmlpull.Token
	err      error
}

func initializeScenario(ctx *godog.ScenarioContext) {
	s := &scenarioState{}

	ctx.Step(`^the document:$`, func(doc *godog.DocString) error {
		s.doc = doc.Content
		return nil
	})
	ctx.Step(`^the document "([^"]*)"$`, func(quoted string) error {
		doc, err := strconv.Unquote(`"` + quoted + `"`)
		if err != nil {
			return fmt.Errorf("document literal: %w", err)
		}
		s.doc = doc
		return nil
	})
	ctx.Step(`^the custom entities:$`, func(table *godog.Table) error {
		s.entities = make(map[string]string)
		for _, row := range table.Rows[1:] {
			s.entities[row.Cells[0].Value] = row.Cells[1].Value
		}
		s.opts = append(s.opts, xmlpull.WithEntityMap(s.entities))
		return nil
	})
	ctx.Step(`^declared entities are enabled$`, func() error {
		s.opts = append(s.opts, xmlpull.DeclaredEntities(true))
		return nil
	})
	ctx.Step(`^the internal subset is skipped$`, func() error {
		s.opts = append(s.opts, xmlpull.SkipInternalSubset(true))
		return nil
	})
	ctx.Step(`^strict names are enabled$`, func() error {
		s.opts = append(s.opts, xmlpull.StrictNames(true))
		return nil
	})
	ctx.Step(`^at most (\d+) entity expansions are allowed$`, func(n int) error {
		s.opts = append(s.opts, xmlpull.MaxEntityExpansions(n))
		return nil
	})
	ctx.Step(`^the maximum depth is (\d+)$`, func(n int) error {
		s.opts = append(s.opts, xmlpull.MaxDepth(n))
		return nil
	})

	ctx.Step(`^the document is parsed$`, func() error {
		p := xmlpull.NewParser(strings.NewReader(s.doc), s.opts...)
		for tok, err := range p.All() {
			if err != nil {
				s.err = err
				return nil
			}
			s.tokens = append(s.tokens, tok)
		}
		return nil
	})

	ctx.Step(`^the tokens are:$`, func(table *godog.Table) error {
		if s.err != nil {
			return fmt.Errorf("unexpected error: %w", s.err)
		}
		rows := table.Rows[1:]
		if len(rows) != len(s.tokens) {
			return fmt.Errorf("got %d tokens %v, want %d", len(s.tokens), s.tokens, len(rows))
		}
		for i, row := range rows {
			var cells []string
			for _, cell := range row.Cells {
				cells = append(cells, cell.Value)
			}
			want, err := tokenFromRow(cells)
			if err != nil {
				return err
			}
			got := s.tokens[i]
			got.Line = 0
			if got.String() != want.String() {
				return fmt.Errorf("token %d = %v, want %v", i, got, want)
			}
		}
		return nil
	})
	ctx.Step(`^token (\d+) has attribute "([^"]*)" with value "([^"]*)"$`, func(n int, name, quoted string) error {
		if s.err != nil {
			return fmt.Errorf("unexpected error: %w", s.err)
		}
		if n < 1 || n > len(s.tokens) {
			return fmt.Errorf("token %d out of range, have %d", n, len(s.tokens))
		}
		want, err := strconv.Unquote(`"` + quoted + `"`)
		if err != nil {
			return fmt.Errorf("value literal: %w", err)
		}
		got, ok := s.tokens[n-1].Attr(name)
		if !ok {
			return fmt.Errorf("token %d %v has no attribute %q", n, s.tokens[n-1], name)
		}
		if got != want {
			return fmt.Errorf("attribute %s = %q, want %q", name, got, want)
		}
		return nil
	})
	ctx.Step(`^the token lines are "([^"]*)"$`, func(list string) error {
		var lines []string
		for _, tok := range s.tokens {
			lines = append(lines, strconv.Itoa(tok.Line))
		}
		if got := strings.Join(lines, ","); got != list {
			return fmt.Errorf("token lines = %s, want %s", got, list)
		}
		return nil
	})
	ctx.Step(`^parsing fails with "([^"]*)"$`, func(code string) error {
		if s.err == nil {
			return errors.New("parsing succeeded, want error")
		}
		if got := xmlerrors.CodeOf(s.err); string(got) != code {
			return fmt.Errorf("error code = %s, want %s (%v)", got, code, s.err)
		}
		return nil
	})
	ctx.Step(`^the unsupported feature is "([^"]*)"$`, func(feature string) error {
		if got := xmlerrors.FeatureOf(s.err); string(got) != feature {
			return fmt.Errorf("feature = %q, want %q", got, feature)
		}
		return nil
	})
	ctx.Step(`^the error is reported at line (\d+)$`, func(line int) error {
		perr, ok := xmlerrors.AsError(s.err)
		if !ok {
			return fmt.Errorf("error %v is not a parse error", s.err)
		}
		if perr.Line != line {
			return fmt.Errorf("error line = %d, want %d", perr.Line, line)
		}
		return nil
	})
}

// tokenFromRow reads a "kind | name | text | attrs" row. Text is a Go quoted
// string so that newlines can be written; attrs are space separated k=v pairs.
func tokenFromRow(cells []string) (xmlpull.Token, error) {
	if len(cells) != 4 {
		return xmlpull.Token{}, fmt.Errorf("row has %d cells, want 4", len(cells))
	}
	kind, name := cells[0], cells[1]
	text := ""
	if raw := cells[2]; raw != "" {
		var err error
		text, err = strconv.Unquote(raw)
		if err != nil {
			return xmlpull.Token{}, fmt.Errorf("text %s: %w", raw, err)
		}
	}
	var attrs []xmlpull.Attr
	for _, pair := range strings.Fields(cells[3]) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return xmlpull.Token{}, fmt.Errorf("attribute %q has no value", pair)
		}
		attrs = append(attrs, xmlpull.Attr{Name: k, Value: v})
	}
	switch kind {
	case "StartTag":
		return xmlpull.StartTag(name, attrs...), nil
	case "EndTag":
		return xmlpull.EndTag(name), nil
	case "CharData":
		return xmlpull.CharData(text), nil
	case "ProcInst":
		return xmlpull.ProcInst(name, text), nil
	default:
		return xmlpull.Token{}, fmt.Errorf("unknown token kind %q", kind)
	}
}
