package xmlpull

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
)

var roundTripText = []string{"plain", "a & b", "x < y > z", `"quoted" 'single'`, "]] >", "日本語", " ", "tab\there", "line\nbreak"}

// buildTree fills el with a random subtree and returns the tokens a parser
// should report for it.
func buildTree(rng *rand.Rand, el *etree.Element, depth int) []Token {
	var attrs []Attr
	for i := range rng.IntN(3) {
		name := fmt.Sprintf("a%d", i)
		value := roundTripText[rng.IntN(len(roundTripText))]
		el.CreateAttr(name, value)
		attrs = append(attrs, Attr{Name: name, Value: value})
	}
	tokens := []Token{StartTag(el.Tag, attrs...)}

	if depth > 0 {
		for i := range rng.IntN(4) {
			switch rng.IntN(5) {
			case 0:
				child := el.CreateElement(fmt.Sprintf("e%d", i))
				tokens = append(tokens, buildTree(rng, child, depth-1)...)
			case 1:
				text := roundTripText[rng.IntN(len(roundTripText))]
				el.AddChild(etree.NewText(text))
				tokens = append(tokens, CharData(text))
			case 2:
				text := roundTripText[rng.IntN(len(roundTripText))]
				el.CreateCData(text)
				tokens = append(tokens, CharData(text))
			case 3:
				el.CreateComment("note")
			case 4:
				el.CreateProcInst("pi", fmt.Sprintf("n=%d", i))
				tokens = append(tokens, ProcInst("pi", fmt.Sprintf("n=%d", i)))
			}
		}
	}
	return append(tokens, EndTag(el.Tag))
}

// mergeCharData joins adjacent character data, since text nodes written
// next to each other are read back as one run.
func mergeCharData(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if n := len(out); n > 0 && tok.Kind == KindCharData && out[n-1].Kind == KindCharData {
			out[n-1].Text += tok.Text
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestRoundTripEtreeDocuments(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range 50 {
		t.Run(fmt.Sprintf("doc%d", i), func(t *testing.T) {
			doc := etree.NewDocument()
			doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
			root := doc.CreateElement("root")
			want := buildTree(rng, root, 3)

			text, err := doc.WriteToString()
			if err != nil {
				t.Fatalf("WriteToString() error = %v", err)
			}
			got := mergeCharData(collect(t, text))
			if diff := cmp.Diff(mergeCharData(want), got, ignoreLine); diff != "" {
				t.Fatalf("round trip of %s (-want +got):\n%s", text, diff)
			}
		})
	}
}
