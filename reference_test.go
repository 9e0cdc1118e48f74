package xmlpull

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

func TestCustomEntities(t *testing.T) {
	entities := map[string]string{
		"co":     "Example & Co",
		"markup": "<b>bold</b>",
		"outer":  "[&inner;|&inner;]",
		"inner":  "i",
		"quotes": `"'`,
		"empty":  "",
		"amp":    "ignored",
	}
	tests := []struct {
		name string
		doc  string
		want []Token
	}{
		{
			name: "text",
			doc:  "<r>&co;</r>",
			want: []Token{StartTag("r"), CharData("Example & Co"), EndTag("r")},
		},
		{
			name: "markup is parsed again",
			doc:  "<r>x&markup;y</r>",
			want: []Token{
				StartTag("r"),
				CharData("x"),
				StartTag("b"),
				CharData("bold"),
				EndTag("b"),
				CharData("y"),
				EndTag("r"),
			},
		},
		{
			name: "nested references",
			doc:  "<r>&outer;</r>",
			want: []Token{StartTag("r"), CharData("[i|i]"), EndTag("r")},
		},
		{
			name: "repeated references",
			doc:  "<r>&inner;<x/>&inner;</r>",
			want: []Token{StartTag("r"), CharData("i"), StartTag("x"), EndTag("x"), CharData("i"), EndTag("r")},
		},
		{
			name: "quotes in attribute replacement",
			doc:  `<r a="&quotes;" b='&quotes;'/>`,
			want: []Token{StartTag("r", Attr{"a", `"'`}, Attr{"b", `"'`}), EndTag("r")},
		},
		{
			name: "empty replacement",
			doc:  "<r>&empty;</r>",
			want: []Token{StartTag("r"), EndTag("r")},
		},
		{
			name: "predefined entities win",
			doc:  "<r>&amp;</r>",
			want: []Token{StartTag("r"), CharData("&"), EndTag("r")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(t, tt.doc, WithEntityMap(entities))
			if diff := cmp.Diff(tt.want, got, ignoreLine); diff != "" {
				t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEntityMapIsCopied(t *testing.T) {
	entities := map[string]string{"e": "before"}
	opts := WithEntityMap(entities)
	entities["e"] = "after"

	got := collect(t, "<r>&e;</r>", opts)
	want := []Token{StartTag("r"), CharData("before"), EndTag("r")}
	if diff := cmp.Diff(want, got, ignoreLine); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestRecursiveEntities(t *testing.T) {
	tests := []struct {
		name     string
		entities map[string]string
	}{
		{"self", map[string]string{"e": "x&e;"}},
		{"self at end", map[string]string{"e": "&e;"}},
		{"mutual", map[string]string{"a": "&b;", "b": "1&a;"}},
		{"indirect", map[string]string{"a": "&b;", "b": "&c;", "c": "&a;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "<r>&" + firstKey(tt.entities) + ";</r>"
			err := parseError(t, doc, WithEntityMap(tt.entities))
			if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrMalformedEntityRef {
				t.Fatalf("CodeOf() = %q, want %q (err %v)", got, xmlerrors.ErrMalformedEntityRef, err)
			}
		})
	}
}

func firstKey(m map[string]string) string {
	for _, key := range []string{"e", "a"} {
		if _, ok := m[key]; ok {
			return key
		}
	}
	return ""
}

func TestSiblingReferencesAreNotRecursion(t *testing.T) {
	entities := map[string]string{"pair": "&one;&one;", "one": "1"}
	got := collect(t, "<r a='&pair;'>&pair;</r>", WithEntityMap(entities))
	want := []Token{StartTag("r", Attr{"a", "11"}), CharData("11"), EndTag("r")}
	if diff := cmp.Diff(want, got, ignoreLine); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestDeclaredEntities(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		opts []Options
		want []Token
	}{
		{
			name: "declared value",
			doc:  `<!DOCTYPE r [<!ENTITY e "v&#65;&amp;">]><r>&e;</r>`,
			want: []Token{StartTag("r"), CharData("vA&"), EndTag("r")},
		},
		{
			name: "first declaration wins",
			doc:  `<!DOCTYPE r [<!ENTITY e "1"><!ENTITY e "2">]><r>&e;</r>`,
			want: []Token{StartTag("r"), CharData("1"), EndTag("r")},
		},
		{
			name: "predefined names are not overridden",
			doc:  `<!DOCTYPE r [<!ENTITY lt "X">]><r>&lt;</r>`,
			want: []Token{StartTag("r"), CharData("<"), EndTag("r")},
		},
		{
			name: "entity map wins",
			doc:  `<!DOCTYPE r [<!ENTITY e "declared">]><r>&e;</r>`,
			opts: []Options{WithEntityMap(map[string]string{"e": "mapped"})},
			want: []Token{StartTag("r"), CharData("mapped"), EndTag("r")},
		},
		{
			name: "references resolved at use",
			doc:  `<!DOCTYPE r [<!ENTITY a "&b;!"><!ENTITY b "B">]><r>&a;</r>`,
			want: []Token{StartTag("r"), CharData("B!"), EndTag("r")},
		},
		{
			name: "markup",
			doc:  `<!DOCTYPE r [<!ENTITY e '<i a="1">x</i>'>]><r>&e;</r>`,
			want: []Token{StartTag("r"), StartTag("i", Attr{"a", "1"}), CharData("x"), EndTag("i"), EndTag("r")},
		},
		{
			name: "char ref markup",
			doc:  `<!DOCTYPE r [<!ENTITY e "&#60;i/>">]><r>&e;</r>`,
			want: []Token{StartTag("r"), StartTag("i"), EndTag("i"), EndTag("r")},
		},
		{
			name: "attribute value",
			doc:  `<!DOCTYPE r [<!ENTITY e "v">]><r a="&e;&e;"/>`,
			want: []Token{StartTag("r", Attr{"a", "vv"}), EndTag("r")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Options{DeclaredEntities(true)}, tt.opts...)
			got := collect(t, tt.doc, opts...)
			if diff := cmp.Diff(tt.want, got, ignoreLine); diff != "" {
				t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeclaredEntitiesDisabled(t *testing.T) {
	err := parseError(t, `<!DOCTYPE r [<!ENTITY e "v">]><r>&e;</r>`)
	if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrUnmappedEntityRef {
		t.Fatalf("CodeOf() = %q, want %q", got, xmlerrors.ErrUnmappedEntityRef)
	}
}

func TestDeclaredEntityRecursion(t *testing.T) {
	doc := `<!DOCTYPE r [<!ENTITY a "&b;"><!ENTITY b "&a;">]><r>&a;</r>`
	err := parseError(t, doc, DeclaredEntities(true))
	if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrMalformedEntityRef {
		t.Fatalf("CodeOf() = %q, want %q", got, xmlerrors.ErrMalformedEntityRef)
	}
}

func TestEntityExpansionLimit(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE r [<!ENTITY l0 "ha">`)
	for i := 1; i < 8; i++ {
		prev := "&l" + string(rune('0'+i-1)) + ";"
		b.WriteString(`<!ENTITY l` + string(rune('0'+i)) + ` "` + strings.Repeat(prev, 10) + `">`)
	}
	b.WriteString(`]><r>&l7;</r>`)

	err := parseError(t, b.String(), DeclaredEntities(true), MaxEntityExpansions(1000))
	if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrLimitExceeded {
		t.Fatalf("CodeOf() = %q, want %q", got, xmlerrors.ErrLimitExceeded)
	}
}

// nestedEntities declares l0..l<levels-1>, each referencing the previous
// one ten times, and uses the last in the root element.
func nestedEntities(levels int) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE r [<!ENTITY l0 "ha">`)
	for i := 1; i < levels; i++ {
		prev := "&l" + strconv.Itoa(i-1) + ";"
		b.WriteString(`<!ENTITY l` + strconv.Itoa(i) + ` "` + strings.Repeat(prev, 10) + `">`)
	}
	b.WriteString(`]><r>&l` + strconv.Itoa(levels-1) + `;</r>`)
	return b.String()
}

func TestDefaultEntityExpansionLimit(t *testing.T) {
	doc := nestedEntities(6)

	err := parseError(t, doc, DeclaredEntities(true))
	if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrLimitExceeded {
		t.Fatalf("CodeOf() = %q, want %q", got, xmlerrors.ErrLimitExceeded)
	}

	got := collect(t, doc, DeclaredEntities(true), MaxEntityExpansions(0))
	if len(got) != 3 || len(got[1].Text) != 2*100000 {
		t.Fatalf("unbounded expansion produced %d tokens", len(got))
	}

	got = collect(t, nestedEntities(4), DeclaredEntities(true))
	if len(got) != 3 || len(got[1].Text) != 2*1000 {
		t.Fatalf("expansion under the default limit produced %d tokens", len(got))
	}
}

func TestCharRefs(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"&#9;", "\t"},
		{"&#xA;", "\n"},
		{"&#x20;", " "},
		{"&#xd7ff;", "\ud7ff"},
		{"&#xE000;", "\ue000"},
		{"&#65533;", "\ufffd"},
		{"&#x10000;", "\U00010000"},
		{"&#x10FFFF;", "\U0010ffff"},
		{"&#0065;", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got := collect(t, "<r>"+tt.ref+"</r>")
			if len(got) != 3 || got[1].Text != tt.want {
				t.Fatalf("tokens = %v, want text %q", got, tt.want)
			}
		})
	}

	for _, ref := range []string{"&#x8;", "&#xFFFE;", "&#xFFFF;", "&#x110000;", "&#xDFFF;", "&#1a;"} {
		t.Run(ref, func(t *testing.T) {
			err := parseError(t, "<r>"+ref+"</r>")
			if got := xmlerrors.CodeOf(err); got != xmlerrors.ErrMalformedCharRef {
				t.Fatalf("CodeOf() = %q, want %q", got, xmlerrors.ErrMalformedCharRef)
			}
		})
	}
}
