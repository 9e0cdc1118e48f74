package xmlpull

import (
	"fmt"
	"strings"
)

// Attr is a name/value attribute pair.
// Value is unquoted and has every reference expanded.
type Attr struct {
	Name  string
	Value string
}

// Token is one public parse event.
//
// Name holds the element name for start and end tags and the target for
// processing instructions. Text holds character data and the instruction
// of a processing instruction. Line is the 1-based line where the token starts.
//
// A CharData token never has empty Text. An empty CDATA section such as
// <![CDATA[]]>, or a reference to an entity with empty replacement text,
// produces no token.
type Token struct {
	Name  string
	Text  string
	Attrs []Attr
	Line  int
	Kind  Kind
}

// StartTag builds a start tag token.
func StartTag(name string, attrs ...Attr) Token {
	return Token{Kind: KindStartTag, Name: name, Attrs: attrs}
}

// EndTag builds an end tag token.
func EndTag(name string) Token {
	return Token{Kind: KindEndTag, Name: name}
}

// CharData builds a character data token.
func CharData(text string) Token {
	return Token{Kind: KindCharData, Text: text}
}

// ProcInst builds a processing instruction token.
func ProcInst(target, inst string) Token {
	return Token{Kind: KindProcInst, Name: target, Text: inst}
}

// EOF builds the end of file token.
func EOF() Token {
	return Token{Kind: KindEOF}
}

// Attr returns the value of the named attribute of a start tag.
func (t Token) Attr(name string) (string, bool) {
	for _, attr := range t.Attrs {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return "", false
}

// String formats the token for debugging.
func (t Token) String() string {
	switch t.Kind {
	case KindStartTag:
		var b strings.Builder
		b.WriteString("StartTag(")
		b.WriteString(t.Name)
		for _, attr := range t.Attrs {
			fmt.Fprintf(&b, " %s=%q", attr.Name, attr.Value)
		}
		b.WriteByte(')')
		return b.String()
	case KindEndTag:
		return "EndTag(" + t.Name + ")"
	case KindCharData:
		return fmt.Sprintf("CharData(%q)", t.Text)
	case KindProcInst:
		return fmt.Sprintf("ProcInst(%s %q)", t.Name, t.Text)
	default:
		return t.Kind.String()
	}
}
