package xmlpull_test

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/xmlpull"
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

func ExampleParser_Token() {
	doc := `<?xml version="1.0"?>
<note lang="en"><to>Tove</to><body/></note>`

	p := xmlpull.NewParser(strings.NewReader(doc))
	for {
		tok, err := p.Token()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if tok.Kind == xmlpull.KindEOF {
			break
		}
		fmt.Println(tok)
	}
	// Output:
	// StartTag(note lang="en")
	// StartTag(to)
	// CharData("Tove")
	// EndTag(to)
	// StartTag(body)
	// EndTag(body)
	// EndTag(note)
}

func ExampleParser_All() {
	doc := `<r>&me; &#x263A;</r>`
	p := xmlpull.NewParser(strings.NewReader(doc), xmlpull.WithEntityMap(map[string]string{
		"me": "<b>xmlpull</b>",
	}))
	for tok, err := range p.All() {
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Println(tok)
	}
	// Output:
	// StartTag(r)
	// StartTag(b)
	// CharData("xmlpull")
	// EndTag(b)
	// CharData(" ☺")
	// EndTag(r)
}

func ExampleDeclaredEntities() {
	doc := `<!DOCTYPE r [<!ENTITY who "World">]><r>Hello, &who;!</r>`
	p := xmlpull.NewParser(strings.NewReader(doc), xmlpull.DeclaredEntities(true))
	for tok, err := range p.All() {
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		if tok.Kind == xmlpull.KindCharData {
			fmt.Println(tok.Text)
		}
	}
	// Output: Hello, World!
}

func ExampleParser_Token_mismatch() {
	doc := "<a>\n<b></a>"
	p := xmlpull.NewParser(strings.NewReader(doc))
	for _, err := range p.All() {
		if err == nil {
			continue
		}
		var perr *xmlerrors.Error
		if errors.As(err, &perr) {
			fmt.Println(perr.Code, perr.Line)
		}
		fmt.Println(err)
	}
	// Output:
	// xml-mismatching-tags 2
	// [xml-mismatching-tags] end tag does not match start tag: </a> closes <b> at line 2
}
