package xmlpull

import (
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

func (p *Parser) openQuote(code xmlerrors.ErrorCode) (byte, error) {
	b, err := p.nextByte()
	if err != nil {
		return 0, err
	}
	if b != '"' && b != '\'' {
		return 0, xmlerrors.New(code)
	}
	return b, nil
}

// versionLiteral accepts "1." followed by one or more digits.
//
//	VersionNum  ::=  '1.' [0-9]+
func (p *Parser) versionLiteral() error {
	quote, err := p.openQuote(xmlerrors.ErrMalformedVersionLiteral)
	if err != nil {
		return err
	}
	if err := p.requireString("1.", xmlerrors.ErrMalformedVersionLiteral); err != nil {
		return err
	}
	digits := 0
	for {
		b, err := p.nextByte()
		if err != nil {
			return err
		}
		switch {
		case b >= '0' && b <= '9':
			digits++
		case b == quote && digits > 0:
			return nil
		default:
			return xmlerrors.New(xmlerrors.ErrMalformedVersionLiteral)
		}
	}
}

// encodingLiteral returns the encoding name as written.
//
//	EncName  ::=  [A-Za-z] ([A-Za-z0-9._] | '-')*
func (p *Parser) encodingLiteral() (string, error) {
	quote, err := p.openQuote(xmlerrors.ErrMalformedXMLDecl)
	if err != nil {
		return "", err
	}
	buf := p.textBuf[:0]
	for {
		b, err := p.nextByte()
		if err != nil {
			return "", err
		}
		if b == quote && len(buf) > 0 {
			p.textBuf = buf
			return string(buf), nil
		}
		if !isEncNameByte(b, len(buf) == 0) {
			return "", xmlerrors.New(xmlerrors.ErrMalformedXMLDecl)
		}
		buf = append(buf, b)
	}
}

func isEncNameByte(b byte, first bool) bool {
	if b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' {
		return true
	}
	if first {
		return false
	}
	return b >= '0' && b <= '9' || b == '.' || b == '_' || b == '-'
}

// yesNoLiteral parses the standalone value.
//
//	SDDecl  ::=  S 'standalone' Eq (("'" ('yes' | 'no') "'") | ('"' ('yes' | 'no') '"'))
func (p *Parser) yesNoLiteral() (bool, error) {
	quote, err := p.openQuote(xmlerrors.ErrMalformedYesNoLiteral)
	if err != nil {
		return false, err
	}
	b, err := p.nextByte()
	if err != nil {
		return false, err
	}
	var yes bool
	switch b {
	case 'y':
		err = p.requireString("es", xmlerrors.ErrMalformedYesNoLiteral)
		yes = true
	case 'n':
		err = p.requireByte('o', xmlerrors.ErrMalformedYesNoLiteral)
	default:
		err = xmlerrors.New(xmlerrors.ErrMalformedYesNoLiteral)
	}
	if err != nil {
		return false, err
	}
	if err := p.requireByte(quote, xmlerrors.ErrMalformedYesNoLiteral); err != nil {
		return false, err
	}
	return yes, nil
}

// systemLiteral consumes a quoted system identifier.
//
//	SystemLiteral  ::=  ('"' [^"]* '"') | ("'" [^']* "'")
func (p *Parser) systemLiteral() (string, error) {
	quote, err := p.openQuote(xmlerrors.ErrMalformedSystemLiteral)
	if err != nil {
		return "", err
	}
	buf := p.textBuf[:0]
	for {
		b, err := p.nextByte()
		if err != nil {
			return "", err
		}
		if b == quote {
			p.textBuf = buf
			return p.text(buf)
		}
		buf = append(buf, b)
		if err := p.checkSize(len(buf)); err != nil {
			return "", err
		}
	}
}

// pubidLiteral consumes a quoted public identifier.
//
//	PubidLiteral  ::=  '"' PubidChar* '"' | "'" (PubidChar - "'")* "'"
//	PubidChar     ::=  #x20 | #xD | #xA | [a-zA-Z0-9] | [-'()+,./:=?;!*#@$_%]
func (p *Parser) pubidLiteral() (string, error) {
	quote, err := p.openQuote(xmlerrors.ErrMalformedSystemLiteral)
	if err != nil {
		return "", err
	}
	buf := p.textBuf[:0]
	for {
		b, err := p.nextByte()
		if err != nil {
			return "", err
		}
		if b == quote {
			p.textBuf = buf
			return string(buf), nil
		}
		if !isPubidChar(b) {
			return "", xmlerrors.Newf(xmlerrors.ErrMalformedSystemLiteral, "invalid public id byte %q", b)
		}
		buf = append(buf, b)
		if err := p.checkSize(len(buf)); err != nil {
			return "", err
		}
	}
}

func isPubidChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	}
	switch b {
	case ' ', '\r', '\n', '-', '\'', '(', ')', '+', ',', '.', '/', ':',
		'=', '?', ';', '!', '*', '#', '@', '$', '_', '%':
		return true
	}
	return false
}

// externalID consumes an external identifier. The caller has already read
// the first keyword byte, 'S' or 'P'.
//
//	ExternalID  ::=  'SYSTEM' S SystemLiteral
//	               | 'PUBLIC' S PubidLiteral S SystemLiteral
func (p *Parser) externalID(first byte) error {
	const code = xmlerrors.ErrMalformedExternalEntity
	switch first {
	case 'S':
		if err := p.requireString("YSTEM", code); err != nil {
			return err
		}
	case 'P':
		if err := p.requireString("UBLIC", code); err != nil {
			return err
		}
		if err := p.requireWhitespace(code); err != nil {
			return err
		}
		if _, err := p.pubidLiteral(); err != nil {
			return err
		}
	default:
		return xmlerrors.New(code)
	}
	if err := p.requireWhitespace(code); err != nil {
		return err
	}
	_, err := p.systemLiteral()
	return err
}
