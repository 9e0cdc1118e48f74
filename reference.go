package xmlpull

import (
	"slices"
	"unicode/utf8"

	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

type textMode byte

const (
	textCharData textMode = iota
	textAttValue
	textEntityValue
)

var predefinedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"apos": "'",
	"quot": `"`,
}

// expansion tracks replacement text pushed back onto the byte stream.
// Its bytes occupy pending indices [lo, hi); chain lists the entity names
// being expanded when it was pushed, itself included.
type expansion struct {
	chain []string
	lo    int
	hi    int
}

// expandedText reads char data, an attribute value or an entity value,
// expanding references as the mode requires.
//
//	AttValue     ::=  '"' ([^<&"] | Reference)* '"' |  "'" ([^<&'] | Reference)* "'"
//	EntityValue  ::=  '"' ([^%&"] | PEReference | Reference)* '"'
//	               |  "'" ([^%&'] | PEReference | Reference)* "'"
func (p *Parser) expandedText(mode textMode) (string, error) {
	var quote byte
	base := 0
	switch mode {
	case textAttValue:
		q, err := p.openQuote(xmlerrors.ErrMalformedAttValue)
		if err != nil {
			return "", err
		}
		quote = q
		base = p.bytes.Pending()
	case textEntityValue:
		q, err := p.openQuote(xmlerrors.ErrMalformedEntityValue)
		if err != nil {
			return "", err
		}
		quote = q
	}

	buf := p.textBuf[:0]
	brackets := 0
	for {
		b, err := p.nextByte()
		if err != nil {
			// outside the root element the state machine reports stray text
			// itself; inside it a truncated document yields no partial text
			if mode == textCharData && len(buf) > 0 && len(p.tags) == 0 && xmlerrors.CodeOf(err) == xmlerrors.ErrUnexpectedEOF {
				p.textBuf = buf
				return p.text(buf)
			}
			return "", err
		}
		origin := p.bytes.Origin()

		switch mode {
		case textCharData:
			switch b {
			case '<':
				p.unget(b)
				p.textBuf = buf
				return p.text(buf)
			case ']':
				brackets++
				buf = append(buf, b)
			case '>':
				if brackets >= 2 {
					return "", xmlerrors.Newf(xmlerrors.ErrMalformedCharData, "literal ]]> in text")
				}
				brackets = 0
				buf = append(buf, b)
			case '&':
				brackets = 0
				buf, err = p.reference(buf, origin)
				if err != nil {
					return "", err
				}
			default:
				brackets = 0
				buf = append(buf, b)
			}

		case textAttValue:
			switch {
			case b == quote && origin < base:
				p.textBuf = buf
				return p.text(buf)
			case b == '<':
				return "", xmlerrors.New(xmlerrors.ErrMalformedAttValue)
			case b == '&':
				buf, err = p.reference(buf, origin)
				if err != nil {
					return "", err
				}
			default:
				buf = append(buf, b)
			}

		case textEntityValue:
			switch b {
			case quote:
				p.textBuf = buf
				return p.text(buf)
			case '%':
				return "", xmlerrors.Unsupported(xmlerrors.FeatureParameterEntities)
			case '&':
				buf, err = p.literalReference(buf)
				if err != nil {
					return "", err
				}
			default:
				buf = append(buf, b)
			}
		}

		if err := p.checkSize(len(buf)); err != nil {
			return "", err
		}
	}
}

// reference resolves a reference whose '&' came from pending index origin.
// Character references and predefined entities are appended to buf; other
// entities are pushed back onto the stream to be parsed again.
//
//	Reference  ::=  EntityRef | CharRef
//	EntityRef  ::=  '&' Name ';'
func (p *Parser) reference(buf []byte, origin int) ([]byte, error) {
	parent := p.chainAt(origin)
	b, err := p.nextByte()
	if err != nil {
		return nil, err
	}
	if b == '#' {
		r, err := p.charRef()
		if err != nil {
			return nil, err
		}
		return utf8.AppendRune(buf, r), nil
	}
	p.unget(b)

	name, err := p.entityName()
	if err != nil {
		return nil, err
	}
	if value, ok := predefinedEntities[name]; ok {
		return append(buf, value...), nil
	}
	value, ok := p.opts.entityMap[name]
	if !ok {
		value, ok = p.declared[name]
	}
	if !ok {
		return nil, xmlerrors.Newf(xmlerrors.ErrUnmappedEntityRef, "&%s;", name)
	}
	if err := p.replay(name, value, parent); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Parser) entityName() (string, error) {
	name, err := p.name()
	if err != nil {
		if xmlerrors.CodeOf(err) == xmlerrors.ErrMalformedName {
			return "", xmlerrors.New(xmlerrors.ErrMalformedEntityRef)
		}
		return "", err
	}
	if err := p.requireByte(';', xmlerrors.ErrMalformedEntityRef); err != nil {
		return "", err
	}
	return name, nil
}

// chainAt returns the entity names whose replacement text contains the
// byte read from pending index origin.
func (p *Parser) chainAt(origin int) []string {
	n := len(p.expansions)
	if n == 0 || origin < 0 {
		return nil
	}
	top := p.expansions[n-1]
	if origin >= top.lo && origin < top.hi {
		return top.chain
	}
	return nil
}

// replay pushes replacement text back onto the stream. A reference that
// sits inside the replacement text of an entity with the same name is
// rejected, which stops unbounded recursion.
func (p *Parser) replay(name, value string, parent []string) error {
	if slices.Contains(parent, name) {
		return xmlerrors.Newf(xmlerrors.ErrMalformedEntityRef, "recursive reference to &%s;", name)
	}

	p.expanded++
	if p.opts.maxEntityExpansions > 0 && p.expanded > p.opts.maxEntityExpansions {
		return xmlerrors.Newf(xmlerrors.ErrLimitExceeded, "more than %d entity expansions", p.opts.maxEntityExpansions)
	}
	if value == "" {
		return nil
	}

	lo := p.bytes.Pending()
	p.bytes.UngetMany([]byte(value))
	chain := append(slices.Clip(parent), name)
	p.expansions = append(p.expansions, expansion{chain: chain, lo: lo, hi: p.bytes.Pending()})
	return nil
}

// retire drops expansions whose replacement text has been fully read.
// The last byte of an expansion sits at its lowest pending index.
func (p *Parser) retire(origin int) {
	n := len(p.expansions)
	for n > 0 && p.expansions[n-1].lo >= origin {
		n--
	}
	clear(p.expansions[n:])
	p.expansions = p.expansions[:n]
}

// literalReference validates a reference inside an entity value. Character
// references are expanded now; entity references stay literal and are
// expanded where the entity is used.
func (p *Parser) literalReference(buf []byte) ([]byte, error) {
	b, err := p.nextByte()
	if err != nil {
		return nil, err
	}
	if b == '#' {
		r, err := p.charRef()
		if err != nil {
			return nil, err
		}
		return utf8.AppendRune(buf, r), nil
	}
	p.unget(b)
	name, err := p.entityName()
	if err != nil {
		return nil, err
	}
	buf = append(buf, '&')
	buf = append(buf, name...)
	return append(buf, ';'), nil
}

// charRef decodes a character reference. Assumes "&#" has been read.
//
//	CharRef  ::=  '&#' [0-9]+ ';' | '&#x' [0-9a-fA-F]+ ';'
func (p *Parser) charRef() (rune, error) {
	b, err := p.nextByte()
	if err != nil {
		return 0, err
	}
	base := rune(10)
	if b == 'x' {
		base = 16
		b, err = p.nextByte()
		if err != nil {
			return 0, err
		}
	}
	var value rune
	digits := 0
	for b != ';' {
		d, ok := digitValue(b, base)
		if !ok {
			return 0, xmlerrors.Newf(xmlerrors.ErrMalformedCharRef, "invalid digit %q", b)
		}
		if value <= utf8.MaxRune {
			value = value*base + d
		}
		digits++
		b, err = p.nextByte()
		if err != nil {
			return 0, err
		}
	}
	if digits == 0 || !isChar(value) {
		return 0, xmlerrors.New(xmlerrors.ErrMalformedCharRef)
	}
	return value, nil
}

func digitValue(b byte, base rune) (rune, bool) {
	switch {
	case b >= '0' && b <= '9':
		return rune(b - '0'), true
	case base == 16 && b >= 'a' && b <= 'f':
		return rune(b-'a') + 10, true
	case base == 16 && b >= 'A' && b <= 'F':
		return rune(b-'A') + 10, true
	default:
		return 0, false
	}
}

// isChar reports whether r may appear in an XML 1.0 document.
//
//	Char  ::=  #x9 | #xA | #xD | [#x20-#xD7FF] | [#xE000-#xFFFD] | [#x10000-#x10FFFF]
func isChar(r rune) bool {
	switch {
	case r == 0x9, r == 0xA, r == 0xD:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= utf8.MaxRune:
		return true
	default:
		return false
	}
}
