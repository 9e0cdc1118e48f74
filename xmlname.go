package xmlpull

import (
	"unicode"
	"unicode/utf8"

	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

var (
	asciiNameStart [utf8.RuneSelf]bool
	asciiNameChar  [utf8.RuneSelf]bool
)

func init() {
	for b := 'a'; b <= 'z'; b++ {
		asciiNameStart[b] = true
		asciiNameStart[b-'a'+'A'] = true
	}
	asciiNameStart['_'] = true
	asciiNameStart[':'] = true
	asciiNameChar = asciiNameStart
	for b := '0'; b <= '9'; b++ {
		asciiNameChar[b] = true
	}
	asciiNameChar['-'] = true
	asciiNameChar['.'] = true
}

// nameStartTable holds the non-ASCII ranges of NameStartChar.
//
//	NameStartChar  ::=  ":" | [A-Z] | "_" | [a-z] | [#xC0-#xD6] | [#xD8-#xF6]
//	                  | [#xF8-#x2FF] | [#x370-#x37D] | [#x37F-#x1FFF]
//	                  | [#x200C-#x200D] | [#x2070-#x218F] | [#x2C00-#x2FEF]
//	                  | [#x3001-#xD7FF] | [#xF900-#xFDCF] | [#xFDF0-#xFFFD]
//	                  | [#x10000-#xEFFFF]
var nameStartTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00C0, Hi: 0x00D6, Stride: 1},
		{Lo: 0x00D8, Hi: 0x00F6, Stride: 1},
		{Lo: 0x00F8, Hi: 0x02FF, Stride: 1},
		{Lo: 0x0370, Hi: 0x037D, Stride: 1},
		{Lo: 0x037F, Hi: 0x1FFF, Stride: 1},
		{Lo: 0x200C, Hi: 0x200D, Stride: 1},
		{Lo: 0x2070, Hi: 0x218F, Stride: 1},
		{Lo: 0x2C00, Hi: 0x2FEF, Stride: 1},
		{Lo: 0x3001, Hi: 0xD7FF, Stride: 1},
		{Lo: 0xF900, Hi: 0xFDCF, Stride: 1},
		{Lo: 0xFDF0, Hi: 0xFFFD, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0xEFFFF, Stride: 1},
	},
	LatinOffset: 2,
}

// nameCharTable holds the non-ASCII additions NameChar makes to NameStartChar.
//
//	NameChar  ::=  NameStartChar | "-" | "." | [0-9] | #xB7
//	             | [#x0300-#x036F] | [#x203F-#x2040]
var nameCharTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00B7, Hi: 0x00B7, Stride: 1},
		{Lo: 0x0300, Hi: 0x036F, Stride: 1},
		{Lo: 0x203F, Hi: 0x2040, Stride: 1},
	},
	LatinOffset: 1,
}

func isNameStartRune(r rune) bool {
	if r < utf8.RuneSelf {
		return asciiNameStart[r]
	}
	return unicode.Is(nameStartTable, r)
}

func isNameRune(r rune) bool {
	if r < utf8.RuneSelf {
		return asciiNameChar[r]
	}
	return unicode.Is(nameStartTable, r) || unicode.Is(nameCharTable, r)
}

// name parses an XML name.
//
//	Name  ::=  NameStartChar (NameChar)*
//
// By default every byte at or above 0x80 counts as a name byte and the
// result only has to be valid UTF-8. StrictNames checks each decoded rune.
func (p *Parser) name() (string, error) {
	if p.opts.strictNames {
		return p.strictName()
	}
	buf := p.nameBuf[:0]
	for {
		b, err := p.nextByte()
		if err != nil {
			return "", err
		}
		ok := b >= utf8.RuneSelf || asciiNameChar[b]
		if len(buf) == 0 {
			ok = b >= utf8.RuneSelf || asciiNameStart[b]
		}
		if !ok {
			p.unget(b)
			break
		}
		buf = append(buf, b)
		if err := p.checkSize(len(buf)); err != nil {
			return "", err
		}
	}
	p.nameBuf = buf
	if len(buf) == 0 {
		return "", xmlerrors.New(xmlerrors.ErrMalformedName)
	}
	return p.text(buf)
}

func (p *Parser) strictName() (string, error) {
	buf := p.nameBuf[:0]
	for {
		b, err := p.nextByte()
		if err != nil {
			return "", err
		}
		if b < utf8.RuneSelf {
			ok := asciiNameChar[b]
			if len(buf) == 0 {
				ok = asciiNameStart[b]
			}
			if !ok {
				p.unget(b)
				break
			}
			buf = append(buf, b)
		} else {
			r, encoded, err := p.readRune(b)
			if err != nil {
				return "", err
			}
			ok := isNameRune(r)
			if len(buf) == 0 {
				ok = isNameStartRune(r)
			}
			if !ok {
				return "", xmlerrors.Newf(xmlerrors.ErrMalformedName, "invalid name character %U", r)
			}
			buf = append(buf, encoded...)
		}
		if err := p.checkSize(len(buf)); err != nil {
			return "", err
		}
	}
	p.nameBuf = buf
	if len(buf) == 0 {
		return "", xmlerrors.New(xmlerrors.ErrMalformedName)
	}
	return string(buf), nil
}

// readRune reads the continuation bytes of a multi-byte sequence led by lead.
func (p *Parser) readRune(lead byte) (rune, []byte, error) {
	var n int
	switch {
	case lead&0xE0 == 0xC0:
		n = 2
	case lead&0xF0 == 0xE0:
		n = 3
	case lead&0xF8 == 0xF0:
		n = 4
	default:
		return 0, nil, xmlerrors.New(xmlerrors.ErrInvalidUTF8)
	}
	var seq [utf8.UTFMax]byte
	seq[0] = lead
	for i := 1; i < n; i++ {
		b, err := p.nextByte()
		if err != nil {
			return 0, nil, err
		}
		seq[i] = b
	}
	r, size := utf8.DecodeRune(seq[:n])
	if r == utf8.RuneError || size != n {
		return 0, nil, xmlerrors.New(xmlerrors.ErrInvalidUTF8)
	}
	return r, seq[:n], nil
}
