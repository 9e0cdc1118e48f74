package xmlpull

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

var (
	litCDEnd = []byte("]]>")
	litPIEnd = []byte("?>")
)

// byteOrderMark consumes a UTF-8 byte order mark if one is present.
//
//	Bytes         Encoding form
//	EF BB BF      UTF-8
//	FE FF         UTF-16, big-endian
//	FF FE         UTF-16, little-endian
//	00 00 FE FF   UTF-32, big-endian
//	FF FE 00 00   UTF-32, little-endian
func (p *Parser) byteOrderMark() error {
	b, err := p.nextByte()
	if err != nil {
		return err
	}
	switch b {
	case 0xEF:
		if err := p.requireString("\xBB\xBF", xmlerrors.ErrMalformedByteOrderMark); err != nil {
			return err
		}
		return nil
	case 0xFE:
		return p.utf16ByteOrderMark(0xFF, "utf-16be")
	case 0xFF:
		return p.utf16ByteOrderMark(0xFE, "utf-16le")
	case 0x00:
		return xmlerrors.New(xmlerrors.ErrUnsupportedEncoding)
	default:
		p.unget(b)
		return nil
	}
}

func (p *Parser) utf16ByteOrderMark(second byte, label string) error {
	if p.opts.charsetReader == nil {
		return xmlerrors.New(xmlerrors.ErrUnsupportedEncoding)
	}
	if err := p.requireByte(second, xmlerrors.ErrUnsupportedEncoding); err != nil {
		return err
	}
	if err := p.transcode(label); err != nil {
		return err
	}
	// FF FE 00 00 is UTF-32, which decodes as a leading U+0000
	b, err := p.nextByte()
	if err != nil {
		return err
	}
	if b == 0 {
		return xmlerrors.New(xmlerrors.ErrUnsupportedEncoding)
	}
	p.unget(b)
	return nil
}

func (p *Parser) transcode(label string) error {
	err := p.bytes.Transcode(func(r io.Reader) (io.Reader, error) {
		decoded, err := p.opts.charsetReader(label, r)
		if err != nil {
			return nil, err
		}
		if decoded == nil {
			return nil, errors.New("no reader for " + label)
		}
		return decoded, nil
	})
	if err != nil {
		return xmlerrors.Wrap(xmlerrors.ErrUnsupportedEncoding, err)
	}
	p.transcoded = label
	p.log.Debug("xml charset", "label", label, "line", p.bytes.Line())
	return nil
}

// comment parses a comment and discards its text.
// Assumes "<!-" has been read.
//
//	Comment  ::=  '<!--' ((Char - '-') | ('-' (Char - '-')))* '-->'
func (p *Parser) comment() (rawToken, error) {
	if err := p.requireByte('-', xmlerrors.ErrMalformedComment); err != nil {
		return rawToken{}, err
	}
	for {
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		if b != '-' {
			continue
		}
		dash, err := p.nextIs('-')
		if err != nil {
			return rawToken{}, err
		}
		if dash {
			if err := p.requireByte('>', xmlerrors.ErrMalformedComment); err != nil {
				return rawToken{}, err
			}
			return rawToken{kind: rawComment}, nil
		}
	}
}

// procInst parses a processing instruction or the XML declaration.
// Assumes "<?" has been read.
//
//	PI        ::=  '<?' PITarget (S (Char* - (Char* '?>' Char*)))? '?>'
//	PITarget  ::=  Name - (('X' | 'x') ('M' | 'm') ('L' | 'l'))
func (p *Parser) procInst() (rawToken, error) {
	target, err := p.name()
	if err != nil {
		return rawToken{}, err
	}
	if len(target) >= 3 && strings.EqualFold(target[:3], "xml") {
		if target == "xml" {
			return p.xmlDecl()
		}
		return rawToken{}, xmlerrors.Newf(xmlerrors.ErrMalformedProcInst, "reserved target %q", target)
	}

	skipped, err := p.whitespace()
	if err != nil {
		return rawToken{}, err
	}
	if !skipped {
		if err := p.requireString("?>", xmlerrors.ErrMalformedProcInst); err != nil {
			return rawToken{}, err
		}
		return rawToken{kind: rawProcInst, tok: ProcInst(target, "")}, nil
	}

	buf := p.textBuf[:0]
	for !bytes.HasSuffix(buf, litPIEnd) {
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		buf = append(buf, b)
		if err := p.checkSize(len(buf) - len(litPIEnd)); err != nil {
			return rawToken{}, err
		}
	}
	p.textBuf = buf
	inst, err := p.text(buf[:len(buf)-len(litPIEnd)])
	if err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawProcInst, tok: ProcInst(target, inst)}, nil
}

// xmlDecl parses the XML declaration.
// Assumes "<?xml" has been read.
//
//	XMLDecl       ::=  '<?xml' VersionInfo EncodingDecl? SDDecl? S? '?>'
//	VersionInfo   ::=  S 'version' Eq VersLiteral
//	EncodingDecl  ::=  S 'encoding' Eq EncLiteral
//	SDDecl        ::=  S 'standalone' Eq YesNoLiteral
func (p *Parser) xmlDecl() (rawToken, error) {
	if err := p.requireWhitespace(xmlerrors.ErrMalformedXMLDecl); err != nil {
		return rawToken{}, err
	}
	if err := p.requireString("version", xmlerrors.ErrMalformedXMLDecl); err != nil {
		return rawToken{}, err
	}
	if err := p.equals(); err != nil {
		return rawToken{}, err
	}
	if err := p.versionLiteral(); err != nil {
		return rawToken{}, err
	}

	var encoding string
	var hasEncoding, hasStandalone bool
	for {
		skipped, err := p.whitespace()
		if err != nil {
			return rawToken{}, err
		}
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		switch {
		case b == 'e' && skipped && !hasEncoding && !hasStandalone:
			if err := p.requireString("ncoding", xmlerrors.ErrMalformedXMLDecl); err != nil {
				return rawToken{}, err
			}
			if err := p.equals(); err != nil {
				return rawToken{}, err
			}
			encoding, err = p.encodingLiteral()
			if err != nil {
				return rawToken{}, err
			}
			hasEncoding = true
		case b == 's' && skipped && !hasStandalone:
			if err := p.requireString("tandalone", xmlerrors.ErrMalformedXMLDecl); err != nil {
				return rawToken{}, err
			}
			if err := p.equals(); err != nil {
				return rawToken{}, err
			}
			if _, err := p.yesNoLiteral(); err != nil {
				return rawToken{}, err
			}
			hasStandalone = true
		case b == '?':
			if err := p.requireByte('>', xmlerrors.ErrMalformedXMLDecl); err != nil {
				return rawToken{}, err
			}
			if hasEncoding && p.state == stateBegin {
				if err := p.declaredEncoding(encoding); err != nil {
					return rawToken{}, err
				}
			}
			return rawToken{kind: rawXMLDecl}, nil
		default:
			return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedXMLDecl)
		}
	}
}

func (p *Parser) declaredEncoding(encoding string) error {
	label := strings.ToLower(encoding)
	if label == "utf-8" || p.transcoded != "" {
		return nil
	}
	if p.opts.charsetReader == nil || strings.HasPrefix(label, "utf-16") {
		return xmlerrors.Newf(xmlerrors.ErrUnsupportedEncoding, "%s", encoding)
	}
	return p.transcode(label)
}

// startTag parses a start tag or empty element tag.
// Assumes "<" has been read.
//
//	EmptyElemTag  ::=  '<' Name (S Attribute)* S? '/>'
//	STag          ::=  '<' Name (S Attribute)* S? '>'
func (p *Parser) startTag() (rawToken, error) {
	name, err := p.name()
	if err != nil {
		return rawToken{}, err
	}
	var attrs []Attr
	for {
		skipped, err := p.whitespace()
		if err != nil {
			return rawToken{}, err
		}
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		switch {
		case b == '/':
			if err := p.requireByte('>', xmlerrors.ErrMalformedEmptyElemTag); err != nil {
				return rawToken{}, err
			}
			p.autoClose = name
			p.hasClose = true
			return rawToken{kind: rawStartTag, tok: StartTag(name, attrs...)}, nil
		case b == '>':
			return rawToken{kind: rawStartTag, tok: StartTag(name, attrs...)}, nil
		case skipped:
			p.unget(b)
			attr, err := p.attr()
			if err != nil {
				return rawToken{}, err
			}
			for _, seen := range attrs {
				if seen.Name == attr.Name {
					return rawToken{}, xmlerrors.Newf(xmlerrors.ErrMalformedStartTag, "duplicate attribute %q", attr.Name)
				}
			}
			attrs = append(attrs, attr)
		default:
			return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedStartTag)
		}
	}
}

// attr parses one attribute.
//
//	Attribute  ::=  Name Eq AttValue
func (p *Parser) attr() (Attr, error) {
	name, err := p.name()
	if err != nil {
		return Attr{}, err
	}
	if err := p.equals(); err != nil {
		return Attr{}, err
	}
	value, err := p.expandedText(textAttValue)
	if err != nil {
		return Attr{}, err
	}
	return Attr{Name: name, Value: value}, nil
}

// endTag parses an end tag.
// Assumes "</" has been read.
//
//	ETag  ::=  '</' Name S? '>'
func (p *Parser) endTag() (rawToken, error) {
	name, err := p.name()
	if err != nil {
		return rawToken{}, err
	}
	if _, err := p.whitespace(); err != nil {
		return rawToken{}, err
	}
	if err := p.requireByte('>', xmlerrors.ErrMalformedEndTag); err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawEndTag, tok: EndTag(name)}, nil
}

// charData parses text up to the next markup with references expanded.
//
//	content   ::=  CharData? ((Reference) CharData?)*
//	CharData  ::=  [^<&]* - ([^<&]* ']]>' [^<&]*)
func (p *Parser) charData() (rawToken, error) {
	text, err := p.expandedText(textCharData)
	if err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawCharData, tok: CharData(text)}, nil
}

// cdata parses a CDATA section verbatim.
// Assumes "<![" has been read.
//
//	CDSect   ::=  CDStart CData CDEnd
//	CDStart  ::=  '<![CDATA['
//	CData    ::=  (Char* - (Char* ']]>' Char*))
//	CDEnd    ::=  ']]>'
func (p *Parser) cdata() (rawToken, error) {
	if err := p.requireString("CDATA[", xmlerrors.ErrMalformedCData); err != nil {
		return rawToken{}, err
	}
	buf := p.textBuf[:0]
	for !bytes.HasSuffix(buf, litCDEnd) {
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		buf = append(buf, b)
		if err := p.checkSize(len(buf) - len(litCDEnd)); err != nil {
			return rawToken{}, err
		}
	}
	p.textBuf = buf
	text, err := p.text(buf[:len(buf)-len(litCDEnd)])
	if err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawCharData, tok: CharData(text)}, nil
}

// whitespace skips whitespace and reports whether anything was skipped,
// which tells optional and mandatory whitespace apart.
//
//	S  ::=  (#x20 | #x9 | #xD | #xA)+
func (p *Parser) whitespace() (bool, error) {
	skipped := false
	for {
		b, err := p.nextByte()
		if err != nil {
			return skipped, err
		}
		if !isWhitespace(b) {
			p.unget(b)
			return skipped, nil
		}
		skipped = true
	}
}

// equals consumes an equals sign with optional surrounding whitespace.
//
//	Eq  ::=  S? '=' S?
func (p *Parser) equals() error {
	if _, err := p.whitespace(); err != nil {
		return err
	}
	if err := p.requireByte('=', xmlerrors.ErrMalformedEq); err != nil {
		return err
	}
	_, err := p.whitespace()
	return err
}

func (p *Parser) nextByte() (byte, error) {
	b, err := p.bytes.Next()
	if err == nil {
		if len(p.expansions) > 0 {
			if origin := p.bytes.Origin(); origin >= 0 {
				p.retire(origin)
			}
		}
		return b, nil
	}
	if errors.Is(err, io.EOF) {
		return 0, xmlerrors.New(xmlerrors.ErrUnexpectedEOF)
	}
	return 0, xmlerrors.Wrap(xmlerrors.ErrIO, err)
}

func (p *Parser) unget(b byte) {
	p.bytes.Unget(b)
}

func (p *Parser) nextIs(want byte) (bool, error) {
	b, err := p.nextByte()
	if err != nil {
		return false, err
	}
	return b == want, nil
}

func (p *Parser) requireByte(want byte, code xmlerrors.ErrorCode) error {
	ok, err := p.nextIs(want)
	if err != nil {
		return err
	}
	if !ok {
		return xmlerrors.New(code)
	}
	return nil
}

// requireString leaves the stream mid-literal on mismatch, which is fine
// because every error is fatal.
func (p *Parser) requireString(want string, code xmlerrors.ErrorCode) error {
	for i := 0; i < len(want); i++ {
		if err := p.requireByte(want[i], code); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) requireWhitespace(code xmlerrors.ErrorCode) error {
	skipped, err := p.whitespace()
	if err != nil {
		return err
	}
	if !skipped {
		return xmlerrors.New(code)
	}
	return nil
}

func (p *Parser) checkSize(n int) error {
	if p.opts.maxTokenSize > 0 && n > p.opts.maxTokenSize {
		return xmlerrors.Newf(xmlerrors.ErrLimitExceeded, "token exceeds %d bytes", p.opts.maxTokenSize)
	}
	return nil
}

// text converts decoded bytes into a string, rejecting invalid UTF-8.
func (p *Parser) text(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", xmlerrors.New(xmlerrors.ErrInvalidUTF8)
	}
	return string(data), nil
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
