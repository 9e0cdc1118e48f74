package xmlpull

import (
	"io"
	"log/slog"

	xmlerrors "github.com/jacoelho/xmlpull/errors"
	"github.com/jacoelho/xmlpull/internal/bytestream"
)

// Parser pulls tokens from an XML 1.0 document.
//
// A Parser is not safe for concurrent use. After Token returns an error the
// parser is broken and every later call returns the same error.
type Parser struct {
	bytes      *bytestream.Stream
	log        *slog.Logger
	err        error
	declared   map[string]string
	autoClose  string
	transcoded string
	opts       parserOptions
	tags       []string
	expansions []expansion
	textBuf    []byte
	nameBuf    []byte
	lookahead  rawToken
	expanded   int
	state      state
	hasAhead   bool
	hasClose   bool
	doctype    bool
}

// NewParser creates a parser reading the document from r.
func NewParser(r io.Reader, opts ...Options) *Parser {
	resolved := resolveOptions(JoinOptions(opts...))
	p := &Parser{
		bytes: bytestream.New(r),
		opts:  resolved,
		log:   resolved.logger,
		state: stateBegin,
	}
	if resolved.declaredEntities {
		p.declared = make(map[string]string)
	}
	return p
}

// Token returns the next token.
// Once the document is complete it returns an EOF token on every call.
func (p *Parser) Token() (Token, error) {
	if p.err != nil {
		return Token{}, p.err
	}
	tok, err := p.token()
	if err != nil {
		return Token{}, p.fail(err)
	}
	return tok, nil
}

// Line reports the 1-based line of the next unread byte.
func (p *Parser) Line() int {
	return p.bytes.Line()
}

// Depth reports the number of open elements.
func (p *Parser) Depth() int {
	return len(p.tags)
}

func (p *Parser) fail(err error) error {
	perr, ok := xmlerrors.AsError(err)
	if !ok {
		perr = xmlerrors.Wrap(xmlerrors.ErrIO, err)
	}
	if perr.Line == 0 {
		perr.Line = p.bytes.Line()
	}
	p.err = perr
	p.log.Debug("xml parse failed", "state", p.state, "line", perr.Line, "code", perr.Code)
	return perr
}

func (p *Parser) setState(next state) {
	if next == p.state {
		return
	}
	p.log.Debug("xml state", "from", p.state, "to", next, "line", p.bytes.Line())
	p.state = next
}

func (p *Parser) token() (Token, error) {
	for {
		switch p.state {
		// a document may open with a byte order mark and an XML declaration.
		// the declaration must be the very first thing, so it is only looked
		// for when no whitespace precedes it.
		case stateBegin:
			if err := p.byteOrderMark(); err != nil {
				return Token{}, err
			}
			skipped, err := p.whitespace()
			if err != nil {
				return Token{}, err
			}
			if !skipped {
				raw, err := p.rawToken()
				if err != nil {
					return Token{}, err
				}
				if raw.kind != rawXMLDecl {
					p.lookahead = raw
					p.hasAhead = true
				}
			}
			p.setState(stateProlog)

		// skipping whitespace first lets any char data here fail outright
		case stateProlog:
			var raw rawToken
			if p.hasAhead {
				raw = p.lookahead
				p.lookahead = rawToken{}
				p.hasAhead = false
			} else {
				if _, err := p.whitespace(); err != nil {
					return Token{}, err
				}
				var err error
				raw, err = p.rawToken()
				if err != nil {
					return Token{}, err
				}
			}
			switch raw.kind {
			case rawDoctype:
				if p.doctype || raw.doctype != doctypeDecl {
					return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
				}
				p.doctype = true
				if raw.subset {
					p.setState(stateInternalSubset)
				}
			case rawStartTag:
				if err := p.push(raw.tok.Name); err != nil {
					return Token{}, err
				}
				p.setState(stateNormal)
				return raw.tok, nil
			case rawComment:
			case rawProcInst:
				return raw.tok, nil
			default:
				return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
			}

		// declarations are processed while they are parsed, so the events
		// only tell the state machine that work was done
		case stateInternalSubset:
			if _, err := p.whitespace(); err != nil {
				return Token{}, err
			}
			raw, err := p.subsetToken()
			if err != nil {
				return Token{}, err
			}
			switch raw.kind {
			case rawDoctype:
				switch raw.doctype {
				case doctypeSubsetEnd:
					p.setState(stateProlog)
				case doctypeDecl:
					return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
				default:
					p.log.Debug("xml declaration", "kind", raw.doctype, "line", p.bytes.Line())
				}
			case rawComment:
			case rawProcInst:
				return raw.tok, nil
			default:
				return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
			}

		// whitespace between elements is char data from here on
		case stateNormal:
			raw, err := p.rawToken()
			if err != nil {
				return Token{}, err
			}
			switch raw.kind {
			case rawStartTag:
				if err := p.push(raw.tok.Name); err != nil {
					return Token{}, err
				}
				return raw.tok, nil
			case rawEndTag:
				if err := p.pop(raw.tok.Name); err != nil {
					return Token{}, err
				}
				if len(p.tags) == 0 {
					p.setState(stateEpilog)
				}
				return raw.tok, nil
			case rawCharData:
				// entities with empty replacement text can leave nothing behind
				if raw.tok.Text != "" {
					return raw.tok, nil
				}
			case rawComment:
			case rawProcInst:
				return raw.tok, nil
			default:
				return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
			}

		// only misc markup may follow the root element; running out of
		// input between tokens is the clean end of the document
		case stateEpilog:
			if _, err := p.whitespace(); err != nil {
				if xmlerrors.CodeOf(err) == xmlerrors.ErrUnexpectedEOF {
					p.setState(stateEnd)
					return EOF(), nil
				}
				return Token{}, err
			}
			raw, err := p.rawToken()
			if err != nil {
				return Token{}, err
			}
			switch raw.kind {
			case rawComment:
			case rawProcInst:
				return raw.tok, nil
			default:
				return Token{}, xmlerrors.New(xmlerrors.ErrUnexpectedToken)
			}

		case stateEnd:
			return EOF(), nil
		}
	}
}

func (p *Parser) push(name string) error {
	if p.opts.maxDepth > 0 && len(p.tags) >= p.opts.maxDepth {
		return xmlerrors.Newf(xmlerrors.ErrLimitExceeded, "element depth exceeds %d", p.opts.maxDepth)
	}
	p.tags = append(p.tags, name)
	return nil
}

func (p *Parser) pop(name string) error {
	n := len(p.tags)
	if n == 0 {
		return xmlerrors.New(xmlerrors.ErrUnexpectedToken)
	}
	open := p.tags[n-1]
	p.tags = p.tags[:n-1]
	if open != name {
		return xmlerrors.Newf(xmlerrors.ErrMismatchingStartEndTags, "</%s> closes <%s>", name, open)
	}
	return nil
}

// rawToken reads the minimum number of bytes needed to pick the grammar
// function for the next construct.
func (p *Parser) rawToken() (rawToken, error) {
	if p.hasClose {
		name := p.autoClose
		p.autoClose = ""
		p.hasClose = false
		tok := EndTag(name)
		tok.Line = p.bytes.Line()
		return rawToken{kind: rawEndTag, tok: tok}, nil
	}

	line := p.bytes.Line()
	raw, err := p.dispatch()
	if err != nil {
		return rawToken{}, err
	}
	raw.tok.Line = line
	return raw, nil
}

func (p *Parser) dispatch() (rawToken, error) {
	b, err := p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	if b != '<' {
		p.unget(b)
		return p.charData()
	}
	b, err = p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	switch b {
	case '/':
		return p.endTag()
	case '?':
		return p.procInst()
	case '!':
		b, err = p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		switch b {
		case '-':
			return p.comment()
		case '[':
			return p.cdata()
		default:
			p.unget(b)
			return p.doctypeDecl()
		}
	default:
		p.unget(b)
		return p.startTag()
	}
}
