package xmlpull

import (
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

// skipSubset scans to the end of the internal subset without interpreting
// declarations. Quoted strings, comments and processing instructions may
// contain ']' and are skipped whole.
func (p *Parser) skipSubset() (rawToken, error) {
	p.log.Debug("xml internal subset skipped", "line", p.bytes.Line())
	for {
		b, err := p.nextByte()
		if err != nil {
			return rawToken{}, err
		}
		switch b {
		case ']':
			return p.subsetEnd()
		case '"', '\'':
			if err := p.skipQuoted(b); err != nil {
				return rawToken{}, err
			}
		case '<':
			if err := p.skipMarkup(); err != nil {
				return rawToken{}, err
			}
		}
	}
}

// skipMarkup skips a comment or processing instruction. Assumes '<' has
// been read; declarations are left to the caller's scan.
func (p *Parser) skipMarkup() error {
	b, err := p.nextByte()
	if err != nil {
		return err
	}
	switch b {
	case '?':
		return p.skipUntil("?>")
	case '!':
	default:
		p.unget(b)
		return nil
	}
	b, err = p.nextByte()
	if err != nil {
		return err
	}
	if b != '-' {
		p.unget(b)
		return nil
	}
	if err := p.requireByte('-', xmlerrors.ErrMalformedComment); err != nil {
		return err
	}
	return p.skipUntil("-->")
}

func (p *Parser) skipUntil(end string) error {
	matched := 0
	for matched < len(end) {
		b, err := p.nextByte()
		if err != nil {
			return err
		}
		switch {
		case b == end[matched]:
			matched++
		case b == end[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	return nil
}
