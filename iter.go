package xmlpull

import "iter"

// All returns a sequence over the remaining tokens.
// The sequence stops before the EOF token, or after yielding the first error.
func (p *Parser) All() iter.Seq2[Token, error] {
	return func(yield func(Token, error) bool) {
		for {
			tok, err := p.Token()
			if err != nil {
				yield(Token{}, err)
				return
			}
			if tok.Kind == KindEOF {
				return
			}
			if !yield(tok, nil) {
				return
			}
		}
	}
}
