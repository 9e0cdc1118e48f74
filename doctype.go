package xmlpull

import (
	xmlerrors "github.com/jacoelho/xmlpull/errors"
)

// doctypeDecl parses a DOCTYPE header up to '[' or '>'.
// Assumes "<!" has been read.
//
//	doctypedecl  ::=  '<!DOCTYPE' S Name (S ExternalID)? S? ('[' intSubset ']' S?)? '>'
func (p *Parser) doctypeDecl() (rawToken, error) {
	if err := p.requireString("DOCTYPE", xmlerrors.ErrMalformedDoctype); err != nil {
		return rawToken{}, err
	}
	if err := p.requireWhitespace(xmlerrors.ErrMalformedDoctype); err != nil {
		return rawToken{}, err
	}
	name, err := p.name()
	if err != nil {
		return rawToken{}, err
	}
	skipped, err := p.whitespace()
	if err != nil {
		return rawToken{}, err
	}
	b, err := p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	if skipped && (b == 'S' || b == 'P') {
		if err := p.externalID(b); err != nil {
			return rawToken{}, err
		}
		return rawToken{}, xmlerrors.Unsupported(xmlerrors.FeatureExternalEntities)
	}
	p.log.Debug("xml doctype", "name", name, "line", p.bytes.Line())
	switch b {
	case '[':
		return rawToken{kind: rawDoctype, doctype: doctypeDecl, subset: true}, nil
	case '>':
		return rawToken{kind: rawDoctype, doctype: doctypeDecl}, nil
	default:
		return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedDoctype)
	}
}

// subsetToken parses one construct of the internal subset.
//
//	intSubset   ::=  (markupdecl | DeclSep)*
//	markupdecl  ::=  elementdecl | AttlistDecl | EntityDecl | NotationDecl | PI | Comment
//	DeclSep     ::=  PEReference | S
func (p *Parser) subsetToken() (rawToken, error) {
	if p.opts.skipInternalSubset {
		return p.skipSubset()
	}
	b, err := p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	switch b {
	case ']':
		return p.subsetEnd()
	case '%':
		return rawToken{}, xmlerrors.Unsupported(xmlerrors.FeatureParameterEntities)
	case '<':
	default:
		return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedDoctype)
	}

	b, err = p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	switch b {
	case '?':
		return p.procInst()
	case '!':
	default:
		return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedDoctype)
	}

	b, err = p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	switch b {
	case '-':
		return p.comment()
	case 'D':
		if err := p.requireString("OCTYPE", xmlerrors.ErrMalformedDoctype); err != nil {
			return rawToken{}, err
		}
		return rawToken{kind: rawDoctype, doctype: doctypeDecl}, nil
	case 'A':
		if err := p.requireString("TTLIST", xmlerrors.ErrMalformedDoctype); err != nil {
			return rawToken{}, err
		}
		return p.attlistDecl()
	case 'N':
		if err := p.requireString("OTATION", xmlerrors.ErrMalformedDoctype); err != nil {
			return rawToken{}, err
		}
		return rawToken{}, xmlerrors.Unsupported(xmlerrors.FeatureNotations)
	case 'E':
	default:
		return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedDoctype)
	}

	b, err = p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	switch b {
	case 'N':
		if err := p.requireString("TITY", xmlerrors.ErrMalformedDoctype); err != nil {
			return rawToken{}, err
		}
		return p.entityDecl()
	case 'L':
		if err := p.requireString("EMENT", xmlerrors.ErrMalformedDoctype); err != nil {
			return rawToken{}, err
		}
		return p.elementDecl()
	default:
		return rawToken{}, xmlerrors.New(xmlerrors.ErrMalformedDoctype)
	}
}

// subsetEnd finishes the DOCTYPE declaration. Assumes ']' has been read.
func (p *Parser) subsetEnd() (rawToken, error) {
	if _, err := p.whitespace(); err != nil {
		return rawToken{}, err
	}
	if err := p.requireByte('>', xmlerrors.ErrMalformedDoctype); err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawDoctype, doctype: doctypeSubsetEnd}, nil
}

// entityDecl parses a general entity declaration.
// Assumes "<!ENTITY" has been read.
//
//	GEDecl     ::=  '<!ENTITY' S Name S EntityDef S? '>'
//	PEDecl     ::=  '<!ENTITY' S '%' S Name S PEDef S? '>'
//	EntityDef  ::=  EntityValue | (ExternalID NDataDecl?)
func (p *Parser) entityDecl() (rawToken, error) {
	if err := p.requireWhitespace(xmlerrors.ErrMalformedEntityDecl); err != nil {
		return rawToken{}, err
	}
	b, err := p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	if b == '%' {
		return rawToken{}, xmlerrors.Unsupported(xmlerrors.FeatureParameterEntities)
	}
	p.unget(b)
	name, err := p.name()
	if err != nil {
		return rawToken{}, err
	}
	if err := p.requireWhitespace(xmlerrors.ErrMalformedEntityDecl); err != nil {
		return rawToken{}, err
	}
	b, err = p.nextByte()
	if err != nil {
		return rawToken{}, err
	}
	if b == 'S' || b == 'P' {
		if err := p.externalID(b); err != nil {
			return rawToken{}, err
		}
		return rawToken{}, xmlerrors.Unsupported(xmlerrors.FeatureExternalEntities)
	}
	p.unget(b)
	value, err := p.expandedText(textEntityValue)
	if err != nil {
		return rawToken{}, err
	}
	if _, err := p.whitespace(); err != nil {
		return rawToken{}, err
	}
	if err := p.requireByte('>', xmlerrors.ErrMalformedEntityDecl); err != nil {
		return rawToken{}, err
	}
	p.declare(name, value)
	return rawToken{kind: rawDoctype, doctype: doctypeEntityDecl}, nil
}

// declare records an entity when declared entities are enabled.
// The first declaration of a name is binding.
func (p *Parser) declare(name, value string) {
	if p.declared == nil {
		return
	}
	if _, ok := predefinedEntities[name]; ok {
		return
	}
	if _, ok := p.declared[name]; ok {
		p.log.Debug("xml entity redeclared", "name", name, "line", p.bytes.Line())
		return
	}
	p.declared[name] = value
	p.log.Debug("xml entity declared", "name", name, "line", p.bytes.Line())
}

// elementDecl consumes an element type declaration.
// Assumes "<!ELEMENT" has been read.
//
//	elementdecl  ::=  '<!ELEMENT' S Name S contentspec S? '>'
func (p *Parser) elementDecl() (rawToken, error) {
	if err := p.requireWhitespace(xmlerrors.ErrMalformedElementDecl); err != nil {
		return rawToken{}, err
	}
	if _, err := p.name(); err != nil {
		return rawToken{}, err
	}
	if err := p.requireWhitespace(xmlerrors.ErrMalformedElementDecl); err != nil {
		return rawToken{}, err
	}
	if err := p.skipDecl(); err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawDoctype, doctype: doctypeElementDecl}, nil
}

// attlistDecl consumes an attribute-list declaration.
// Assumes "<!ATTLIST" has been read.
//
//	AttlistDecl  ::=  '<!ATTLIST' S Name AttDef* S? '>'
func (p *Parser) attlistDecl() (rawToken, error) {
	if err := p.requireWhitespace(xmlerrors.ErrMalformedAttlistDecl); err != nil {
		return rawToken{}, err
	}
	if _, err := p.name(); err != nil {
		return rawToken{}, err
	}
	if err := p.skipDecl(); err != nil {
		return rawToken{}, err
	}
	return rawToken{kind: rawDoctype, doctype: doctypeAttlistDecl}, nil
}

// skipDecl skips to the '>' that closes a declaration. Quoted strings
// may contain '>'.
func (p *Parser) skipDecl() error {
	for {
		b, err := p.nextByte()
		if err != nil {
			return err
		}
		switch b {
		case '>':
			return nil
		case '"', '\'':
			if err := p.skipQuoted(b); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) skipQuoted(quote byte) error {
	for {
		b, err := p.nextByte()
		if err != nil {
			return err
		}
		if b == quote {
			return nil
		}
	}
}
