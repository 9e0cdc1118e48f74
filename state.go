package xmlpull

// state is the structural position of the parser in the document.
// Each state accepts a different set of raw tokens.
type state byte

const (
	// before the byte order mark and optional XML declaration
	stateBegin state = iota
	// between the XML declaration and the root element
	stateProlog
	// inside the '[' ... ']' part of a DOCTYPE declaration
	stateInternalSubset
	// inside the root element
	stateNormal
	// after the root element
	stateEpilog
	// after a clean end of input
	stateEnd
)

func (s state) String() string {
	switch s {
	case stateBegin:
		return "begin"
	case stateProlog:
		return "prolog"
	case stateInternalSubset:
		return "internal-subset"
	case stateNormal:
		return "normal"
	case stateEpilog:
		return "epilog"
	case stateEnd:
		return "end"
	default:
		return "unknown"
	}
}

type rawKind byte

const (
	rawNone rawKind = iota
	rawXMLDecl
	rawComment
	rawProcInst
	rawDoctype
	rawStartTag
	rawEndTag
	rawCharData
)

// doctypeEvent reports which DOCTYPE construct was consumed.
// Declarations are processed while they are parsed, so events carry no payload.
type doctypeEvent byte

const (
	doctypeNone doctypeEvent = iota
	doctypeDecl
	doctypeEntityDecl
	doctypeElementDecl
	doctypeAttlistDecl
	doctypeNotationDecl
	doctypeSubsetEnd
)

func (e doctypeEvent) String() string {
	switch e {
	case doctypeDecl:
		return "DOCTYPE"
	case doctypeEntityDecl:
		return "ENTITY"
	case doctypeElementDecl:
		return "ELEMENT"
	case doctypeAttlistDecl:
		return "ATTLIST"
	case doctypeNotationDecl:
		return "NOTATION"
	case doctypeSubsetEnd:
		return "]>"
	default:
		return "none"
	}
}

// rawToken is a parse event that has not been checked against the state.
type rawToken struct {
	tok     Token
	kind    rawKind
	doctype doctypeEvent
	// subset reports whether a DOCTYPE declaration opened an internal subset.
	subset bool
}
