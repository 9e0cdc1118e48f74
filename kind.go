package xmlpull

// Kind identifies the kind of a public token.
type Kind byte

const (
	KindNone Kind = iota
	KindStartTag
	KindEndTag
	KindCharData
	KindProcInst
	KindEOF
)

// String returns a stable name for the kind, suitable for debugging.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindStartTag:
		return "StartTag"
	case KindEndTag:
		return "EndTag"
	case KindCharData:
		return "CharData"
	case KindProcInst:
		return "ProcInst"
	case KindEOF:
		return "EOF"
	default:
		return "Unknown"
	}
}
