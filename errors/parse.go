package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies one kind of XML parse failure.
// The set is closed: every error returned by the parser carries one of these.
type ErrorCode string

const (
	// ErrMalformedAttValue indicates a bad attribute value (missing quote or literal '<').
	ErrMalformedAttValue ErrorCode = "xml-malformed-att-value"
	// ErrMalformedAttlistDecl indicates a bad <!ATTLIST> declaration.
	ErrMalformedAttlistDecl ErrorCode = "xml-malformed-attlist-decl"
	// ErrMalformedByteOrderMark indicates a truncated UTF-8 byte order mark.
	ErrMalformedByteOrderMark ErrorCode = "xml-malformed-bom"
	// ErrMalformedCData indicates a bad CDATA section opener.
	ErrMalformedCData ErrorCode = "xml-malformed-cdata"
	// ErrMalformedCharData indicates ']]>' in character data.
	ErrMalformedCharData ErrorCode = "xml-malformed-char-data"
	// ErrMalformedCharRef indicates a bad or out-of-range character reference.
	ErrMalformedCharRef ErrorCode = "xml-malformed-char-ref"
	// ErrMalformedComment indicates a bad comment.
	ErrMalformedComment ErrorCode = "xml-malformed-comment"
	// ErrMalformedDoctype indicates a bad DOCTYPE declaration or internal subset markup.
	ErrMalformedDoctype ErrorCode = "xml-malformed-doctype"
	// ErrMalformedElementDecl indicates a bad <!ELEMENT> declaration.
	ErrMalformedElementDecl ErrorCode = "xml-malformed-element-decl"
	// ErrMalformedEmptyElemTag indicates '/' not followed by '>' in a tag.
	ErrMalformedEmptyElemTag ErrorCode = "xml-malformed-empty-elem-tag"
	// ErrMalformedEndTag indicates a bad end tag.
	ErrMalformedEndTag ErrorCode = "xml-malformed-end-tag"
	// ErrMalformedEntityDecl indicates a bad <!ENTITY> declaration.
	ErrMalformedEntityDecl ErrorCode = "xml-malformed-entity-decl"
	// ErrMalformedEntityRef indicates a bad or recursive entity reference.
	ErrMalformedEntityRef ErrorCode = "xml-malformed-entity-ref"
	// ErrMalformedEntityValue indicates a bad entity value literal.
	ErrMalformedEntityValue ErrorCode = "xml-malformed-entity-value"
	// ErrMalformedEq indicates a missing '='.
	ErrMalformedEq ErrorCode = "xml-malformed-eq"
	// ErrMalformedExternalEntity indicates a bad SYSTEM or PUBLIC identifier.
	ErrMalformedExternalEntity ErrorCode = "xml-malformed-external-entity"
	// ErrMalformedName indicates an empty or invalid name.
	ErrMalformedName ErrorCode = "xml-malformed-name"
	// ErrMalformedProcInst indicates a bad processing instruction or reserved target.
	ErrMalformedProcInst ErrorCode = "xml-malformed-proc-inst"
	// ErrMalformedStartTag indicates a bad start tag.
	ErrMalformedStartTag ErrorCode = "xml-malformed-start-tag"
	// ErrMalformedSystemLiteral indicates a bad system or public identifier literal.
	ErrMalformedSystemLiteral ErrorCode = "xml-malformed-system-literal"
	// ErrMalformedVersionLiteral indicates a version other than 1.x.
	ErrMalformedVersionLiteral ErrorCode = "xml-malformed-version-literal"
	// ErrMalformedXMLDecl indicates a bad XML declaration.
	ErrMalformedXMLDecl ErrorCode = "xml-malformed-xml-decl"
	// ErrMalformedYesNoLiteral indicates a standalone value other than yes or no.
	ErrMalformedYesNoLiteral ErrorCode = "xml-malformed-yes-no-literal"

	// ErrMismatchingStartEndTags indicates an end tag that does not close the open element.
	ErrMismatchingStartEndTags ErrorCode = "xml-mismatching-tags"
	// ErrUnexpectedToken indicates a token that is not allowed at the current position.
	ErrUnexpectedToken ErrorCode = "xml-unexpected-token"
	// ErrUnexpectedEOF indicates the input ended inside a construct or element.
	ErrUnexpectedEOF ErrorCode = "xml-unexpected-eof"

	// ErrUnsupportedEncoding indicates a non-UTF-8 document with no charset reader.
	ErrUnsupportedEncoding ErrorCode = "xml-unsupported-encoding"
	// ErrUnsupportedFeature indicates a recognized but unimplemented construct.
	ErrUnsupportedFeature ErrorCode = "xml-unsupported-feature"
	// ErrUnmappedEntityRef indicates an entity reference with no replacement text.
	ErrUnmappedEntityRef ErrorCode = "xml-unmapped-entity-ref"
	// ErrLimitExceeded indicates a configured parser limit was hit.
	ErrLimitExceeded ErrorCode = "xml-limit-exceeded"

	// ErrIO indicates the underlying reader failed.
	ErrIO ErrorCode = "xml-io"
	// ErrInvalidUTF8 indicates decoded text is not valid UTF-8.
	ErrInvalidUTF8 ErrorCode = "xml-invalid-utf8"
)

// Feature names an XML feature that the parser recognizes but does not implement.
type Feature string

const (
	// FeatureExternalEntities covers SYSTEM and PUBLIC identifiers.
	FeatureExternalEntities Feature = "external-entities"
	// FeatureParameterEntities covers %name; references and declarations.
	FeatureParameterEntities Feature = "parameter-entities"
	// FeatureNotations covers <!NOTATION> declarations.
	FeatureNotations Feature = "notations"
)

var messages = map[ErrorCode]string{
	ErrMalformedAttValue:       "malformed attribute value",
	ErrMalformedAttlistDecl:    "malformed attribute list declaration",
	ErrMalformedByteOrderMark:  "malformed byte order mark",
	ErrMalformedCData:          "malformed CDATA section",
	ErrMalformedCharData:       "malformed character data",
	ErrMalformedCharRef:        "malformed character reference",
	ErrMalformedComment:        "malformed comment",
	ErrMalformedDoctype:        "malformed document type declaration",
	ErrMalformedElementDecl:    "malformed element declaration",
	ErrMalformedEmptyElemTag:   "malformed empty element tag",
	ErrMalformedEndTag:         "malformed end tag",
	ErrMalformedEntityDecl:     "malformed entity declaration",
	ErrMalformedEntityRef:      "malformed entity reference",
	ErrMalformedEntityValue:    "malformed entity value",
	ErrMalformedEq:             "expected '='",
	ErrMalformedExternalEntity: "malformed external identifier",
	ErrMalformedName:           "malformed name",
	ErrMalformedProcInst:       "malformed processing instruction",
	ErrMalformedStartTag:       "malformed start tag",
	ErrMalformedSystemLiteral:  "malformed system literal",
	ErrMalformedVersionLiteral: "malformed version literal",
	ErrMalformedXMLDecl:        "malformed XML declaration",
	ErrMalformedYesNoLiteral:   "malformed standalone literal",
	ErrMismatchingStartEndTags: "end tag does not match start tag",
	ErrUnexpectedToken:         "unexpected token",
	ErrUnexpectedEOF:           "unexpected end of input",
	ErrUnsupportedEncoding:     "unsupported encoding",
	ErrUnsupportedFeature:      "unsupported feature",
	ErrUnmappedEntityRef:       "undefined entity",
	ErrLimitExceeded:           "limit exceeded",
	ErrIO:                      "read failed",
	ErrInvalidUTF8:             "invalid UTF-8",
}

// Message returns the human readable description of the code.
func (c ErrorCode) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return string(c)
}

// Error describes a fatal XML parse failure with its code and line context.
type Error struct {
	Err     error
	Code    ErrorCode
	Feature Feature
	Detail  string
	Line    int
}

// New builds an Error for code.
func New(code ErrorCode) *Error {
	return &Error{Code: code}
}

// Newf builds an Error for code with a formatted detail message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Unsupported builds an ErrUnsupportedFeature error for feature.
func Unsupported(feature Feature) *Error {
	return &Error{Code: ErrUnsupportedFeature, Feature: feature}
}

// Wrap builds an Error for code that wraps a cause.
func Wrap(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Error formats the failure for display, including code, feature, detail and line.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Code.Message()))
	if e.Feature != "" {
		b.WriteString(fmt.Sprintf(" (%s)", e.Feature))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Line > 0 {
		b.WriteString(fmt.Sprintf(" at line %d", e.Line))
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error with the same code and feature.
// A target without a feature matches any feature.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Feature == "" || t.Feature == e.Feature
}

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// CodeOf returns the code carried by err, or "" when err is not a parse error.
func CodeOf(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// FeatureOf returns the unsupported feature carried by err, or "".
func FeatureOf(err error) Feature {
	if e, ok := AsError(err); ok {
		return e.Feature
	}
	return ""
}
