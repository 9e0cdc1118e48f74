// Package xmlpull implements a streaming pull parser for XML 1.0 documents.
//
// A Parser reads bytes from an io.Reader and returns one Token per call to
// Token: start tags with their attributes, end tags, character data and
// processing instructions. An empty element tag is reported as a start tag
// immediately followed by its end tag. Comments, the XML declaration and
// the DOCTYPE declaration are consumed without producing tokens.
//
// Character references and the five predefined entities are always
// expanded. Further entities can be supplied with WithEntityMap or taken
// from the internal DOCTYPE subset with DeclaredEntities; their replacement
// text is parsed again where it is referenced.
//
// External entities, parameter entities and notations are recognized and
// rejected with an UnsupportedFeature error. Every error is fatal: once
// Token fails, the parser keeps returning the same error.
package xmlpull
