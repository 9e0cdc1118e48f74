package main

import (
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// charsetReader decodes the rest of a document once the parser has seen a
// UTF-16 byte order mark or a non-UTF-8 encoding declaration.
func charsetReader(label string, r io.Reader) (io.Reader, error) {
	decoded, err := charset.NewReaderLabel(label, r)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	return decoded, nil
}

// decodeInput converts the whole input to UTF-8 when label is set.
func decodeInput(r io.Reader, label string) (io.Reader, error) {
	if label == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("encoding %q: %w", label, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// alreadyDecoded accepts the declared encoding of input that decodeInput
// has converted to UTF-8.
func alreadyDecoded(_ string, r io.Reader) (io.Reader, error) {
	return r, nil
}
