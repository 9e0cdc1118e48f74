// Package bytestream provides the newline-normalizing byte reader used by the
// XML parser, with a LIFO push-back buffer that takes priority over the source.
package bytestream

import (
	"bufio"
	"errors"
	"io"
)

const readerBufferSize = 64 * 1024

var errPendingBytes = errors.New("bytestream: transcode with pending bytes")

// Stream reads logical bytes from a source.
// Every "\n", "\r" and "\r\n" in the source is delivered as a single '\n'.
// Bytes pushed back with Unget or UngetMany are assumed normalized already.
type Stream struct {
	src     io.ByteReader
	pending []byte
	line    int
	origin  int
	last    byte
	newline bool
	// a source newline pushed back while its line was still pending;
	// it sits at pending index 0 and restores newline when read again
	heldNewline bool
}

// New wraps r. Readers that already implement io.ByteReader are used directly.
func New(r io.Reader) *Stream {
	s := &Stream{line: 1, origin: -1}
	s.src = byteReader(r)
	return s
}

func byteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return bufio.NewReaderSize(r, readerBufferSize)
}

// Next returns the next logical byte.
// It returns io.EOF when the source is exhausted and nothing is pending.
func (s *Stream) Next() (byte, error) {
	if n := len(s.pending); n > 0 {
		b := s.pending[n-1]
		s.pending = s.pending[:n-1]
		s.origin = n - 1
		if n == 1 && s.heldNewline {
			s.heldNewline = false
			s.newline = true
		}
		return b, nil
	}
	s.origin = -1
	if s.newline {
		s.newline = false
		s.line++
	}
	for {
		b, err := s.src.ReadByte()
		if err != nil {
			return 0, err
		}
		last := s.last
		s.last = b
		switch b {
		case '\n':
			if last == '\r' {
				// second half of "\r\n", already delivered
				continue
			}
			s.newline = true
			return '\n', nil
		case '\r':
			s.newline = true
			return '\n', nil
		default:
			return b, nil
		}
	}
}

// Unget pushes b back so the next call to Next returns it.
// Pushing back the newline just read from the source keeps Line on the
// newline's own line until it is read again.
func (s *Stream) Unget(b byte) {
	if b == '\n' && s.newline && s.origin <= 0 && len(s.pending) == 0 {
		s.newline = false
		s.heldNewline = true
	}
	s.pending = append(s.pending, b)
}

// UngetMany pushes p back so the following reads replay it in order.
func (s *Stream) UngetMany(p []byte) {
	for i := len(p) - 1; i >= 0; i-- {
		s.pending = append(s.pending, p[i])
	}
}

// Pending reports how many pushed-back bytes remain.
func (s *Stream) Pending() int {
	return len(s.pending)
}

// Origin reports the push-back index the last byte was taken from,
// or -1 when it came from the source.
func (s *Stream) Origin() int {
	return s.origin
}

// Line reports the 1-based line of the next source byte.
func (s *Stream) Line() int {
	if s.newline {
		return s.line + 1
	}
	return s.line
}

// Transcode replaces the rest of the source with the reader returned by fn.
// It fails when bytes are still pending, since those were decoded already.
func (s *Stream) Transcode(fn func(io.Reader) (io.Reader, error)) error {
	if len(s.pending) > 0 {
		return errPendingBytes
	}
	decoded, err := fn(byteSource{s.src})
	if err != nil {
		return err
	}
	s.src = byteReader(decoded)
	s.last = 0
	return nil
}

// byteSource adapts the current io.ByteReader back into an io.Reader without
// losing bytes already buffered inside it.
type byteSource struct {
	br io.ByteReader
}

func (b byteSource) Read(p []byte) (int, error) {
	if r, ok := b.br.(io.Reader); ok {
		return r.Read(p)
	}
	n := 0
	for n < len(p) {
		c, err := b.br.ReadByte()
		if err != nil {
			if n > 0 && errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, err
		}
		p[n] = c
		n++
	}
	return n, nil
}
