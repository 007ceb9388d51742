package codec

import (
	"bytes"
	"io"

	"github.com/valyala/bytebufferpool"
)

const minRead = 512

var crlf = []byte("\r\n")

// Buffer is a byte buffer split into two regions: read and write.
//
// Bytes written by the caller, or read from an io.Reader, land in the write
// region. They become readable once committed to the read region, which always
// sits at the front of the buffer. Consume drops bytes from the read region.
//
// The storage is taken from a bytebufferpool.Pool and must be handed back with
// Release once the Buffer is no longer used.
type Buffer struct {
	ri int // end of the read region, always <= len(bb.B)
	bb *bytebufferpool.ByteBuffer
}

var (
	_ io.Reader       = &Buffer{}
	_ io.Writer       = &Buffer{}
	_ io.StringWriter = &Buffer{}
	_ io.ReaderFrom   = &Buffer{}
	_ io.WriterTo     = &Buffer{}
)

var pool bytebufferpool.Pool

func NewBuffer() *Buffer {
	return &Buffer{bb: pool.Get()}
}

// Release returns the underlying storage to the pool. The Buffer must not be
// used afterwards.
func (b *Buffer) Release() {
	if b.bb != nil {
		pool.Put(b.bb)
		b.bb = nil
		b.ri = 0
	}
}

// Reserve makes room for at least n more bytes in the write region without
// reallocating.
func (b *Buffer) Reserve(n int) {
	if free := cap(b.bb.B) - len(b.bb.B); free < n {
		grown := make([]byte, len(b.bb.B), len(b.bb.B)+n)
		copy(grown, b.bb.B)
		b.bb.B = grown
	}
}

// Commit moves n bytes from the write region to the read region.
func (b *Buffer) Commit(n int) {
	if n < 0 {
		n = 0
	}
	b.ri += n
	if b.ri > len(b.bb.B) {
		b.ri = len(b.bb.B)
	}
}

// Data returns the bytes in the read region.
func (b *Buffer) Data() []byte {
	return b.bb.B[:b.ri]
}

// ReadLen returns the number of bytes in the read region.
func (b *Buffer) ReadLen() int {
	return b.ri
}

// WriteLen returns the number of bytes in the write region.
func (b *Buffer) WriteLen() int {
	return len(b.bb.B) - b.ri
}

// Len returns the number of bytes in both regions.
func (b *Buffer) Len() int {
	return len(b.bb.B)
}

// Consume removes n bytes from the front of the read region.
func (b *Buffer) Consume(n int) {
	if n > b.ri {
		n = b.ri
	}
	if n <= 0 {
		return
	}
	copy(b.bb.B, b.bb.B[n:])
	b.bb.B = b.bb.B[:len(b.bb.B)-n]
	b.ri -= n
}

func (b *Buffer) Reset() {
	b.bb.Reset()
	b.ri = 0
}

// Read reads and consumes bytes from the read region.
func (b *Buffer) Read(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if b.ri == 0 {
		return 0, io.EOF
	}
	n := copy(dst, b.bb.B[:b.ri])
	b.Consume(n)
	return n, nil
}

// Write appends p to the write region, growing the buffer as needed.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.bb.Write(p)
}

// WriteString appends s to the write region, growing the buffer as needed.
func (b *Buffer) WriteString(s string) (int, error) {
	return b.bb.WriteString(s)
}

// ReadFrom does a single read from r into the write region. At least minRead
// bytes of room are reserved before reading.
//
// Unlike io.ReaderFrom implementations that read until EOF, this returns after
// one successful read so that decoders can make progress in between. io.EOF is
// returned as is.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	b.Reserve(minRead)
	n, err := r.Read(b.bb.B[len(b.bb.B):cap(b.bb.B)])
	if n > 0 {
		b.bb.B = b.bb.B[:len(b.bb.B)+n]
	}
	return int64(n), err
}

// WriteTo writes the read region to w and consumes what was written.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var (
		written int
		err     error
	)
	for written < b.ri {
		var n int
		n, err = w.Write(b.bb.B[written:b.ri])
		written += n
		if err != nil {
			break
		}
	}
	b.Consume(written)
	return int64(written), err
}

// NextLine drops the current read region and commits the next CRLF terminated
// line found in the write region. The returned line excludes the CRLF and is
// only valid until the next call that mutates the buffer.
func (b *Buffer) NextLine() ([]byte, error) {
	b.Consume(b.ri)

	i := bytes.Index(b.bb.B, crlf)
	if i < 0 {
		return nil, ErrNeedMore
	}
	b.Commit(i + len(crlf))
	return b.bb.B[:i], nil
}

// PrepareRead commits bytes to the read region until it holds n bytes. If the
// write region is too short, ErrNeedMore is returned and nothing is committed.
func (b *Buffer) PrepareRead(n int) error {
	if need := n - b.ReadLen(); need > 0 {
		if b.WriteLen() < need {
			return ErrNeedMore
		}
		b.Commit(need)
	}
	return nil
}
