package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestBuffer_Reserve(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	b.Reserve(1024)
	if cap(b.bb.B)-len(b.bb.B) < 1024 {
		t.Fatal("should have reserved")
	}

	b.WriteString("hello")
	b.Reserve(4096)
	if cap(b.bb.B)-len(b.bb.B) < 4096 {
		t.Fatal("should have reserved")
	}
	if b.WriteLen() != 5 || b.ReadLen() != 0 {
		t.Fatal("reserve must not move regions")
	}
}

func TestBuffer_CommitConsume(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	msg := []byte("hello")
	rd := bytes.NewReader(msg)
	n, err := b.ReadFrom(rd)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != len(msg) {
		t.Fatalf("read %d bytes, expected %d", n, len(msg))
	}
	if b.ReadLen() != 0 || b.WriteLen() != len(msg) {
		t.Fatal("invalid read/write areas")
	}

	b.Commit(int(n))
	if string(b.Data()) != "hello" {
		t.Fatal("invalid data")
	}

	b.Consume(2)
	if string(b.Data()) != "llo" || b.Len() != 3 {
		t.Fatal("invalid data after consume")
	}

	// over-commit and over-consume are clamped
	b.Commit(100)
	if b.ReadLen() != 3 {
		t.Fatal("commit should be clamped")
	}
	b.Consume(100)
	if b.Len() != 0 || b.ReadLen() != 0 {
		t.Fatal("consume should be clamped")
	}
}

func TestBuffer_ReadFromEOF(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	_, err := b.ReadFrom(strings.NewReader(""))
	if !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestBuffer_Read(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	p := make([]byte, 8)
	if _, err := b.Read(p); err != io.EOF {
		t.Fatal("empty read region should return EOF")
	}

	b.WriteString("hello")
	b.Commit(5)

	n, err := b.Read(p[:3])
	if err != nil {
		t.Fatal(err)
	}
	if string(p[:n]) != "hel" || string(b.Data()) != "lo" {
		t.Fatal("invalid read")
	}
}

func TestBuffer_WriteTo(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	b.WriteString("hello world")
	b.Commit(5)

	var w bytes.Buffer
	n, err := b.WriteTo(&w)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 || w.String() != "hello" {
		t.Fatal("should only write the read region")
	}
	if b.ReadLen() != 0 || b.WriteLen() != len(" world") {
		t.Fatal("written bytes should be consumed")
	}
}

func TestBuffer_NextLine(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	b.WriteString("first\r\nsec")

	line, err := b.NextLine()
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != "first" {
		t.Fatalf("invalid line %q", line)
	}

	if _, err := b.NextLine(); !errors.Is(err, ErrNeedMore) {
		t.Fatal("expected ErrNeedMore on a partial line")
	}

	b.WriteString("ond\r\n\r\n")
	line, err = b.NextLine()
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != "second" {
		t.Fatalf("invalid line %q", line)
	}

	line, err = b.NextLine()
	if err != nil {
		t.Fatal(err)
	}
	if len(line) != 0 {
		t.Fatal("expected an empty line")
	}
}

func TestBuffer_PrepareRead(t *testing.T) {
	b := NewBuffer()
	defer b.Release()

	b.WriteString("abc")
	if err := b.PrepareRead(4); !errors.Is(err, ErrNeedMore) {
		t.Fatal("expected ErrNeedMore")
	}
	if b.ReadLen() != 0 {
		t.Fatal("nothing should be committed")
	}

	if err := b.PrepareRead(2); err != nil {
		t.Fatal(err)
	}
	if string(b.Data()) != "ab" {
		t.Fatal("invalid read region")
	}
}

func TestBuffer_ReleaseReuse(t *testing.T) {
	b := NewBuffer()
	b.WriteString("stale")
	b.Commit(5)
	b.Release()

	b = NewBuffer()
	defer b.Release()
	if b.Len() != 0 || b.ReadLen() != 0 {
		t.Fatal("a fresh buffer must be empty")
	}
}
