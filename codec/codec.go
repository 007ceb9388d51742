package codec

import "errors"

// ErrNeedMore is returned by a Decoder when the buffered bytes do not yet hold
// a complete item.
var ErrNeedMore = errors.New("need to read more bytes")

type Encoder[Item any] interface {
	// Encode encodes the given item into the `dst` byte stream.
	//
	// Implementations should commit every encoded byte so that it can be
	// flushed with dst.WriteTo.
	Encode(item Item, dst *Buffer) error
}

type Decoder[Item any] interface {
	// Decode decodes the bytes buffered in `src` into an `Item`.
	//
	// Implementations should return ErrNeedMore if there are not enough bytes
	// to decode a complete Item. Decoders may keep state between calls, so a
	// partially decoded item is resumed on the next call.
	Decode(src *Buffer) (Item, error)
}

// Codec defines a generic interface through which one can encode/decode
// a raw stream of bytes.
type Codec[Enc, Dec any] interface {
	Encoder[Enc]
	Decoder[Dec]
}
