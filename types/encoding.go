package types

import (
	"fmt"

	"github.com/algorand/go-codec/codec"
)

// CodecHandle produces the canonical msgpack form the ledger hashes and signs:
// sorted map keys, empty fields omitted.
var CodecHandle *codec.MsgpackHandle

func init() {
	CodecHandle = new(codec.MsgpackHandle)
	CodecHandle.ErrorIfNoField = true
	CodecHandle.ErrorIfNoArrayExpand = true
	CodecHandle.Canonical = true
	CodecHandle.RecursiveEmptyCheck = true
	CodecHandle.WriteExt = true
	CodecHandle.PositiveIntUnsigned = true
}

// Encode serializes obj in canonical msgpack.
func Encode(obj interface{}) []byte {
	var b []byte
	enc := codec.NewEncoderBytes(&b, CodecHandle)
	enc.MustEncode(obj)
	return b
}

// Decode parses canonical msgpack into objptr, rejecting unknown fields.
func Decode(b []byte, objptr interface{}) error {
	dec := codec.NewDecoderBytes(b, CodecHandle)
	if err := dec.Decode(objptr); err != nil {
		return fmt.Errorf("failed to decode msgpack: %v", err)
	}
	return nil
}
