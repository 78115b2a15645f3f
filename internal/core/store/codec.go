package store

import (
	"fmt"

	"github.com/ugorji/go/codec"
)

// cborHandle is the shared codec configuration for persisted records.
// Canonical mode keeps encodings deterministic so state round-trips are exact.
var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

// EncodeRecord serializes a record value for storage.
func EncodeRecord(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return out, nil
}

// DecodeRecord deserializes a stored record into out.
func DecodeRecord(data []byte, out any) error {
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(out); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}
