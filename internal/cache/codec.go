package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Codec encodes and decodes cache values for the disk tier. The memory
// and session tiers hold V directly; only bytes written to disk need a
// wire format.
type Codec[V any] interface {
	Encode(v V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// GobCodec is the default Codec, grounded on the gob spill format
// internal/analyzers/common/spillstore uses for its own disk tier.
type GobCodec[V any] struct{}

// Encode gob-encodes v.
func (GobCodec[V]) Encode(v V) ([]byte, error) {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("cache: gob encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Decode gob-decodes data into a V.
func (GobCodec[V]) Decode(data []byte) (V, error) {
	var v V

	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("cache: gob decode: %w", err)
	}

	return v, nil
}
