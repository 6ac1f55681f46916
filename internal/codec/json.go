// Package codec decodes stored preference values.
//
// Numbers are kept as json.Number so integers beyond 2^53 read back exactly.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// ErrTrailingData is returned when more than one JSON value follows the first.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// Decode parses one JSON value from data into v.
func Decode(data []byte, v any) error {
	return DecodeReader(bytes.NewReader(data), v)
}

// DecodeReader parses exactly one JSON value from r into v.
func DecodeReader(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ErrTrailingData
	}
	return nil
}

// Clone returns a deep copy of v as decoded JSON. Strings, bools and numbers
// are immutable and come back unchanged.
func Clone(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := Decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
