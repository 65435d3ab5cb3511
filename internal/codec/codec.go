// Package codec implements the object-to-bytes codec vaultbox's record
// types are serialized through before being written to the dataserver.
//
// Every record is a concrete Go struct (root record, namespace map, file
// header, chunk, share node, invite), so JSON covers the value set
// directly: struct fields marshal as objects, slices as arrays, []byte
// fields as base64 strings, and numeric fields as numbers.
package codec

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes v to bytes.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: marshal: %w", err)
	}
	return b, nil
}

// Unmarshal decodes bytes produced by Marshal into v, which must be a
// pointer to the same (or a structurally compatible) type that was
// marshaled.
func Unmarshal(b []byte, v any) error {
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("codec: unmarshal: %w", err)
	}
	return nil
}
