package codec

import (
	"bytes"
	"testing"
)

type sample struct {
	Name     string            `json:"name"`
	Count    int               `json:"count"`
	Payload  []byte            `json:"payload"`
	Children []string          `json:"children"`
	Tags     map[string]string `json:"tags"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	original := sample{
		Name:     "file header",
		Count:    3,
		Payload:  []byte{0x00, 0x01, 0xFF, 0x10},
		Children: []string{"a", "b", "c"},
		Tags:     map[string]string{"k1": "v1", "k2": "v2"},
	}

	b, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded sample
	if err := Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded.Name != original.Name || decoded.Count != original.Count {
		t.Errorf("decoded scalar fields = %+v, want %+v", decoded, original)
	}
	if !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("decoded.Payload = %v, want %v", decoded.Payload, original.Payload)
	}
	if len(decoded.Children) != len(original.Children) {
		t.Fatalf("decoded.Children = %v, want %v", decoded.Children, original.Children)
	}
	for i := range original.Children {
		if decoded.Children[i] != original.Children[i] {
			t.Errorf("decoded.Children[%d] = %q, want %q", i, decoded.Children[i], original.Children[i])
		}
	}
	for k, v := range original.Tags {
		if decoded.Tags[k] != v {
			t.Errorf("decoded.Tags[%q] = %q, want %q", k, decoded.Tags[k], v)
		}
	}
}

func TestUnmarshal_CorruptedBytes(t *testing.T) {
	var decoded sample
	if err := Unmarshal([]byte("not json at all"), &decoded); err == nil {
		t.Error("Unmarshal() on corrupted bytes should error")
	}
}
