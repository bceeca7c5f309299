package canonjson_test

import (
	"testing"

	"streakd/internal/platform/canonjson"
)

func TestMarshalIsOrderIndependent(t *testing.T) {
	t.Parallel()
	a, err := canonjson.Marshal(map[string]any{"b": 1, "a": "x"})
	if err != nil {
		t.Fatalf("marshal a: %v", err)
	}
	b, err := canonjson.Marshal(struct {
		A string `json:"a"`
		B int    `json:"b"`
	}{A: "x", B: 1})
	if err != nil {
		t.Fatalf("marshal b: %v", err)
	}
	if string(a) != string(b) || string(a) != `{"a":"x","b":1}` {
		t.Fatalf("expected identical canonical bytes, got %s vs %s", a, b)
	}
	da, _ := canonjson.Digest(map[string]any{"b": 1, "a": "x"})
	db, _ := canonjson.Digest(map[string]any{"a": "x", "b": 1})
	if da != db || len(da) != 64 {
		t.Fatalf("digest mismatch: %s vs %s", da, db)
	}
}
