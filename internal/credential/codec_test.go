package credential

import (
	"reflect"
	"strings"
	"testing"

	"splitmate/internal/models"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec("test-secret")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}
	return c
}

func TestCodecRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	tests := []struct {
		name  string
		value any
	}{
		{
			name:  "token string",
			value: "eyJhbGciOiJIUzI1NiJ9.payload.signature",
		},
		{
			name:  "empty string",
			value: "",
		},
		{
			name: "user profile",
			value: map[string]any{
				"id":       "u-123",
				"username": "alice",
				"email":    "alice@example.com",
			},
		},
		{
			name:  "unicode content",
			value: "café dinner ₹100 split",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := c.Encode(tt.value)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if strings.Contains(encoded, "alice") {
				t.Error("encoded blob leaks plaintext")
			}

			var got any
			if !c.Decode(encoded, &got) {
				t.Fatal("Decode reported failure for valid blob")
			}
			if !reflect.DeepEqual(got, tt.value) {
				t.Errorf("round trip: got %#v, want %#v", got, tt.value)
			}
		})
	}
}

func TestCodecRoundTripStruct(t *testing.T) {
	c := newTestCodec(t)

	user := models.User{ID: "u-9", Username: "bob", Email: "bob@example.com"}
	encoded, err := c.Encode(user)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var got models.User
	if !c.Decode(encoded, &got) {
		t.Fatal("Decode reported failure")
	}
	if got != user {
		t.Errorf("round trip: got %+v, want %+v", got, user)
	}
}

func TestDecodeNullSafety(t *testing.T) {
	c := newTestCodec(t)

	valid, err := c.Encode("value")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty input", encoded: ""},
		{name: "not base64", encoded: "!!! not encoded !!!"},
		{name: "garbage base64", encoded: "Z2FyYmFnZS1ub3QtcHJvZHVjZWQtYnktZW5jb2Rl"},
		{name: "truncated blob", encoded: valid[:8]},
		{name: "tampered blob", encoded: flipLastChar(valid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := "untouched"
			if c.Decode(tt.encoded, &out) {
				t.Error("Decode reported success for invalid input")
			}
			if out != "untouched" {
				t.Errorf("Decode mutated out on failure: %q", out)
			}
		})
	}
}

func TestDecodeWrongKey(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec("different-secret")
	if err != nil {
		t.Fatalf("NewCodec failed: %v", err)
	}

	encoded, err := c.Encode("value")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var out string
	if other.Decode(encoded, &out) {
		t.Error("Decode succeeded with a different key")
	}
}

func flipLastChar(s string) string {
	b := []byte(s)
	last := len(b) - 1
	if b[last] == 'A' {
		b[last] = 'B'
	} else {
		b[last] = 'A'
	}
	return string(b)
}
