// internal/jvm/mutf8_test.go
package jvm

import (
	"bytes"
	"testing"
)

// Test modified-UTF-8 decoding and the byte-preserving fallback
func TestJavaStringRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		valid bool
		str   string
	}{
		{
			name:  "ascii",
			bytes: []byte("Hello, class file"),
			valid: true,
			str:   "Hello, class file",
		},
		{
			name:  "two byte sequences",
			bytes: []byte("caf\xc3\xa9"),
			valid: true,
			str:   "café",
		},
		{
			name:  "embedded null uses C0 80",
			bytes: []byte{'a', 0xC0, 0x80, 'b'},
			valid: true,
			str:   "a\x00b",
		},
		{
			name: "supplementary code point as surrogate pair",
			// U+1F600 encoded as CESU-8: D83D DE00
			bytes: []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80},
			valid: true,
			str:   "\U0001F600",
		},
		{
			name:  "raw null byte is invalid",
			bytes: []byte{'a', 0x00},
			valid: false,
		},
		{
			name:  "four byte utf8 is invalid",
			bytes: []byte{0xF0, 0x9F, 0x98, 0x80},
			valid: false,
		},
		{
			name:  "lone high surrogate is invalid",
			bytes: []byte{0xED, 0xA0, 0xBD},
			valid: false,
		},
		{
			name:  "truncated sequence is invalid",
			bytes: []byte{0xC3},
			valid: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			js := DecodeJavaString(tt.bytes)
			if js.IsValid() != tt.valid {
				t.Fatalf("IsValid() = %v, want %v", js.IsValid(), tt.valid)
			}
			if tt.valid {
				s, _ := js.Str()
				if s != tt.str {
					t.Fatalf("Str() = %q, want %q", s, tt.str)
				}
			}
			// Valid or not, the encoding must reproduce the input bytes.
			if got := js.Bytes(); !bytes.Equal(got, tt.bytes) {
				t.Fatalf("Bytes() = % x, want % x", got, tt.bytes)
			}
		})
	}
}

func TestJavaStringEqual(t *testing.T) {
	a := NewJavaString("x")
	b := DecodeJavaString([]byte("x"))
	if !a.Equal(b) {
		t.Fatal("equal strings reported unequal")
	}
	invalid := NewInvalidJavaString([]byte{0xF0, 0x9F})
	if a.Equal(invalid) {
		t.Fatal("valid and invalid strings reported equal")
	}
	if !invalid.Equal(NewInvalidJavaString([]byte{0xF0, 0x9F})) {
		t.Fatal("identical invalid strings reported unequal")
	}
}
