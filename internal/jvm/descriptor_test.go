// internal/jvm/descriptor_test.go
package jvm

import (
	"strings"
	"testing"

	"klasse/internal/errors"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		descriptor string
		want       FieldType
	}{
		{"I", BaseType{Kind: Int}},
		{"J", BaseType{Kind: Long}},
		{"Z", BaseType{Kind: Boolean}},
		{"Ljava/lang/String;", ObjectType{Class: ClassRef{BinaryName: "java/lang/String"}}},
		{"[I", ArrayType{Element: BaseType{Kind: Int}}},
		{"[[D", ArrayType{Element: ArrayType{Element: BaseType{Kind: Double}}}},
		{"[Ljava/lang/Object;", ArrayType{Element: ObjectType{Class: ClassRef{BinaryName: "java/lang/Object"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := ParseFieldType(tt.descriptor)
			if err != nil {
				t.Fatalf("ParseFieldType(%q): %v", tt.descriptor, err)
			}
			if got != tt.want {
				t.Fatalf("ParseFieldType(%q) = %v, want %v", tt.descriptor, got, tt.want)
			}
			if got.Descriptor() != tt.descriptor {
				t.Fatalf("Descriptor() = %q, want %q", got.Descriptor(), tt.descriptor)
			}
		})
	}
}

func TestParseFieldTypeErrors(t *testing.T) {
	bad := []string{
		"",
		"X",
		"L;",
		"Ljava/lang/String", // missing terminator
		"II",                // trailing input
		"[",
		strings.Repeat("[", 256) + "I",
	}
	for _, descriptor := range bad {
		if _, err := ParseFieldType(descriptor); !errors.IsKind(err, errors.InvalidDescriptor) {
			t.Errorf("ParseFieldType(%q) = %v, want InvalidDescriptor", descriptor, err)
		}
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		descriptor string
		params     int
		void       bool
	}{
		{"()V", 0, true},
		{"(II)I", 2, false},
		{"([Ljava/lang/String;)V", 1, true},
		{"(JD)J", 2, false},
		{"(Ljava/lang/Object;I[J)Ljava/lang/Object;", 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := ParseMethodDescriptor(tt.descriptor)
			if err != nil {
				t.Fatalf("ParseMethodDescriptor(%q): %v", tt.descriptor, err)
			}
			if len(got.Parameters) != tt.params {
				t.Fatalf("parameter count = %d, want %d", len(got.Parameters), tt.params)
			}
			if got.Return.IsVoid() != tt.void {
				t.Fatalf("IsVoid() = %v, want %v", got.Return.IsVoid(), tt.void)
			}
			if got.Descriptor() != tt.descriptor {
				t.Fatalf("Descriptor() = %q, want %q", got.Descriptor(), tt.descriptor)
			}
		})
	}
}

func TestParseMethodDescriptorErrors(t *testing.T) {
	bad := []string{"", "II)I", "(II", "(II)", "(II)VV", "(X)V"}
	for _, descriptor := range bad {
		if _, err := ParseMethodDescriptor(descriptor); !errors.IsKind(err, errors.InvalidDescriptor) {
			t.Errorf("ParseMethodDescriptor(%q) = %v, want InvalidDescriptor", descriptor, err)
		}
	}
}

func TestIsDualSlot(t *testing.T) {
	if !IsDualSlot(BaseType{Kind: Long}) || !IsDualSlot(BaseType{Kind: Double}) {
		t.Fatal("long and double must be dual slot")
	}
	if IsDualSlot(BaseType{Kind: Int}) || IsDualSlot(ObjectType{Class: ClassRef{BinaryName: "java/lang/Long"}}) {
		t.Fatal("int and references must be single slot")
	}
}
