// internal/jvm/descriptor.go
package jvm

import (
	"strings"

	"klasse/internal/errors"
)

// PrimitiveType is a JVM base type, identified by its descriptor character.
type PrimitiveType byte

const (
	Boolean PrimitiveType = 'Z'
	Char    PrimitiveType = 'C'
	Float   PrimitiveType = 'F'
	Double  PrimitiveType = 'D'
	Byte    PrimitiveType = 'B'
	Short   PrimitiveType = 'S'
	Int     PrimitiveType = 'I'
	Long    PrimitiveType = 'J'
)

func (p PrimitiveType) valid() bool {
	switch p {
	case Boolean, Char, Float, Double, Byte, Short, Int, Long:
		return true
	}
	return false
}

func (p PrimitiveType) String() string {
	switch p {
	case Boolean:
		return "boolean"
	case Char:
		return "char"
	case Float:
		return "float"
	case Double:
		return "double"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	}
	return "?"
}

// FieldType is the type of a field, parameter, or array element.
type FieldType interface {
	// Descriptor renders the type in JVM descriptor syntax.
	Descriptor() string
	String() string
	fieldType()
}

// BaseType is a primitive field type.
type BaseType struct {
	Kind PrimitiveType
}

// ObjectType is a reference to a class or interface.
type ObjectType struct {
	Class ClassRef
}

// ArrayType is an array of some element type.
type ArrayType struct {
	Element FieldType
}

func (BaseType) fieldType()   {}
func (ObjectType) fieldType() {}
func (ArrayType) fieldType()  {}

func (t BaseType) Descriptor() string { return string(t.Kind) }
func (t BaseType) String() string     { return t.Kind.String() }

func (t ObjectType) Descriptor() string { return "L" + t.Class.BinaryName + ";" }
func (t ObjectType) String() string     { return t.Class.BinaryName }

func (t ArrayType) Descriptor() string { return "[" + t.Element.Descriptor() }
func (t ArrayType) String() string     { return t.Element.String() + "[]" }

// IsDualSlot reports whether values of the type occupy two operand-stack
// slots.
func IsDualSlot(t FieldType) bool {
	base, ok := t.(BaseType)
	return ok && (base.Kind == Long || base.Kind == Double)
}

// ReturnType is a method return type; a nil Type means void.
type ReturnType struct {
	Type FieldType
}

// IsVoid reports whether the method returns no value.
func (r ReturnType) IsVoid() bool { return r.Type == nil }

// Descriptor renders the return type in JVM descriptor syntax.
func (r ReturnType) Descriptor() string {
	if r.Type == nil {
		return "V"
	}
	return r.Type.Descriptor()
}

func (r ReturnType) String() string {
	if r.Type == nil {
		return "void"
	}
	return r.Type.String()
}

// MethodDescriptor is the parameter and return type signature of a method.
type MethodDescriptor struct {
	Parameters []FieldType
	Return     ReturnType
}

// Descriptor renders the method descriptor in JVM syntax.
func (d MethodDescriptor) Descriptor() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range d.Parameters {
		sb.WriteString(p.Descriptor())
	}
	sb.WriteByte(')')
	sb.WriteString(d.Return.Descriptor())
	return sb.String()
}

func (d MethodDescriptor) String() string {
	params := make([]string, len(d.Parameters))
	for i, p := range d.Parameters {
		params[i] = p.String()
	}
	return "(" + strings.Join(params, ", ") + ") -> " + d.Return.String()
}

// Equal compares two method descriptors structurally.
func (d MethodDescriptor) Equal(other MethodDescriptor) bool {
	return d.Descriptor() == other.Descriptor()
}

const maxArrayDimensions = 255

// ParseFieldType parses a field descriptor such as "[I" or
// "Ljava/lang/String;". The whole input must be consumed.
func ParseFieldType(descriptor string) (FieldType, error) {
	t, rest, err := parseFieldTypePrefix(descriptor)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, errors.Newf(errors.InvalidDescriptor, "trailing input in field descriptor %q", descriptor)
	}
	return t, nil
}

func parseFieldTypePrefix(s string) (FieldType, string, error) {
	dimensions := 0
	for len(s) > 0 && s[0] == '[' {
		dimensions++
		if dimensions > maxArrayDimensions {
			return nil, "", errors.New(errors.InvalidDescriptor, "array type exceeds 255 dimensions")
		}
		s = s[1:]
	}
	if s == "" {
		return nil, "", errors.New(errors.InvalidDescriptor, "empty field descriptor")
	}
	var base FieldType
	switch c := s[0]; c {
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return nil, "", errors.Newf(errors.InvalidDescriptor, "unterminated object descriptor %q", s)
		}
		name := s[1:end]
		if name == "" {
			return nil, "", errors.New(errors.InvalidDescriptor, "empty class name in descriptor")
		}
		base = ObjectType{Class: ClassRef{BinaryName: name}}
		s = s[end+1:]
	default:
		prim := PrimitiveType(c)
		if !prim.valid() {
			return nil, "", errors.Newf(errors.InvalidDescriptor, "invalid type character %q", string(c))
		}
		base = BaseType{Kind: prim}
		s = s[1:]
	}
	for i := 0; i < dimensions; i++ {
		base = ArrayType{Element: base}
	}
	return base, s, nil
}

// ParseMethodDescriptor parses a method descriptor such as "(II)I".
func ParseMethodDescriptor(descriptor string) (MethodDescriptor, error) {
	s, ok := strings.CutPrefix(descriptor, "(")
	if !ok {
		return MethodDescriptor{}, errors.Newf(errors.InvalidDescriptor, "method descriptor %q does not start with '('", descriptor)
	}
	var params []FieldType
	for {
		if s == "" {
			return MethodDescriptor{}, errors.Newf(errors.InvalidDescriptor, "unterminated parameter list in %q", descriptor)
		}
		if s[0] == ')' {
			s = s[1:]
			break
		}
		t, rest, err := parseFieldTypePrefix(s)
		if err != nil {
			return MethodDescriptor{}, err
		}
		params = append(params, t)
		s = rest
	}
	ret, err := parseReturnType(s)
	if err != nil {
		return MethodDescriptor{}, err
	}
	return MethodDescriptor{Parameters: params, Return: ret}, nil
}

func parseReturnType(s string) (ReturnType, error) {
	if s == "V" {
		return ReturnType{}, nil
	}
	t, err := ParseFieldType(s)
	if err != nil {
		return ReturnType{}, err
	}
	return ReturnType{Type: t}, nil
}
