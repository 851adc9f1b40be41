// internal/jvm/refs.go
package jvm

import "fmt"

// ClassRef is a symbolic reference to a class by binary name, e.g.
// "java/lang/String".
type ClassRef struct {
	BinaryName string
}

func (c ClassRef) String() string { return c.BinaryName }

// FieldRef is a symbolic reference to a field.
type FieldRef struct {
	Owner ClassRef
	Name  string
	Type  FieldType
}

func (f FieldRef) String() string {
	return fmt.Sprintf("%s.%s", f.Owner.BinaryName, f.Name)
}

// Equal compares two field references structurally.
func (f FieldRef) Equal(other FieldRef) bool {
	return f.Owner == other.Owner && f.Name == other.Name &&
		f.Type.Descriptor() == other.Type.Descriptor()
}

// MethodRef is a symbolic reference to a method or interface method.
type MethodRef struct {
	Owner      ClassRef
	Name       string
	Descriptor MethodDescriptor
}

func (m MethodRef) String() string {
	return fmt.Sprintf("%s.%s%s", m.Owner.BinaryName, m.Name, m.Descriptor.Descriptor())
}

// Equal compares two method references structurally.
func (m MethodRef) Equal(other MethodRef) bool {
	return m.Owner == other.Owner && m.Name == other.Name &&
		m.Descriptor.Equal(other.Descriptor)
}

// ModuleRef is a symbolic reference to a module.
type ModuleRef struct {
	Name string
}

func (m ModuleRef) String() string { return m.Name }

// PackageRef is a symbolic reference to a package.
type PackageRef struct {
	BinaryName string
}

func (p PackageRef) String() string { return p.BinaryName }

// MethodHandleKind is the reference_kind of a MethodHandle entry.
type MethodHandleKind uint8

const (
	RefGetField MethodHandleKind = iota + 1
	RefGetStatic
	RefPutField
	RefPutStatic
	RefInvokeVirtual
	RefInvokeStatic
	RefInvokeSpecial
	RefNewInvokeSpecial
	RefInvokeInterface
)

// IsFieldKind reports whether the kind references a field.
func (k MethodHandleKind) IsFieldKind() bool { return k >= RefGetField && k <= RefPutStatic }

// Valid reports whether the kind is one of the nine defined values.
func (k MethodHandleKind) Valid() bool { return k >= RefGetField && k <= RefInvokeInterface }

func (k MethodHandleKind) String() string {
	switch k {
	case RefGetField:
		return "getField"
	case RefGetStatic:
		return "getStatic"
	case RefPutField:
		return "putField"
	case RefPutStatic:
		return "putStatic"
	case RefInvokeVirtual:
		return "invokeVirtual"
	case RefInvokeStatic:
		return "invokeStatic"
	case RefInvokeSpecial:
		return "invokeSpecial"
	case RefNewInvokeSpecial:
		return "newInvokeSpecial"
	case RefInvokeInterface:
		return "invokeInterface"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MethodHandle is a resolved MethodHandle constant. Field is set for the
// four field kinds, Method for the five method kinds.
type MethodHandle struct {
	Kind   MethodHandleKind
	Field  FieldRef
	Method MethodRef
}

func (h MethodHandle) String() string {
	if h.Kind.IsFieldKind() {
		return fmt.Sprintf("%s %s", h.Kind, h.Field)
	}
	return fmt.Sprintf("%s %s", h.Kind, h.Method)
}

// Equal compares two method handles structurally.
func (h MethodHandle) Equal(other MethodHandle) bool {
	if h.Kind != other.Kind {
		return false
	}
	if h.Kind.IsFieldKind() {
		return h.Field.Equal(other.Field)
	}
	return h.Method.Equal(other.Method)
}
