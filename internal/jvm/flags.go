// internal/jvm/flags.go
//
// Access-flag bit sets. The bit positions follow the class, field, method,
// and inner-class flag tables of the JVM specification. Parsing
// fails when a bit outside the table is set.
package jvm

import "klasse/internal/errors"

// ClassAccessFlags is the access_flags item of a class.
type ClassAccessFlags uint16

const (
	ClassPublic     ClassAccessFlags = 0x0001
	ClassFinal      ClassAccessFlags = 0x0010
	ClassSuper      ClassAccessFlags = 0x0020
	ClassInterface  ClassAccessFlags = 0x0200
	ClassAbstract   ClassAccessFlags = 0x0400
	ClassSynthetic  ClassAccessFlags = 0x1000
	ClassAnnotation ClassAccessFlags = 0x2000
	ClassEnum       ClassAccessFlags = 0x4000
	ClassModule     ClassAccessFlags = 0x8000
)

const classFlagMask = ClassPublic | ClassFinal | ClassSuper | ClassInterface |
	ClassAbstract | ClassSynthetic | ClassAnnotation | ClassEnum | ClassModule

// ParseClassAccessFlags validates raw class access bits.
func ParseClassAccessFlags(bits uint16) (ClassAccessFlags, error) {
	if unknown := bits &^ uint16(classFlagMask); unknown != 0 {
		return 0, errors.Newf(errors.UnknownAccessFlag, "unknown class access flags %#04x", unknown)
	}
	return ClassAccessFlags(bits), nil
}

// Has reports whether all bits of flag are set.
func (f ClassAccessFlags) Has(flag ClassAccessFlags) bool { return f&flag == flag }

// FieldAccessFlags is the access_flags item of a field.
type FieldAccessFlags uint16

const (
	FieldPublic    FieldAccessFlags = 0x0001
	FieldPrivate   FieldAccessFlags = 0x0002
	FieldProtected FieldAccessFlags = 0x0004
	FieldStatic    FieldAccessFlags = 0x0008
	FieldFinal     FieldAccessFlags = 0x0010
	FieldVolatile  FieldAccessFlags = 0x0040
	FieldTransient FieldAccessFlags = 0x0080
	FieldSynthetic FieldAccessFlags = 0x1000
	FieldEnum      FieldAccessFlags = 0x4000
)

const fieldFlagMask = FieldPublic | FieldPrivate | FieldProtected | FieldStatic |
	FieldFinal | FieldVolatile | FieldTransient | FieldSynthetic | FieldEnum

// ParseFieldAccessFlags validates raw field access bits.
func ParseFieldAccessFlags(bits uint16) (FieldAccessFlags, error) {
	if unknown := bits &^ uint16(fieldFlagMask); unknown != 0 {
		return 0, errors.Newf(errors.UnknownAccessFlag, "unknown field access flags %#04x", unknown)
	}
	return FieldAccessFlags(bits), nil
}

// Has reports whether all bits of flag are set.
func (f FieldAccessFlags) Has(flag FieldAccessFlags) bool { return f&flag == flag }

// MethodAccessFlags is the access_flags item of a method.
type MethodAccessFlags uint16

const (
	MethodPublic       MethodAccessFlags = 0x0001
	MethodPrivate      MethodAccessFlags = 0x0002
	MethodProtected    MethodAccessFlags = 0x0004
	MethodStatic       MethodAccessFlags = 0x0008
	MethodFinal        MethodAccessFlags = 0x0010
	MethodSynchronized MethodAccessFlags = 0x0020
	MethodBridge       MethodAccessFlags = 0x0040
	MethodVarargs      MethodAccessFlags = 0x0080
	MethodNative       MethodAccessFlags = 0x0100
	MethodAbstract     MethodAccessFlags = 0x0400
	MethodStrict       MethodAccessFlags = 0x0800
	MethodSynthetic    MethodAccessFlags = 0x1000
)

const methodFlagMask = MethodPublic | MethodPrivate | MethodProtected |
	MethodStatic | MethodFinal | MethodSynchronized | MethodBridge |
	MethodVarargs | MethodNative | MethodAbstract | MethodStrict | MethodSynthetic

// ParseMethodAccessFlags validates raw method access bits.
func ParseMethodAccessFlags(bits uint16) (MethodAccessFlags, error) {
	if unknown := bits &^ uint16(methodFlagMask); unknown != 0 {
		return 0, errors.Newf(errors.UnknownAccessFlag, "unknown method access flags %#04x", unknown)
	}
	return MethodAccessFlags(bits), nil
}

// Has reports whether all bits of flag are set.
func (f MethodAccessFlags) Has(flag MethodAccessFlags) bool { return f&flag == flag }

// NestedClassAccessFlags is the inner_class_access_flags item of an
// InnerClasses entry.
type NestedClassAccessFlags uint16

const (
	NestedPublic     NestedClassAccessFlags = 0x0001
	NestedPrivate    NestedClassAccessFlags = 0x0002
	NestedProtected  NestedClassAccessFlags = 0x0004
	NestedStatic     NestedClassAccessFlags = 0x0008
	NestedFinal      NestedClassAccessFlags = 0x0010
	NestedInterface  NestedClassAccessFlags = 0x0200
	NestedAbstract   NestedClassAccessFlags = 0x0400
	NestedSynthetic  NestedClassAccessFlags = 0x1000
	NestedAnnotation NestedClassAccessFlags = 0x2000
	NestedEnum       NestedClassAccessFlags = 0x4000
)

const nestedFlagMask = NestedPublic | NestedPrivate | NestedProtected |
	NestedStatic | NestedFinal | NestedInterface | NestedAbstract |
	NestedSynthetic | NestedAnnotation | NestedEnum

// ParseNestedClassAccessFlags validates raw inner-class access bits.
func ParseNestedClassAccessFlags(bits uint16) (NestedClassAccessFlags, error) {
	if unknown := bits &^ uint16(nestedFlagMask); unknown != 0 {
		return 0, errors.Newf(errors.UnknownAccessFlag, "unknown inner class access flags %#04x", unknown)
	}
	return NestedClassAccessFlags(bits), nil
}
