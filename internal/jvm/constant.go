// internal/jvm/constant.go
package jvm

import (
	"fmt"
	"math"
	"strconv"
)

// ConstantValue is a loadable constant: a literal, a class, a method type or
// handle, or a dynamically computed constant.
type ConstantValue interface {
	fmt.Stringer
	constantValue()
}

// NullConst is the null reference pushed by aconst_null.
type NullConst struct{}

// IntConst is a 32-bit integer constant.
type IntConst struct {
	Value int32
}

// LongConst is a 64-bit integer constant.
type LongConst struct {
	Value int64
}

// FloatConst is a 32-bit floating point constant.
type FloatConst struct {
	Value float32
}

// DoubleConst is a 64-bit floating point constant.
type DoubleConst struct {
	Value float64
}

// StringConst is a string constant.
type StringConst struct {
	Value JavaString
}

// ClassConst is a java.lang.Class constant.
type ClassConst struct {
	Type FieldType
}

// HandleConst is a java.lang.invoke.MethodHandle constant.
type HandleConst struct {
	Handle MethodHandle
}

// MethodTypeConst is a java.lang.invoke.MethodType constant.
type MethodTypeConst struct {
	Descriptor MethodDescriptor
}

// DynamicConst is a constant computed by a bootstrap method.
type DynamicConst struct {
	BootstrapIndex uint16
	Name           string
	Type           FieldType
}

func (NullConst) constantValue()       {}
func (IntConst) constantValue()        {}
func (LongConst) constantValue()       {}
func (FloatConst) constantValue()      {}
func (DoubleConst) constantValue()     {}
func (StringConst) constantValue()     {}
func (ClassConst) constantValue()      {}
func (HandleConst) constantValue()     {}
func (MethodTypeConst) constantValue() {}
func (DynamicConst) constantValue()    {}

func (NullConst) String() string      { return "null" }
func (c IntConst) String() string     { return strconv.FormatInt(int64(c.Value), 10) }
func (c LongConst) String() string    { return strconv.FormatInt(c.Value, 10) + "L" }
func (c FloatConst) String() string   { return strconv.FormatFloat(float64(c.Value), 'g', -1, 32) + "f" }
func (c DoubleConst) String() string  { return strconv.FormatFloat(c.Value, 'g', -1, 64) }
func (c StringConst) String() string  { return strconv.Quote(c.Value.String()) }
func (c ClassConst) String() string   { return c.Type.String() + ".class" }
func (c HandleConst) String() string  { return c.Handle.String() }
func (c MethodTypeConst) String() string {
	return c.Descriptor.Descriptor()
}
func (c DynamicConst) String() string {
	return fmt.Sprintf("dynamic(%d, %s)", c.BootstrapIndex, c.Name)
}

// ConstantsEqual compares two constant values structurally. Floating point
// constants compare by bit pattern so that NaNs round-trip.
func ConstantsEqual(a, b ConstantValue) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case NullConst:
		_, ok := b.(NullConst)
		return ok
	case IntConst:
		bv, ok := b.(IntConst)
		return ok && av.Value == bv.Value
	case LongConst:
		bv, ok := b.(LongConst)
		return ok && av.Value == bv.Value
	case FloatConst:
		bv, ok := b.(FloatConst)
		return ok && math.Float32bits(av.Value) == math.Float32bits(bv.Value)
	case DoubleConst:
		bv, ok := b.(DoubleConst)
		return ok && math.Float64bits(av.Value) == math.Float64bits(bv.Value)
	case StringConst:
		bv, ok := b.(StringConst)
		return ok && av.Value.Equal(bv.Value)
	case ClassConst:
		bv, ok := b.(ClassConst)
		return ok && av.Type.Descriptor() == bv.Type.Descriptor()
	case HandleConst:
		bv, ok := b.(HandleConst)
		return ok && av.Handle.Equal(bv.Handle)
	case MethodTypeConst:
		bv, ok := b.(MethodTypeConst)
		return ok && av.Descriptor.Equal(bv.Descriptor)
	case DynamicConst:
		bv, ok := b.(DynamicConst)
		return ok && av.BootstrapIndex == bv.BootstrapIndex &&
			av.Name == bv.Name && av.Type.Descriptor() == bv.Type.Descriptor()
	}
	return false
}
