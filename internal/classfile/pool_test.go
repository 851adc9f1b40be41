// internal/classfile/pool_test.go
package classfile

import (
	"testing"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// A Long entry occupies two slots; the padding slot is not addressable and
// the next entry lands after it.
func TestLongEntryOccupiesTwoSlots(t *testing.T) {
	pool := NewConstantPool()
	for _, s := range []string{"a", "b", "c", "d"} {
		if _, err := pool.PutStr(s); err != nil {
			t.Fatalf("PutStr(%q): %v", s, err)
		}
	}
	longIndex, err := pool.PutEntry(PoolEntry{Tag: TagLong, Long: 42})
	if err != nil {
		t.Fatalf("PutEntry(Long): %v", err)
	}
	if longIndex != 5 {
		t.Fatalf("long index = %d, want 5", longIndex)
	}
	if _, err := pool.GetEntry(6); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("GetEntry(6) on padding = %v, want Malformed", err)
	}
	next, err := pool.PutStr("e")
	if err != nil {
		t.Fatalf("PutStr(e): %v", err)
	}
	if next != 7 {
		t.Fatalf("entry after long at index %d, want 7", next)
	}
	entry, err := pool.GetEntry(5)
	if err != nil || entry.Long != 42 {
		t.Fatalf("GetEntry(5) = %v, %v", entry, err)
	}
}

func TestPutEntryDeduplicates(t *testing.T) {
	pool := NewConstantPool()
	first, fresh, err := pool.PutEntryDedup(PoolEntry{Tag: TagInteger, Int: 7})
	if err != nil || !fresh {
		t.Fatalf("first insert: index=%d fresh=%v err=%v", first, fresh, err)
	}
	second, fresh, err := pool.PutEntryDedup(PoolEntry{Tag: TagInteger, Int: 7})
	if err != nil || fresh {
		t.Fatalf("second insert: fresh=%v err=%v", fresh, err)
	}
	if first != second {
		t.Fatalf("dedup returned different indices %d and %d", first, second)
	}
}

func TestTypedAccessorMismatch(t *testing.T) {
	pool := NewConstantPool()
	index, err := pool.PutStr("not a class")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.GetClassRef(index); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("GetClassRef on Utf8 = %v, want Malformed", err)
	}
	if _, err := pool.GetEntry(0); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("GetEntry(0) = %v, want Malformed", err)
	}
	if _, err := pool.GetEntry(9999); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("GetEntry out of range = %v, want Malformed", err)
	}
}

func TestMethodHandleKinds(t *testing.T) {
	fieldRef := jvm.FieldRef{
		Owner: jvm.ClassRef{BinaryName: "Foo"},
		Name:  "bar",
		Type:  jvm.BaseType{Kind: jvm.Int},
	}
	methodRef := jvm.MethodRef{
		Owner:      jvm.ClassRef{BinaryName: "Foo"},
		Name:       "baz",
		Descriptor: jvm.MethodDescriptor{Return: jvm.ReturnType{}},
	}
	for kind := jvm.RefGetField; kind <= jvm.RefInvokeInterface; kind++ {
		pool := NewConstantPool()
		handle := jvm.MethodHandle{Kind: kind}
		if kind.IsFieldKind() {
			handle.Field = fieldRef
		} else {
			handle.Method = methodRef
		}
		index, err := pool.PutMethodHandle(handle)
		if err != nil {
			t.Fatalf("PutMethodHandle(%v): %v", kind, err)
		}
		got, err := pool.GetMethodHandle(index)
		if err != nil {
			t.Fatalf("GetMethodHandle(%v): %v", kind, err)
		}
		if !got.Equal(handle) {
			t.Fatalf("round trip of %v: got %v", kind, got)
		}
	}
}

func TestMethodHandleInvalidKind(t *testing.T) {
	pool := NewConstantPool()
	index, err := pool.PutEntry(PoolEntry{Tag: TagMethodHandle, ReferenceKind: 10, ReferenceIndex: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.GetMethodHandle(index); !errors.IsKind(err, errors.Malformed) {
		t.Fatalf("kind 10 = %v, want Malformed", err)
	}
}

func TestGetTypeRef(t *testing.T) {
	pool := NewConstantPool()
	objIndex, err := pool.PutClassRef(jvm.ClassRef{BinaryName: "java/lang/String"})
	if err != nil {
		t.Fatal(err)
	}
	arrIndex, err := pool.PutClassRef(jvm.ClassRef{BinaryName: "[[I"})
	if err != nil {
		t.Fatal(err)
	}
	obj, err := pool.GetTypeRef(objIndex)
	if err != nil {
		t.Fatal(err)
	}
	if obj != (jvm.ObjectType{Class: jvm.ClassRef{BinaryName: "java/lang/String"}}) {
		t.Fatalf("object type ref = %v", obj)
	}
	arr, err := pool.GetTypeRef(arrIndex)
	if err != nil {
		t.Fatal(err)
	}
	want := jvm.ArrayType{Element: jvm.ArrayType{Element: jvm.BaseType{Kind: jvm.Int}}}
	if arr != want {
		t.Fatalf("array type ref = %v, want %v", arr, want)
	}
}

func TestConstantValueRoundTrip(t *testing.T) {
	values := []jvm.ConstantValue{
		jvm.IntConst{Value: -1},
		jvm.LongConst{Value: 1 << 40},
		jvm.FloatConst{Value: 1.5},
		jvm.DoubleConst{Value: -2.25},
		jvm.StringConst{Value: jvm.NewJavaString("hello")},
		jvm.ClassConst{Type: jvm.ObjectType{Class: jvm.ClassRef{BinaryName: "Foo"}}},
		jvm.MethodTypeConst{Descriptor: jvm.MethodDescriptor{
			Parameters: []jvm.FieldType{jvm.BaseType{Kind: jvm.Int}},
			Return:     jvm.ReturnType{Type: jvm.BaseType{Kind: jvm.Int}},
		}},
	}
	pool := NewConstantPool()
	for _, value := range values {
		index, err := pool.PutConstantValue(value)
		if err != nil {
			t.Fatalf("PutConstantValue(%v): %v", value, err)
		}
		got, err := pool.GetConstantValue(index)
		if err != nil {
			t.Fatalf("GetConstantValue(%v): %v", value, err)
		}
		if !jvm.ConstantsEqual(got, value) {
			t.Fatalf("round trip of %v gave %v", value, got)
		}
	}
}
