// internal/classfile/parse.go
package classfile

import (
	"io"

	pkgerrors "github.com/pkg/errors"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// classFileMagic is the leading four bytes of every class file.
const classFileMagic uint32 = 0xCAFEBABE

// Parse reads a class file from the reader and resolves it into the class
// model.
func Parse(r io.Reader) (*Class, error) {
	br := newByteReader(r)
	magic, err := br.u4()
	if err != nil {
		return nil, err
	}
	if magic != classFileMagic {
		return nil, errors.Newf(errors.BadMagic, "expected 0xCAFEBABE, got %#08x", magic)
	}
	minor, err := br.u2()
	if err != nil {
		return nil, err
	}
	major, err := br.u2()
	if err != nil {
		return nil, err
	}
	version, err := jvm.ParseVersion(major, minor)
	if err != nil {
		return nil, err
	}
	poolCount, err := br.u2()
	if err != nil {
		return nil, err
	}
	if poolCount == 0 {
		return nil, errors.New(errors.Malformed, "constant pool count is zero")
	}
	pool, err := readConstantPool(br, poolCount)
	if err != nil {
		return nil, err
	}

	accessBits, err := br.u2()
	if err != nil {
		return nil, err
	}
	accessFlags, err := jvm.ParseClassAccessFlags(accessBits)
	if err != nil {
		return nil, err
	}
	thisClass, err := br.u2()
	if err != nil {
		return nil, err
	}
	thisRef, err := pool.GetClassRef(thisClass)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "this_class")
	}
	superClass, err := br.u2()
	if err != nil {
		return nil, err
	}

	c := &Class{
		Version:     version,
		AccessFlags: accessFlags,
		BinaryName:  thisRef.BinaryName,
	}
	switch {
	case superClass == 0 && thisRef.BinaryName == "java/lang/Object":
	case superClass == 0 && accessFlags.Has(jvm.ClassModule):
	case superClass == 0:
		return nil, errors.New(errors.Malformed,
			"class must have a super type except for java/lang/Object or a module")
	default:
		superRef, err := pool.GetClassRef(superClass)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "super_class")
		}
		c.SuperClass = &superRef
	}

	interfaceCount, err := br.u2()
	if err != nil {
		return nil, err
	}
	c.Interfaces = make([]jvm.ClassRef, 0, interfaceCount)
	for i := uint16(0); i < interfaceCount; i++ {
		index, err := br.u2()
		if err != nil {
			return nil, err
		}
		ref, err := pool.GetClassRef(index)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "interface")
		}
		c.Interfaces = append(c.Interfaces, ref)
	}

	fieldCount, err := br.u2()
	if err != nil {
		return nil, err
	}
	c.Fields = make([]Field, 0, fieldCount)
	for i := uint16(0); i < fieldCount; i++ {
		field, err := parseField(br, pool)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, field)
	}

	methodCount, err := br.u2()
	if err != nil {
		return nil, err
	}
	c.Methods = make([]Method, 0, methodCount)
	for i := uint16(0); i < methodCount; i++ {
		method, err := parseMethod(br, pool, thisRef)
		if err != nil {
			return nil, err
		}
		c.Methods = append(c.Methods, method)
	}

	attrs, err := readRawAttributes(br, pool)
	if err != nil {
		return nil, err
	}
	if err := collectClassAttributes(c, attrs, pool); err != nil {
		return nil, err
	}
	return c, nil
}

func parseField(br *byteReader, pool *ConstantPool) (Field, error) {
	var field Field
	accessBits, err := br.u2()
	if err != nil {
		return field, err
	}
	if field.AccessFlags, err = jvm.ParseFieldAccessFlags(accessBits); err != nil {
		return field, err
	}
	nameIndex, err := br.u2()
	if err != nil {
		return field, err
	}
	if field.Name, err = pool.GetStr(nameIndex); err != nil {
		return field, err
	}
	descIndex, err := br.u2()
	if err != nil {
		return field, err
	}
	desc, err := pool.GetStr(descIndex)
	if err != nil {
		return field, err
	}
	if field.Type, err = jvm.ParseFieldType(desc); err != nil {
		return field, pkgerrors.Wrapf(err, "field %s", field.Name)
	}
	attrs, err := readRawAttributes(br, pool)
	if err != nil {
		return field, err
	}
	if err := collectFieldAttributes(&field, attrs, pool); err != nil {
		return field, pkgerrors.Wrapf(err, "field %s", field.Name)
	}
	return field, nil
}

func parseMethod(br *byteReader, pool *ConstantPool, owner jvm.ClassRef) (Method, error) {
	method := Method{Owner: owner}
	accessBits, err := br.u2()
	if err != nil {
		return method, err
	}
	if method.AccessFlags, err = jvm.ParseMethodAccessFlags(accessBits); err != nil {
		return method, err
	}
	nameIndex, err := br.u2()
	if err != nil {
		return method, err
	}
	if method.Name, err = pool.GetStr(nameIndex); err != nil {
		return method, err
	}
	descIndex, err := br.u2()
	if err != nil {
		return method, err
	}
	desc, err := pool.GetStr(descIndex)
	if err != nil {
		return method, err
	}
	if method.Descriptor, err = jvm.ParseMethodDescriptor(desc); err != nil {
		return method, pkgerrors.Wrapf(err, "method %s", method.Name)
	}
	attrs, err := readRawAttributes(br, pool)
	if err != nil {
		return method, err
	}
	if err := collectMethodAttributes(&method, attrs, pool); err != nil {
		return method, pkgerrors.Wrapf(err, "method %s", method.Name)
	}
	return method, nil
}
