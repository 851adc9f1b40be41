// internal/classfile/reader.go
package classfile

import (
	"io"
	"math"

	pkgerrors "github.com/pkg/errors"

	"klasse/internal/errors"
	"klasse/internal/jvm"
)

// byteReader reads big-endian scalar values from an io.Reader. Underlying
// reader failures surface as IoFailure; running out of bytes mid-structure
// is Malformed.
type byteReader struct {
	r io.Reader
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: r}
}

func (br *byteReader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errors.New(errors.Malformed, "unexpected end of class file")
		}
		return nil, errors.Wrap(errors.IoFailure, err, "reading class file")
	}
	return buf, nil
}

func (br *byteReader) u1() (uint8, error) {
	b, err := br.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br *byteReader) u2() (uint16, error) {
	b, err := br.bytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (br *byteReader) u4() (uint32, error) {
	b, err := br.bytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), nil
}

func (br *byteReader) u8() (uint64, error) {
	hi, err := br.u4()
	if err != nil {
		return 0, err
	}
	lo, err := br.u4()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// readConstantPool reads constant_pool_count - 1 entries' worth of slots.
func readConstantPool(br *byteReader, count uint16) (*ConstantPool, error) {
	pool := NewConstantPool()
	for pool.Count() < count {
		entry, err := readPoolEntry(br)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "constant pool entry %d", pool.Count())
		}
		// Entries are stored in file order without deduplication; the
		// reader tolerates duplicated entries.
		stored := entry
		pool.slots = append(pool.slots, &stored)
		if entry.IsWide() {
			pool.slots = append(pool.slots, nil)
		}
	}
	if pool.Count() != count {
		return nil, errors.New(errors.Malformed, "constant pool count does not match its entries")
	}
	return pool, nil
}

func readPoolEntry(br *byteReader) (PoolEntry, error) {
	tag, err := br.u1()
	if err != nil {
		return PoolEntry{}, err
	}
	entry := PoolEntry{Tag: PoolTag(tag)}
	switch entry.Tag {
	case TagUtf8:
		length, err := br.u2()
		if err != nil {
			return entry, err
		}
		raw, err := br.bytes(int(length))
		if err != nil {
			return entry, err
		}
		entry.Utf8 = jvm.DecodeJavaString(raw)
	case TagInteger:
		v, err := br.u4()
		if err != nil {
			return entry, err
		}
		entry.Int = int32(v)
	case TagFloat:
		v, err := br.u4()
		if err != nil {
			return entry, err
		}
		entry.Float = math.Float32frombits(v)
	case TagLong:
		v, err := br.u8()
		if err != nil {
			return entry, err
		}
		entry.Long = int64(v)
	case TagDouble:
		v, err := br.u8()
		if err != nil {
			return entry, err
		}
		entry.Double = math.Float64frombits(v)
	case TagClass, TagModule, TagPackage:
		if entry.NameIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagString:
		if entry.StringIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
		if entry.ClassIndex, err = br.u2(); err != nil {
			return entry, err
		}
		if entry.NameAndTypeIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagNameAndType:
		if entry.NameIndex, err = br.u2(); err != nil {
			return entry, err
		}
		if entry.DescriptorIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagMethodHandle:
		if entry.ReferenceKind, err = br.u1(); err != nil {
			return entry, err
		}
		if entry.ReferenceIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagMethodType:
		if entry.DescriptorIndex, err = br.u2(); err != nil {
			return entry, err
		}
	case TagDynamic, TagInvokeDynamic:
		if entry.BootstrapIndex, err = br.u2(); err != nil {
			return entry, err
		}
		if entry.NameAndTypeIndex, err = br.u2(); err != nil {
			return entry, err
		}
	default:
		return entry, errors.Newf(errors.Malformed, "invalid constant pool tag %d", tag)
	}
	return entry, nil
}
