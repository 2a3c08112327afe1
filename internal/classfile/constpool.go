package classfile

// Constant pool tags, per the class file format.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// constPool holds the subset of the constant pool the extractor needs:
// UTF-8 entries and the name index of each class entry. Everything else is
// consumed only to keep the cursor aligned.
type constPool struct {
	utf8    map[uint16]string
	classes map[uint16]uint16
}

// readConstantPool parses the constant pool, indexing UTF-8 and class
// entries. Long and double entries occupy two slots.
func readConstantPool(r *byteReader) (*constPool, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrBadConstantPool
	}

	cp := &constPool{
		utf8:    make(map[uint16]string),
		classes: make(map[uint16]uint16),
	}

	for i := uint16(1); i < count; i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagUtf8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			// Identifiers relevant here are plain ASCII; modified UTF-8
			// multi-byte sequences pass through untouched.
			cp.utf8[i] = string(raw)
		case tagClass:
			nameIndex, err := r.u2()
			if err != nil {
				return nil, err
			}
			cp.classes[i] = nameIndex
		case tagString, tagMethodType, tagModule, tagPackage:
			if err := r.skip(2); err != nil {
				return nil, err
			}
		case tagMethodHandle:
			if err := r.skip(3); err != nil {
				return nil, err
			}
		case tagInteger, tagFloat, tagFieldref, tagMethodref,
			tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			if err := r.skip(4); err != nil {
				return nil, err
			}
		case tagLong, tagDouble:
			if err := r.skip(8); err != nil {
				return nil, err
			}
			i++ // takes up two entries
		default:
			return nil, ErrBadConstantPool
		}
	}

	return cp, nil
}

// lookupUtf8 resolves a UTF-8 constant by index.
func (cp *constPool) lookupUtf8(index uint16) (string, error) {
	s, ok := cp.utf8[index]
	if !ok {
		return "", ErrBadConstantPool
	}
	return s, nil
}

// lookupClassName resolves a class constant to its internal name.
func (cp *constPool) lookupClassName(index uint16) (string, error) {
	nameIndex, ok := cp.classes[index]
	if !ok {
		return "", ErrBadConstantPool
	}
	return cp.lookupUtf8(nameIndex)
}
