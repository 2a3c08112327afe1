// Package classfiletest assembles minimal, structurally valid class files for
// tests. It writes the binary layout directly and has no dependency on the
// parser it exercises.
package classfiletest

import (
	"bytes"
	"encoding/binary"
)

// DefaultMajorVersion is Java 8's class file version.
const DefaultMajorVersion = 52

// ConstPool accumulates constant pool entries, handing out their indexes.
type ConstPool struct {
	entries []byte
	next    uint16
}

// NewConstPool creates an empty pool; the first assigned index is 1.
func NewConstPool() *ConstPool {
	return &ConstPool{next: 1}
}

// AddUtf8 appends a UTF-8 constant and returns its index.
func (cp *ConstPool) AddUtf8(s string) uint16 {
	idx := cp.next
	cp.entries = append(cp.entries, 1)
	cp.entries = appendU2(cp.entries, uint16(len(s)))
	cp.entries = append(cp.entries, s...)
	cp.next++
	return idx
}

// AddClass appends a class constant referencing the given internal name.
func (cp *ConstPool) AddClass(internalName string) uint16 {
	nameIdx := cp.AddUtf8(internalName)
	idx := cp.next
	cp.entries = append(cp.entries, 7)
	cp.entries = appendU2(cp.entries, nameIdx)
	cp.next++
	return idx
}

// AddInteger appends an integer constant.
func (cp *ConstPool) AddInteger(v int32) uint16 {
	idx := cp.next
	cp.entries = append(cp.entries, 3)
	cp.entries = appendU4(cp.entries, uint32(v))
	cp.next++
	return idx
}

// AddLong appends a long constant, which occupies two pool slots.
func (cp *ConstPool) AddLong(v int64) uint16 {
	idx := cp.next
	cp.entries = append(cp.entries, 5)
	cp.entries = appendU4(cp.entries, uint32(uint64(v)>>32))
	cp.entries = appendU4(cp.entries, uint32(uint64(v)))
	cp.next += 2
	return idx
}

// ElementValue is a serialized element_value structure.
type ElementValue []byte

// StringValue builds a string literal element value.
func StringValue(cp *ConstPool, s string) ElementValue {
	var b []byte
	b = append(b, 's')
	b = appendU2(b, cp.AddUtf8(s))
	return b
}

// ClassValue builds a class literal element value from a type descriptor.
func ClassValue(cp *ConstPool, descriptor string) ElementValue {
	var b []byte
	b = append(b, 'c')
	b = appendU2(b, cp.AddUtf8(descriptor))
	return b
}

// IntValue builds a primitive int element value.
func IntValue(cp *ConstPool, v int32) ElementValue {
	var b []byte
	b = append(b, 'I')
	b = appendU2(b, cp.AddInteger(v))
	return b
}

// EnumValue builds an enum element value.
func EnumValue(cp *ConstPool, typeDescriptor, constName string) ElementValue {
	var b []byte
	b = append(b, 'e')
	b = appendU2(b, cp.AddUtf8(typeDescriptor))
	b = appendU2(b, cp.AddUtf8(constName))
	return b
}

// ArrayValue builds an array element value from its members.
func ArrayValue(members ...ElementValue) ElementValue {
	var b []byte
	b = append(b, '[')
	b = appendU2(b, uint16(len(members)))
	for _, m := range members {
		b = append(b, m...)
	}
	return b
}

// ElementPair is one named element of an annotation.
type ElementPair struct {
	Name  string
	Value ElementValue
}

// Builder assembles one synthetic class file.
type Builder struct {
	cp            *ConstPool
	classIdx      uint16
	superIdx      uint16
	major         uint16
	visibleAnns   [][]byte
	invisibleAnns [][]byte
	fields        [][]byte
}

// NewBuilder starts a class with the given internal name, extending
// java/lang/Object.
func NewBuilder(className string) *Builder {
	cp := NewConstPool()
	return &Builder{
		cp:       cp,
		classIdx: cp.AddClass(className),
		superIdx: cp.AddClass("java/lang/Object"),
		major:    DefaultMajorVersion,
	}
}

// ConstPool exposes the pool for registering extra constants.
func (b *Builder) ConstPool() *ConstPool {
	return b.cp
}

// WithMajorVersion overrides the class file major version.
func (b *Builder) WithMajorVersion(major uint16) *Builder {
	b.major = major
	return b
}

// WithAnnotation adds an annotation with the given type descriptor to the
// visible or invisible runtime annotations attribute.
func (b *Builder) WithAnnotation(visible bool, descriptor string, pairs ...ElementPair) *Builder {
	var ann []byte
	ann = appendU2(ann, b.cp.AddUtf8(descriptor))
	ann = appendU2(ann, uint16(len(pairs)))
	for _, p := range pairs {
		ann = appendU2(ann, b.cp.AddUtf8(p.Name))
		ann = append(ann, p.Value...)
	}
	if visible {
		b.visibleAnns = append(b.visibleAnns, ann)
	} else {
		b.invisibleAnns = append(b.invisibleAnns, ann)
	}
	return b
}

// WithField adds a field carrying one opaque attribute, exercising the
// member-skipping path of a structure-only parser.
func (b *Builder) WithField(name, descriptor string, attrPayload []byte) *Builder {
	var f []byte
	f = appendU2(f, 0x0002) // private
	f = appendU2(f, b.cp.AddUtf8(name))
	f = appendU2(f, b.cp.AddUtf8(descriptor))
	f = appendU2(f, 1)
	f = appendU2(f, b.cp.AddUtf8("ConstantValue"))
	f = appendU4(f, uint32(len(attrPayload)))
	f = append(f, attrPayload...)
	b.fields = append(b.fields, f)
	return b
}

// Build serializes the class file.
func (b *Builder) Build() []byte {
	// Attributes are assembled first: their names claim constant pool slots,
	// and the pool must be complete before it is serialized.
	var attrs [][]byte
	if body := annotationsAttribute(b.cp, "RuntimeVisibleAnnotations", b.visibleAnns); body != nil {
		attrs = append(attrs, body)
	}
	if body := annotationsAttribute(b.cp, "RuntimeInvisibleAnnotations", b.invisibleAnns); body != nil {
		attrs = append(attrs, body)
	}

	var buf bytes.Buffer

	writeU4(&buf, 0xCAFEBABE)
	writeU2(&buf, 0) // minor
	writeU2(&buf, b.major)

	writeU2(&buf, b.cp.next)
	buf.Write(b.cp.entries)

	writeU2(&buf, 0x0021) // public super
	writeU2(&buf, b.classIdx)
	writeU2(&buf, b.superIdx)
	writeU2(&buf, 0) // interfaces

	writeU2(&buf, uint16(len(b.fields)))
	for _, f := range b.fields {
		buf.Write(f)
	}
	writeU2(&buf, 0) // methods

	writeU2(&buf, uint16(len(attrs)))
	for _, a := range attrs {
		buf.Write(a)
	}

	return buf.Bytes()
}

// annotationsAttribute serializes one Runtime*Annotations attribute, or nil
// when there are no annotations for it.
func annotationsAttribute(cp *ConstPool, name string, anns [][]byte) []byte {
	if len(anns) == 0 {
		return nil
	}
	var body []byte
	body = appendU2(body, uint16(len(anns)))
	for _, a := range anns {
		body = append(body, a...)
	}

	var attr []byte
	attr = appendU2(attr, cp.AddUtf8(name))
	attr = appendU4(attr, uint32(len(body)))
	attr = append(attr, body...)
	return attr
}

func appendU2(b []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(b, v)
}

func appendU4(b []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(b, v)
}

func writeU2(buf *bytes.Buffer, v uint16) {
	buf.Write(binary.BigEndian.AppendUint16(nil, v))
}

func writeU4(buf *bytes.Buffer, v uint32) {
	buf.Write(binary.BigEndian.AppendUint32(nil, v))
}
