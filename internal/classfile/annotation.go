package classfile

import "strings"

// ElementKind discriminates the annotation element value shapes the extractor
// understands.
type ElementKind int

const (
	// KindOther marks values the extractor has no use for (primitive
	// constants, enums, nested annotations). They are parsed to keep the
	// cursor aligned but carry no payload.
	KindOther ElementKind = iota
	// KindString is a string literal element.
	KindString
	// KindType is a class literal element, held as an internal name.
	KindType
	// KindList is an array element.
	KindList
)

// ElementValue is one parsed annotation element value.
type ElementValue struct {
	Kind ElementKind
	Str  string         // KindString literal or KindType internal name
	List []ElementValue // KindList members, in declaration order
}

// AnnotationValues is the element list of one annotation instance: an
// insertion-ordered sequence of (name, value) entries looked up linearly by
// name, first occurrence winning. Annotation element lists are declared in
// source order, so this is deliberately not a map.
type AnnotationValues struct {
	entries []annotationEntry
}

type annotationEntry struct {
	name  string
	value ElementValue
}

// Append records a (name, value) entry at the end of the sequence.
func (av *AnnotationValues) Append(name string, value ElementValue) {
	av.entries = append(av.entries, annotationEntry{name: name, value: value})
}

// Len returns the number of entries in the sequence.
func (av *AnnotationValues) Len() int {
	return len(av.entries)
}

// First returns the value following the first occurrence of name, or false
// when the name is absent.
func (av *AnnotationValues) First(name string) (ElementValue, bool) {
	for _, e := range av.entries {
		if e.name == name {
			return e.value, true
		}
	}
	return ElementValue{}, false
}

// StringList interprets the named element as a list of string literals.
// A single string value is treated as a one-element list. A missing or
// mis-shaped element yields nil; non-string members of a list are dropped.
func (av *AnnotationValues) StringList(name string) []string {
	value, ok := av.First(name)
	if !ok {
		return nil
	}
	switch value.Kind {
	case KindString:
		return []string{value.Str}
	case KindList:
		var out []string
		for _, member := range value.List {
			if member.Kind == KindString {
				out = append(out, member.Str)
			}
		}
		return out
	default:
		return nil
	}
}

// TypeList interprets the named element as a list of class literals and
// returns their internal names. Mis-shaped elements yield nil, mirroring
// StringList.
func (av *AnnotationValues) TypeList(name string) []string {
	value, ok := av.First(name)
	if !ok {
		return nil
	}
	switch value.Kind {
	case KindType:
		return []string{value.Str}
	case KindList:
		var out []string
		for _, member := range value.List {
			if member.Kind == KindType {
				out = append(out, member.Str)
			}
		}
		return out
	default:
		return nil
	}
}

// readElementValue parses one element_value structure. Values outside the
// shapes the extractor consumes are reduced to KindOther.
func readElementValue(r *byteReader, cp *constPool) (ElementValue, error) {
	tag, err := r.u1()
	if err != nil {
		return ElementValue{}, err
	}

	switch tag {
	case 's':
		index, err := r.u2()
		if err != nil {
			return ElementValue{}, err
		}
		s, err := cp.lookupUtf8(index)
		if err != nil {
			return ElementValue{}, err
		}
		return ElementValue{Kind: KindString, Str: s}, nil
	case 'c':
		index, err := r.u2()
		if err != nil {
			return ElementValue{}, err
		}
		descriptor, err := cp.lookupUtf8(index)
		if err != nil {
			return ElementValue{}, err
		}
		return ElementValue{Kind: KindType, Str: descriptorToInternalName(descriptor)}, nil
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		if err := r.skip(2); err != nil {
			return ElementValue{}, err
		}
		return ElementValue{Kind: KindOther}, nil
	case 'e':
		// enum: type name index + const name index
		if err := r.skip(4); err != nil {
			return ElementValue{}, err
		}
		return ElementValue{Kind: KindOther}, nil
	case '@':
		if err := skipAnnotation(r, cp); err != nil {
			return ElementValue{}, err
		}
		return ElementValue{Kind: KindOther}, nil
	case '[':
		count, err := r.u2()
		if err != nil {
			return ElementValue{}, err
		}
		list := make([]ElementValue, 0, count)
		for i := 0; i < int(count); i++ {
			member, err := readElementValue(r, cp)
			if err != nil {
				return ElementValue{}, err
			}
			list = append(list, member)
		}
		return ElementValue{Kind: KindList, List: list}, nil
	default:
		return ElementValue{}, ErrTruncated
	}
}

// readAnnotationValues parses the element pairs of one annotation whose
// descriptor already matched.
func readAnnotationValues(r *byteReader, cp *constPool, numPairs uint16) (*AnnotationValues, error) {
	values := &AnnotationValues{}
	for i := 0; i < int(numPairs); i++ {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.lookupUtf8(nameIndex)
		if err != nil {
			return nil, err
		}
		value, err := readElementValue(r, cp)
		if err != nil {
			return nil, err
		}
		values.Append(name, value)
	}
	return values, nil
}

// skipAnnotation consumes one annotation structure without keeping its values.
func skipAnnotation(r *byteReader, cp *constPool) error {
	if err := r.skip(2); err != nil { // type index
		return err
	}
	numPairs, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(numPairs); i++ {
		if err := r.skip(2); err != nil { // element name index
			return err
		}
		if _, err := readElementValue(r, cp); err != nil {
			return err
		}
	}
	return nil
}

// descriptorToInternalName unwraps an object type descriptor such as
// "Lcom/example/Foo;" to its internal name. Anything else passes through
// unchanged.
func descriptorToInternalName(descriptor string) string {
	if strings.HasPrefix(descriptor, "L") && strings.HasSuffix(descriptor, ";") {
		return descriptor[1 : len(descriptor)-1]
	}
	return descriptor
}
