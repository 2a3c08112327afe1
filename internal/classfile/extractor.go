// Package classfile parses just enough of a compiled class's binary structure
// to recover the class's own internal name and the target types declared by
// the mixin marker annotation, if present. It never resolves hierarchies,
// method bodies, or debug metadata.
package classfile

import (
	"errors"
	"strings"

	"mixref/internal/common"
)

// MixinAnnotationDescriptor is the type descriptor of the marker annotation
// whose element values are extracted. Fixed at build time, not configurable.
const MixinAnnotationDescriptor = "Lorg/spongepowered/asm/mixin/Mixin;"

const (
	classFileMagic = 0xCAFEBABE

	// Oldest and newest class file major versions the reader accepts.
	minSupportedMajor = 45 // JDK 1.1
	maxSupportedMajor = 69 // Java 25

	attrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"

	elementDefault = "value"
	elementTargets = "targets"
)

// Structural parse failures. All of them mark a single class entry as
// malformed; callers skip the entry and continue.
var (
	ErrBadMagic           = errors.New("bad class file magic")
	ErrUnsupportedVersion = errors.New("unsupported class file version")
	ErrBadConstantPool    = errors.New("bad constant pool")
	ErrTruncated          = errors.New("truncated class file")
)

// ClassTargets is the extraction result for one class: its own internal name
// and the marker annotation's declared targets. A class without the marker
// annotation yields an empty Targets slice, distinct from a parse error.
type ClassTargets struct {
	ClassName string
	Targets   []string
}

// HasTargets reports whether the marker annotation contributed any targets.
func (ct *ClassTargets) HasTargets() bool {
	return len(ct.Targets) > 0
}

// Extract parses the raw bytes of one compiled class. Pure function of its
// input; no side effects.
//
// Targets are the entries of the annotation's "value" element (class
// literals, internal names taken as-is) followed by the entries of its
// "targets" element (string literals, dots normalized to slashes), each list
// in binary declaration order.
func Extract(data []byte) (*ClassTargets, error) {
	r := newByteReader(data)

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classFileMagic {
		return nil, ErrBadMagic
	}

	if _, err := r.u2(); err != nil { // minor version
		return nil, err
	}
	major, err := r.u2()
	if err != nil {
		return nil, err
	}
	if major < minSupportedMajor || major > maxSupportedMajor {
		return nil, common.WrapErrorf(ErrUnsupportedVersion, "major version %d", major)
	}

	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}

	if err := r.skip(2); err != nil { // access flags
		return nil, err
	}
	thisClass, err := r.u2()
	if err != nil {
		return nil, err
	}
	className, err := cp.lookupClassName(thisClass)
	if err != nil {
		return nil, err
	}
	if err := r.skip(2); err != nil { // super class
		return nil, err
	}

	interfaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	if err := r.skip(2 * int(interfaceCount)); err != nil {
		return nil, err
	}

	// Fields and methods share the same member layout; both are skipped
	// structurally.
	for i := 0; i < 2; i++ {
		if err := skipMembers(r); err != nil {
			return nil, err
		}
	}

	values, err := findMarkerAnnotation(r, cp)
	if err != nil {
		return nil, err
	}

	result := &ClassTargets{ClassName: className}
	if values != nil {
		result.Targets = collectTargets(values)
	}
	return result, nil
}

// skipMembers consumes one fields or methods table, including per-member
// attributes, which are skipped by their declared length.
func skipMembers(r *byteReader) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if err := r.skip(6); err != nil { // access, name, descriptor
			return err
		}
		if err := skipAttributes(r); err != nil {
			return err
		}
	}
	return nil
}

// skipAttributes consumes one attributes table by declared lengths.
func skipAttributes(r *byteReader) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if err := r.skip(2); err != nil { // attribute name
			return err
		}
		length, err := r.u4()
		if err != nil {
			return err
		}
		if err := r.skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}

// findMarkerAnnotation walks the class-level attributes and returns the
// element values of the first marker annotation occurrence, or nil when the
// class does not carry it. Only the two runtime annotation attributes are
// parsed; every other attribute is skipped by its declared length.
func findMarkerAnnotation(r *byteReader, cp *constPool) (*AnnotationValues, error) {
	count, err := r.u2()
	if err != nil {
		return nil, err
	}

	var found *AnnotationValues
	for i := 0; i < int(count); i++ {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		name, err := cp.lookupUtf8(nameIndex)
		if err != nil {
			return nil, err
		}

		if found == nil && (name == attrRuntimeVisibleAnnotations || name == attrRuntimeInvisibleAnnotations) {
			body, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			found, err = scanAnnotationsAttribute(newByteReader(body), cp)
			if err != nil {
				return nil, err
			}
			continue
		}

		if err := r.skip(int(length)); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// scanAnnotationsAttribute parses one Runtime*Annotations attribute body,
// capturing the first annotation whose descriptor matches the marker and
// structurally skipping the rest.
func scanAnnotationsAttribute(r *byteReader, cp *constPool) (*AnnotationValues, error) {
	num, err := r.u2()
	if err != nil {
		return nil, err
	}

	var found *AnnotationValues
	for i := 0; i < int(num); i++ {
		typeIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		numPairs, err := r.u2()
		if err != nil {
			return nil, err
		}
		descriptor, err := cp.lookupUtf8(typeIndex)
		if err != nil {
			return nil, err
		}

		if found == nil && descriptor == MixinAnnotationDescriptor {
			found, err = readAnnotationValues(r, cp, numPairs)
			if err != nil {
				return nil, err
			}
			continue
		}

		for p := 0; p < int(numPairs); p++ {
			if err := r.skip(2); err != nil { // element name
				return nil, err
			}
			if _, err := readElementValue(r, cp); err != nil {
				return nil, err
			}
		}
	}
	return found, nil
}

// collectTargets merges the two element lists: "value" class literals first,
// then "targets" strings with dots normalized to slashes.
func collectTargets(values *AnnotationValues) []string {
	var targets []string
	targets = append(targets, values.TypeList(elementDefault)...)
	for _, s := range values.StringList(elementTargets) {
		targets = append(targets, strings.ReplaceAll(s, ".", "/"))
	}
	return targets
}
