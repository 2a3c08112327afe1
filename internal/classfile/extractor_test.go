package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixref/internal/classfile/classfiletest"
)

func TestExtract_MixinWithClassAndStringTargets(t *testing.T) {
	b := classfiletest.NewBuilder("com/example/MixinA")
	cp := b.ConstPool()
	b.WithAnnotation(false, MixinAnnotationDescriptor,
		classfiletest.ElementPair{
			Name: "value",
			Value: classfiletest.ArrayValue(
				classfiletest.ClassValue(cp, "Lcom/example/TypeA;"),
				classfiletest.ClassValue(cp, "Lcom/example/TypeB;"),
			),
		},
		classfiletest.ElementPair{
			Name: "targets",
			Value: classfiletest.ArrayValue(
				classfiletest.StringValue(cp, "com.example.Foo"),
			),
		},
	)

	result, err := Extract(b.Build())

	require.NoError(t, err)
	assert.Equal(t, "com/example/MixinA", result.ClassName)
	// "value" entries precede "targets" entries, each in declaration order.
	assert.Equal(t, []string{"com/example/TypeA", "com/example/TypeB", "com/example/Foo"}, result.Targets)
	assert.True(t, result.HasTargets())
}

func TestExtract_NoAnnotation(t *testing.T) {
	data := classfiletest.NewBuilder("com/example/Plain").Build()

	result, err := Extract(data)

	require.NoError(t, err)
	assert.Equal(t, "com/example/Plain", result.ClassName)
	assert.Empty(t, result.Targets)
	assert.False(t, result.HasTargets())
}

func TestExtract_OtherAnnotationsAreSkipped(t *testing.T) {
	b := classfiletest.NewBuilder("com/example/MixinB")
	cp := b.ConstPool()
	// A non-matching annotation with assorted value shapes precedes the
	// marker in the same attribute.
	b.WithAnnotation(false, "Lcom/example/Unrelated;",
		classfiletest.ElementPair{Name: "num", Value: classfiletest.IntValue(cp, 7)},
		classfiletest.ElementPair{Name: "mode", Value: classfiletest.EnumValue(cp, "Lcom/example/Mode;", "FAST")},
		classfiletest.ElementPair{
			Name:  "names",
			Value: classfiletest.ArrayValue(classfiletest.StringValue(cp, "x"), classfiletest.StringValue(cp, "y")),
		},
	)
	b.WithAnnotation(false, MixinAnnotationDescriptor,
		classfiletest.ElementPair{
			Name:  "targets",
			Value: classfiletest.ArrayValue(classfiletest.StringValue(cp, "a.b.C")),
		},
	)

	result, err := Extract(b.Build())

	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/C"}, result.Targets)
}

func TestExtract_VisibleAnnotationTable(t *testing.T) {
	b := classfiletest.NewBuilder("com/example/MixinC")
	cp := b.ConstPool()
	b.WithAnnotation(true, MixinAnnotationDescriptor,
		classfiletest.ElementPair{
			Name:  "value",
			Value: classfiletest.ArrayValue(classfiletest.ClassValue(cp, "Lcom/example/Target;")),
		},
	)

	result, err := Extract(b.Build())

	require.NoError(t, err)
	assert.Equal(t, []string{"com/example/Target"}, result.Targets)
}

func TestExtract_DotNormalization(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		expected string
	}{
		{"dotted name", "a.b.C", "a/b/C"},
		{"already slashed", "a/b/C", "a/b/C"},
		{"no package", "C", "C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := classfiletest.NewBuilder("com/example/M")
			cp := b.ConstPool()
			b.WithAnnotation(false, MixinAnnotationDescriptor,
				classfiletest.ElementPair{
					Name:  "targets",
					Value: classfiletest.ArrayValue(classfiletest.StringValue(cp, tt.target)),
				},
			)

			result, err := Extract(b.Build())

			require.NoError(t, err)
			assert.Equal(t, []string{tt.expected}, result.Targets)
		})
	}
}

func TestExtract_MisshapedTargetsElement(t *testing.T) {
	// "targets" declared as a class array instead of a string array
	// contributes nothing; the class still resolves.
	b := classfiletest.NewBuilder("com/example/Odd")
	cp := b.ConstPool()
	b.WithAnnotation(false, MixinAnnotationDescriptor,
		classfiletest.ElementPair{
			Name:  "targets",
			Value: classfiletest.ArrayValue(classfiletest.ClassValue(cp, "Lcom/example/NotAString;")),
		},
	)

	result, err := Extract(b.Build())

	require.NoError(t, err)
	assert.Equal(t, "com/example/Odd", result.ClassName)
	assert.Empty(t, result.Targets)
}

func TestExtract_SkipsFieldsAndConstants(t *testing.T) {
	b := classfiletest.NewBuilder("com/example/WithMembers")
	cp := b.ConstPool()
	cp.AddLong(1234567890123) // two-slot constant pool entry
	b.WithField("serialVersionUID", "J", []byte{0x00, 0x01})
	b.WithAnnotation(false, MixinAnnotationDescriptor,
		classfiletest.ElementPair{
			Name:  "value",
			Value: classfiletest.ArrayValue(classfiletest.ClassValue(cp, "Lcom/example/Host;")),
		},
	)

	result, err := Extract(b.Build())

	require.NoError(t, err)
	assert.Equal(t, "com/example/WithMembers", result.ClassName)
	assert.Equal(t, []string{"com/example/Host"}, result.Targets)
}

func TestExtract_BadMagic(t *testing.T) {
	data := classfiletest.NewBuilder("com/example/X").Build()
	data[0] = 0xDE

	_, err := Extract(data)

	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestExtract_UnsupportedVersion(t *testing.T) {
	data := classfiletest.NewBuilder("com/example/X").
		WithMajorVersion(99).
		Build()

	_, err := Extract(data)

	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestExtract_Truncated(t *testing.T) {
	data := classfiletest.NewBuilder("com/example/X").Build()

	for _, cut := range []int{0, 3, 8, 12, len(data) - 1} {
		_, err := Extract(data[:cut])
		assert.Error(t, err, "cut at %d bytes", cut)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	_, err := Extract(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}
