// If you are AI: This file defines element types and the Format descriptor carried by frames.
// Format tags follow the codec layer's pixel format strings.

package flow

import (
	"fmt"
	"math"
	"strings"
)

// ElementType is the scalar type of every element in a buffer.
type ElementType uint8

const (
	// ElementUint8 is an 8-bit unsigned element.
	ElementUint8 ElementType = iota
	// ElementFloat32 is a 32-bit float element.
	ElementFloat32
	// ElementFloat64 is a 64-bit float element.
	ElementFloat64
)

// Pixel format tags understood by the fabric.
const (
	PixelFormatU8C3  = "CV_8UC3"
	PixelFormatF32C3 = "CV_32FC3"
	PixelFormatF64C3 = "CV_64FC3"
)

// Size returns the element width in bytes.
func (t ElementType) Size() int {
	switch t {
	case ElementFloat32:
		return 4
	case ElementFloat64:
		return 8
	default:
		return 1
	}
}

// String returns a human-readable representation of the element type.
func (t ElementType) String() string {
	switch t {
	case ElementUint8:
		return "uint8"
	case ElementFloat32:
		return "float32"
	case ElementFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

// ElementTypeOf maps a pixel format tag to its element type.
// Unrecognized tags map to ElementUint8.
func ElementTypeOf(pixelFormat string) ElementType {
	switch pixelFormat {
	case PixelFormatF64C3:
		return ElementFloat64
	case PixelFormatF32C3:
		return ElementFloat32
	default:
		return ElementUint8
	}
}

// Format describes the element type and shape of a frame's buffer.
// Dims are ordered outermost first, e.g. {height, width, channels}.
type Format struct {
	PixelFormat string `msgpack:"pixel_format" json:"pixel_format"`
	Dims        []int  `msgpack:"dims" json:"dims"`
}

// NewFormat creates a Format, copying dims so the caller may reuse its slice.
func NewFormat(pixelFormat string, dims ...int) Format {
	d := make([]int, len(dims))
	copy(d, dims)
	return Format{PixelFormat: pixelFormat, Dims: d}
}

// Element returns the element type selected by the pixel format tag.
func (f Format) Element() ElementType {
	return ElementTypeOf(f.PixelFormat)
}

// Elements returns the number of elements (product of dims).
// Returns 0 for a format without dims, with a non-positive dim, or whose
// product does not fit in an int.
func (f Format) Elements() int {
	n, _ := f.extent(1)
	return n
}

// ByteLen returns the number of bytes the format occupies.
// Returns 0 whenever Elements would, or when the byte count overflows.
func (f Format) ByteLen() int {
	n, _ := f.extent(f.Element().Size())
	return n
}

// extent multiplies unit by every dim.
// ok is false (and n is 0) when there are no dims, a dim is not positive,
// or the product overflows int.
func (f Format) extent(unit int) (n int, ok bool) {
	if len(f.Dims) == 0 {
		return 0, false
	}
	n = unit
	for _, d := range f.Dims {
		if d <= 0 || n > math.MaxInt/d {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Validate reports whether every dimension is positive and the byte size
// of the format fits in an int.
func (f Format) Validate() error {
	if len(f.Dims) == 0 {
		return fmt.Errorf("format %q has no dims", f.PixelFormat)
	}
	for i, d := range f.Dims {
		if d <= 0 {
			return fmt.Errorf("format %q dim %d must be positive, got %d", f.PixelFormat, i, d)
		}
	}
	if _, ok := f.extent(f.Element().Size()); !ok {
		return fmt.Errorf("format %s overflows the addressable size", f)
	}
	return nil
}

// String returns the format as "TAG[d0xd1x...]".
func (f Format) String() string {
	parts := make([]string, len(f.Dims))
	for i, d := range f.Dims {
		parts[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s[%s]", f.PixelFormat, strings.Join(parts, "x"))
}
