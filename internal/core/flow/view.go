// If you are AI: This file implements View, a typed read-only projection over a received buffer.
// Views never copy: accessors reinterpret the buffer after bounds and alignment checks.

package flow

import (
	"fmt"
	"unsafe"
)

// View is a typed projection of a buffer according to a Format.
// The View remembers the sender that delivered it so it can be released
// even after the link was disconnected.
type View struct {
	buf    *Buffer
	format Format
	origin *Sender
}

// NewView projects format over buf. origin may be nil for views that are not
// tracked by any sender.
// Returns ErrViewBounds if the format does not fit in the buffer.
func NewView(buf *Buffer, format Format, origin *Sender) (View, error) {
	if buf == nil {
		return View{}, fmt.Errorf("nil buffer: %w", ErrViewBounds)
	}
	if err := format.Validate(); err != nil {
		return View{}, fmt.Errorf("%v: %w", err, ErrViewBounds)
	}
	if need := format.ByteLen(); need > buf.Len() {
		return View{}, fmt.Errorf("format %s needs %d bytes, buffer has %d: %w", format, need, buf.Len(), ErrViewBounds)
	}
	return View{buf: buf, format: format, origin: origin}, nil
}

// Buffer returns the buffer handle behind the view.
func (v View) Buffer() *Buffer {
	return v.buf
}

// Format returns the view's format.
func (v View) Format() Format {
	return v.format
}

// Element returns the element type of the view.
func (v View) Element() ElementType {
	return v.format.Element()
}

// Shape returns a copy of the view dims.
func (v View) Shape() []int {
	s := make([]int, len(v.format.Dims))
	copy(s, v.format.Dims)
	return s
}

// Len returns the number of elements in the view.
func (v View) Len() int {
	return v.format.Elements()
}

// Uint8 returns the view as a uint8 slice.
func (v View) Uint8() ([]uint8, error) {
	if err := v.check(ElementUint8); err != nil {
		return nil, err
	}
	return v.buf.data[:v.Len()], nil
}

// Float32 returns the view as a float32 slice.
func (v View) Float32() ([]float32, error) {
	if err := v.check(ElementFloat32); err != nil {
		return nil, err
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&v.buf.data[0])), v.Len()), nil
}

// Float64 returns the view as a float64 slice.
func (v View) Float64() ([]float64, error) {
	if err := v.check(ElementFloat64); err != nil {
		return nil, err
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&v.buf.data[0])), v.Len()), nil
}

// check verifies element type, bounds and alignment before a projection.
func (v View) check(want ElementType) error {
	if v.buf == nil {
		return ErrViewBounds
	}
	got := v.format.Element()
	if got != want {
		return fmt.Errorf("view is %s, requested %s: %w", got, want, ErrElementType)
	}
	if n := v.format.ByteLen(); n <= 0 || n > len(v.buf.data) || v.Len() <= 0 {
		return ErrViewBounds
	}
	if uintptr(unsafe.Pointer(&v.buf.data[0]))%uintptr(want.Size()) != 0 {
		return fmt.Errorf("buffer not aligned for %s: %w", want, ErrViewBounds)
	}
	return nil
}
