// If you are AI: This file contains unit tests for typed views and formats.

package flow

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestElementTypeOf(t *testing.T) {
	if ElementTypeOf(PixelFormatF64C3) != ElementFloat64 {
		t.Error("CV_64FC3 should map to float64")
	}
	if ElementTypeOf(PixelFormatF32C3) != ElementFloat32 {
		t.Error("CV_32FC3 should map to float32")
	}
	if ElementTypeOf(PixelFormatU8C3) != ElementUint8 {
		t.Error("CV_8UC3 should map to uint8")
	}
	if ElementTypeOf("YUV420") != ElementUint8 {
		t.Error("Unknown tags should default to uint8")
	}
}

func TestFormatSizes(t *testing.T) {
	f := NewFormat(PixelFormatF32C3, 4, 5, 3)
	if f.Elements() != 60 {
		t.Errorf("Expected 60 elements, got %d", f.Elements())
	}
	if f.ByteLen() != 240 {
		t.Errorf("Expected 240 bytes, got %d", f.ByteLen())
	}
	if f.String() != "CV_32FC3[4x5x3]" {
		t.Errorf("Unexpected string form %q", f.String())
	}
	if err := NewFormat(PixelFormatU8C3, 4, 0).Validate(); err == nil {
		t.Error("Zero dim should fail validation")
	}
}

func TestNewFormatCopiesDims(t *testing.T) {
	dims := []int{2, 3}
	f := NewFormat(PixelFormatU8C3, dims...)
	dims[0] = 100
	if f.Dims[0] != 2 {
		t.Error("Format must not alias the caller's dims")
	}
}

func TestViewUint8(t *testing.T) {
	buf := NewBuffer(12, nil)
	copy(buf.Bytes(), []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})

	v, err := NewView(buf, testFormat, nil)
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}
	data, err := v.Uint8()
	if err != nil {
		t.Fatalf("Uint8 failed: %v", err)
	}
	if len(data) != 12 || data[11] != 12 {
		t.Errorf("Unexpected view contents %v", data)
	}

	// Zero copy: writes to the buffer are visible through the view
	buf.Bytes()[0] = 99
	if data[0] != 99 {
		t.Error("View should share memory with the buffer")
	}

	shape := v.Shape()
	if len(shape) != 3 || shape[0] != 2 || shape[2] != 3 {
		t.Errorf("Unexpected shape %v", shape)
	}
}

func TestViewFloat32(t *testing.T) {
	format := NewFormat(PixelFormatF32C3, 1, 2, 3)
	buf := NewBuffer(format.ByteLen(), nil)
	for i := 0; i < 6; i++ {
		binary.NativeEndian.PutUint32(buf.Bytes()[i*4:], math.Float32bits(float32(i)+0.5))
	}

	v, err := NewView(buf, format, nil)
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}
	data, err := v.Float32()
	if err != nil {
		t.Fatalf("Float32 failed: %v", err)
	}
	if len(data) != 6 || data[5] != 5.5 {
		t.Errorf("Unexpected float32 contents %v", data)
	}

	if _, err := v.Uint8(); !errors.Is(err, ErrElementType) {
		t.Errorf("Expected ErrElementType for uint8 access, got %v", err)
	}
}

func TestViewFloat64(t *testing.T) {
	format := NewFormat(PixelFormatF64C3, 2, 1, 3)
	buf := NewBuffer(format.ByteLen(), nil)
	binary.NativeEndian.PutUint64(buf.Bytes()[8:], math.Float64bits(-2.25))

	v, err := NewView(buf, format, nil)
	if err != nil {
		t.Fatalf("NewView failed: %v", err)
	}
	data, err := v.Float64()
	if err != nil {
		t.Fatalf("Float64 failed: %v", err)
	}
	if data[1] != -2.25 {
		t.Errorf("Expected -2.25, got %v", data[1])
	}
	if _, err := v.Float32(); !errors.Is(err, ErrElementType) {
		t.Errorf("Expected ErrElementType for float32 access, got %v", err)
	}
}

func TestViewBounds(t *testing.T) {
	buf := NewBuffer(8, nil)

	if _, err := NewView(buf, NewFormat(PixelFormatF32C3, 1, 1, 3), nil); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds for oversized format, got %v", err)
	}
	if _, err := NewView(nil, testFormat, nil); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds for nil buffer, got %v", err)
	}
	if _, err := NewView(buf, Format{PixelFormat: PixelFormatU8C3}, nil); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds for format without dims, got %v", err)
	}
}

func TestFormatOverflow(t *testing.T) {
	huge := NewFormat(PixelFormatU8C3, math.MaxInt/2, 3)
	if huge.Elements() != 0 || huge.ByteLen() != 0 {
		t.Errorf("Overflowing dims should report 0, got %d elements, %d bytes", huge.Elements(), huge.ByteLen())
	}
	if err := huge.Validate(); err == nil {
		t.Error("Overflowing dims should fail validation")
	}

	// Elements fit but the float64 byte count does not
	wide := NewFormat(PixelFormatF64C3, math.MaxInt/4)
	if wide.Elements() == 0 {
		t.Error("Element count should still fit")
	}
	if err := wide.Validate(); err == nil {
		t.Error("Overflowing byte length should fail validation")
	}

	buf := NewBuffer(12, nil)
	if _, err := NewView(buf, huge, nil); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds for overflowing format, got %v", err)
	}

	// A view that bypassed NewView still refuses to project
	v := View{buf: buf, format: huge}
	if _, err := v.Uint8(); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds from Uint8, got %v", err)
	}
}

func TestReceiveRejectsOversizedFormat(t *testing.T) {
	src := NewSender("cam", "out", testType)
	dst := NewReceiver("det", "in", testType)
	if err := Connect(src, dst, 1); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	buf, freed := newTestBuffer()
	src.Send(1, NewFormat(PixelFormatF64C3, 10, 10, 3), buf)

	if _, _, _, err := dst.Receive(); !errors.Is(err, ErrViewBounds) {
		t.Errorf("Expected ErrViewBounds, got %v", err)
	}
	if freed.Load() != 1 {
		t.Error("Malformed frame should be released back to the sender")
	}
}
