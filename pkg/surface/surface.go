// Package surface shares rendered frames between processes through
// memory-mapped files. The producer writes BGRA pixels into a fixed ring of
// slots and passes only the handle; the consumer maps the slot read-only and
// checks that the handle is still the one it was told about.
package surface

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
)

// HeaderSize is the fixed size of the slot header in bytes.
const HeaderSize = 32

// BytesPerPixel for BGRA.
const BytesPerPixel = 4

// DefaultSlots is the ring size; larger than the consumer queue plus the
// frame being emitted.
const DefaultSlots = 8

// DefaultDir is where memory-backed files live on Linux.
const DefaultDir = "/dev/shm"

const magic uint32 = 0x41465346 // "AFSF"

var (
	ErrBadMagic  = errors.New("surface: bad magic")
	ErrStale     = errors.New("surface: handle overwritten")
	ErrSize      = errors.New("surface: frame size mismatch")
	ErrClosed    = errors.New("surface: pool closed")
	ErrNoSurface = errors.New("surface: no surface for handle")
)

// Header is the slot metadata stored ahead of the pixels.
type Header struct {
	Magic  uint32
	Handle uint32
	Width  uint32
	Height uint32
	Stride uint32
}

func (h Header) encode(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], h.Magic)
	binary.LittleEndian.PutUint32(b[4:], h.Handle)
	binary.LittleEndian.PutUint32(b[8:], h.Width)
	binary.LittleEndian.PutUint32(b[12:], h.Height)
	binary.LittleEndian.PutUint32(b[16:], h.Stride)
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:  binary.LittleEndian.Uint32(b[0:]),
		Handle: binary.LittleEndian.Uint32(b[4:]),
		Width:  binary.LittleEndian.Uint32(b[8:]),
		Height: binary.LittleEndian.Uint32(b[12:]),
		Stride: binary.LittleEndian.Uint32(b[16:]),
	}
}

// Frame is an imported surface: BGRA pixels plus geometry.
type Frame struct {
	Handle uint32
	Width  int
	Height int
	Stride int
	Pix    []byte
}

// Options locates a pool's slot files.
type Options struct {
	Dir     string // Directory for slot files (default /dev/shm)
	Service string // Well-known service name shared by producer and consumer
	Slots   int    // Ring size (default 8)
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.Slots <= 0 {
		o.Slots = DefaultSlots
	}
	return o
}

// slotPath returns the backing file for a slot.
func (o Options) slotPath(slot int) string {
	return filepath.Join(o.Dir, fmt.Sprintf("%s-surface-%d", o.Service, slot))
}

func (o Options) slotFor(handle uint32) int {
	return int(handle % uint32(o.Slots))
}
