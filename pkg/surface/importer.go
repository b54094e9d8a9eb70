package surface

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// Importer is the consumer side: it resolves handles to pixels.
type Importer struct {
	opts Options
}

// NewImporter creates an importer for the slots of a service
func NewImporter(opts Options) *Importer {
	return &Importer{opts: opts.withDefaults()}
}

// Import maps the slot for handle read-only and copies the frame out.
// A slot that has since been reused for another handle yields ErrStale.
func (im *Importer) Import(handle uint32) (Frame, error) {
	if handle == 0 {
		return Frame{}, ErrNoSurface
	}

	f, err := os.Open(im.opts.slotPath(im.opts.slotFor(handle)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Frame{}, fmt.Errorf("%w: %d", ErrNoSurface, handle)
		}
		return Frame{}, fmt.Errorf("open surface %d: %w", handle, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Frame{}, fmt.Errorf("stat surface %d: %w", handle, err)
	}
	size := int(info.Size())
	if size < HeaderSize {
		return Frame{}, fmt.Errorf("%w: %d", ErrNoSurface, handle)
	}

	m, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return Frame{}, fmt.Errorf("map surface %d: %w", handle, err)
	}
	defer unix.Munmap(m)

	h := decodeHeader(m[:HeaderSize])
	if h.Magic != magic {
		return Frame{}, ErrBadMagic
	}
	if h.Handle != handle {
		return Frame{}, fmt.Errorf("%w: want %d, slot holds %d", ErrStale, handle, h.Handle)
	}
	n := int(h.Stride) * int(h.Height)
	if HeaderSize+n > size {
		return Frame{}, fmt.Errorf("%w: header claims %d bytes", ErrSize, n)
	}

	pix := make([]byte, n)
	copy(pix, m[HeaderSize:HeaderSize+n])

	// The producer may have reused the slot while we copied
	if decodeHeader(m[:HeaderSize]).Handle != handle {
		return Frame{}, fmt.Errorf("%w: %d rewritten during import", ErrStale, handle)
	}

	return Frame{
		Handle: handle,
		Width:  int(h.Width),
		Height: int(h.Height),
		Stride: int(h.Stride),
		Pix:    pix,
	}, nil
}
