package surface

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Pool is the producer side: a ring of writable mapped slots at a fixed resolution.
type Pool struct {
	opts   Options
	width  int
	height int
	stride int

	mu     sync.Mutex
	maps   [][]byte
	files  []*os.File
	next   uint32
	closed bool
}

// NewPool creates (or truncates) the slot files and maps them read-write.
func NewPool(opts Options, width, height int) (*Pool, error) {
	opts = opts.withDefaults()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: invalid size %dx%d", width, height)
	}
	if opts.Service == "" {
		return nil, fmt.Errorf("surface: service name required")
	}

	p := &Pool{
		opts:   opts,
		width:  width,
		height: height,
		stride: width * BytesPerPixel,
		next:   1,
	}
	size := HeaderSize + p.stride*height

	for slot := 0; slot < opts.Slots; slot++ {
		f, err := os.OpenFile(opts.slotPath(slot), os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open slot %d: %w", slot, err)
		}
		if err := f.Truncate(int64(size)); err != nil {
			f.Close()
			p.Close()
			return nil, fmt.Errorf("size slot %d: %w", slot, err)
		}
		m, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			f.Close()
			p.Close()
			return nil, fmt.Errorf("map slot %d: %w", slot, err)
		}
		// Zero header until first write so importers reject the slot
		clear(m[:HeaderSize])
		p.files = append(p.files, f)
		p.maps = append(p.maps, m)
	}

	return p, nil
}

// Width returns the pool resolution width
func (p *Pool) Width() int { return p.width }

// Height returns the pool resolution height
func (p *Pool) Height() int { return p.height }

// Write copies BGRA pixels (stride = width*4) into the next slot and returns
// its handle. Handle 0 is never issued.
func (p *Pool) Write(pix []byte) (uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	if len(pix) != p.stride*p.height {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrSize, len(pix), p.stride*p.height)
	}

	handle := p.next
	p.next++
	if p.next == 0 {
		p.next = 1
	}

	m := p.maps[p.opts.slotFor(handle)]

	// Invalidate, fill, then publish the handle
	Header{}.encode(m[:HeaderSize])
	copy(m[HeaderSize:], pix)
	Header{
		Magic:  magic,
		Handle: handle,
		Width:  uint32(p.width),
		Height: uint32(p.height),
		Stride: uint32(p.stride),
	}.encode(m[:HeaderSize])

	return handle, nil
}

// Close unmaps and removes the slot files
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	for _, m := range p.maps {
		if err := unix.Munmap(m); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range p.files {
		name := f.Name()
		f.Close()
		os.Remove(name)
	}
	p.maps = nil
	p.files = nil
	return firstErr
}
