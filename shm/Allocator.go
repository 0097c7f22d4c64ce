package shm

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/samuelfneumann/rlsampler/array"
	"go.uber.org/multierr"
)

// Allocator allocates named byte storage for buffers
type Allocator interface {
	// Allocate returns zeroed, 8-byte aligned storage of n bytes. The
	// name identifies the storage within the allocator.
	Allocate(name string, n int) ([]byte, error)

	// Shared returns whether storage is visible to other processes
	Shared() bool

	// Close releases all storage handed out by the allocator
	Close() error
}

// Local allocates storage on the Go heap of the current process
type Local struct{}

// Allocate implements the Allocator interface
func (Local) Allocate(_ string, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("allocate: illegal size %v", n)
	}
	return array.AlignedBytes(n), nil
}

// Shared implements the Allocator interface
func (Local) Shared() bool { return false }

// Close implements the Allocator interface
func (Local) Close() error { return nil }

// Arena allocates each buffer in its own shared memory segment. Segment
// names are the arena prefix followed by the buffer name, so another
// process which knows the prefix can Open any buffer of the arena.
type Arena struct {
	prefix string

	mu       sync.Mutex
	segments map[string]*Segment
	order    []string
}

// NewArena returns a new Arena with a unique prefix
func NewArena() *Arena {
	return NewArenaWithPrefix("rlsampler-" + uuid.NewString())
}

// NewArenaWithPrefix returns a new Arena whose segments are named with
// the given prefix
func NewArenaWithPrefix(prefix string) *Arena {
	return &Arena{
		prefix:   prefix,
		segments: make(map[string]*Segment),
	}
}

// Prefix returns the prefix shared by the names of all segments in the
// arena
func (a *Arena) Prefix() string {
	return a.prefix
}

// SegmentName returns the name of the segment backing the named buffer
func (a *Arena) SegmentName(name string) string {
	return a.prefix + "." + name
}

// Allocate implements the Allocator interface
func (a *Arena) Allocate(name string, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.segments[name]; ok {
		return nil, fmt.Errorf("allocate: buffer %v already allocated", name)
	}

	s, err := Create(a.SegmentName(name), n)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	a.segments[name] = s
	a.order = append(a.order, name)

	return s.Bytes(), nil
}

// Handles returns the segment name of every buffer in allocation order
func (a *Arena) Handles() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	handles := make([]string, len(a.order))
	for i, name := range a.order {
		handles[i] = a.segments[name].Name()
	}
	return handles
}

// Shared implements the Allocator interface
func (a *Arena) Shared() bool { return true }

// Close unmaps and unlinks every segment in the arena
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var err error
	for _, name := range a.order {
		s := a.segments[name]
		err = multierr.Append(err, s.Close())
		err = multierr.Append(err, s.Unlink())
	}
	a.segments = make(map[string]*Segment)
	a.order = nil

	return err
}
