// Package shm implements named shared memory segments and allocators
// for buffers that must be visible across processes.
//
// Segments are files in the shared memory filesystem (/dev/shm where
// available, otherwise the OS temporary directory) mapped MAP_SHARED
// into the address space of every process that opens them by name.
package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const shmDir = "/dev/shm"

// Segment is a named shared memory mapping
type Segment struct {
	name string
	path string
	size int
	file *os.File
	data []byte
}

// Dir returns the directory in which segments are created
func Dir() string {
	if info, err := os.Stat(shmDir); err == nil && info.IsDir() {
		return shmDir
	}
	return os.TempDir()
}

// Create creates and maps a new zeroed segment of size bytes. It is an
// error if a segment with the same name already exists.
func Create(name string, size int) (*Segment, error) {
	if size < 0 {
		return nil, fmt.Errorf("create: illegal segment size %v", size)
	}

	path := filepath.Join(Dir(), name)
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("create: could not create segment %v: %w",
			name, err)
	}

	if err := file.Truncate(int64(size)); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create: could not size segment %v: %w",
			name, err)
	}

	s, err := mapSegment(name, path, size, file)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("create: %w", err)
	}
	return s, nil
}

// Open maps an existing segment by name
func Open(name string) (*Segment, error) {
	path := filepath.Join(Dir(), name)
	file, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open: could not open segment %v: %w",
			name, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open: could not stat segment %v: %w",
			name, err)
	}

	s, err := mapSegment(name, path, int(info.Size()), file)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return s, nil
}

// mapSegment maps size bytes of file. Zero length mappings are illegal,
// so empty segments are left unmapped.
func mapSegment(name, path string, size int, file *os.File) (*Segment,
	error) {
	data := []byte{}
	if size > 0 {
		var err error
		data, err = unix.Mmap(int(file.Fd()), 0, size,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("could not map segment %v: %w", name, err)
		}
	}

	return &Segment{
		name: name,
		path: path,
		size: size,
		file: file,
		data: data,
	}, nil
}

// Name returns the name other processes can Open the segment by
func (s *Segment) Name() string {
	return s.name
}

// Size returns the size of the segment in bytes
func (s *Segment) Size() int {
	return s.size
}

// Bytes returns the mapped memory of the segment. The slice is only
// valid until Close is called.
func (s *Segment) Bytes() []byte {
	if s.data == nil {
		return nil
	}
	return s.data[:s.size:s.size]
}

// Close unmaps the segment from this process. The segment itself
// persists until Unlink is called.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}

	var err error
	if len(s.data) > 0 {
		err = unix.Munmap(s.data)
	}
	s.data = nil
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close: could not unmap segment %v: %w", s.name,
			err)
	}
	return nil
}

// Unlink removes the segment name. Processes which still have the
// segment mapped keep their mapping.
func (s *Segment) Unlink() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlink: could not remove segment %v: %w",
			s.name, err)
	}
	return nil
}
