package cog

import (
	"io"
	"os"

	"github.com/pspoerri/geotiff2raster/internal/rastererr"
)

// MmappedFile memory-maps a COG file read-only and exposes it as an
// io.ReaderAt, the fastest backing store for DecodeChunk's random chunk
// reads on platforms that support mmap. On platforms that don't
// (mmap_other.go), OpenMmapped returns an IO error rather than silently falling
// back to ordinary file reads; callers wanting a portable ReaderAt should
// pass an *os.File to Open/DecodeChunk directly instead.
type MmappedFile struct {
	f    *os.File
	data []byte
}

// OpenMmapped mmaps path for reading.
func OpenMmapped(path string) (*MmappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, rastererr.IO("cog.OpenMmapped", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rastererr.IO("cog.OpenMmapped", err)
	}
	data, err := mmapFile(f.Fd(), int(info.Size()))
	if err != nil {
		f.Close()
		return nil, rastererr.IO("cog.OpenMmapped", err)
	}
	return &MmappedFile{f: f, data: data}, nil
}

// ReadAt implements io.ReaderAt against the mapped region.
func (m *MmappedFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file and closes the underlying descriptor.
func (m *MmappedFile) Close() error {
	unmapErr := munmapFile(m.data)
	closeErr := m.f.Close()
	if unmapErr != nil {
		return rastererr.IO("cog.MmappedFile.Close", unmapErr)
	}
	if closeErr != nil {
		return rastererr.IO("cog.MmappedFile.Close", closeErr)
	}
	return nil
}
