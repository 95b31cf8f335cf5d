package sessionlog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// Reader tails a single session log from a byte offset. It owns its file
// handle and is not safe for concurrent use; discard it and open a new one
// when the tracked file changes or shrinks.
type Reader struct {
	file        *os.File
	path        string
	carry       []byte
	offset      int64
	skipPartial bool
}

// OpenReader opens path and positions the reader at offset.
// offset must be a line boundary, such as a previous Reader's Offset().
func OpenReader(path string, offset int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	return &Reader{file: f, path: path, offset: offset}, nil
}

// OpenTail opens path positioned tailBytes before its end. If that lands in
// the middle of a line, the partial line is dropped on the first Read.
func OpenTail(path string, tailBytes int64) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	offset := StartOffset(info.Size(), tailBytes)
	r := &Reader{file: f, path: path, offset: offset}
	if offset > 0 {
		prev := make([]byte, 1)
		if _, err := f.ReadAt(prev, offset-1); err != nil || prev[0] != '\n' {
			r.skipPartial = true
		}
	}
	return r, nil
}

// StartOffset is where a fresh reader should begin so that at most
// tailBytes of history are read.
func StartOffset(size, tailBytes int64) int64 {
	if tailBytes <= 0 {
		return 0
	}
	return max(0, size-tailBytes)
}

// Path returns the file being tailed.
func (r *Reader) Path() string {
	return r.path
}

// Offset returns the number of bytes consumed so far, including any
// partial line held back for the next Read.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Read consumes everything appended since the last call and returns the
// newest event whose timestamp is not before since. It returns nil, nil
// when no qualifying complete line was appended.
func (r *Reader) Read(since *time.Time) (*models.UsageEvent, error) {
	info, err := r.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", r.path, err)
	}
	if info.Size() < r.offset {
		return nil, fmt.Errorf("%s: size %d below offset %d: %w", r.path, info.Size(), r.offset, ErrTruncated)
	}
	if info.Size() == r.offset {
		return nil, nil
	}

	if _, err := r.file.Seek(r.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", r.path, err)
	}
	data, err := io.ReadAll(r.file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	r.offset += int64(len(data))
	r.carry = append(r.carry, data...)

	var latest *models.UsageEvent
	for {
		idx := bytes.IndexByte(r.carry, '\n')
		if idx < 0 {
			break
		}
		line := r.carry[:idx]
		r.carry = r.carry[idx+1:]

		if r.skipPartial {
			r.skipPartial = false
			continue
		}

		ev, ok := ParseLine(line)
		if !ok {
			continue
		}
		if since != nil && ev.Timestamp.Before(*since) {
			continue
		}
		if latest == nil || ev.Timestamp.After(latest.Timestamp) {
			latest = ev
		}
	}

	// Detach the remainder so the consumed prefix can be collected.
	if len(r.carry) == 0 {
		r.carry = nil
	} else {
		r.carry = bytes.Clone(r.carry)
	}

	return latest, nil
}

// Close releases the file handle.
func (r *Reader) Close() error {
	return r.file.Close()
}
