package sessionlog

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/j-veylop/codexhud/internal/models"
)

// LatestEvent scans the last maxBytes of path and returns its newest event.
// If that event is older than since, nil is returned: anything earlier in
// the file is older still.
func LatestEvent(path string, since *time.Time, maxBytes int64) (*models.UsageEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, nil
	}

	start := StartOffset(info.Size(), maxBytes)
	data := make([]byte, info.Size()-start)
	if _, err := f.ReadAt(data, start); err != nil && err != io.EOF {
		return nil, err
	}

	lines := bytes.Split(data, []byte{'\n'})
	if start > 0 {
		lines = lines[1:]
	}

	for i := len(lines) - 1; i >= 0; i-- {
		ev, ok := ParseLine(lines[i])
		if !ok {
			continue
		}
		if since != nil && ev.Timestamp.Before(*since) {
			return nil, nil
		}
		return ev, nil
	}
	return nil, nil
}
