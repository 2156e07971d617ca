// Package location supplies position samples for the delivery tracker.
package location

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/chrisdamba/partnerconsole/internal/models"
)

// Source produces position samples until ctx is cancelled or the underlying
// feed ends. The returned channel is closed in both cases. Watch must not
// block on the feed itself.
type Source interface {
	Watch(ctx context.Context) (<-chan models.Location, error)
}

// report is the subset of a gpsd TPV object we care about.
type report struct {
	Class string   `json:"class"`
	Mode  int      `json:"mode"`
	Lat   *float64 `json:"lat"`
	Lon   *float64 `json:"lon"`
}

// StreamSource reads gpsd-style JSON lines. Only TPV reports with a 2D or 3D
// fix are turned into samples; anything else on the stream is skipped.
type StreamSource struct {
	// open is set for sources that are reopened on every watch.
	open func() (io.ReadCloser, error)

	// a reader that cannot be reopened or closed is drained by one pump
	// shared by all watches
	shared io.Reader
	once   sync.Once
	lines  chan []byte
}

// IsStdin reports whether path names the standard input source.
func IsStdin(path string) bool { return path == "-" }

func NewStreamSource(r io.Reader) *StreamSource {
	return &StreamSource{shared: r, lines: make(chan []byte)}
}

// Open returns a source for path. "-" reads stdin; anything else is opened
// on every Watch, so a named pipe can be re-read per delivery.
func Open(path string) (Source, error) {
	switch {
	case path == "":
		return nil, fmt.Errorf("location source path is empty")
	case IsStdin(path):
		return NewStreamSource(os.Stdin), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("location source %s: %w", path, err)
	}
	return &StreamSource{open: func() (io.ReadCloser, error) {
		return os.Open(path)
	}}, nil
}

func (s *StreamSource) Watch(ctx context.Context) (<-chan models.Location, error) {
	out := make(chan models.Location)
	if s.open == nil {
		s.once.Do(func() { go s.pump() })
		go s.forward(ctx, s.lines, out)
		return out, nil
	}

	go func() {
		// opening a named pipe blocks until a writer shows up
		rc, err := s.open()
		if err != nil {
			close(out)
			log.Printf("Failed to open location stream: %v", err)
			return
		}
		defer rc.Close()
		if ctx.Err() != nil {
			close(out)
			return
		}
		stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
		defer stop()

		lines := make(chan []byte)
		go scan(rc, lines, ctx.Done(), func(err error) {
			if ctx.Err() == nil {
				log.Printf("Location stream ended with error: %v", err)
			}
		})
		s.forward(ctx, lines, out)
	}()
	return out, nil
}

func (s *StreamSource) pump() {
	scan(s.shared, s.lines, nil, func(err error) {
		log.Printf("Location stream ended with error: %v", err)
	})
}

// scan sends every line of r on lines and closes it at EOF or once done is
// closed. A nil done never fires.
func scan(r io.Reader, lines chan<- []byte, done <-chan struct{}, onErr func(error)) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		select {
		case lines <- line:
		case <-done:
			return
		}
	}
	if err := scanner.Err(); err != nil {
		onErr(err)
	}
}

func (s *StreamSource) forward(ctx context.Context, lines <-chan []byte, out chan<- models.Location) {
	defer close(out)
	for ctx.Err() == nil {
		var line []byte
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}
		loc, ok := parseReport(line)
		if !ok {
			continue
		}
		select {
		case out <- loc:
		case <-ctx.Done():
			return
		}
	}
}

func parseReport(line []byte) (models.Location, bool) {
	var r report
	if err := json.Unmarshal(line, &r); err != nil {
		return models.Location{}, false
	}
	if r.Class != "TPV" || r.Mode < 2 || r.Lat == nil || r.Lon == nil {
		return models.Location{}, false
	}
	return models.Location{Lat: *r.Lat, Lng: *r.Lon}, true
}
