// Package feed delivers raw NMEA sentence lines to the fusion engine, either
// from a serial GPS receiver or from a capture file.
//
// The serial reader owns the physical device: it only pushes decoded-ready
// text lines over a channel and never touches tracker state. File replay is
// a plain single-threaded pass.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Lines reads CR/LF-terminated lines from r on a dedicated goroutine and
// delivers them one per receive. Blank lines are skipped before they reach
// the decoder. The channel closes when r is exhausted, errors, or ctx is
// cancelled between lines.
func Lines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(r)
		// NMEA sentences are typically < 82 chars, but allow some headroom.
		scanner.Buffer(make([]byte, 0, 256), 4096)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// ReplayFile feeds every non-blank line of a capture file to fn, in order.
func ReplayFile(path string, fn func(line string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("feed: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256), 4096)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fn(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("feed: read %s: %w", path, err)
	}
	return nil
}

// AutoDetectDevice probes the usual USB GPS device nodes and returns the
// first that exists, or empty.
func AutoDetectDevice() string {
	var candidates []string
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Capture appends raw sentences to a log file so a live session can be
// replayed later.
type Capture struct {
	mu sync.Mutex
	f  *os.File
}

func NewCapture(path string) (*Capture, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("feed: open capture %s: %w", path, err)
	}
	return &Capture{f: f}, nil
}

func (c *Capture) WriteLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.f.WriteString(line + "\n")
}

func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.f.Close()
}
