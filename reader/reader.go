// Package reader delivers fixed-size batches of sparse training samples
// from text data sources. Two strategies implement the same interface: an
// in-memory reader that materializes the whole dataset (with a binary
// cache to skip re-parsing and per-epoch shuffling), and a streaming
// reader with a read-ahead pipeline for datasets that do not fit in
// memory. Callers pick a strategy by registry name at initialization time.
package reader

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pellucid/sparsefeed/parser"
	"github.com/pellucid/sparsefeed/sample"
)

// ErrNotInitialized reports a Samples or Reset call before Initialize.
var ErrNotInitialized = errors.New("reader: not initialized")

// Reader is the access point for training data. Usage:
//
//	r, _ := reader.Create("memory")
//	if err := r.Initialize(path, 200); err != nil { ... }
//	for {
//		batch, err := r.Samples()
//		if err != nil { ... }
//		if batch.Len() == 0 {
//			r.Reset() // end of pass, start the next epoch
//			continue
//		}
//		// train on batch
//	}
//
// An empty batch is the normal end-of-pass signal, never a failure. A
// Reader instance is not safe for concurrent use; callers serialize
// access, typically one reader per training goroutine.
type Reader interface {
	// Initialize prepares the reader to serve batches of up to batchSize
	// samples from the file at path. The text format is detected
	// automatically.
	Initialize(path string, batchSize int) error

	// Samples returns the next batch. The reader owns the returned
	// buffer and reuses it: callers must not retain it past the next
	// Samples call. A batch shorter than batchSize ends a pass; an
	// empty batch means the pass is over and Reset starts the next one.
	Samples() (*sample.Batch, error)

	// Reset returns to the beginning of the data for a fresh pass.
	Reset() error
}

var registry = make(map[string]func() Reader)

// Register makes a reader constructor available under a strategy name.
func Register(name string, ctor func() Reader) {
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("reader: Register called twice for %q", name))
	}
	registry[name] = ctor
}

// Create returns a new uninitialized reader for the named strategy,
// "memory" or "disk".
func Create(name string) (Reader, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("reader: no reader registered for %q", name)
	}
	return ctor(), nil
}

// ParseFile parses every line of a text source into one batch using the
// registered parser for format. This is the slow path the binary cache
// exists to amortize.
func ParseFile(path, format string) (*sample.Batch, error) {
	p, err := parser.Create(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	batch := sample.NewBatch(0)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), parser.MaxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var s sample.Sample
		if err := p.ParseLine(line, &s); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		batch.Add(s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return batch, nil
}
