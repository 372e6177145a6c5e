package reader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pellucid/sparsefeed/parser"
	"github.com/pellucid/sparsefeed/sample"
)

func init() {
	Register("disk", func() Reader { return new(StreamingReader) })
}

// pipelineDepth bounds the read-ahead queue between the producer and the
// caller. Deep enough to overlap I/O wait with parsing and consumption,
// small enough to bound peak memory to a few batches.
const pipelineDepth = 3

// StreamingReader serves batches for datasets too large to hold in
// memory. A single background worker parses ahead of the caller and hands
// finished batches over a bounded channel. Batches follow file order: no
// global shuffle is possible without materializing the dataset, a
// trade-off callers accept when data exceeds memory.
type StreamingReader struct {
	path      string
	batchSize int
	format    string
	parser    parser.Parser
	file      *os.File

	batches chan *sample.Batch
	errCh   chan error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	err     error // sticky mid-stream failure, cleared by Reset

	initialized bool
}

func (r *StreamingReader) Initialize(path string, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("reader: batch size must be positive, got %d", batchSize)
	}

	if r.initialized {
		// Re-initializing replaces the old pipeline and file.
		if err := r.Close(); err != nil {
			return err
		}
	}

	format, err := parser.Detect(path)
	if err != nil {
		return err
	}
	p, err := parser.Create(format)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	r.path = path
	r.batchSize = batchSize
	r.format = format
	r.parser = p
	r.file = f
	r.err = nil
	r.initialized = true
	r.start()
	return nil
}

// Samples blocks until the worker has the next batch ready, then returns
// it. At end-of-source it returns an empty batch; a mid-stream read or
// parse failure is returned as an error on this and every later call
// until Reset, never silently truncating the dataset.
func (r *StreamingReader) Samples() (*sample.Batch, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	if r.err == nil {
		select {
		case err := <-r.errCh:
			r.err = err
		default:
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	batch, ok := <-r.batches
	if !ok {
		select {
		case err := <-r.errCh:
			r.err = err
			return nil, r.err
		default:
		}
		return sample.NewBatch(0), nil
	}
	return batch, nil
}

// Reset quiesces the worker, rewinds the file, and restarts the pipeline.
// Read-ahead batches queued before the rewind are discarded so nothing
// stale is ever delivered after it.
func (r *StreamingReader) Reset() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	r.stop()
	r.err = nil
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind %s: %w", r.path, err)
	}
	r.start()
	return nil
}

// Close stops the pipeline and releases the underlying file. The reader
// must be re-Initialized before further use.
func (r *StreamingReader) Close() error {
	if !r.initialized {
		return nil
	}
	r.stop()
	r.initialized = false
	return r.file.Close()
}

// Format returns the detected text format of the source.
func (r *StreamingReader) Format() string {
	return r.format
}

func (r *StreamingReader) start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.batches = make(chan *sample.Batch, pipelineDepth)
	r.errCh = make(chan error, 1)
	r.wg.Add(1)
	go r.produce(ctx)
}

// stop cancels the worker, waits for it to exit, and drains everything it
// queued. After stop returns nothing from the old pipeline can surface.
func (r *StreamingReader) stop() {
	r.cancel()
	r.wg.Wait()
	for range r.batches {
	}
	select {
	case <-r.errCh:
	default:
	}
}

// produce is the single background worker: it scans the source, parses
// batchSize lines at a time, and pushes finished batches downstream.
// Closing the batch channel is the end-of-source signal.
func (r *StreamingReader) produce(ctx context.Context) {
	defer r.wg.Done()
	defer close(r.batches)

	sc := bufio.NewScanner(r.file)
	sc.Buffer(make([]byte, 0, 64*1024), parser.MaxLineBytes)

	batch := sample.NewBatch(r.batchSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var s sample.Sample
		if err := r.parser.ParseLine(line, &s); err != nil {
			r.errCh <- fmt.Errorf("%s:%d: %w", r.path, lineNo, err)
			return
		}
		batch.Add(s)
		if batch.Len() == r.batchSize {
			select {
			case r.batches <- batch:
			case <-ctx.Done():
				return
			}
			batch = sample.NewBatch(r.batchSize)
		}
	}
	if err := sc.Err(); err != nil {
		r.errCh <- fmt.Errorf("read %s: %w", r.path, err)
		return
	}
	if batch.Len() > 0 {
		select {
		case r.batches <- batch:
		case <-ctx.Done():
		}
	}
}
