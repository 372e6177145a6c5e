package reader

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/pellucid/sparsefeed/cache"
	"github.com/pellucid/sparsefeed/parser"
	"github.com/pellucid/sparsefeed/sample"
)

func init() {
	Register("memory", func() Reader { return new(InMemoryReader) })
}

// InMemoryReader serves shuffled batches from a dataset materialized fully
// in memory. The first run parses the text source and writes a binary
// cache artifact beside it; later runs with unchanged content load the
// artifact and skip text parsing entirely. Every Reset reshuffles, so each
// epoch sees a fresh random order while still visiting every sample
// exactly once.
type InMemoryReader struct {
	path      string
	batchSize int
	format    string

	data  *sample.Batch // full dataset
	index *shuffleIndex
	batch *sample.Batch // reused transfer buffer

	initialized bool
}

func (r *InMemoryReader) Initialize(path string, batchSize int) error {
	if batchSize <= 0 {
		return fmt.Errorf("reader: batch size must be positive, got %d", batchSize)
	}

	r.data = nil
	if cache.Valid(path) {
		data, format, err := cache.Load(path)
		if err == nil {
			r.data, r.format = data, format
			log.Debug("loaded binary cache", "source", path, "samples", data.Len())
		} else {
			// A valid header with an unreadable body still just means
			// "no cache"; fall through to a fresh parse.
			log.Warn("discarding unreadable binary cache", "source", path, "err", err)
		}
	}

	if r.data == nil {
		format, err := parser.Detect(path)
		if err != nil {
			return err
		}
		data, err := ParseFile(path, format)
		if err != nil {
			return err
		}
		r.data, r.format = data, format
		if err := cache.Store(path, format, data); err != nil {
			// Only the speedup for future runs is lost.
			log.Warn("could not write binary cache", "source", path, "err", err)
		}
	}

	r.path = path
	r.batchSize = batchSize
	r.index = newShuffleIndex(r.data.Len())
	r.index.Shuffle()
	r.batch = sample.NewBatch(batchSize)
	r.initialized = true
	return nil
}

// Samples returns the next batch in shuffled order. The final batch of a
// pass may be short; after that an empty batch signals end-of-pass and the
// cursor stays put until Reset.
func (r *InMemoryReader) Samples() (*sample.Batch, error) {
	if !r.initialized {
		return nil, ErrNotInitialized
	}
	r.batch.Reset()
	for _, pos := range r.index.Next(r.batchSize) {
		r.batch.Add(r.data.At(pos))
	}
	return r.batch, nil
}

// Reset reshuffles and rewinds, starting a fresh epoch with a new order.
func (r *InMemoryReader) Reset() error {
	if !r.initialized {
		return ErrNotInitialized
	}
	r.index.Shuffle()
	r.index.Rewind()
	return nil
}

// Format returns the detected text format of the source.
func (r *InMemoryReader) Format() string {
	return r.format
}

// Len returns the total number of samples in the dataset.
func (r *InMemoryReader) Len() int {
	if r.data == nil {
		return 0
	}
	return r.data.Len()
}
