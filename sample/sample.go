// Package sample defines the in-memory representation of sparse training
// data: individual labeled records and the reusable batch buffer that moves
// them between a data reader and a training loop.
package sample

// Entry is a single sparse feature: its index, its value, and, for
// field-aware formats, the field the feature belongs to. Field is zero for
// plain sparse data.
type Entry struct {
	Field uint32
	Index uint32
	Value float32
}

// Sample is one training record: a label plus an ordered list of sparse
// feature entries. A label-only line produces a Sample with no entries.
// Samples are treated as immutable once parsed.
type Sample struct {
	Label   float32
	Entries []Entry
}

// Batch is the transfer buffer between a reader and its caller. The
// producing reader owns the backing storage and reuses it across calls:
// callers must finish with a Batch before requesting the next one.
type Batch struct {
	samples []Sample
}

// NewBatch creates a batch with capacity for n samples.
func NewBatch(n int) *Batch {
	return &Batch{samples: make([]Sample, 0, n)}
}

// Len returns the number of samples currently in the batch.
func (b *Batch) Len() int {
	return len(b.samples)
}

// Reset empties the batch, keeping its backing storage for reuse.
func (b *Batch) Reset() {
	b.samples = b.samples[:0]
}

// Add appends a sample to the batch.
func (b *Batch) Add(s Sample) {
	b.samples = append(b.samples, s)
}

// At returns the sample at position i.
func (b *Batch) At(i int) Sample {
	return b.samples[i]
}

// Samples returns the batch contents. The returned slice aliases the
// batch's storage and is only valid until the next Reset or Add.
func (b *Batch) Samples() []Sample {
	return b.samples
}
