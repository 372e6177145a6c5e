package reader

import "math/rand"

// shuffleIndex maintains a permutation over sample positions so batches
// can be drawn in random order without moving the underlying records. One
// full walk of the permutation visits every position exactly once.
type shuffleIndex struct {
	order []int
	pos   int
}

func newShuffleIndex(n int) *shuffleIndex {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return &shuffleIndex{order: order}
}

// Shuffle re-permutes the index uniformly at random. Called once per pass
// so repeated epochs are not seen in identical order.
func (si *shuffleIndex) Shuffle() {
	rand.Shuffle(len(si.order), func(i, j int) {
		si.order[i], si.order[j] = si.order[j], si.order[i]
	})
}

// Next advances the cursor and returns the next at-most-k positions. It
// returns a short slice at the end of the permutation and nil once
// exhausted; it never wraps on its own.
func (si *shuffleIndex) Next(k int) []int {
	if si.pos >= len(si.order) {
		return nil
	}
	end := si.pos + k
	if end > len(si.order) {
		end = len(si.order)
	}
	out := si.order[si.pos:end]
	si.pos = end
	return out
}

func (si *shuffleIndex) Rewind() {
	si.pos = 0
}

func (si *shuffleIndex) Len() int {
	return len(si.order)
}
