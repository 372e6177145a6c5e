package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucid/sparsefeed/sample"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testBatch() *sample.Batch {
	b := sample.NewBatch(3)
	b.Add(sample.Sample{Label: 1, Entries: []sample.Entry{
		{Index: 0, Value: 0.5},
		{Index: 1048576, Value: -3.25},
	}})
	b.Add(sample.Sample{Label: -1, Entries: []sample.Entry{
		{Field: 7, Index: 42, Value: 1},
	}})
	b.Add(sample.Sample{Label: 0}) // label-only record
	return b
}

func TestComputeFingerprint(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		path := writeSource(t, "1 0:0.5\n0 3:1\n")
		a, err := ComputeFingerprint(path)
		require.NoError(t, err)
		b, err := ComputeFingerprint(path)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("IdenticalContentIdenticalFingerprint", func(t *testing.T) {
		content := "1 0:0.5\n0 3:1\n"
		a, err := ComputeFingerprint(writeSource(t, content))
		require.NoError(t, err)
		b, err := ComputeFingerprint(writeSource(t, content))
		require.NoError(t, err)
		assert.Equal(t, a.Content, b.Content)
	})

	t.Run("SingleByteMutation", func(t *testing.T) {
		path := writeSource(t, "1 0:0.5\n0 3:1\n")
		before, err := ComputeFingerprint(path)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		data[0] ^= 1
		require.NoError(t, os.WriteFile(path, data, 0o644))

		after, err := ComputeFingerprint(path)
		require.NoError(t, err)
		assert.NotEqual(t, before, after)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ComputeFingerprint(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestStoreLoadRoundTrip(t *testing.T) {
	path := writeSource(t, "anything, the cache only fingerprints it\n")
	batch := testBatch()

	require.NoError(t, Store(path, "libffm", batch))
	require.True(t, Valid(path))

	loaded, format, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "libffm", format)
	assert.Equal(t, batch.Samples(), loaded.Samples())
}

func TestStoreEmptyBatch(t *testing.T) {
	path := writeSource(t, "x\n")
	require.NoError(t, Store(path, "libsvm", sample.NewBatch(0)))
	require.True(t, Valid(path))

	loaded, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestValid(t *testing.T) {
	t.Run("NoArtifact", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		assert.False(t, Valid(path))
	})

	t.Run("MissingSource", func(t *testing.T) {
		assert.False(t, Valid(filepath.Join(t.TempDir(), "nope")))
	})

	t.Run("DeletedArtifact", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		require.NoError(t, Store(path, "libsvm", testBatch()))
		require.True(t, Valid(path))
		require.NoError(t, os.Remove(ArtifactPath(path)))
		assert.False(t, Valid(path))
	})

	t.Run("TruncatedArtifact", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		require.NoError(t, Store(path, "libsvm", testBatch()))
		require.NoError(t, os.Truncate(ArtifactPath(path), 10))
		assert.False(t, Valid(path))
	})

	t.Run("CorruptMagic", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		require.NoError(t, Store(path, "libsvm", testBatch()))
		data, err := os.ReadFile(ArtifactPath(path))
		require.NoError(t, err)
		data[0] ^= 0xff
		require.NoError(t, os.WriteFile(ArtifactPath(path), data, 0o644))
		assert.False(t, Valid(path))
	})

	t.Run("StaleAfterSourceChange", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		require.NoError(t, Store(path, "libsvm", testBatch()))
		require.True(t, Valid(path))
		require.NoError(t, os.WriteFile(path, []byte("0 2:1\n"), 0o644))
		assert.False(t, Valid(path))
	})
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingArtifact", func(t *testing.T) {
		_, _, err := Load(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("TruncatedBody", func(t *testing.T) {
		path := writeSource(t, "1 0:1\n")
		require.NoError(t, Store(path, "libsvm", testBatch()))
		data, err := os.ReadFile(ArtifactPath(path))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(ArtifactPath(path), data[:len(data)-5], 0o644))
		_, _, err = Load(path)
		assert.Error(t, err)
	})
}
