package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucid/sparsefeed/sample"
)

func TestLibSVMParser(t *testing.T) {
	p, err := Create(FormatLibSVM)
	require.NoError(t, err)
	require.Equal(t, FormatLibSVM, p.Format())

	t.Run("BasicLine", func(t *testing.T) {
		var s sample.Sample
		require.NoError(t, p.ParseLine("1 0:0.5 3:1.25 7:-2", &s))
		assert.Equal(t, float32(1), s.Label)
		assert.Equal(t, []sample.Entry{
			{Index: 0, Value: 0.5},
			{Index: 3, Value: 1.25},
			{Index: 7, Value: -2},
		}, s.Entries)
	})

	t.Run("LabelOnly", func(t *testing.T) {
		var s sample.Sample
		require.NoError(t, p.ParseLine("-1", &s))
		assert.Equal(t, float32(-1), s.Label)
		assert.Empty(t, s.Entries)
	})

	t.Run("TabSeparated", func(t *testing.T) {
		var s sample.Sample
		require.NoError(t, p.ParseLine("0\t2:1\t5:1", &s))
		assert.Len(t, s.Entries, 2)
	})

	t.Run("ReusesEntries", func(t *testing.T) {
		var s sample.Sample
		require.NoError(t, p.ParseLine("1 0:1 1:1 2:1", &s))
		require.NoError(t, p.ParseLine("0 4:2", &s))
		assert.Equal(t, []sample.Entry{{Index: 4, Value: 2}}, s.Entries)
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := []string{
			"x 0:1",      // non-numeric label
			"1 0:1:2",    // field-aware token in plain format
			"1 abc:1",    // non-numeric index
			"1 -3:1",     // negative index
			"1 0:zebra",  // non-numeric value
			"1 novalue",  // missing colon
		}
		for _, line := range bad {
			var s sample.Sample
			assert.Error(t, p.ParseLine(line, &s), "line %q", line)
		}
	})
}

func TestLibFFMParser(t *testing.T) {
	p, err := Create(FormatLibFFM)
	require.NoError(t, err)
	require.Equal(t, FormatLibFFM, p.Format())

	t.Run("BasicLine", func(t *testing.T) {
		var s sample.Sample
		require.NoError(t, p.ParseLine("1 0:3:0.5 2:11:1", &s))
		assert.Equal(t, float32(1), s.Label)
		assert.Equal(t, []sample.Entry{
			{Field: 0, Index: 3, Value: 0.5},
			{Field: 2, Index: 11, Value: 1},
		}, s.Entries)
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := []string{
			"x 0:1:1",   // non-numeric label
			"1 0:1",     // plain token in field-aware format
			"1 a:1:1",   // non-numeric field
			"1 0:b:1",   // non-numeric index
			"1 0:1:c",   // non-numeric value
			"1 0:1:1:1", // too many components
		}
		for _, line := range bad {
			var s sample.Sample
			assert.Error(t, p.ParseLine(line, &s), "line %q", line)
		}
	})
}

func TestRegistry(t *testing.T) {
	_, err := Create("tsv")
	assert.ErrorContains(t, err, "no parser registered")
}

func TestDetect(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "data.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("LibSVM", func(t *testing.T) {
		format, err := Detect(write(t, "1 0:0.5 3:1\n0 2:1\n"))
		require.NoError(t, err)
		assert.Equal(t, FormatLibSVM, format)
	})

	t.Run("LibFFM", func(t *testing.T) {
		format, err := Detect(write(t, "1 0:3:0.5 1:7:1\n"))
		require.NoError(t, err)
		assert.Equal(t, FormatLibFFM, format)
	})

	t.Run("SkipsBlankAndLabelOnlyLines", func(t *testing.T) {
		format, err := Detect(write(t, "\n\n1\n0 4:2:1\n"))
		require.NoError(t, err)
		assert.Equal(t, FormatLibFFM, format)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := Detect(write(t, "these are,not features\n"))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		_, err := Detect(write(t, ""))
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Detect(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})
}
