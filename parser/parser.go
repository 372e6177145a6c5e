// Package parser converts lines of text-encoded sparse training data into
// numeric samples. Two line formats are supported: plain sparse
// ("label idx:val ...") and field-aware ("label field:idx:val ..."), with
// structural format detection and a name-keyed registry so readers can pick
// a parser from a detected format name.
package parser

import "github.com/pellucid/sparsefeed/sample"

// Registry names of the supported text formats.
const (
	FormatLibSVM = "libsvm"
	FormatLibFFM = "libffm"
)

// MaxLineBytes is the longest line any scanner over a data source accepts.
// Wide sparse rows can run to megabytes; the default bufio limit is far too
// small for them.
const MaxLineBytes = 16 << 20

// Parser converts one line of text into a Sample. Implementations may
// reuse s.Entries backing storage but must fully overwrite the sample.
type Parser interface {
	// Format returns the registry name of the format this parser reads.
	Format() string

	// ParseLine parses a single non-blank line into s. On error the
	// contents of s are unspecified.
	ParseLine(line string, s *sample.Sample) error
}
