package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pellucid/sparsefeed/sample"
)

func init() {
	Register(FormatLibSVM, func() Parser { return &libSVMParser{} })
}

// libSVMParser reads plain sparse lines: a label token followed by
// whitespace-separated "index:value" feature tokens.
type libSVMParser struct{}

func (p *libSVMParser) Format() string { return FormatLibSVM }

func (p *libSVMParser) ParseLine(line string, s *sample.Sample) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return fmt.Errorf("parser: blank line")
	}

	label, err := parseLabel(tokens[0])
	if err != nil {
		return err
	}
	s.Label = label
	s.Entries = s.Entries[:0]

	for _, tok := range tokens[1:] {
		idx, val, err := parseFeature(tok)
		if err != nil {
			return err
		}
		s.Entries = append(s.Entries, sample.Entry{Index: idx, Value: val})
	}
	return nil
}

func parseLabel(tok string) (float32, error) {
	label, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("parser: invalid label %q", tok)
	}
	return float32(label), nil
}

// parseFeature parses an "index:value" token.
func parseFeature(tok string) (uint32, float32, error) {
	colon := strings.IndexByte(tok, ':')
	if colon < 0 || strings.IndexByte(tok[colon+1:], ':') >= 0 {
		return 0, 0, fmt.Errorf("parser: invalid feature token %q", tok)
	}
	idx, err := strconv.ParseUint(tok[:colon], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parser: invalid feature index in %q", tok)
	}
	val, err := strconv.ParseFloat(tok[colon+1:], 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parser: invalid feature value in %q", tok)
	}
	return uint32(idx), float32(val), nil
}
