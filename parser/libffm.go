package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pellucid/sparsefeed/sample"
)

func init() {
	Register(FormatLibFFM, func() Parser { return &libFFMParser{} })
}

// libFFMParser reads field-aware sparse lines: a label token followed by
// whitespace-separated "field:index:value" feature tokens.
type libFFMParser struct{}

func (p *libFFMParser) Format() string { return FormatLibFFM }

func (p *libFFMParser) ParseLine(line string, s *sample.Sample) error {
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
		parts := strings.Split(tok, ":")
		if len(parts) != 3 {
			return fmt.Errorf("parser: invalid field-aware feature token %q", tok)
		}
		field, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return fmt.Errorf("parser: invalid field id in %q", tok)
		}
		idx, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			return fmt.Errorf("parser: invalid feature index in %q", tok)
		}
		val, err := strconv.ParseFloat(parts[2], 32)
		if err != nil {
			return fmt.Errorf("parser: invalid feature value in %q", tok)
		}
		s.Entries = append(s.Entries, sample.Entry{
			Field: uint32(field),
			Index: uint32(idx),
			Value: float32(val),
		})
	}
	return nil
}
