package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrUnknownFormat reports that a data source matches none of the
// supported text formats. Training cannot proceed on unparseable input, so
// callers must treat it as unrecoverable rather than fall back silently.
var ErrUnknownFormat = errors.New("parser: unrecognized data format")

// Detect inspects the beginning of the file at path and classifies it as
// one of the supported formats, returning the registry name to pass to
// Create. Classification is structural: the first feature token of the
// first line that has one decides between "index:value" and
// "field:index:value".
func Detect(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return detect(f)
}

func detect(r io.Reader) (string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			// Label-only line; says nothing about the feature shape.
			continue
		}
		switch strings.Count(fields[1], ":") {
		case 1:
			return FormatLibSVM, nil
		case 2:
			return FormatLibFFM, nil
		}
		return "", fmt.Errorf("%w: feature token %q", ErrUnknownFormat, fields[1])
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return "", ErrUnknownFormat
}
