// Package cache stores pre-parsed binary copies of text data sources so
// later runs can skip text parsing. An artifact sits beside its source
// file, embeds the source's fingerprint for validation, and is purely an
// optimization: a missing or stale artifact is a non-event for callers.
package cache

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/pellucid/sparsefeed/sample"
)

const (
	magic   = 0x53464243 // "SFBC"
	version = 1

	// Suffix names an artifact after its source file.
	Suffix = ".bin"
)

// Fixed-size artifact prefix: magic, version, Fingerprint.Content,
// Fingerprint.Meta, sample count. The format name and records follow.
const headerSize = 4 + 4 + 8 + 8 + 8

// ArtifactPath returns where the artifact for a source file lives.
func ArtifactPath(source string) string {
	return source + Suffix
}

// Valid reports whether a usable artifact exists for the source file. Any
// mismatch, missing file, or corrupt header reads as "no cache"; it never
// returns an error because cache absence is not a failure.
func Valid(source string) bool {
	fp, err := ComputeFingerprint(source)
	if err != nil {
		return false
	}

	f, err := os.Open(ArtifactPath(source))
	if err != nil {
		return false
	}
	defer f.Close()

	var hdr [headerSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return false
	}
	stored, _, ok := parseHeader(hdr[:])
	return ok && stored == fp
}

// Store serializes the batch plus the source's fingerprint to the artifact
// path. The artifact is written to a temporary file and renamed into place
// so a crash mid-write cannot leave a readable half-artifact. Failure here
// is recoverable: callers log it and keep the in-memory data they already
// have.
func Store(source, format string, batch *sample.Batch) error {
	fp, err := ComputeFingerprint(source)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, headerSize+len(format)+16*batch.Len())
	buf = appendHeader(buf, fp, uint64(batch.Len()))
	buf = protowire.AppendString(buf, format)

	var rec []byte
	for _, s := range batch.Samples() {
		rec = appendSample(rec[:0], s)
		buf = protowire.AppendBytes(buf, rec)
	}

	path := ArtifactPath(source)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sparsefeed-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// Load deserializes an artifact into a fresh batch, bypassing text parsing
// entirely. It returns the samples and the format name recorded at Store
// time. Load trusts the artifact's own header; pairing it with the source
// is Valid's job.
func Load(source string) (*sample.Batch, string, error) {
	data, err := os.ReadFile(ArtifactPath(source))
	if err != nil {
		return nil, "", err
	}
	if len(data) < headerSize {
		return nil, "", fmt.Errorf("cache: artifact truncated (%d bytes)", len(data))
	}

	_, count, ok := parseHeader(data[:headerSize])
	if !ok {
		return nil, "", fmt.Errorf("cache: bad artifact header")
	}
	data = data[headerSize:]

	format, n := protowire.ConsumeString(data)
	if n < 0 {
		return nil, "", protowire.ParseError(n)
	}
	data = data[n:]

	batch := sample.NewBatch(int(count))
	for i := uint64(0); i < count; i++ {
		rec, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, "", protowire.ParseError(n)
		}
		data = data[n:]
		var s sample.Sample
		if err := decodeSample(rec, &s); err != nil {
			return nil, "", fmt.Errorf("cache: sample %d: %w", i, err)
		}
		batch.Add(s)
	}
	if len(data) != 0 {
		return nil, "", fmt.Errorf("cache: %d trailing bytes after %d samples", len(data), count)
	}
	return batch, format, nil
}

func appendHeader(b []byte, fp Fingerprint, count uint64) []byte {
	b = binary.LittleEndian.AppendUint32(b, magic)
	b = binary.LittleEndian.AppendUint32(b, version)
	b = binary.LittleEndian.AppendUint64(b, fp.Content)
	b = binary.LittleEndian.AppendUint64(b, fp.Meta)
	b = binary.LittleEndian.AppendUint64(b, count)
	return b
}

// parseHeader decodes the fixed prefix. A wrong magic or version reads as
// invalid, so bumping version retires every artifact written before it.
func parseHeader(b []byte) (Fingerprint, uint64, bool) {
	if binary.LittleEndian.Uint32(b[0:4]) != magic {
		return Fingerprint{}, 0, false
	}
	if binary.LittleEndian.Uint32(b[4:8]) != version {
		return Fingerprint{}, 0, false
	}
	fp := Fingerprint{
		Content: binary.LittleEndian.Uint64(b[8:16]),
		Meta:    binary.LittleEndian.Uint64(b[16:24]),
	}
	return fp, binary.LittleEndian.Uint64(b[24:32]), true
}
