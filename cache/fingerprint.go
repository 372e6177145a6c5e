package cache

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies the content of a source file with two 64-bit
// hashes: Content covers every byte of the file, Meta covers the file size
// and a leading prefix. An artifact is trusted only when both match a
// freshly computed fingerprint, never by filename alone.
type Fingerprint struct {
	Content uint64
	Meta    uint64
}

// metaPrefixBytes is how much of the file the Meta hash covers in addition
// to the size.
const metaPrefixBytes = 4096

// ComputeFingerprint hashes the file at path. Hashing is sequential I/O
// and stays cheap relative to parsing the same bytes as text.
func ComputeFingerprint(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Fingerprint{}, err
	}

	content := xxhash.New()
	if _, err := io.Copy(content, f); err != nil {
		return Fingerprint{}, err
	}

	meta := xxhash.New()
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(info.Size()))
	meta.Write(size[:])
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Fingerprint{}, err
	}
	if _, err := io.CopyN(meta, f, metaPrefixBytes); err != nil && !errors.Is(err, io.EOF) {
		return Fingerprint{}, err
	}

	return Fingerprint{Content: content.Sum64(), Meta: meta.Sum64()}, nil
}
