package archive

import (
	"bytes"
	"strconv"
	"strings"
)

// Compression is a stream filter wrapped around the archive.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
	Bzip2
	XZ
)

var compressionNames = [...]string{
	None:  "none",
	Gzip:  "gzip",
	Zstd:  "zstd",
	LZ4:   "lz4",
	Bzip2: "bzip2",
	XZ:    "xz",
}

func (c Compression) String() string {
	if c >= 0 && int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return "unknown"
}

var compressionMagic = []struct {
	magic []byte
	c     Compression
}{
	{[]byte{0x1f, 0x8b}, Gzip},
	{[]byte{0x28, 0xb5, 0x2f, 0xfd}, Zstd},
	{[]byte{0x04, 0x22, 0x4d, 0x18}, LZ4},
	{[]byte("BZh"), Bzip2},
	{[]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}, XZ},
}

// magicLen is enough to recognise every compression header.
const magicLen = 6

// DetectCompression identifies the filter from the first bytes of a stream.
func DetectCompression(head []byte) Compression {
	for _, m := range compressionMagic {
		if bytes.HasPrefix(head, m.magic) {
			return m.c
		}
	}
	return None
}

// Format is the container layout once filters are removed.
type Format int

const (
	Empty Format = iota
	Tar
	Zip
)

func (f Format) String() string {
	switch f {
	case Empty:
		return "empty"
	case Tar:
		return "tar"
	case Zip:
		return "zip"
	default:
		return "unknown"
	}
}

const tarBlockSize = 512

var (
	zipLocalHeader = []byte("PK\x03\x04")
	zipEndOfDir    = []byte("PK\x05\x06")
)

// detectFormat identifies the container from its first block. ok is false
// when the data is neither tar nor zip.
func detectFormat(head []byte) (f Format, ok bool) {
	switch {
	case len(head) == 0:
		return Empty, true
	case bytes.HasPrefix(head, zipLocalHeader), bytes.HasPrefix(head, zipEndOfDir):
		return Zip, true
	case isTarHeader(head):
		return Tar, true
	default:
		return 0, false
	}
}

// isTarHeader accepts a POSIX/GNU header by its magic, a v7 header by its
// checksum, and an all-zero block as the end marker of an empty archive.
func isTarHeader(b []byte) bool {
	if len(b) < tarBlockSize {
		return false
	}
	b = b[:tarBlockSize]
	if bytes.Equal(b[257:262], []byte("ustar")) {
		return true
	}
	if allZero(b) {
		return true
	}

	want, err := strconv.ParseInt(strings.Trim(string(b[148:156]), " \x00"), 8, 64)
	if err != nil {
		return false
	}
	var sum int64
	for i, c := range b {
		if i >= 148 && i < 156 {
			c = ' '
		}
		sum += int64(c)
	}
	return sum == want
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
