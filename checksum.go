// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"fmt"
	"hash"
	"hash/crc32"
	"strconv"
	"strings"
)

// checksumHexDigits is the fixed width of a table checksum token.
const checksumHexDigits = 8

// Digest is an accumulating CRC-32 (IEEE) computation over payload bytes.
// Sum finalizes it into a Checksum; only finalized values are comparable,
// so an unfinished digest cannot be confused with a recorded checksum.
type Digest struct {
	crc hash.Hash32
}

// NewDigest returns an empty accumulating digest.
func NewDigest() *Digest {
	return &Digest{crc: crc32.NewIEEE()}
}

// Write appends p to the running computation. It never fails.
func (d *Digest) Write(p []byte) (int, error) {
	return d.crc.Write(p)
}

// Sum finalizes the digest into an immutable Checksum.
func (d *Digest) Sum() Checksum {
	return Checksum{value: d.crc.Sum32()}
}

// Checksum is a finalized 32-bit integrity value.
type Checksum struct {
	value uint32
}

// ParseChecksum parses an 8-hex-digit checksum token.
func ParseChecksum(s string) (Checksum, error) {
	if len(s) != checksumHexDigits {
		return Checksum{}, fmt.Errorf("%w: checksum %q must be %d hex digits", ErrChecksumFormat, s, checksumHexDigits)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Checksum{}, fmt.Errorf("%w: checksum %q is not hex", ErrChecksumFormat, s)
	}

	return Checksum{value: uint32(v)}, nil
}

// Equal reports whether two finalized checksums hold the same value.
func (c Checksum) Equal(other Checksum) bool {
	return c.value == other.value
}

// String renders the checksum as 8 uppercase hex digits.
func (c Checksum) String() string {
	return fmt.Sprintf("%08X", c.value)
}

// ChecksumTable maps entry filenames to their expected finalized checksums.
// It is built once from the archive's checksum entry and immutable thereafter.
type ChecksumTable struct {
	sums map[string]Checksum
}

// ParseChecksumTable parses checksum table text: one "<filename> <crc32>" line
// per file, empty lines skipped. A malformed line is fatal and cited in the
// error. Duplicate filenames resolve last-write-wins.
func ParseChecksumTable(text string) (*ChecksumTable, error) {
	sums := make(map[string]Checksum)
	for _, line := range strings.Split(text, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) != 2 {
			return nil, fmt.Errorf("%w: want \"<filename> <crc32>\", got %q", ErrChecksumFormat, line)
		}

		sum, err := ParseChecksum(tokens[1])
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}

		sums[tokens[0]] = sum
	}

	return &ChecksumTable{sums: sums}, nil
}

// Lookup returns the recorded checksum for filename.
func (t *ChecksumTable) Lookup(filename string) (Checksum, bool) {
	sum, ok := t.sums[filename]
	return sum, ok
}

// Len returns the number of recorded checksums.
func (t *ChecksumTable) Len() int {
	return len(t.sums)
}
