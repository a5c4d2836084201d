// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"
)

// Internal newc container layout and format limits.
const (
	// newcMagic starts every entry header.
	newcMagic = "070701"
	// newcHeaderSize is magic plus thirteen 8-digit hex fields.
	newcHeaderSize = 110
	// trailerName marks end of archive.
	trailerName = "TRAILER!!!"
	// maxNameSize caps the name size field; corrupt headers must not inflate allocation.
	maxNameSize = 256
	// entryAlign is the structural alignment of headers and payloads.
	entryAlign = 4
)

// Decoder parses newc container entries from a sequential, non-seekable stream.
// It yields one Entry at a time and refuses to advance while the active entry
// still has undrained payload bytes.
type Decoder struct {
	// r is the single underlying stream all entries borrow read access to.
	r io.Reader
	// pos counts bytes consumed from stream start; alignment is derived from it.
	pos int64
	// active is the entry currently checked out, nil once drained and replaced.
	active *Entry
	// done reports whether the trailer was reached.
	done bool
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Pos returns the number of bytes consumed from the stream so far.
func (d *Decoder) Pos() int64 {
	return d.pos
}

// Next parses the next entry header and returns its Entry. It returns io.EOF
// exactly once, when the trailer entry is reached; calling Next again after
// that returns ErrDecoderExhausted. The previous entry must be fully drained
// first, including by this decoder's deferred handling of its alignment pad,
// which is consumed here rather than while the entry is being read.
func (d *Decoder) Next() (*Entry, error) {
	if d == nil || d.r == nil {
		return nil, ErrNilReader
	}
	if d.done {
		return nil, ErrDecoderExhausted
	}
	if d.active != nil && d.active.remaining > 0 {
		return nil, fmt.Errorf("%w: entry %s has %d bytes left", ErrEntryNotDrained, d.active.Name, d.active.remaining)
	}
	d.active = nil

	// Pad after the previous entry's data, skipped for the very first header.
	if err := d.align(); err != nil {
		return nil, err
	}

	headerOffset := d.pos
	var header [newcHeaderSize]byte
	if err := d.readFull(header[:]); err != nil {
		return nil, fmt.Errorf("read entry header at offset %d: %w", headerOffset, err)
	}

	if string(header[:len(newcMagic)]) != newcMagic {
		return nil, fmt.Errorf("%w: at offset %d", ErrBadMagic, headerOffset)
	}

	fields, err := parseHeaderFields(header[len(newcMagic):])
	if err != nil {
		return nil, fmt.Errorf("entry header at offset %d: %w", headerOffset, err)
	}

	if fields.check != 0 {
		return nil, fmt.Errorf("%w: got %#08x at offset %d", ErrNonZeroCheck, fields.check, headerOffset)
	}

	if fields.nameSize == 0 {
		return nil, fmt.Errorf("%w: zero name size at offset %d", ErrBadEntryName, headerOffset)
	}
	if fields.nameSize > maxNameSize {
		return nil, fmt.Errorf("%w: name size %d at offset %d", ErrNameTooLong, fields.nameSize, headerOffset)
	}

	name := make([]byte, fields.nameSize)
	if err := d.readFull(name); err != nil {
		return nil, fmt.Errorf("read entry name at offset %d: %w", headerOffset, err)
	}
	if name[len(name)-1] != 0 {
		return nil, fmt.Errorf("%w: name is not NUL-terminated at offset %d", ErrBadEntryName, headerOffset)
	}

	filename := string(name[:len(name)-1])
	if filename == "" || !utf8.ValidString(filename) {
		return nil, fmt.Errorf("%w: at offset %d", ErrBadEntryName, headerOffset)
	}

	// Header and name are padded together to the next 4-byte boundary.
	if err := d.align(); err != nil {
		return nil, err
	}

	if filename == trailerName {
		d.done = true
		return nil, io.EOF
	}

	entry := &Entry{
		Name:      filename,
		Size:      fields.fileSize,
		remaining: fields.fileSize,
		dec:       d,
		crc:       NewDigest(),
	}
	d.active = entry

	return entry, nil
}

// align discards padding up to the next 4-byte boundary from stream start.
func (d *Decoder) align() error {
	pad := (entryAlign - d.pos%entryAlign) % entryAlign
	if pad == 0 {
		return nil
	}

	var buf [entryAlign]byte
	if err := d.readFull(buf[:pad]); err != nil {
		return fmt.Errorf("skip alignment padding at offset %d: %w", d.pos, err)
	}

	return nil
}

// readFull reads exactly len(p) bytes and advances the stream position.
func (d *Decoder) readFull(p []byte) error {
	n, err := io.ReadFull(d.r, p)
	d.pos += int64(n)
	return err
}

// newcFields holds the header fields the decoder acts on. The remaining ten
// fields (inode, mode, ownership, timestamps, device numbers) are validated
// as hex but otherwise ignored: payloads are bound by the manifest, not by
// filesystem metadata stored in the container.
type newcFields struct {
	fileSize uint32
	nameSize uint32
	check    uint32
}

// parseHeaderFields decodes the thirteen 8-digit ASCII hex fields after the magic.
func parseHeaderFields(raw []byte) (newcFields, error) {
	var vals [13]uint32
	for i := range vals {
		field := raw[i*8 : i*8+8]
		v, err := strconv.ParseUint(string(field), 16, 32)
		if err != nil {
			return newcFields{}, fmt.Errorf("%w: field %d is %q", ErrBadHexField, i, field)
		}

		vals[i] = uint32(v)
	}

	return newcFields{fileSize: vals[6], nameSize: vals[11], check: vals[12]}, nil
}

// Entry is one logical archive unit: a filename, a declared payload size, and
// streaming read access to the payload bytes. Every byte read is also fed to
// the entry's CRC digest. An Entry never buffers its payload in full.
type Entry struct {
	// Name is the entry filename with the trailing NUL stripped.
	Name string
	// Size is the declared payload size in bytes.
	Size uint32

	remaining uint32
	dec       *Decoder
	crc       *Digest
}

// Read returns at most min(len(p), remaining) payload bytes. A fully drained
// entry reads (0, io.EOF) without touching the stream; the trailing alignment
// pad is left for the decoder's next header parse. A stream that ends before
// the declared size is reported as io.ErrUnexpectedEOF.
func (e *Entry) Read(p []byte) (int, error) {
	if e.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > uint64(e.remaining) {
		p = p[:e.remaining]
	}

	n, err := e.dec.r.Read(p)
	if n > 0 {
		e.dec.pos += int64(n)
		e.remaining -= uint32(n)
		_, _ = e.crc.Write(p[:n])
	}

	if err == io.EOF && e.remaining > 0 {
		err = io.ErrUnexpectedEOF
	}

	return n, err
}

// Remaining returns the number of declared payload bytes not yet read.
func (e *Entry) Remaining() uint32 {
	return e.remaining
}

// Sum finalizes the running CRC over every payload byte read so far.
func (e *Entry) Sum() Checksum {
	return e.crc.Sum()
}
