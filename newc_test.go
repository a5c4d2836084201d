// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"bytes"
	"fmt"
)

// newcBuilder assembles newc container streams for tests.
type newcBuilder struct {
	buf bytes.Buffer
}

// pad writes NUL bytes up to the next 4-byte boundary from stream start.
func (b *newcBuilder) pad() {
	for b.buf.Len()%4 != 0 {
		b.buf.WriteByte(0)
	}
}

// header writes a newc header plus NUL-terminated name for one entry.
func (b *newcBuilder) header(name string, size int) {
	var fields [13]uint32
	fields[6] = uint32(size)
	fields[11] = uint32(len(name) + 1)

	b.buf.WriteString("070701")
	for _, v := range fields {
		fmt.Fprintf(&b.buf, "%08x", v)
	}

	b.buf.WriteString(name)
	b.buf.WriteByte(0)
	b.pad()
}

// add appends one complete entry with its data and trailing pad.
func (b *newcBuilder) add(name string, data []byte) {
	b.header(name, len(data))
	b.buf.Write(data)
	b.pad()
}

// finish appends the trailer entry and returns the full stream.
func (b *newcBuilder) finish() []byte {
	b.header("TRAILER!!!", 0)
	return b.buf.Bytes()
}
