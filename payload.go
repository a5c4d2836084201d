// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"fmt"
	"io"
	"os"
)

// DeployStatus reports deployer progress after a write.
type DeployStatus int

// Deployer states. Transitions are unidirectional: Pending to Complete, once.
const (
	// StatusPending means the deployer expects more payload bytes.
	StatusPending DeployStatus = iota
	// StatusComplete means the payload is fully written.
	StatusComplete
)

// Deployer writes one payload's bytes to its destination.
type Deployer interface {
	// Begin prepares the destination. Must be called exactly once, before any WriteBlock.
	Begin() error
	// WriteBlock appends one chunk and reports whether the payload is complete.
	WriteBlock(p []byte) (DeployStatus, error)
	// Close releases the destination handle. Safe to call more than once.
	Close() error
}

// newDeployer dispatches one manifest descriptor to its deployer. The switch
// is exhaustive over known payload types; anything else fails here, before
// any byte reaches a destination.
func newDeployer(info PayloadInfo, size uint32, dest string) (Deployer, error) {
	switch info.Type {
	case PayloadTypeImage:
		return NewImageDeployer(size, dest), nil
	default:
		return nil, fmt.Errorf("%w: %q for entry %s", ErrUnknownPayloadType, info.Type, info.Filename)
	}
}

// ImageDeployer writes a raw disk image payload to a destination path. The
// destination handle is created lazily by Begin and exclusively owned by the
// deployer until Close.
type ImageDeployer struct {
	file      *os.File
	dest      string
	total     uint32
	remaining uint32
	began     bool
}

// NewImageDeployer returns a pending deployer for a payload of size bytes.
func NewImageDeployer(size uint32, dest string) *ImageDeployer {
	return &ImageDeployer{dest: dest, total: size, remaining: size}
}

// Begin creates the destination file, truncating any existing content.
func (d *ImageDeployer) Begin() error {
	if d.began {
		return fmt.Errorf("%w: Begin called twice for %s", ErrDeployerMisuse, d.dest)
	}
	d.began = true

	f, err := os.OpenFile(d.dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", d.dest, err)
	}

	d.file = f
	return nil
}

// WriteBlock appends one chunk to the destination. A chunk longer than the
// remaining byte count is an overflow error and nothing from it is written:
// the archive declared a smaller size than the data it carries.
func (d *ImageDeployer) WriteBlock(p []byte) (DeployStatus, error) {
	if !d.began || d.file == nil {
		return StatusPending, fmt.Errorf("%w: write before Begin for %s", ErrDeployerMisuse, d.dest)
	}
	if uint64(len(p)) > uint64(d.remaining) {
		return StatusPending, fmt.Errorf("%w: %d-byte chunk with %d bytes remaining for %s",
			ErrPayloadOverflow, len(p), d.remaining, d.dest)
	}

	n, err := d.file.Write(p)
	d.remaining -= uint32(n)
	if err != nil {
		return StatusPending, fmt.Errorf("write %s: %w", d.dest, err)
	}
	if n != len(p) {
		return StatusPending, fmt.Errorf("write %s: %w", d.dest, io.ErrShortWrite)
	}

	if d.remaining == 0 {
		return StatusComplete, nil
	}

	return StatusPending, nil
}

// Close closes the destination handle if one was opened.
func (d *ImageDeployer) Close() error {
	if d.file == nil {
		return nil
	}

	f := d.file
	d.file = nil
	return f.Close()
}
