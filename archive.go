// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Archive drives one deployment. It binds container entries to manifest
// descriptors positionally and verifies every payload against the checksum
// table before advancing to the next entry.
type Archive struct {
	dec       *Decoder
	checksums *ChecksumTable
	manifest  *Manifest
	matcher   *selectMatcher
	opts      DeployOptions
	cursor    int
	deployed  bool
}

// Open reads the two header entries (checksum table, then manifest) from a
// sequential byte stream and prepares deployment.
func Open(r io.Reader) (*Archive, error) {
	return OpenWithOptions(r, DeployOptions{})
}

// OpenWithOptions is Open with explicit deploy options.
func OpenWithOptions(r io.Reader, opts DeployOptions) (*Archive, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	opts.applyDefaults()

	matcher, err := newSelectMatcher(opts.Select, opts.SelectMatcherOptions)
	if err != nil {
		return nil, err
	}

	dec := NewDecoder(r)

	checksumText, err := readTextEntry(dec, ChecksumsFilename)
	if err != nil {
		return nil, err
	}
	checksums, err := ParseChecksumTable(checksumText)
	if err != nil {
		return nil, err
	}

	manifestText, err := readTextEntry(dec, ManifestFilename)
	if err != nil {
		return nil, err
	}
	manifest, err := ParseManifest(manifestText)
	if err != nil {
		return nil, err
	}

	return &Archive{
		dec:       dec,
		checksums: checksums,
		manifest:  manifest,
		matcher:   matcher,
		opts:      opts,
	}, nil
}

// Manifest returns a copy of the parsed payload descriptors in deploy order.
func (a *Archive) Manifest() []PayloadInfo {
	if a == nil || a.manifest == nil {
		return nil
	}

	out := make([]PayloadInfo, len(a.manifest.Payloads))
	copy(out, a.manifest.Payloads)
	return out
}

// Deploy writes every selected payload to its destination, verifying each
// against the checksum table. Any failure aborts the whole run immediately:
// there is no retry, resume, or rollback, and a partially written destination
// is left on disk as-is. Deploy can be called once per Archive.
//
// A payload is fully written before its checksum is compared, so on
// ErrChecksumMissing or ErrChecksumMismatch the destination file holds the
// complete payload bytes.
func (a *Archive) Deploy(ctx context.Context) (DeployResult, error) {
	if a == nil || a.dec == nil {
		return DeployResult{}, ErrNilReader
	}
	if a.deployed {
		return DeployResult{}, ErrAlreadyDeployed
	}
	a.deployed = true

	start := time.Now()
	var res DeployResult
	buf := make([]byte, deployChunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		entry, err := a.dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}

		if a.cursor >= len(a.manifest.Payloads) {
			return res, fmt.Errorf("%w: entry %s", ErrManifestEntryMissing, entry.Name)
		}
		info := a.manifest.Payloads[a.cursor]
		a.cursor++

		// Positional correspondence, not lookup by name.
		if info.Filename != entry.Name {
			return res, fmt.Errorf("%w: archive entry %s, manifest descriptor %s",
				ErrManifestMismatch, entry.Name, info.Filename)
		}

		dest := info.Dest
		if a.opts.MapDest != nil {
			dest = a.opts.MapDest(info)
		}

		written, skipped, err := a.deployEntry(entry, info, dest, buf)
		if err != nil {
			return res, err
		}

		if err := a.verifyEntry(entry); err != nil {
			return res, err
		}

		if skipped {
			res.SkippedPayloads++
		} else {
			res.DeployedPayloads++
			res.BytesWritten += written
		}

		if a.opts.OnPayloadDone != nil {
			a.opts.OnPayloadDone(PayloadProgress{
				Filename: entry.Name,
				Dest:     dest,
				Written:  written,
				Skipped:  skipped,
			})
		}
	}

	if a.cursor < len(a.manifest.Payloads) {
		next := a.manifest.Payloads[a.cursor]
		return res, fmt.Errorf("%w: %d descriptors left, next is %s",
			ErrManifestUnused, len(a.manifest.Payloads)-a.cursor, next.Filename)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// deployEntry runs one deployer against one container entry. Unselected
// payloads are drained without writing so the decoder stays in sync and the
// checksum still covers every payload byte.
func (a *Archive) deployEntry(entry *Entry, info PayloadInfo, dest string, buf []byte) (int64, bool, error) {
	// Unknown payload types fail here, before any byte reaches a destination.
	dep, err := newDeployer(info, entry.Size, dest)
	if err != nil {
		return 0, false, err
	}

	if !a.matcher.Match(entry.Name) {
		if err := drainEntry(entry, buf); err != nil {
			return 0, true, err
		}

		return 0, true, nil
	}

	defer func() { _ = dep.Close() }()

	if err := dep.Begin(); err != nil {
		return 0, false, err
	}

	var written int64
	status := StatusPending
	if entry.Size == 0 {
		status = StatusComplete
	}

	for status == StatusPending {
		n, readErr := entry.Read(buf)
		if n > 0 {
			var writeErr error
			status, writeErr = dep.WriteBlock(buf[:n])
			if writeErr != nil {
				return written, false, writeErr
			}

			written += int64(n)
			if a.opts.OnChunk != nil {
				a.opts.OnChunk(entry.Name, written, int64(entry.Size))
			}
		}

		if status == StatusComplete {
			break
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				return written, false, fmt.Errorf("%w: %s: stream ended with %d of %d bytes written",
					ErrPayloadUnderrun, entry.Name, written, entry.Size)
			}

			return written, false, fmt.Errorf("read entry %s: %w", entry.Name, readErr)
		}

		if n == 0 {
			return written, false, fmt.Errorf("%w: %s: empty read with %d of %d bytes written",
				ErrPayloadUnderrun, entry.Name, written, entry.Size)
		}
	}

	if err := dep.Close(); err != nil {
		return written, false, fmt.Errorf("close destination %s: %w", dest, err)
	}

	return written, false, nil
}

// verifyEntry compares a drained entry's finalized checksum against the table.
func (a *Archive) verifyEntry(entry *Entry) error {
	want, ok := a.checksums.Lookup(entry.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrChecksumMissing, entry.Name)
	}

	got := entry.Sum()
	if !got.Equal(want) {
		return fmt.Errorf("%w: %s: archive %s, table %s", ErrChecksumMismatch, entry.Name, got, want)
	}

	return nil
}

// drainEntry consumes the full declared payload without writing it anywhere.
func drainEntry(entry *Entry, buf []byte) error {
	for entry.Remaining() > 0 {
		n, err := entry.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: %s: stream ended with %d bytes undrained",
					ErrPayloadUnderrun, entry.Name, entry.Remaining())
			}

			return fmt.Errorf("drain entry %s: %w", entry.Name, err)
		}

		if n == 0 {
			return fmt.Errorf("%w: %s: empty read while draining", ErrPayloadUnderrun, entry.Name)
		}
	}

	return nil
}

// readTextEntry reads one size-capped text header entry and enforces its name.
func readTextEntry(dec *Decoder, want string) (string, error) {
	entry, err := dec.Next()
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: archive ended before %s entry", ErrEntryMissing, want)
	}
	if err != nil {
		return "", err
	}

	if entry.Name != want {
		return "", fmt.Errorf("%w: want %s, got %s", ErrEntryMissing, want, entry.Name)
	}
	if entry.Size > maxTextEntrySize {
		return "", fmt.Errorf("%w: %s entry is %d bytes (limit %d)",
			ErrTextEntryTooLarge, want, entry.Size, maxTextEntrySize)
	}

	data, err := io.ReadAll(entry)
	if err != nil {
		return "", fmt.Errorf("read %s entry: %w", want, err)
	}

	return string(data), nil
}
