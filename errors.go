// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import "errors"

// Sentinel errors for archive deployment. Use errors.Is in callers.
var (
	// ErrNilReader means the source reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrBadMagic means an entry header does not start with the newc magic number.
	ErrBadMagic = errors.New("bad magic number")
	// ErrBadHexField means an entry header field is not valid ASCII hex.
	ErrBadHexField = errors.New("header field is not valid hex")
	// ErrNonZeroCheck means an entry header check field holds a non-zero value.
	ErrNonZeroCheck = errors.New("header check field is non-zero")
	// ErrNameTooLong means an entry name size exceeds the maximum length.
	ErrNameTooLong = errors.New("entry name size exceeds maximum length")
	// ErrBadEntryName means an entry name is empty, not NUL-terminated, or not UTF-8.
	ErrBadEntryName = errors.New("entry name is malformed")
	// ErrEntryNotDrained means Next was called while the active entry still has payload bytes.
	ErrEntryNotDrained = errors.New("previous entry is not fully drained")
	// ErrDecoderExhausted means Next was called again after the archive trailer.
	ErrDecoderExhausted = errors.New("decoder already reached the archive trailer")
	// ErrEntryMissing means a well-known header entry was absent or misnamed.
	ErrEntryMissing = errors.New("expected archive entry not found")
	// ErrTextEntryTooLarge means a text header entry exceeds the in-memory size limit.
	ErrTextEntryTooLarge = errors.New("text entry exceeds size limit")
	// ErrChecksumFormat means the checksum table text is malformed.
	ErrChecksumFormat = errors.New("malformed checksum table")
	// ErrChecksumMissing means the checksum table has no entry for a deployed file.
	ErrChecksumMissing = errors.New("checksum missing for file")
	// ErrChecksumMismatch means a deployed payload does not match its recorded checksum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrManifestFormat means the manifest failed to parse or misses required fields.
	ErrManifestFormat = errors.New("malformed manifest")
	// ErrManifestMismatch means an archive entry name differs from its positional descriptor.
	ErrManifestMismatch = errors.New("archive entry does not match manifest descriptor")
	// ErrManifestEntryMissing means the archive holds more payload entries than the manifest.
	ErrManifestEntryMissing = errors.New("archive entry has no manifest counterpart")
	// ErrManifestUnused means the archive ended while manifest descriptors remain unconsumed.
	ErrManifestUnused = errors.New("manifest has unused descriptors")
	// ErrUnknownPayloadType means a descriptor names a payload type with no deployer.
	ErrUnknownPayloadType = errors.New("unknown payload type")
	// ErrPayloadOverflow means a write chunk exceeds the payload's remaining byte count.
	ErrPayloadOverflow = errors.New("write exceeds declared payload size")
	// ErrPayloadUnderrun means the entry data ran out before the payload completed.
	ErrPayloadUnderrun = errors.New("read exhausted before write completed")
	// ErrDeployerMisuse means a deployer operation was called out of order.
	ErrDeployerMisuse = errors.New("deployer operation out of order")
	// ErrAlreadyDeployed means Deploy was called twice on one archive.
	ErrAlreadyDeployed = errors.New("archive already deployed")
	// ErrInvalidSelectPattern means one or more payload selection rules are invalid.
	ErrInvalidSelectPattern = errors.New("invalid select rules")
	// ErrConfigFormat means the config file is malformed or incomplete.
	ErrConfigFormat = errors.New("malformed config")
)
