// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Well-known header entry names inside an update archive.
const (
	// ChecksumsFilename names the checksum table entry, always first.
	ChecksumsFilename = "checksums"
	// ManifestFilename names the manifest entry, always second.
	ManifestFilename = "manifest.jsonc"
)

const (
	// deployChunkSize is the fixed read/write chunk of the deploy loop.
	deployChunkSize = 2048
	// maxTextEntrySize bounds the header entries read into memory.
	maxTextEntrySize = 64 * 1024
)

// PayloadProgress contains one completed payload event from the deploy flow.
type PayloadProgress struct {
	// Filename is the source entry name inside the archive.
	Filename string `json:"filename" yaml:"filename"`
	// Dest is the destination path after any MapDest rewrite.
	Dest string `json:"dest" yaml:"dest"`
	// Written is the number of payload bytes written to Dest; zero when skipped.
	Written int64 `json:"written" yaml:"written"`
	// Skipped reports whether the payload was drained and verified but not written.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// DeployOptions configures deploy behavior.
type DeployOptions struct {
	// OnPayloadDone is called after one payload is fully processed and checksum-verified.
	OnPayloadDone func(p PayloadProgress) `json:"-" yaml:"-"`
	// OnChunk is called after each written chunk with cumulative per-payload progress.
	OnChunk func(filename string, written, total int64) `json:"-" yaml:"-"`
	// MapDest optionally rewrites a descriptor's destination before deployment.
	MapDest func(info PayloadInfo) string `json:"-" yaml:"-"`
	// Select defines ordered path rules choosing which payloads are written.
	// Unselected payloads are still fully drained and checksum-verified so the
	// stream stays in sync. An empty rule set selects every payload.
	Select []pathrules.Rule `json:"select,omitempty" yaml:"select,omitempty"`
	// SelectMatcherOptions control selection rule matching.
	SelectMatcherOptions pathrules.MatcherOptions `json:"select_matcher_options,omitzero" yaml:"select_matcher_options,omitzero"`
}

// DeployResult contains deploy output statistics.
type DeployResult struct {
	// DeployedPayloads is the number of payloads written to their destinations.
	DeployedPayloads int `json:"deployed_payloads" yaml:"deployed_payloads"`
	// SkippedPayloads is the number of payloads excluded by selection rules.
	SkippedPayloads int `json:"skipped_payloads,omitempty" yaml:"skipped_payloads,omitempty"`
	// BytesWritten is total payload bytes written.
	BytesWritten int64 `json:"bytes_written" yaml:"bytes_written"`
	// Duration is end-to-end deploy duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// applyDefaults fills zero-valued deploy options with defaults.
func (opts *DeployOptions) applyDefaults() {
	if opts.SelectMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.SelectMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		}
	}

	if opts.SelectMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.SelectMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
