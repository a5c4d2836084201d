// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"encoding/json"
	"fmt"
)

// PayloadType selects the deployer for one manifest descriptor.
type PayloadType string

// Known payload types.
const (
	// PayloadTypeImage is a raw disk image written byte for byte to its destination.
	PayloadTypeImage PayloadType = "image"
)

// PayloadInfo is one manifest descriptor.
type PayloadInfo struct {
	// Type selects the deployer. Unknown values are rejected at dispatch
	// time, when the descriptor's archive entry is reached, not at parse time.
	Type PayloadType `json:"type" yaml:"type"`
	// Filename is the source entry name inside the archive.
	Filename string `json:"filename" yaml:"filename"`
	// Dest is the destination path the payload is written to.
	Dest string `json:"dest" yaml:"dest"`
	// Params is reserved for settings of future payload types.
	Params json.RawMessage `json:"params,omitempty" yaml:"params,omitempty"`
}

// Manifest is the ordered list of payload descriptors driving deployment.
// Order is semantically significant: descriptor N must name the Nth binary
// entry following the two header entries.
type Manifest struct {
	// Payloads are deployed in order.
	Payloads []PayloadInfo `json:"payloads" yaml:"payloads"`
}

// ParseManifest parses manifest text: full-line "//" comments stripped, the
// remainder a JSON object with one required "payloads" array. Each descriptor
// must carry "type", "filename", and "dest".
func ParseManifest(text string) (*Manifest, error) {
	var m Manifest
	if err := parseJSONC(text, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestFormat, err)
	}

	if m.Payloads == nil {
		return nil, fmt.Errorf("%w: missing \"payloads\" array", ErrManifestFormat)
	}

	for i := range m.Payloads {
		p := &m.Payloads[i]
		if p.Type == "" {
			return nil, fmt.Errorf("%w: payload %d is missing \"type\"", ErrManifestFormat, i)
		}
		if p.Filename == "" {
			return nil, fmt.Errorf("%w: payload %d is missing \"filename\"", ErrManifestFormat, i)
		}
		if p.Dest == "" {
			return nil, fmt.Errorf("%w: payload %d is missing \"dest\"", ErrManifestFormat, i)
		}
	}

	return &m, nil
}
