// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"fmt"
	"os"
	"strings"
)

// DefaultConfigPath is where device images keep the skipper configuration.
const DefaultConfigPath = "/data/skipper/config.jsonc"

// Config holds device-level deployment settings loaded from a JSONC file.
// It is constructed once and passed explicitly to the callers that need it;
// there is no process-wide instance.
type Config struct {
	// RootfsA is the block device or file backing the A rootfs slot.
	RootfsA string `json:"rootfs_a" yaml:"rootfs_a"`
	// RootfsB is the block device or file backing the B rootfs slot.
	RootfsB string `json:"rootfs_b" yaml:"rootfs_b"`
}

// LoadConfig reads a JSONC config file. An empty path loads DefaultConfigPath.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := parseJSONC(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConfigFormat, path, err)
	}

	return &cfg, nil
}

// Slot resolves a rootfs slot name ("a" or "b") to its configured path.
func (c *Config) Slot(name string) (string, error) {
	switch strings.ToLower(name) {
	case "a":
		if c.RootfsA == "" {
			return "", fmt.Errorf("%w: rootfs_a is not set", ErrConfigFormat)
		}

		return c.RootfsA, nil
	case "b":
		if c.RootfsB == "" {
			return "", fmt.Errorf("%w: rootfs_b is not set", ErrConfigFormat)
		}

		return c.RootfsB, nil
	default:
		return "", fmt.Errorf("%w: unknown slot %q", ErrConfigFormat, name)
	}
}
