// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestImageDeployer_FullWrite(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.img")
	data := bytes.Repeat([]byte{0xEE}, 5000)

	dep := NewImageDeployer(uint32(len(data)), dest)
	if err := dep.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	var status DeployStatus
	for off := 0; off < len(data); off += deployChunkSize {
		end := off + deployChunkSize
		if end > len(data) {
			end = len(data)
		}

		var err error
		status, err = dep.WriteBlock(data[off:end])
		if err != nil {
			t.Fatalf("WriteBlock at %d: %v", off, err)
		}
		if end < len(data) && status != StatusPending {
			t.Fatalf("status=%v at %d, want StatusPending", status, off)
		}
	}

	if status != StatusComplete {
		t.Fatalf("status=%v after full write, want StatusComplete", status)
	}
	if err := dep.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("destination has %d bytes, want %d and matching content", len(got), len(data))
	}
}

func TestImageDeployer_TruncatesExisting(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.img")
	if err := os.WriteFile(dest, bytes.Repeat([]byte{0xFF}, 100), 0o600); err != nil {
		t.Fatal(err)
	}

	dep := NewImageDeployer(2, dest)
	if err := dep.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := dep.WriteBlock([]byte{1, 2}); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := dep.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("destination=%v, want [1 2]", got)
	}
}

func TestImageDeployer_OverflowWritesNothing(t *testing.T) {
	t.Parallel()

	dest := filepath.Join(t.TempDir(), "out.img")

	dep := NewImageDeployer(3, dest)
	if err := dep.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err := dep.WriteBlock([]byte{1, 2, 3, 4})
	if !errors.Is(err, ErrPayloadOverflow) {
		t.Fatalf("WriteBlock: %v, want ErrPayloadOverflow", err)
	}
	if err := dep.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("destination has %d bytes after overflow, want 0", len(got))
	}
}

func TestImageDeployer_BeginTwice(t *testing.T) {
	t.Parallel()

	dep := NewImageDeployer(1, filepath.Join(t.TempDir(), "out.img"))
	if err := dep.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer func() { _ = dep.Close() }()

	if err := dep.Begin(); !errors.Is(err, ErrDeployerMisuse) {
		t.Fatalf("second Begin: %v, want ErrDeployerMisuse", err)
	}
}

func TestImageDeployer_WriteBeforeBegin(t *testing.T) {
	t.Parallel()

	dep := NewImageDeployer(1, filepath.Join(t.TempDir(), "out.img"))
	if _, err := dep.WriteBlock([]byte{1}); !errors.Is(err, ErrDeployerMisuse) {
		t.Fatalf("WriteBlock before Begin: %v, want ErrDeployerMisuse", err)
	}
}

func TestImageDeployer_CloseIdempotent(t *testing.T) {
	t.Parallel()

	dep := NewImageDeployer(0, filepath.Join(t.TempDir(), "out.img"))
	if err := dep.Begin(); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := dep.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := dep.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestNewDeployer_UnknownType(t *testing.T) {
	t.Parallel()

	info := PayloadInfo{Type: "video", Filename: "a.mp4", Dest: "/tmp/a"}
	if _, err := newDeployer(info, 10, info.Dest); !errors.Is(err, ErrUnknownPayloadType) {
		t.Fatalf("newDeployer: %v, want ErrUnknownPayloadType", err)
	}
}
