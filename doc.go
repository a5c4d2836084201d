// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

/*
Package skipper applies software update archives to local storage. An update
archive is a single sequential newc (cpio "070701") byte stream carrying a
CRC-32 checksum table, a JSONC manifest, and one raw payload entry per
manifest descriptor, in that order. The package streams payloads to their
declared destinations in fixed-size chunks without ever buffering a payload
in memory, and verifies every payload against its recorded checksum before
moving on.

Processing is single-threaded and strictly sequential: one entry is live at a
time, and every failure is terminal for the whole deployment. There is no
retry, no resume, and no rollback of partially written destinations.

# Deploying

Deploy an archive from any sequential reader (a local file, or a network
stream such as httpreader.Reader):

	f, err := os.Open("update.skp")
	if err != nil {
	    return err
	}
	defer f.Close()

	archive, err := skipper.Open(f)
	if err != nil {
	    return err
	}
	res, err := archive.Deploy(ctx)
	if err != nil {
	    return err
	}
	_ = res.BytesWritten

For progress reporting and payload selection, use explicit options. Selection
rules use github.com/woozymasta/pathrules; unselected payloads are still
drained and checksum-verified so the stream stays consistent:

	archive, err := skipper.OpenWithOptions(f, skipper.DeployOptions{
	    Select: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "rootfs.img"},
	    },
	    OnPayloadDone: func(p skipper.PayloadProgress) {
	        // one event per verified payload
	    },
	})

# Archive layout

Entry one must be named "checksums": one "<filename> <8-hex-digit-CRC32>"
line per payload. Entry two must be named "manifest.jsonc": JSON with
full-line // comments permitted, of the form

	{
	    "payloads": [
	        {"type": "image", "filename": "rootfs.img", "dest": "/dev/mmcblk0p2"}
	    ]
	}

The binary entries that follow must match the manifest descriptors one to
one, in order. The archive ends with the conventional "TRAILER!!!" entry.
Such a stream is what `cpio -o --format=newc` produces over the files
"checksums", "manifest.jsonc", and the payloads.
*/
package skipper
