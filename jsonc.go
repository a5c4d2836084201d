// SPDX-License-Identifier: MIT
// Copyright (c) 2026 SkipperHQ
// Source: github.com/skipperhq/skipper

package skipper

import (
	"encoding/json"
	"strings"
)

// stripLineComments removes every line whose first non-whitespace characters
// are "//". Block comments are not supported.
func stripLineComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			continue
		}

		b.WriteString(line)
		b.WriteByte('\n')
	}

	return b.String()
}

// parseJSONC strips line comments and unmarshals the remainder as JSON into v.
func parseJSONC(s string, v any) error {
	return json.Unmarshal([]byte(stripLineComments(s)), v)
}
