// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package format classifies a raw CSV blob as native, cointracker, or
// unknown by inspecting the header row alone (spec.md §4.1).
package format

import "strings"

// Format is the result of detecting a CSV's shape from its header row.
type Format string

const (
	Native      Format = "native"
	CoinTracker Format = "cointracker"
	Unknown     Format = "unknown"
)

var nativeRequired = []string{"date_time", "transaction_type", "wallet_or_exchange"}

var coinTrackerRequired = []string{
	"Date", "Type", "Received Quantity", "Received Currency",
	"Received Cost Basis (USD)", "Sent Quantity", "Sent Currency",
}

// Detect classifies raw by its first non-empty header line only; no data
// row is ever inspected.
func Detect(raw string) Format {
	line := firstNonEmptyLine(raw)
	if line == "" {
		return Unknown
	}
	headers := splitHeader(line)

	if supersetOf(headers, nativeRequired, true) {
		return Native
	}
	if supersetOf(headers, coinTrackerRequired, false) {
		return CoinTracker
	}
	return Unknown
}

func firstNonEmptyLine(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func splitHeader(line string) []string {
	fields := strings.Split(line, ",")
	trimmed := make([]string, len(fields))
	for i, f := range fields {
		trimmed[i] = strings.TrimSpace(f)
	}
	return trimmed
}

// supersetOf reports whether headers is a superset of required. When
// caseInsensitive is true, comparison lowercases both sides (the native
// schema is conventionally lowercase; CoinTracker exports use Title Case and
// must match exactly).
func supersetOf(headers, required []string, caseInsensitive bool) bool {
	have := map[string]bool{}
	for _, h := range headers {
		if caseInsensitive {
			h = strings.ToLower(h)
		}
		have[h] = true
	}
	for _, r := range required {
		key := r
		if caseInsensitive {
			key = strings.ToLower(key)
		}
		if !have[key] {
			return false
		}
	}
	return true
}
