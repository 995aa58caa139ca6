// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package priceoracle fills in missing per-unit USD prices on canonical
// rows from a pluggable historical-price oracle (spec.md §4.3, §6).
package priceoracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Oracle is the abstract historical daily-close price source (spec.md §6).
// Implementations are expected to be idempotent and called at most once per
// ticker per Enrich run.
type Oracle interface {
	// FetchDailyCloses returns a mapping of "YYYY-MM-DD" to closing price,
	// for every day up to and including toDate that the upstream source
	// has data for.
	FetchDailyCloses(ctx context.Context, ticker string, toDate time.Time) (map[string]decimal.Decimal, error)
}
