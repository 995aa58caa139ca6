// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package priceoracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/logging"
	"github.com/ethanbud5/crypto-tax-tool/model"
	"github.com/ethanbud5/crypto-tax-tool/nativecsv"
)

const dayLayout = "2006-01-02"

type leg struct {
	rowIdx int
	field  string // "sent" or "received"
	ticker string
}

// Enrich fills blank per-unit USD prices on rows using oracle, calling it at
// most once per distinct ticker (spec.md §4.3). It returns the (possibly
// unmodified) rows, the number of prices filled, and any diagnostics.
func Enrich(ctx context.Context, oracle Oracle, rows []nativecsv.Row, logger *logging.Logger) ([]nativecsv.Row, int, []model.Diagnostic) {
	runID := uuid.NewString()
	if logger == nil {
		logger = logging.Default()
	}
	log := logger.Component("priceoracle").With("run", runID)

	legs := findBlankLegs(rows)
	if len(legs) == 0 {
		log.Debug("no blank legs need enrichment")
		return rows, 0, nil
	}

	tickers := lo.Uniq(lo.Map(legs, func(l leg, _ int) string { return l.ticker }))

	toDate := maxRowDate(rows).AddDate(0, 0, 1)

	var diags []model.Diagnostic
	closesByTicker := map[string]map[string]decimal.Decimal{}
	for _, ticker := range tickers {
		log.Debug("fetching daily closes", "ticker", ticker, "to_date", toDate.Format(dayLayout))
		closes, err := oracle.FetchDailyCloses(ctx, ticker, toDate)
		if err != nil {
			diags = append(diags, model.NewWarning(model.WarnOracleFetchFailed, 0, ticker, err.Error()))
			continue
		}
		if len(closes) == 0 {
			diags = append(diags, model.NewWarning(model.WarnOracleEmpty, 0, ticker, "oracle returned no data for "+ticker))
			continue
		}
		filtered := map[string]decimal.Decimal{}
		for day, price := range closes {
			if price.Sign() > 0 {
				filtered[day] = price
			}
		}
		closesByTicker[ticker] = filtered
	}

	filled := 0
	out := append([]nativecsv.Row(nil), rows...)
	for _, l := range legs {
		closes, ok := closesByTicker[l.ticker]
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(out[l.rowIdx].DateTime))
		if err != nil {
			continue
		}
		price, ok := lookupWithFallback(closes, ts)
		if !ok {
			continue
		}
		switch l.field {
		case "sent":
			out[l.rowIdx].SentAssetPriceUSD = price.String()
		case "received":
			out[l.rowIdx].ReceivedAssetPriceUSD = price.String()
		}
		filled++
	}

	if filled > 0 {
		diags = append(diags, model.NewWarning(model.WarnAutoFilledPrice, 0, "", fmt.Sprintf("Auto-filled %d price(s)", filled)))
	}

	return out, filled, diags
}

func findBlankLegs(rows []nativecsv.Row) []leg {
	var legs []leg
	for i, row := range rows {
		sentAsset := strings.TrimSpace(row.SentAsset)
		if sentAsset != "" && !strings.EqualFold(sentAsset, "USD") && strings.TrimSpace(row.SentAssetPriceUSD) == "" {
			legs = append(legs, leg{rowIdx: i, field: "sent", ticker: sentAsset})
		}
		receivedAsset := strings.TrimSpace(row.ReceivedAsset)
		if receivedAsset != "" && !strings.EqualFold(receivedAsset, "USD") && strings.TrimSpace(row.ReceivedAssetPriceUSD) == "" {
			legs = append(legs, leg{rowIdx: i, field: "received", ticker: receivedAsset})
		}
	}
	return legs
}

func maxRowDate(rows []nativecsv.Row) time.Time {
	var max time.Time
	for _, row := range rows {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(row.DateTime))
		if err != nil {
			continue
		}
		if t.After(max) {
			max = t
		}
	}
	return max
}

func lookupWithFallback(closes map[string]decimal.Decimal, ts time.Time) (decimal.Decimal, bool) {
	day := ts.UTC()
	if price, ok := closes[day.Format(dayLayout)]; ok {
		return price, true
	}
	if price, ok := closes[day.AddDate(0, 0, -1).Format(dayLayout)]; ok {
		return price, true
	}
	if price, ok := closes[day.AddDate(0, 0, 1).Format(dayLayout)]; ok {
		return price, true
	}
	return decimal.Decimal{}, false
}
