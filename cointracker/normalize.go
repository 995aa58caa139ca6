// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package cointracker

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/model"
	"github.com/ethanbud5/crypto-tax-tool/nativecsv"
)

var kindMap = map[string]string{
	"BUY":              "BUY",
	"SELL":             "SELL",
	"TRADE":            "TRADE",
	"RECEIVE":          "RECEIVE",
	"SEND":             "SEND",
	"STAKING_REWARD":   "STAKING",
	"INTEREST_PAYMENT": "STAKING",
}

const obfuscatedMarker = "..."

// Normalize rewrites raw CoinTracker CSV text into canonical native rows,
// splitting TRANSFER into a SEND+RECEIVE pair and suppressing pure-USD legs
// (spec.md §4.2).
func Normalize(raw string) ([]nativecsv.Row, []model.Diagnostic, error) {
	rows, err := ParseCSV(raw)
	if err != nil {
		return nil, nil, err
	}

	var out []nativecsv.Row
	var diags []model.Diagnostic
	sawObfuscated := false

	for _, row := range rows {
		if row.ReceivedCostBasisUSD == obfuscatedMarker || row.FeeCostBasisUSD == obfuscatedMarker {
			sawObfuscated = true
		}

		ts, ok := convertDate(row.Date)
		if !ok {
			diags = append(diags, model.NewWarning(model.WarnNormalizationRemap, row.SourceRow, "Date",
				"could not parse CoinTracker date: "+row.Date))
			continue
		}

		typ := strings.ToUpper(strings.TrimSpace(row.Type))

		if typ == "TRANSFER" {
			out = append(out, transferRows(row, ts)...)
			continue
		}

		canonicalKind, recognized := kindMap[typ]
		if !recognized {
			diags = append(diags, model.NewWarning(model.WarnNormalizationRemap, row.SourceRow, "Type",
				"unrecognized type: "+row.Type))
			continue
		}

		if canonicalKind == "RECEIVE" && strings.EqualFold(strings.TrimSpace(row.ReceivedCurrency), "USD") {
			continue // fiat leg, not taxable
		}
		if canonicalKind == "SEND" && strings.EqualFold(strings.TrimSpace(row.SentCurrency), "USD") {
			continue // fiat leg, not taxable
		}

		out = append(out, nonTransferRow(row, ts, canonicalKind))
	}

	if sawObfuscated {
		diags = append(diags, model.NewWarning(model.WarnObfuscatedCostBasis, 0, "Received Cost Basis (USD)",
			"cost basis was obfuscated (\"...\") in one or more rows; downstream income rows will lack FMV"))
	}

	return out, diags, nil
}

// convertDate parses "M/D/YYYY H:MM:SS" (variable-width fields, UTC assumed)
// into an absolute instant.
func convertDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	dateParts := strings.Split(parts[0], "/")
	if len(dateParts) != 3 {
		return time.Time{}, false
	}
	timeParts := strings.Split(parts[1], ":")
	if len(timeParts) != 3 {
		return time.Time{}, false
	}
	month, err1 := strconv.Atoi(dateParts[0])
	day, err2 := strconv.Atoi(dateParts[1])
	year, err3 := strconv.Atoi(dateParts[2])
	hour, err4 := strconv.Atoi(timeParts[0])
	minute, err5 := strconv.Atoi(timeParts[1])
	second, err6 := strconv.Atoi(timeParts[2])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil || err6 != nil {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), true
}

func transferRows(row Row, ts time.Time) []nativecsv.Row {
	sentWallet := pickWallet(row.SentWallet, row.ReceivedWallet, "Unknown")
	receivedWallet := pickWallet(row.ReceivedWallet, row.SentWallet, "Unknown")

	sendRow := nativecsv.Row{
		DateTime:         ts.Format(time.RFC3339),
		TransactionType:  string(model.Send),
		SentAsset:        strings.TrimSpace(row.SentCurrency),
		SentAmount:       strings.TrimSpace(row.SentQuantity),
		WalletOrExchange: sentWallet,
		TxHash:           row.TxHash,
		FeeAmount:        strings.TrimSpace(row.FeeAmount),
		FeeAsset:         strings.TrimSpace(row.FeeCurrency),
		FeeUSD:           strings.TrimSpace(row.FeeCostBasisUSD),
		Notes:            joinNotes(row.SentComment, row.ReceivedComment),
	}

	receivePrice := derivePrice(row.ReceivedCostBasisUSD, row.ReceivedQuantity)
	receiveRow := nativecsv.Row{
		DateTime:              ts.Format(time.RFC3339),
		TransactionType:       string(model.Receive),
		ReceivedAsset:         strings.TrimSpace(row.ReceivedCurrency),
		ReceivedAmount:        strings.TrimSpace(row.ReceivedQuantity),
		ReceivedAssetPriceUSD: receivePrice,
		WalletOrExchange:      receivedWallet,
		TxHash:                row.TxHash,
		Notes:                 joinNotes(row.SentComment, row.ReceivedComment),
	}

	return []nativecsv.Row{sendRow, receiveRow}
}

func nonTransferRow(row Row, ts time.Time, kind string) nativecsv.Row {
	out := nativecsv.Row{
		DateTime:        ts.Format(time.RFC3339),
		TransactionType: kind,
		TxHash:          row.TxHash,
		FeeAmount:       strings.TrimSpace(row.FeeAmount),
		FeeAsset:        strings.TrimSpace(row.FeeCurrency),
		FeeUSD:          strings.TrimSpace(row.FeeCostBasisUSD),
		Notes:           joinNotes(row.SentComment, row.ReceivedComment),
	}

	switch kind {
	case "BUY", "STAKING", "RECEIVE":
		out.ReceivedAsset = strings.TrimSpace(row.ReceivedCurrency)
		out.ReceivedAmount = strings.TrimSpace(row.ReceivedQuantity)
		out.ReceivedAssetPriceUSD = derivePrice(row.ReceivedCostBasisUSD, row.ReceivedQuantity)
		out.WalletOrExchange = pickWallet(row.ReceivedWallet, row.SentWallet, "Unknown")
	case "SELL":
		out.SentAsset = strings.TrimSpace(row.SentCurrency)
		out.SentAmount = strings.TrimSpace(row.SentQuantity)
		out.SentAssetPriceUSD = derivePrice(row.ReceivedCostBasisUSD, row.SentQuantity)
		out.WalletOrExchange = pickWallet(row.SentWallet, row.ReceivedWallet, "Unknown")
	case "TRADE":
		out.ReceivedAsset = strings.TrimSpace(row.ReceivedCurrency)
		out.ReceivedAmount = strings.TrimSpace(row.ReceivedQuantity)
		out.ReceivedAssetPriceUSD = derivePrice(row.ReceivedCostBasisUSD, row.ReceivedQuantity)
		out.SentAsset = strings.TrimSpace(row.SentCurrency)
		out.SentAmount = strings.TrimSpace(row.SentQuantity)
		out.SentAssetPriceUSD = derivePrice(row.ReceivedCostBasisUSD, row.SentQuantity)
		out.WalletOrExchange = pickWallet(row.SentWallet, row.ReceivedWallet, "Unknown")
	case "SEND":
		out.SentAsset = strings.TrimSpace(row.SentCurrency)
		out.SentAmount = strings.TrimSpace(row.SentQuantity)
		out.WalletOrExchange = pickWallet(row.SentWallet, row.ReceivedWallet, "Unknown")
	}
	return out
}

// derivePrice computes numerator/denominator as a decimal string, left
// blank when either side is absent or non-positive (spec.md §4.2).
func derivePrice(numeratorRaw, denominatorRaw string) string {
	num, err := decimal.NewFromString(strings.TrimSpace(numeratorRaw))
	if err != nil || num.Sign() <= 0 {
		return ""
	}
	den, err := decimal.NewFromString(strings.TrimSpace(denominatorRaw))
	if err != nil || den.Sign() <= 0 {
		return ""
	}
	return num.Div(den).String()
}

func pickWallet(first, second, fallback string) string {
	if w := strings.TrimSpace(first); w != "" {
		return w
	}
	if w := strings.TrimSpace(second); w != "" {
		return w
	}
	return fallback
}

func joinNotes(sent, received string) string {
	sent = strings.TrimSpace(sent)
	received = strings.TrimSpace(received)
	if sent != "" && received != "" {
		return sent + "; " + received
	}
	if sent != "" {
		return sent
	}
	return received
}
