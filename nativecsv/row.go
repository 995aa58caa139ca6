// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package nativecsv reads and writes the 14-column canonical CSV schema
// (spec.md §6) and validates it into typed transactions (spec.md §4.4).
package nativecsv

import (
	"encoding/csv"
	"io"
	"strings"
)

// Columns lists the canonical header, in the serialization order used by
// WriteCSV. ParseCSV accepts any column order, keyed by these names.
var Columns = []string{
	"date_time", "transaction_type",
	"sent_asset", "sent_amount", "sent_asset_price_usd",
	"received_asset", "received_amount", "received_asset_price_usd",
	"fee_amount", "fee_asset", "fee_usd",
	"wallet_or_exchange", "tx_hash", "notes",
}

// RequiredColumns are the headers a canonical file must carry (spec.md §4.4).
var RequiredColumns = []string{"date_time", "transaction_type", "wallet_or_exchange"}

// Row is one canonical CSV row, every field still a raw string: validation
// into a model.Transaction happens in Validate, not here.
type Row struct {
	DateTime              string
	TransactionType       string
	SentAsset             string
	SentAmount            string
	SentAssetPriceUSD     string
	ReceivedAsset         string
	ReceivedAmount        string
	ReceivedAssetPriceUSD string
	FeeAmount             string
	FeeAsset              string
	FeeUSD                string
	WalletOrExchange      string
	TxHash                string
	Notes                 string

	// SourceRow is 1-based, counting the header as row 1, as required by
	// spec.md §4.4 diagnostics.
	SourceRow int
}

func (r Row) column(name string) string {
	switch name {
	case "date_time":
		return r.DateTime
	case "transaction_type":
		return r.TransactionType
	case "sent_asset":
		return r.SentAsset
	case "sent_amount":
		return r.SentAmount
	case "sent_asset_price_usd":
		return r.SentAssetPriceUSD
	case "received_asset":
		return r.ReceivedAsset
	case "received_amount":
		return r.ReceivedAmount
	case "received_asset_price_usd":
		return r.ReceivedAssetPriceUSD
	case "fee_amount":
		return r.FeeAmount
	case "fee_asset":
		return r.FeeAsset
	case "fee_usd":
		return r.FeeUSD
	case "wallet_or_exchange":
		return r.WalletOrExchange
	case "tx_hash":
		return r.TxHash
	case "notes":
		return r.Notes
	}
	return ""
}

func setColumn(r *Row, name, value string) {
	switch name {
	case "date_time":
		r.DateTime = value
	case "transaction_type":
		r.TransactionType = value
	case "sent_asset":
		r.SentAsset = value
	case "sent_amount":
		r.SentAmount = value
	case "sent_asset_price_usd":
		r.SentAssetPriceUSD = value
	case "received_asset":
		r.ReceivedAsset = value
	case "received_amount":
		r.ReceivedAmount = value
	case "received_asset_price_usd":
		r.ReceivedAssetPriceUSD = value
	case "fee_amount":
		r.FeeAmount = value
	case "fee_asset":
		r.FeeAsset = value
	case "fee_usd":
		r.FeeUSD = value
	case "wallet_or_exchange":
		r.WalletOrExchange = value
	case "tx_hash":
		r.TxHash = value
	case "notes":
		r.Notes = value
	}
}

// ParseCSV reads a canonical CSV blob into Rows, tolerant of column order.
// Empty or whitespace-only input yields an empty, non-error result.
func ParseCSV(raw string) ([]Row, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	colIdx := map[int]string{}
	for i, h := range header {
		colIdx[i] = strings.TrimSpace(h)
	}

	var rows []Row
	sourceRow := 1 // header is row 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sourceRow++
		row := Row{SourceRow: sourceRow}
		for i, v := range record {
			name, ok := colIdx[i]
			if !ok {
				continue
			}
			setColumn(&row, name, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteCSV serializes rows back to the canonical 14-column schema, in
// Columns order, with RFC-4180 quoting handled by encoding/csv.
func WriteCSV(rows []Row) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(Columns); err != nil {
		return "", err
	}
	for _, row := range rows {
		record := make([]string, len(Columns))
		for i, name := range Columns {
			record[i] = row.column(name)
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return b.String(), nil
}
