// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package cointracker rewrites a CoinTracker-style CSV export into the
// canonical native schema (spec.md §4.2).
package cointracker

import (
	"encoding/csv"
	"io"
	"strings"
)

// Row is one CoinTracker export row, read tolerant of column order. Columns
// this package does not recognize are ignored.
type Row struct {
	Date                 string
	Type                 string
	ReceivedQuantity     string
	ReceivedCurrency     string
	ReceivedCostBasisUSD string
	SentQuantity         string
	SentCurrency         string
	FeeAmount            string
	FeeCurrency          string
	FeeCostBasisUSD      string
	SentWallet           string
	ReceivedWallet       string
	SentComment          string
	ReceivedComment      string
	TxHash               string

	SourceRow int
}

var columnSetters = map[string]func(*Row, string){
	"Date":                      func(r *Row, v string) { r.Date = v },
	"Type":                      func(r *Row, v string) { r.Type = v },
	"Received Quantity":         func(r *Row, v string) { r.ReceivedQuantity = v },
	"Received Currency":         func(r *Row, v string) { r.ReceivedCurrency = v },
	"Received Cost Basis (USD)": func(r *Row, v string) { r.ReceivedCostBasisUSD = v },
	"Sent Quantity":             func(r *Row, v string) { r.SentQuantity = v },
	"Sent Currency":             func(r *Row, v string) { r.SentCurrency = v },
	"Fee Amount":                func(r *Row, v string) { r.FeeAmount = v },
	"Fee Currency":              func(r *Row, v string) { r.FeeCurrency = v },
	"Fee Cost Basis (USD)":      func(r *Row, v string) { r.FeeCostBasisUSD = v },
	"Sent Wallet":               func(r *Row, v string) { r.SentWallet = v },
	"Received Wallet":           func(r *Row, v string) { r.ReceivedWallet = v },
	"Sent Comment":              func(r *Row, v string) { r.SentComment = v },
	"Received Comment":          func(r *Row, v string) { r.ReceivedComment = v },
	"TxHash":                    func(r *Row, v string) { r.TxHash = v },
}

// ParseCSV reads a raw CoinTracker export into Rows.
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

	setterByIdx := map[int]func(*Row, string){}
	for i, h := range header {
		if setter, ok := columnSetters[strings.TrimSpace(h)]; ok {
			setterByIdx[i] = setter
		}
	}

	var rows []Row
	sourceRow := 1
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
			if setter, ok := setterByIdx[i]; ok {
				setter(&row, v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
