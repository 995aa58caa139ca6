// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package report filters a tax-engine run down to a single calendar year
// and aggregates it into an 8949-style disposal list and a Schedule-D
// style summary (spec.md §4.9).
package report

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/model"
)

// DisposalRow is one 8949-style line: a human-readable description plus
// the acquisition/disposal dates, proceeds, basis, gain, and classification.
type DisposalRow struct {
	Description  string
	AcquiredDate time.Time
	DisposedDate time.Time
	Proceeds     decimal.Decimal
	CostBasis    decimal.Decimal
	GainOrLoss   decimal.Decimal
	LongTerm     bool
	DaysHeld     int64
	Wallet       string
}

// TaxReport is the full yearly output: disposal rows, the Schedule-D
// summary, recognized income for the year, and every lot still
// outstanding (a carry-forward snapshot, never filtered by year).
type TaxReport struct {
	Year          int
	Method        model.Method
	Disposals     []DisposalRow
	Income        []model.IncomeEvent
	Summary       model.ScheduleSummary
	RemainingLots []model.TaxLot
	Errors        []model.Diagnostic
	Warnings      []model.Diagnostic
}

// Generate filters disposals and income to year (by the event's own date,
// in UTC) and aggregates a Schedule-D summary. Remaining lots are passed
// through unfiltered, so the report doubles as a carry-forward inventory
// snapshot. preErrors/preWarnings are diagnostics raised upstream of the
// tax calculator (parsing, normalization, enrichment) and are carried
// through unchanged.
func Generate(disposals []model.DisposalResult, income []model.IncomeEvent, remaining []model.TaxLot,
	year int, method model.Method, preErrors, preWarnings []model.Diagnostic) TaxReport {

	report := TaxReport{
		Year:          year,
		Method:        method,
		RemainingLots: remaining,
		Summary:       model.ScheduleSummary{ShortTermGains: decimal.Zero, ShortTermLosses: decimal.Zero, LongTermGains: decimal.Zero, LongTermLosses: decimal.Zero},
	}

	for _, d := range disposals {
		if d.DisposalInstant.UTC().Year() != year {
			continue
		}
		report.Disposals = append(report.Disposals, DisposalRow{
			Description:  formatDescription(d.AmountConsumed, d.Asset),
			AcquiredDate: d.AcquisitionInstant,
			DisposedDate: d.DisposalInstant,
			Proceeds:     d.Proceeds,
			CostBasis:    d.CostBasis,
			GainOrLoss:   d.GainOrLoss,
			LongTerm:     d.LongTerm,
			DaysHeld:     d.DaysHeld,
			Wallet:       d.Wallet,
		})
		bucket(&report.Summary, d)
	}

	for _, ev := range income {
		if ev.Date.UTC().Year() != year {
			continue
		}
		report.Income = append(report.Income, ev)
	}

	report.Summary.NetShortTerm = report.Summary.ShortTermGains.Add(report.Summary.ShortTermLosses)
	report.Summary.NetLongTerm = report.Summary.LongTermGains.Add(report.Summary.LongTermLosses)
	report.Summary.Total = report.Summary.NetShortTerm.Add(report.Summary.NetLongTerm)

	report.Errors = preErrors
	report.Warnings = preWarnings
	return report
}

func bucket(summary *model.ScheduleSummary, d model.DisposalResult) {
	if d.LongTerm {
		if d.GainOrLoss.Sign() >= 0 {
			summary.LongTermGains = summary.LongTermGains.Add(d.GainOrLoss)
		} else {
			summary.LongTermLosses = summary.LongTermLosses.Add(d.GainOrLoss)
		}
		return
	}
	if d.GainOrLoss.Sign() >= 0 {
		summary.ShortTermGains = summary.ShortTermGains.Add(d.GainOrLoss)
	} else {
		summary.ShortTermLosses = summary.ShortTermLosses.Add(d.GainOrLoss)
	}
}

// formatDescription renders "<amount> <asset>" with amount to 8 decimal
// places and trailing zeros (and a trailing radix point) trimmed.
func formatDescription(amount decimal.Decimal, asset string) string {
	s := amount.StringFixed(8)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s + " " + asset
}
