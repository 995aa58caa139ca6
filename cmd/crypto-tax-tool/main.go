// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/ethanbud5/crypto-tax-tool/config"
	"github.com/ethanbud5/crypto-tax-tool/format"
	"github.com/ethanbud5/crypto-tax-tool/logging"
	"github.com/ethanbud5/crypto-tax-tool/model"
	"github.com/ethanbud5/crypto-tax-tool/nativecsv"
	"github.com/ethanbud5/crypto-tax-tool/priceoracle"
	"github.com/ethanbud5/crypto-tax-tool/report"
	"github.com/ethanbud5/crypto-tax-tool/taxengine"

	"github.com/ethanbud5/crypto-tax-tool/cointracker"
)

func main() {
	year := flag.Int("year", 0, "tax year to report (e.g. 2024). 0 = all years present in the input")
	wallets := flag.String("wallet", "", "comma-separated wallet(s) to include (default: all)")
	method := flag.String("method", "fifo", "lot selection method: fifo, lifo, or hifo")
	walletAliases := flag.String("wallet-aliases", "", "path to a YAML file mapping raw wallet labels to canonical names")
	verbose := flag.Bool("v", false, "verbose per-transaction trace logging")
	flag.Parse()
	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-year YYYY] [-wallet W1,W2] [-method fifo|lifo|hifo] [-wallet-aliases path.yaml] [-v] file1.csv [file2.csv ...]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	level := cfg.LogLevel
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level})
	logging.SetDefault(logger)
	log := logger.Component("cmd")

	aliases, err := config.LoadWalletAliases(*walletAliases)
	if err != nil {
		log.Fatal("loading wallet aliases", "err", err)
	}

	selection, err := parseMethod(*method)
	if err != nil {
		log.Fatal("invalid -method", "err", err)
	}

	walletFilter := splitNonEmpty(*wallets)

	ctx := context.Background()
	oracle := priceoracle.NewCryptoCompareOracle(cfg.CryptoCompareBaseURL, cfg.CryptoCompareAPIKey)

	var allTxs []model.Transaction
	var preErrors, preWarnings []model.Diagnostic

	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Fatal("reading input file", "file", path, "err", err)
		}
		txs, diags := ingest(ctx, oracle, string(raw), path, aliases, log)
		allTxs = append(allTxs, txs...)
		for _, d := range diags {
			if d.Severity == model.SeverityError {
				preErrors = append(preErrors, d)
			} else {
				preWarnings = append(preWarnings, d)
			}
		}
	}

	if len(walletFilter) > 0 {
		wset := map[string]bool{}
		for _, w := range walletFilter {
			wset[w] = true
		}
		allTxs = lo.Filter(allTxs, func(tx model.Transaction, _ int) bool { return wset[tx.Wallet] })
	}

	if *verbose {
		for _, tx := range allTxs {
			log.Debug("transaction",
				"time", tx.Timestamp.Format("2006-01-02T15:04:05Z"),
				"kind", tx.Kind, "wallet", tx.Wallet,
				"sent", fmt.Sprintf("%s %s", tx.SentAmount.String(), tx.SentAsset),
				"received", fmt.Sprintf("%s %s", tx.ReceivedAmount.String(), tx.ReceivedAsset),
				"source", tx.SourceFile)
		}
	}

	result := taxengine.Calculate(allTxs, selection)
	for _, d := range result.Diagnostics {
		if d.Severity == model.SeverityError {
			preErrors = append(preErrors, d)
		} else {
			preWarnings = append(preWarnings, d)
		}
	}

	years := yearsPresent(result, *year)
	for _, y := range years {
		rep := report.Generate(result.Disposals, result.IncomeEvents, result.Remaining, y, selection, preErrors, preWarnings)
		printReport(rep)
	}
}

// ingest runs one input file through format detection, normalization (when
// CoinTracker-shaped), price enrichment, and native validation, returning
// typed transactions plus every diagnostic raised along the way.
func ingest(ctx context.Context, oracle priceoracle.Oracle, raw, path string, aliases config.WalletAliases, log *logging.Logger) ([]model.Transaction, []model.Diagnostic) {
	var diags []model.Diagnostic

	var rows []nativecsv.Row
	switch format.Detect(raw) {
	case format.CoinTracker:
		normalized, normDiags, err := cointracker.Normalize(raw)
		diags = append(diags, normDiags...)
		if err != nil {
			diags = append(diags, model.NewError(model.ErrInvalidNumber, 0, "", "normalizing "+path+": "+err.Error()))
			return nil, diags
		}
		rows = normalized
	case format.Native:
		parsed, err := nativecsv.ParseCSV(raw)
		if err != nil {
			diags = append(diags, model.NewError(model.ErrInvalidNumber, 0, "", "parsing "+path+": "+err.Error()))
			return nil, diags
		}
		rows = parsed
	default:
		diags = append(diags, model.NewError(model.ErrUnknownTransactionKind, 0, "", "could not detect CSV format for "+path))
		return nil, diags
	}

	enriched, filled, enrichDiags := priceoracle.Enrich(ctx, oracle, rows, log)
	diags = append(diags, enrichDiags...)
	if filled > 0 {
		log.Debug("enriched rows with oracle prices", "file", path, "count", filled)
	}

	txs, validateDiags := nativecsv.Validate(enriched, path)
	diags = append(diags, validateDiags...)

	for i := range txs {
		txs[i].Wallet = aliases.Resolve(txs[i].Wallet)
	}
	return txs, diags
}

func parseMethod(raw string) (model.Method, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "fifo", "":
		return model.FIFO, nil
	case "lifo":
		return model.LIFO, nil
	case "hifo":
		return model.HIFO, nil
	}
	return "", fmt.Errorf("unrecognized method %q: expected fifo, lifo, or hifo", raw)
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// yearsPresent returns the distinct calendar years to report: either the
// single year requested, or every year present across disposals and income
// when requested is 0.
func yearsPresent(result taxengine.Result, requested int) []int {
	if requested != 0 {
		return []int{requested}
	}
	disposalYears := lo.Map(result.Disposals, func(d model.DisposalResult, _ int) int { return d.DisposalInstant.UTC().Year() })
	incomeYears := lo.Map(result.IncomeEvents, func(e model.IncomeEvent, _ int) int { return e.Date.UTC().Year() })
	years := lo.Uniq(append(disposalYears, incomeYears...))
	sort.Ints(years)
	return years
}

func printReport(rep report.TaxReport) {
	fmt.Printf("Year %d (%s):\n", rep.Year, rep.Method)
	for _, row := range rep.Disposals {
		fmt.Printf("  %s  acquired=%s disposed=%s proceeds=%s basis=%s gain=%s long_term=%t days_held=%d wallet=%s\n",
			row.Description,
			row.AcquiredDate.Format("2006-01-02"), row.DisposedDate.Format("2006-01-02"),
			row.Proceeds.StringFixed(2), row.CostBasis.StringFixed(2), row.GainOrLoss.StringFixed(2),
			row.LongTerm, row.DaysHeld, row.Wallet)
	}
	for _, ev := range rep.Income {
		fmt.Printf("  INCOME  %s %s  kind=%s fmv=%s wallet=%s\n",
			ev.Amount.String(), ev.Asset, ev.Kind, ev.FMV.StringFixed(2), ev.Wallet)
	}
	fmt.Printf("  Schedule D: short_term=%s long_term=%s total=%s\n",
		rep.Summary.NetShortTerm.StringFixed(2), rep.Summary.NetLongTerm.StringFixed(2), rep.Summary.Total.StringFixed(2))
	for _, d := range rep.Errors {
		fmt.Printf("  ERROR row=%d field=%s %s: %s\n", d.Row, d.Field, d.KindTag, d.Message)
	}
	for _, d := range rep.Warnings {
		fmt.Printf("  WARNING row=%d field=%s %s: %s\n", d.Row, d.Field, d.KindTag, d.Message)
	}
}
