// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package taxengine drives the canonical transaction stream through the
// lot pool, one transaction at a time, in deterministic replay order
// (spec.md §4.8). It is the single place that dispatches on transaction
// kind.
package taxengine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/disposal"
	"github.com/ethanbud5/crypto-tax-tool/income"
	"github.com/ethanbud5/crypto-tax-tool/lotpool"
	"github.com/ethanbud5/crypto-tax-tool/model"
)

// Result is the full output of a single Calculate run: every disposal and
// income event realized, the lots still outstanding afterward, and any
// per-transaction diagnostics raised along the way.
type Result struct {
	Disposals    []model.DisposalResult
	IncomeEvents []model.IncomeEvent
	Remaining    []model.TaxLot
	Diagnostics  []model.Diagnostic
}

// Calculate replays txs in order under method, mutating a fresh lot pool
// and accumulating disposals, income events, and diagnostics. A
// transaction that fails (insufficient lots, an unrecognized kind) yields
// a diagnostic rather than aborting the run; every other transaction
// still processes.
func Calculate(txs []model.Transaction, method model.Method) Result {
	ordered := sortForReplay(txs)
	pool := lotpool.New()

	var res Result
	for _, tx := range ordered {
		diags := apply(pool, tx, method, &res)
		if diags != nil {
			res.Diagnostics = append(res.Diagnostics, diags...)
		}
	}
	res.Remaining = pool.RemainingLots()
	return res
}

// sortForReplay orders transactions by timestamp, with acquisitions and
// income preceding disposals on an exact tie, then by source file and row
// number for deterministic replay across merged multi-file input
// (spec.md §4.8, supplemented from the teacher's mergeAndSortTxs).
func sortForReplay(txs []model.Transaction) []model.Transaction {
	ordered := append([]model.Transaction(nil), txs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		aFirst := precedesOnTie(a.Kind)
		bFirst := precedesOnTie(b.Kind)
		if aFirst != bFirst {
			return aFirst
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.SourceRow < b.SourceRow
	})
	return ordered
}

func precedesOnTie(k model.Kind) bool {
	return model.Acquisitions[k] || model.IncomeKinds[k]
}

func apply(pool *lotpool.Pool, tx model.Transaction, method model.Method, res *Result) []model.Diagnostic {
	switch {
	case model.Acquisitions[tx.Kind]:
		applyAcquisition(pool, tx)
		return nil

	case model.IncomeKinds[tx.Kind]:
		if event, ok := income.Classify(pool, tx); ok {
			res.IncomeEvents = append(res.IncomeEvents, event)
		}
		return nil

	case tx.Kind == model.Trade:
		var diags []model.Diagnostic
		if tx.HasSent {
			proceeds := tx.SentAmount.Mul(tx.SentUnitPriceUSD)
			if tx.HasFee && tx.FeeAsset == tx.SentAsset {
				proceeds = proceeds.Sub(tx.FeeUSD)
			}
			results, err := disposal.Dispose(pool, tx.Wallet, tx.SentAsset, tx.SentAmount, proceeds, tx.Timestamp, tx.Kind, method)
			if err != nil {
				diags = append(diags, insufficientLotsDiagnostic(tx, err))
			} else {
				res.Disposals = append(res.Disposals, results...)
			}
		}
		applyAcquisition(pool, tx)
		return diags

	case tx.Kind == model.Sell || tx.Kind == model.Spend:
		if !tx.HasSent {
			return nil
		}
		proceeds := tx.SentAmount.Mul(tx.SentUnitPriceUSD)
		if tx.HasFee && tx.FeeAsset == tx.SentAsset {
			proceeds = proceeds.Sub(tx.FeeUSD)
		}
		results, err := disposal.Dispose(pool, tx.Wallet, tx.SentAsset, tx.SentAmount, proceeds, tx.Timestamp, tx.Kind, method)
		if err != nil {
			return []model.Diagnostic{insufficientLotsDiagnostic(tx, err)}
		}
		res.Disposals = append(res.Disposals, results...)
		return nil

	case tx.Kind == model.GiftSent:
		if !tx.HasSent {
			return nil
		}
		results, err := disposal.Dispose(pool, tx.Wallet, tx.SentAsset, tx.SentAmount, decimal.Zero, tx.Timestamp, tx.Kind, method)
		if err != nil {
			return []model.Diagnostic{insufficientLotsDiagnostic(tx, err)}
		}
		res.Disposals = append(res.Disposals, results...)
		return nil

	case tx.Kind == model.Send:
		if !tx.HasSent {
			return nil
		}
		// Transfers always walk the pool FIFO, independent of the run's
		// selection method (spec.md §4.5, §4.8).
		_, err := pool.Consume(tx.Wallet, tx.SentAsset, tx.SentAmount, model.FIFO)
		if err != nil {
			return []model.Diagnostic{insufficientLotsDiagnostic(tx, err)}
		}
		if !tx.HasFee || tx.FeeAmount.IsZero() {
			return nil
		}
		if tx.FeeAsset != tx.SentAsset {
			return []model.Diagnostic{model.NewWarning(model.WarnFeeDisposalSkipped, tx.SourceRow, "fee_asset",
				fmt.Sprintf("fee paid in %s on a SEND of %s was not realized as a disposal", tx.FeeAsset, tx.SentAsset))}
		}
		results, err := disposal.Dispose(pool, tx.Wallet, tx.FeeAsset, tx.FeeAmount, tx.FeeUSD, tx.Timestamp, model.Spend, model.FIFO)
		if err != nil {
			return []model.Diagnostic{model.NewWarning(model.WarnFeeDisposalSkipped, tx.SourceRow, "fee_amount",
				fmt.Sprintf("insufficient lots to realize the SEND fee of %s %s: %v", tx.FeeAmount.String(), tx.FeeAsset, err))}
		}
		res.Disposals = append(res.Disposals, results...)
		return nil

	default:
		return []model.Diagnostic{model.NewError(model.ErrUnknownTransactionKind, tx.SourceRow, "transaction_type",
			fmt.Sprintf("unrecognized transaction kind %q", tx.Kind))}
	}
}

func applyAcquisition(pool *lotpool.Pool, tx model.Transaction) {
	if !tx.HasReceived || tx.ReceivedAmount.Sign() <= 0 {
		return
	}
	pool.Add(model.TaxLot{
		Asset:              tx.ReceivedAsset,
		Remaining:          tx.ReceivedAmount,
		Original:           tx.ReceivedAmount,
		CostBasisPerUnit:   tx.ReceivedUnitPriceUSD,
		AcquisitionInstant: tx.Timestamp,
		AcquisitionKind:    tx.Kind,
		Wallet:             tx.Wallet,
	})
}

func insufficientLotsDiagnostic(tx model.Transaction, err error) model.Diagnostic {
	return model.NewError(model.ErrInsufficientLots, tx.SourceRow, "sent_amount", err.Error())
}
