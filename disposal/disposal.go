// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package disposal realizes gain or loss when inventory is sold, spent,
// traded away, or gifted (spec.md §4.6), by driving a lotpool.Pool consume
// and splitting proceeds proportionally across every lot touched.
package disposal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/lotpool"
	"github.com/ethanbud5/crypto-tax-tool/model"
)

const longTermThresholdDays = 365

// Dispose consumes amount units of (wallet, asset) from pool under method,
// realizing proceeds (already net of fees, per spec.md §4.6) across every
// lot touched, proportional to the share of amount each lot contributed. A
// lot's long/short split is decided independently, by its own holding
// period as of at. On insufficient lots, the pool is left unchanged and
// the lotpool error is returned as-is.
func Dispose(pool *lotpool.Pool, wallet, asset string, amount, proceeds decimal.Decimal, at time.Time, kind model.Kind, method model.Method) ([]model.DisposalResult, error) {
	consumed, err := pool.Consume(wallet, asset, amount, method)
	if err != nil {
		return nil, err
	}

	results := make([]model.DisposalResult, 0, len(consumed))
	proceedsRemaining := proceeds
	for i, lot := range consumed {
		var portionProceeds decimal.Decimal
		if i == len(consumed)-1 {
			// Last lot absorbs whatever Div-then-Mul rounding left over, so
			// the portions sum to proceeds exactly instead of drifting.
			portionProceeds = proceedsRemaining
		} else {
			share := decimal.Zero
			if amount.Sign() != 0 {
				share = lot.Remaining.Div(amount)
			}
			portionProceeds = proceeds.Mul(share)
			proceedsRemaining = proceedsRemaining.Sub(portionProceeds)
		}
		portionCostBasis := lot.CostBasisPerUnit.Mul(lot.Remaining)
		daysHeld := int64(at.Sub(lot.AcquisitionInstant).Hours() / 24)

		results = append(results, model.DisposalResult{
			Asset:              asset,
			AmountConsumed:     lot.Remaining,
			DisposalInstant:    at,
			DisposalKind:       kind,
			Proceeds:           portionProceeds,
			CostBasis:          portionCostBasis,
			GainOrLoss:         portionProceeds.Sub(portionCostBasis),
			LongTerm:           daysHeld > longTermThresholdDays,
			DaysHeld:           daysHeld,
			AcquisitionInstant: lot.AcquisitionInstant,
			LotID:              lot.ID,
			Wallet:             wallet,
		})
	}
	return results, nil
}
