// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package income recognizes ordinary income events (MINING, STAKING,
// AIRDROP, FORK, INCOME) and mints the matching zero-gain tax lot at fair
// market value (spec.md §4.7).
package income

import (
	"github.com/ethanbud5/crypto-tax-tool/lotpool"
	"github.com/ethanbud5/crypto-tax-tool/model"
)

// Classify recognizes tx as an income event, records it, and adds a tax lot
// to pool at cost basis equal to the received leg's fair market value (so
// a later disposal at the same value nets zero additional gain). tx must
// carry a received leg; callers are expected to have already filtered on
// model.IncomeKinds.
func Classify(pool *lotpool.Pool, tx model.Transaction) (model.IncomeEvent, bool) {
	if !tx.HasReceived || tx.ReceivedAmount.Sign() <= 0 {
		return model.IncomeEvent{}, false
	}

	fmv := tx.ReceivedAmount.Mul(tx.ReceivedUnitPriceUSD)

	event := model.IncomeEvent{
		Date:   tx.Timestamp,
		Kind:   tx.Kind,
		Asset:  tx.ReceivedAsset,
		Amount: tx.ReceivedAmount,
		FMV:    fmv,
		Wallet: tx.Wallet,
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

	return event, true
}
