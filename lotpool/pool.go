// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

// Package lotpool is the per-(wallet, asset) tax lot inventory: add,
// consume under a selection policy, and transfer between wallets
// (spec.md §4.5). The Pool exclusively owns every lot it holds.
package lotpool

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ethanbud5/crypto-tax-tool/model"
)

// ErrInsufficientLots is returned by Consume when a (wallet, asset) bucket
// cannot satisfy the requested amount. The pool is left unchanged.
type ErrInsufficientLots struct {
	Wallet, Asset        string
	Requested, Available decimal.Decimal
}

func (e *ErrInsufficientLots) Error() string {
	return fmt.Sprintf("Insufficient lots for %s/%s: requested %s, available %s",
		e.Wallet, e.Asset, e.Requested.String(), e.Available.String())
}

type bucketKey struct {
	wallet, asset string
}

// Pool is the opaque handle owning every tax lot across every wallet and
// asset. The zero value is not usable; construct with New.
type Pool struct {
	buckets map[bucketKey][]*model.TaxLot
	nextID  int64
}

// New returns an empty Pool.
func New() *Pool {
	return &Pool{buckets: make(map[bucketKey][]*model.TaxLot)}
}

// Add appends a new lot to its (wallet, asset) bucket, assigning it a fresh
// stable id. Lots are never merged, even when date and basis coincide.
func (p *Pool) Add(lot model.TaxLot) model.TaxLot {
	p.nextID++
	lot.ID = p.nextID
	key := bucketKey{lot.Wallet, lot.Asset}
	stored := lot
	p.buckets[key] = append(p.buckets[key], &stored)
	return stored
}

// Consume realizes amount units of (wallet, asset) under method, returning
// one snapshot per lot touched. On InsufficientLots the pool is left
// exactly as it was before the call (atomic).
func (p *Pool) Consume(wallet, asset string, amount decimal.Decimal, method model.Method) ([]model.TaxLot, error) {
	key := bucketKey{wallet, asset}
	lots := p.buckets[key]
	if len(lots) == 0 {
		return nil, &ErrInsufficientLots{Wallet: wallet, Asset: asset, Requested: amount, Available: decimal.Zero}
	}

	ordered := sortedView(lots, method)

	outstanding := amount
	var snapshots []model.TaxLot
	consumedAmounts := make(map[int64]decimal.Decimal, len(ordered))

	for _, lot := range ordered {
		if outstanding.Sign() <= 0 {
			break
		}
		use := decimal.Min(lot.Remaining, outstanding)
		if use.Sign() <= 0 {
			continue
		}
		snapshots = append(snapshots, model.TaxLot{
			ID:                 lot.ID,
			Asset:              lot.Asset,
			Remaining:          use,
			Original:           lot.Original,
			CostBasisPerUnit:   lot.CostBasisPerUnit,
			AcquisitionInstant: lot.AcquisitionInstant,
			AcquisitionKind:    lot.AcquisitionKind,
			Wallet:             lot.Wallet,
		})
		consumedAmounts[lot.ID] = use
		outstanding = outstanding.Sub(use)
	}

	if outstanding.Sign() > 0 {
		available := decimal.Zero
		for _, lot := range lots {
			available = available.Add(lot.Remaining)
		}
		return nil, &ErrInsufficientLots{Wallet: wallet, Asset: asset, Requested: amount, Available: available}
	}

	// Commit: only now do we mutate the underlying lots.
	for _, lot := range lots {
		if use, ok := consumedAmounts[lot.ID]; ok {
			lot.Remaining = lot.Remaining.Sub(use)
		}
	}
	p.buckets[key] = gc(lots)

	return snapshots, nil
}

// Transfer moves amount units of asset from one wallet to another,
// preserving basis and acquisition instant. Implemented as a FIFO Consume
// from the source followed by re-adding each snapshot at the destination
// with a fresh id. No tax event results.
func (p *Pool) Transfer(from, to, asset string, amount decimal.Decimal) error {
	snapshots, err := p.Consume(from, asset, amount, model.FIFO)
	if err != nil {
		return err
	}
	for _, snap := range snapshots {
		p.Add(model.TaxLot{
			Asset:              snap.Asset,
			Remaining:          snap.Remaining,
			Original:           snap.Remaining,
			CostBasisPerUnit:   snap.CostBasisPerUnit,
			AcquisitionInstant: snap.AcquisitionInstant,
			AcquisitionKind:    snap.AcquisitionKind,
			Wallet:             to,
		})
	}
	return nil
}

// RemainingLots returns every lot across every (wallet, asset) bucket whose
// remaining amount is greater than zero.
func (p *Pool) RemainingLots() []model.TaxLot {
	var out []model.TaxLot
	for _, lots := range p.buckets {
		for _, lot := range lots {
			if lot.Remaining.Sign() > 0 {
				out = append(out, *lot)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AcquisitionInstant.Equal(out[j].AcquisitionInstant) {
			return out[i].AcquisitionInstant.Before(out[j].AcquisitionInstant)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func sortedView(lots []*model.TaxLot, method model.Method) []*model.TaxLot {
	ordered := append([]*model.TaxLot(nil), lots...)
	switch method {
	case model.LIFO:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].AcquisitionInstant.After(ordered[j].AcquisitionInstant)
		})
	case model.HIFO:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].CostBasisPerUnit.GreaterThan(ordered[j].CostBasisPerUnit)
		})
	default: // FIFO
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].AcquisitionInstant.Before(ordered[j].AcquisitionInstant)
		})
	}
	return ordered
}

func gc(lots []*model.TaxLot) []*model.TaxLot {
	out := lots[:0:0]
	for _, lot := range lots {
		if lot.Remaining.Sign() > 0 {
			out = append(out, lot)
		}
	}
	return out
}
