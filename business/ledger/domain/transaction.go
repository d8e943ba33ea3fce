// Package domain models ledger transactions, balances and the semantic
// classification of transaction history.
package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FeeTypeRoyaltyDistributed marks a royalty payment in fee balance changes.
const FeeTypeRoyaltyDistributed = "RoyaltyDistributed"

// FungibleChange is a signed fungible balance change of one entity.
type FungibleChange struct {
	EntityAddress   string
	ResourceAddress string
	Amount          decimal.Decimal
}

// NonFungibleChange lists ids added to and removed from one entity.
type NonFungibleChange struct {
	EntityAddress   string
	ResourceAddress string
	Added           []string
	Removed         []string
}

// FeeChange is a fee-related fungible change (fee payment, royalty, tip).
type FeeChange struct {
	Type            string
	EntityAddress   string
	ResourceAddress string
	Amount          decimal.Decimal
}

// RawTransaction is a committed transaction as read from the gateway.
type RawTransaction struct {
	IntentHash         string
	StateVersion       int64
	Epoch              int64
	RoundTimestamp     time.Time
	Manifest           string
	AffectedEntities   []string
	FungibleChanges    []FungibleChange
	NonFungibleChanges []NonFungibleChange
	FeeChanges         []FeeChange
}

// Touches reports whether tx has a nonzero fungible change or any
// non-fungible movement of resource.
func (tx RawTransaction) Touches(resource string) bool {
	for _, c := range tx.FungibleChanges {
		if c.ResourceAddress == resource && !c.Amount.IsZero() {
			return true
		}
	}
	for _, c := range tx.NonFungibleChanges {
		if c.ResourceAddress == resource && len(c.Added)+len(c.Removed) > 0 {
			return true
		}
	}
	return false
}

// FungibleChangesOf returns the fungible changes owned by entity.
func (tx RawTransaction) FungibleChangesOf(entity string) []FungibleChange {
	var out []FungibleChange
	for _, c := range tx.FungibleChanges {
		if c.EntityAddress == entity {
			out = append(out, c)
		}
	}
	return out
}

// FungibleChange returns the net change of resource for entity.
func (tx RawTransaction) FungibleChange(entity, resource string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range tx.FungibleChanges {
		if c.EntityAddress == entity && c.ResourceAddress == resource {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// NonFungiblesAdded returns ids of resource deposited into entity.
func (tx RawTransaction) NonFungiblesAdded(entity, resource string) []string {
	var ids []string
	for _, c := range tx.NonFungibleChanges {
		if c.EntityAddress == entity && c.ResourceAddress == resource {
			ids = append(ids, c.Added...)
		}
	}
	return ids
}

// ReferencesNonFungible reports whether the manifest names id or the id of
// resource moved in tx.
func (tx RawTransaction) ReferencesNonFungible(resource, id string) bool {
	if id == "" {
		return false
	}
	if strings.Contains(tx.Manifest, id) {
		return true
	}
	for _, c := range tx.NonFungibleChanges {
		if c.ResourceAddress != resource {
			continue
		}
		if slices.Contains(c.Added, id) || slices.Contains(c.Removed, id) {
			return true
		}
	}
	return false
}

// HasFeeEvent reports whether any fee change has the given type.
func (tx RawTransaction) HasFeeEvent(feeType string) bool {
	for _, f := range tx.FeeChanges {
		if f.Type == feeType {
			return true
		}
	}
	return false
}

// Affects reports whether entity is among the affected global entities.
func (tx RawTransaction) Affects(entity string) bool {
	return entity != "" && slices.Contains(tx.AffectedEntities, entity)
}

// EnhancedTransaction is a RawTransaction with its semantic tag.
type EnhancedTransaction struct {
	RawTransaction
	Tag Tag
}

// Liquidity returns "added", "removed" or "" for the liquidity tag.
func (t EnhancedTransaction) Liquidity() string {
	switch t.Tag {
	case TagLiquidityAdded:
		return "added"
	case TagLiquidityRemoved:
		return "removed"
	default:
		return ""
	}
}

// IsStrategy reports whether the transaction is strategy-tagged.
func (t EnhancedTransaction) IsStrategy() bool {
	return t.Tag == TagStrategy
}

// IsAirdrop reports whether the transaction is an airdrop.
func (t EnhancedTransaction) IsAirdrop() bool {
	return t.Tag == TagAirdrop
}
