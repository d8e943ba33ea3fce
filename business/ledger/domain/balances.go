package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/internal/apperror"
)

// Metadata keys requested for resources and components.
const (
	MetadataName    = "name"
	MetadataSymbol  = "symbol"
	MetadataIconURL = "icon_url"
	MetadataPool    = "pool"
)

// FungibleBalance is an account's holding of one fungible resource.
type FungibleBalance struct {
	ResourceAddress string
	Amount          decimal.Decimal
	Metadata        map[string]string
}

// Name returns the resource display name.
func (b FungibleBalance) Name() string { return b.Metadata[MetadataName] }

// NonFungibleVault holds the ids of one vault. NextCursor is set when the
// gateway truncated the id list.
type NonFungibleVault struct {
	VaultAddress string
	TotalCount   int64
	IDs          []string
	NextCursor   string
}

// NonFungibleBalance is an account's holding of one non-fungible resource.
type NonFungibleBalance struct {
	ResourceAddress string
	Count           int64
	Metadata        map[string]string
	Vaults          []NonFungibleVault
}

// Name returns the resource display name.
func (b NonFungibleBalance) Name() string { return b.Metadata[MetadataName] }

// AccountBalances is the balance listing of an account.
type AccountBalances struct {
	Address      string
	StateVersion int64
	Fungibles    []FungibleBalance
	NonFungibles []NonFungibleBalance
}

// NonFungibleRecord is the on-ledger data of one non-fungible id.
type NonFungibleRecord struct {
	ID     string
	Burned bool
	Data   ProgrammaticValue
}

// EntityDetails is the metadata and state of a global component.
type EntityDetails struct {
	Address  string
	Metadata map[string]string
	State    ProgrammaticValue
}

// ResourceChange is one balance change reported by a preview.
type ResourceChange struct {
	EntityAddress   string
	ResourceAddress string
	Amount          decimal.Decimal
}

// PreviewResult is the outcome of a dry-run transaction.
type PreviewResult struct {
	Succeeded       bool
	ErrorMessage    string
	ResourceChanges []ResourceChange
}

// NetChange sums the changes of resource for entity.
func (p PreviewResult) NetChange(entity, resource string) decimal.Decimal {
	total := decimal.Zero
	for _, c := range p.ResourceChanges {
		if c.EntityAddress == entity && c.ResourceAddress == resource {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// LedgerStatus is the gateway's view of the ledger tip.
type LedgerStatus struct {
	Network      string
	StateVersion int64
	Epoch        int64
}

// ValidateAccountAddress checks the bech32m account prefix.
func ValidateAccountAddress(address string) error {
	if !strings.HasPrefix(address, "account_") || len(address) < 20 {
		return apperror.Validation(apperror.CodeInvalidAccount, address)
	}
	for _, r := range address {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return apperror.Validation(apperror.CodeInvalidAccount, address)
		}
	}
	return nil
}
