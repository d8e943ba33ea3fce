// Package app contains application services and port definitions for the ledger context.
package app

import (
	"context"

	"github.com/fd1az/lp-portfolio/business/ledger/domain"
)

// TransactionPage is one page of the committed transaction stream.
type TransactionPage struct {
	Items      []domain.RawTransaction
	NextCursor string
}

// IDPage is one page of non-fungible ids held in a vault.
type IDPage struct {
	IDs        []string
	NextCursor string
}

// StreamQuery selects transactions affecting an account.
type StreamQuery struct {
	Account  string
	Cursor   string
	PageSize int
	// FromStateVersion skips everything committed before it. Zero reads
	// from genesis.
	FromStateVersion int64
}

// Gateway defines the interface to the ledger gateway.
type Gateway interface {
	// StreamTransactions returns one page of successful transactions
	// affecting the account, oldest first.
	StreamTransactions(ctx context.Context, q StreamQuery) (TransactionPage, error)

	// AccountBalances lists fungible and non-fungible holdings with metadata.
	AccountBalances(ctx context.Context, account string) (domain.AccountBalances, error)

	// NonFungibleIDs returns one page of ids held in vault.
	NonFungibleIDs(ctx context.Context, account, resource, vault, cursor string) (IDPage, error)

	// NonFungibleData returns the data of up to MaxNonFungibleBatch ids.
	NonFungibleData(ctx context.Context, resource string, ids []string) ([]domain.NonFungibleRecord, error)

	// EntityDetails returns metadata and state of global entities.
	EntityDetails(ctx context.Context, addresses []string) ([]domain.EntityDetails, error)

	// Preview dry-runs a manifest.
	Preview(ctx context.Context, manifest string) (domain.PreviewResult, error)

	// Status reports the ledger tip.
	Status(ctx context.Context) (domain.LedgerStatus, error)
}

// MaxNonFungibleBatch is the gateway's limit of ids per data request.
const MaxNonFungibleBatch = 100
