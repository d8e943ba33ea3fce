package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/apperror"
	"github.com/fd1az/lp-portfolio/internal/logger"
)

const tracerName = "github.com/fd1az/lp-portfolio/business/ledger/app"

// Config bounds the paginated reads.
type Config struct {
	MaxPages int
	PageSize int
}

// DefaultConfig returns the gateway page defaults.
func DefaultConfig() Config {
	return Config{MaxPages: 1000, PageSize: 100}
}

// LedgerService reads and classifies account state from the gateway.
type LedgerService struct {
	gateway    Gateway
	classifier *domain.Classifier
	config     Config
	logger     logger.LoggerInterface
	tracer     trace.Tracer
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(gateway Gateway, classifier *domain.Classifier, cfg Config, log logger.LoggerInterface) *LedgerService {
	def := DefaultConfig()
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	return &LedgerService{
		gateway:    gateway,
		classifier: classifier,
		config:     cfg,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}
}

// Classifier returns the classifier used for history.
func (s *LedgerService) Classifier() *domain.Classifier {
	return s.classifier
}

// History returns every tagged transaction affecting account, in ledger
// order. Untagged transactions are dropped. A failed page fails the whole
// read; so does a stream longer than MaxPages.
func (s *LedgerService) History(ctx context.Context, account string) ([]domain.EnhancedTransaction, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.history",
		trace.WithAttributes(attribute.String("account", account)),
	)
	defer span.End()

	start := time.Now()
	var (
		history []domain.EnhancedTransaction
		cursor  string
		seen    int
	)
	for page := 0; ; page++ {
		if page >= s.config.MaxPages {
			err := apperror.New(apperror.CodeLedgerPaginationLimit,
				apperror.WithContext(fmt.Sprintf("transaction stream exceeded %d pages", s.config.MaxPages)))
			span.RecordError(err)
			return nil, err
		}

		res, err := s.gateway.StreamTransactions(ctx, StreamQuery{
			Account:  account,
			Cursor:   cursor,
			PageSize: s.config.PageSize,
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		seen += len(res.Items)
		for _, raw := range res.Items {
			tx := s.classifier.Enhance(raw)
			if tx.Tag == domain.TagNone {
				continue
			}
			history = append(history, tx)
		}

		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}

	span.SetAttributes(
		attribute.Int("transactions.seen", seen),
		attribute.Int("transactions.tagged", len(history)),
	)
	s.logger.Debug(ctx, "history loaded",
		"account", account,
		"seen", seen,
		"tagged", len(history),
		"took", time.Since(start))

	return history, nil
}

// Balances lists the account's holdings.
func (s *LedgerService) Balances(ctx context.Context, account string) (domain.AccountBalances, error) {
	if err := domain.ValidateAccountAddress(account); err != nil {
		return domain.AccountBalances{}, err
	}
	return s.gateway.AccountBalances(ctx, account)
}

// NonFungibleIDs returns every id of balance held by account, following
// vault cursors.
func (s *LedgerService) NonFungibleIDs(ctx context.Context, account string, balance domain.NonFungibleBalance) ([]string, error) {
	var ids []string
	for _, vault := range balance.Vaults {
		ids = append(ids, vault.IDs...)

		cursor := vault.NextCursor
		for page := 0; cursor != ""; page++ {
			if page >= s.config.MaxPages {
				return nil, apperror.New(apperror.CodeLedgerPaginationLimit,
					apperror.WithContext(fmt.Sprintf("vault %s exceeded %d pages", vault.VaultAddress, s.config.MaxPages)))
			}
			res, err := s.gateway.NonFungibleIDs(ctx, account, balance.ResourceAddress, vault.VaultAddress, cursor)
			if err != nil {
				return nil, err
			}
			ids = append(ids, res.IDs...)
			cursor = res.NextCursor
		}
	}
	return ids, nil
}

// NonFungibleData fetches records in gateway-sized batches. Burned ids are
// omitted.
func (s *LedgerService) NonFungibleData(ctx context.Context, resource string, ids []string) ([]domain.NonFungibleRecord, error) {
	records := make([]domain.NonFungibleRecord, 0, len(ids))
	for start := 0; start < len(ids); start += MaxNonFungibleBatch {
		end := min(start+MaxNonFungibleBatch, len(ids))
		batch, err := s.gateway.NonFungibleData(ctx, resource, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, r := range batch {
			if r.Burned {
				continue
			}
			records = append(records, r)
		}
	}
	return records, nil
}

// ComponentState returns the state of one component.
func (s *LedgerService) ComponentState(ctx context.Context, address string) (domain.EntityDetails, error) {
	details, err := s.gateway.EntityDetails(ctx, []string{address})
	if err != nil {
		return domain.EntityDetails{}, err
	}
	for _, d := range details {
		if d.Address == address {
			return d, nil
		}
	}
	return domain.EntityDetails{}, apperror.NotFound(apperror.CodeNotFound, address)
}

// Preview dry-runs manifest. A rejected preview is an error.
func (s *LedgerService) Preview(ctx context.Context, manifest string) (domain.PreviewResult, error) {
	res, err := s.gateway.Preview(ctx, manifest)
	if err != nil {
		return domain.PreviewResult{}, err
	}
	if !res.Succeeded {
		return res, apperror.New(apperror.CodeLedgerPreviewFailed, apperror.WithContext(res.ErrorMessage))
	}
	return res, nil
}

// Status reports the ledger tip.
func (s *LedgerService) Status(ctx context.Context) (domain.LedgerStatus, error) {
	return s.gateway.Status(ctx)
}
