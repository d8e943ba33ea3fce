package gateway

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/lp-portfolio/business/ledger/domain"
)

// Wire types of the gateway API. Only the fields read are declared.

type ledgerState struct {
	Network      string `json:"network"`
	StateVersion int64  `json:"state_version"`
	Epoch        int64  `json:"epoch"`
}

type ledgerStateSelector struct {
	StateVersion int64 `json:"state_version"`
}

type streamOptIns struct {
	AffectedGlobalEntities bool `json:"affected_global_entities"`
	ManifestInstructions   bool `json:"manifest_instructions"`
	BalanceChanges         bool `json:"balance_changes"`
}

type streamRequest struct {
	AffectedGlobalEntitiesFilter []string             `json:"affected_global_entities_filter"`
	Cursor                       string               `json:"cursor,omitempty"`
	LimitPerPage                 int                  `json:"limit_per_page,omitempty"`
	Order                        string               `json:"order"`
	KindFilter                   string               `json:"kind_filter"`
	FromLedgerState              *ledgerStateSelector `json:"from_ledger_state,omitempty"`
	OptIns                       streamOptIns         `json:"opt_ins"`
}

type streamResponse struct {
	NextCursor string                 `json:"next_cursor"`
	Items      []committedTransaction `json:"items"`
}

type committedTransaction struct {
	TransactionStatus      string          `json:"transaction_status"`
	StateVersion           int64           `json:"state_version"`
	Epoch                  int64           `json:"epoch"`
	RoundTimestamp         time.Time       `json:"round_timestamp"`
	IntentHash             string          `json:"intent_hash"`
	ManifestInstructions   string          `json:"manifest_instructions"`
	AffectedGlobalEntities []string        `json:"affected_global_entities"`
	BalanceChanges         *balanceChanges `json:"balance_changes"`
}

type balanceChanges struct {
	FungibleFeeBalanceChanges []feeBalanceChange         `json:"fungible_fee_balance_changes"`
	FungibleBalanceChanges    []fungibleBalanceChange    `json:"fungible_balance_changes"`
	NonFungibleBalanceChanges []nonFungibleBalanceChange `json:"non_fungible_balance_changes"`
}

type feeBalanceChange struct {
	Type            string          `json:"type"`
	EntityAddress   string          `json:"entity_address"`
	ResourceAddress string          `json:"resource_address"`
	BalanceChange   decimal.Decimal `json:"balance_change"`
}

type fungibleBalanceChange struct {
	EntityAddress   string          `json:"entity_address"`
	ResourceAddress string          `json:"resource_address"`
	BalanceChange   decimal.Decimal `json:"balance_change"`
}

type nonFungibleBalanceChange struct {
	EntityAddress   string   `json:"entity_address"`
	ResourceAddress string   `json:"resource_address"`
	Added           []string `json:"added"`
	Removed         []string `json:"removed"`
}

func (t committedTransaction) toDomain() domain.RawTransaction {
	raw := domain.RawTransaction{
		IntentHash:       t.IntentHash,
		StateVersion:     t.StateVersion,
		Epoch:            t.Epoch,
		RoundTimestamp:   t.RoundTimestamp,
		Manifest:         t.ManifestInstructions,
		AffectedEntities: t.AffectedGlobalEntities,
	}
	if t.BalanceChanges == nil {
		return raw
	}

	for _, c := range t.BalanceChanges.FungibleBalanceChanges {
		raw.FungibleChanges = append(raw.FungibleChanges, domain.FungibleChange{
			EntityAddress:   c.EntityAddress,
			ResourceAddress: c.ResourceAddress,
			Amount:          c.BalanceChange,
		})
	}
	for _, c := range t.BalanceChanges.NonFungibleBalanceChanges {
		raw.NonFungibleChanges = append(raw.NonFungibleChanges, domain.NonFungibleChange{
			EntityAddress:   c.EntityAddress,
			ResourceAddress: c.ResourceAddress,
			Added:           c.Added,
			Removed:         c.Removed,
		})
	}
	for _, c := range t.BalanceChanges.FungibleFeeBalanceChanges {
		raw.FeeChanges = append(raw.FeeChanges, domain.FeeChange{
			Type:            c.Type,
			EntityAddress:   c.EntityAddress,
			ResourceAddress: c.ResourceAddress,
			Amount:          c.BalanceChange,
		})
	}
	return raw
}

// Entity details.

type detailsOptIns struct {
	ExplicitMetadata      []string `json:"explicit_metadata,omitempty"`
	NonFungibleIncludeIDs bool     `json:"non_fungible_include_nfids,omitempty"`
}

type detailsRequest struct {
	Addresses        []string      `json:"addresses"`
	AggregationLevel string        `json:"aggregation_level"`
	OptIns           detailsOptIns `json:"opt_ins"`
}

type detailsResponse struct {
	LedgerState ledgerState   `json:"ledger_state"`
	Items       []entityItems `json:"items"`
}

type entityItems struct {
	Address              string                     `json:"address"`
	FungibleResources    *resourcePage[fungible]    `json:"fungible_resources"`
	NonFungibleResources *resourcePage[nonFungible] `json:"non_fungible_resources"`
	Metadata             metadataCollection         `json:"metadata"`
	ExplicitMetadata     metadataCollection         `json:"explicit_metadata"`
	Details              *componentDetails          `json:"details"`
}

type componentDetails struct {
	Type  string                    `json:"type"`
	State *domain.ProgrammaticValue `json:"state"`
}

type resourcePage[T any] struct {
	TotalCount int64  `json:"total_count"`
	NextCursor string `json:"next_cursor"`
	Items      []T    `json:"items"`
}

type fungible struct {
	ResourceAddress  string             `json:"resource_address"`
	ExplicitMetadata metadataCollection `json:"explicit_metadata"`
	Vaults           struct {
		Items []struct {
			VaultAddress string          `json:"vault_address"`
			Amount       decimal.Decimal `json:"amount"`
		} `json:"items"`
	} `json:"vaults"`
}

type nonFungible struct {
	ResourceAddress  string             `json:"resource_address"`
	ExplicitMetadata metadataCollection `json:"explicit_metadata"`
	Vaults           struct {
		Items []struct {
			VaultAddress string   `json:"vault_address"`
			TotalCount   int64    `json:"total_count"`
			NextCursor   string   `json:"next_cursor"`
			Items        []string `json:"items"`
		} `json:"items"`
	} `json:"vaults"`
}

type resourcePageRequest struct {
	Address          string               `json:"address"`
	Cursor           string               `json:"cursor"`
	AggregationLevel string               `json:"aggregation_level"`
	AtLedgerState    *ledgerStateSelector `json:"at_ledger_state,omitempty"`
	OptIns           detailsOptIns        `json:"opt_ins"`
}

type metadataCollection struct {
	Items []metadataItem `json:"items"`
}

type metadataItem struct {
	Key   string `json:"key"`
	Value struct {
		Typed struct {
			Type   string          `json:"type"`
			Value  json.RawMessage `json:"value"`
			Values json.RawMessage `json:"values"`
		} `json:"typed"`
	} `json:"value"`
}

// toMap flattens scalar metadata values. Array values are skipped.
func (m metadataCollection) toMap() map[string]string {
	out := make(map[string]string, len(m.Items))
	for _, item := range m.Items {
		var s string
		if err := json.Unmarshal(item.Value.Typed.Value, &s); err == nil {
			out[item.Key] = s
		}
	}
	return out
}

func (f fungible) toDomain() domain.FungibleBalance {
	total := decimal.Zero
	for _, v := range f.Vaults.Items {
		total = total.Add(v.Amount)
	}
	return domain.FungibleBalance{
		ResourceAddress: f.ResourceAddress,
		Amount:          total,
		Metadata:        f.ExplicitMetadata.toMap(),
	}
}

func (n nonFungible) toDomain() domain.NonFungibleBalance {
	b := domain.NonFungibleBalance{
		ResourceAddress: n.ResourceAddress,
		Metadata:        n.ExplicitMetadata.toMap(),
	}
	for _, v := range n.Vaults.Items {
		b.Count += v.TotalCount
		b.Vaults = append(b.Vaults, domain.NonFungibleVault{
			VaultAddress: v.VaultAddress,
			TotalCount:   v.TotalCount,
			IDs:          v.Items,
			NextCursor:   v.NextCursor,
		})
	}
	return b
}

// Non-fungible ids and data.

type vaultIDsRequest struct {
	Address         string `json:"address"`
	ResourceAddress string `json:"resource_address"`
	VaultAddress    string `json:"vault_address"`
	Cursor          string `json:"cursor,omitempty"`
}

type vaultIDsResponse struct {
	NextCursor string   `json:"next_cursor"`
	Items      []string `json:"items"`
}

type nonFungibleDataRequest struct {
	ResourceAddress string   `json:"resource_address"`
	NonFungibleIDs  []string `json:"non_fungible_ids"`
}

type nonFungibleDataResponse struct {
	NonFungibleIDs []struct {
		NonFungibleID string `json:"non_fungible_id"`
		IsBurned      bool   `json:"is_burned"`
		Data          *struct {
			ProgrammaticJSON domain.ProgrammaticValue `json:"programmatic_json"`
		} `json:"data"`
	} `json:"non_fungible_ids"`
}

// Preview.

type previewFlags struct {
	UseFreeCredit            bool `json:"use_free_credit"`
	AssumeAllSignatureProofs bool `json:"assume_all_signature_proofs"`
	SkipEpochCheck           bool `json:"skip_epoch_check"`
}

type previewRequest struct {
	Manifest            string       `json:"manifest"`
	StartEpochInclusive int64        `json:"start_epoch_inclusive"`
	EndEpochExclusive   int64        `json:"end_epoch_exclusive"`
	TipPercentage       int          `json:"tip_percentage"`
	Nonce               uint32       `json:"nonce"`
	SignerPublicKeys    []any        `json:"signer_public_keys"`
	Flags               previewFlags `json:"flags"`
}

type previewResponse struct {
	Receipt struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
	} `json:"receipt"`
	ResourceChanges []struct {
		Index           int `json:"index"`
		ResourceChanges []struct {
			ResourceAddress string `json:"resource_address"`
			ComponentEntity struct {
				EntityAddress string `json:"entity_address"`
			} `json:"component_entity"`
			Amount decimal.Decimal `json:"amount"`
		} `json:"resource_changes"`
	} `json:"resource_changes"`
}

func (p previewResponse) toDomain() domain.PreviewResult {
	res := domain.PreviewResult{
		Succeeded:    p.Receipt.Status == "Succeeded",
		ErrorMessage: p.Receipt.ErrorMessage,
	}
	for _, group := range p.ResourceChanges {
		for _, c := range group.ResourceChanges {
			res.ResourceChanges = append(res.ResourceChanges, domain.ResourceChange{
				EntityAddress:   c.ComponentEntity.EntityAddress,
				ResourceAddress: c.ResourceAddress,
				Amount:          c.Amount,
			})
		}
	}
	return res
}

type statusResponse struct {
	LedgerState ledgerState `json:"ledger_state"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
