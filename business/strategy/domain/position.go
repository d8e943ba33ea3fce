package domain

import (
	"time"

	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
)

// State is where a strategy position is in its lifecycle.
type State int

const (
	StateOpen State = iota + 1
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Position is one leveraged strategy opened by an account, identified by the
// CDP it created. Ref amounts are in the reference currency; Invested and
// Current are fiat.
type Position struct {
	Strategy      string          `json:"strategy"`
	CDPID         string          `json:"cdpId"`
	OpenTx        string          `json:"openTx"`
	OpenedAt      time.Time       `json:"openedAt"`
	ClosedTx      string          `json:"closedTx,omitempty"`
	State         State           `json:"state"`
	LPAmount      decimal.Decimal `json:"lpAmount"`
	InvestedRef   decimal.Decimal `json:"investedRef"`
	Invested      decimal.Decimal `json:"invested"`
	CurrentRef    decimal.Decimal `json:"currentRef"`
	Current       decimal.Decimal `json:"current"`
	Exposure      Exposure        `json:"exposure"`
	SwapOutputRef decimal.Decimal `json:"swapOutputRef"`
	CloseOut      string          `json:"closeOut,omitempty"`
	Unresolved    bool            `json:"unresolved,omitempty"`
	Definition    Definition      `json:"-"`
}

// Active reports whether the position is still open.
func (p Position) Active() bool {
	return p.State == StateOpen
}

// Track finds every strategy open in history and whether a later close
// references its CDP. isOpen tells an open manifest from other strategy
// transactions. Closed positions carry zero invested amount.
func Track(account, reference string, history []ledgerDomain.EnhancedTransaction, defs []Definition, isOpen func(manifest string) bool) []Position {
	var positions []Position

	for i, tx := range history {
		if !tx.IsStrategy() || !isOpen(tx.Manifest) {
			continue
		}
		for _, def := range defs {
			if !tx.Touches(def.LPResource) {
				continue
			}
			for _, id := range tx.NonFungiblesAdded(account, def.CDPResource) {
				p := Position{
					Strategy:    def.Name,
					CDPID:       id,
					OpenTx:      tx.IntentHash,
					OpenedAt:    tx.RoundTimestamp,
					State:       StateOpen,
					LPAmount:    tx.FungibleChange(account, def.LPResource),
					InvestedRef: tx.FungibleChange(account, reference).Abs(),
					Definition:  def,
				}
				if closer, ok := findClose(history[i+1:], def.CDPResource, id); ok {
					p.State = StateClosed
					p.ClosedTx = closer.IntentHash
					p.InvestedRef = decimal.Zero
				}
				positions = append(positions, p)
			}
		}
	}
	return positions
}

func findClose(later []ledgerDomain.EnhancedTransaction, cdpResource, id string) (ledgerDomain.EnhancedTransaction, bool) {
	for _, tx := range later {
		if tx.IsStrategy() && ledgerDomain.IsStrategyClose(tx.Manifest) && tx.ReferencesNonFungible(cdpResource, id) {
			return tx, true
		}
	}
	return ledgerDomain.EnhancedTransaction{}, false
}
