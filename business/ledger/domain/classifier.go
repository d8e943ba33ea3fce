package domain

import "strings"

// Tag is the semantic category of a transaction. Exactly one tag applies.
type Tag int

const (
	TagNone Tag = iota
	TagAirdrop
	TagStrategy
	TagLiquidityAdded
	TagLiquidityRemoved
)

func (t Tag) String() string {
	switch t {
	case TagAirdrop:
		return "airdropToken"
	case TagStrategy:
		return "strategy"
	case TagLiquidityAdded:
		return "added"
	case TagLiquidityRemoved:
		return "removed"
	default:
		return "none"
	}
}

// Method names that make up the strategy open and close sequences.
const (
	MethodWithdraw         = "withdraw"
	MethodContribute       = "contribute"
	MethodCreateCDP        = "create_cdp"
	MethodBorrow           = "borrow"
	MethodWrap             = "wrap"
	MethodAddLiquidity     = "add_liquidity"
	MethodRemoveLiquidity  = "remove_liquidity"
	MethodUnwrap           = "unwrap"
	MethodRepay            = "repay"
	MethodRemoveCollateral = "remove_collateral"
	MethodSwap             = "swap"
)

// StrategyCloseMethods is the close signature, in manifest order.
var StrategyCloseMethods = []string{
	MethodRemoveLiquidity,
	MethodUnwrap,
	MethodRepay,
	MethodRemoveCollateral,
	MethodSwap,
}

// ClassifierConfig names the entities and methods the rules look for.
// Empty fields disable the rule that needs them.
type ClassifierConfig struct {
	AirdropDistributor     string
	AirdropMethod          string
	RoyaltyCollector       string
	RoyaltyMethod          string
	LegacyRoyaltyCollector string
	LegacyRoyaltyMethod    string
}

// Classifier tags raw transactions.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier builds a Classifier. AirdropMethod defaults to "airdrop".
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.AirdropMethod == "" {
		cfg.AirdropMethod = "airdrop"
	}
	return &Classifier{cfg: cfg}
}

// Classify applies the rules in order: airdrop, strategy, liquidity added,
// liquidity removed. A strategy open also contains add_liquidity and a
// strategy close contains remove_liquidity, so the order is load-bearing.
func (c *Classifier) Classify(tx RawTransaction) Tag {
	switch {
	case c.isAirdrop(tx):
		return TagAirdrop
	case c.isStrategy(tx):
		return TagStrategy
	case strings.Contains(tx.Manifest, MethodAddLiquidity):
		return TagLiquidityAdded
	case strings.Contains(tx.Manifest, MethodRemoveLiquidity):
		return TagLiquidityRemoved
	default:
		return TagNone
	}
}

// Enhance classifies tx and wraps it.
func (c *Classifier) Enhance(tx RawTransaction) EnhancedTransaction {
	return EnhancedTransaction{RawTransaction: tx, Tag: c.Classify(tx)}
}

// StrategyOpenMethods is the open signature: the current royalty charge
// followed by the leverage sequence.
func (c *Classifier) StrategyOpenMethods() []string {
	return []string{
		c.cfg.RoyaltyMethod,
		MethodWithdraw,
		MethodContribute,
		MethodCreateCDP,
		MethodBorrow,
		MethodWrap,
		MethodAddLiquidity,
	}
}

// IsStrategyOpen reports whether manifest carries the full open signature.
func (c *Classifier) IsStrategyOpen(manifest string) bool {
	if c.cfg.RoyaltyMethod == "" {
		return false
	}
	return containsAll(manifest, c.StrategyOpenMethods())
}

// IsStrategyClose reports whether manifest carries the full close signature.
func IsStrategyClose(manifest string) bool {
	return containsAll(manifest, StrategyCloseMethods)
}

func (c *Classifier) isAirdrop(tx RawTransaction) bool {
	return c.cfg.AirdropDistributor != "" &&
		strings.Contains(tx.Manifest, c.cfg.AirdropDistributor) &&
		strings.Contains(tx.Manifest, c.cfg.AirdropMethod)
}

func (c *Classifier) isStrategy(tx RawTransaction) bool {
	current := c.cfg.RoyaltyMethod != "" &&
		tx.Affects(c.cfg.RoyaltyCollector) &&
		tx.HasFeeEvent(FeeTypeRoyaltyDistributed) &&
		strings.Contains(tx.Manifest, c.cfg.RoyaltyMethod)
	if current {
		return true
	}

	legacy := c.cfg.LegacyRoyaltyMethod != "" &&
		tx.Affects(c.cfg.LegacyRoyaltyCollector) &&
		strings.Contains(tx.Manifest, c.cfg.LegacyRoyaltyMethod)
	if legacy {
		return true
	}

	return IsStrategyClose(tx.Manifest)
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
