package domain

import "github.com/shopspring/decimal"

// Underlying is what an LP position currently redeems for. It is a closed
// sum: StaticPool, AmmSharePool or ConcentratedPositionList.
type Underlying interface {
	underlying()
}

// StaticPool is a DefiPlaza redemption.
type StaticPool struct {
	BaseToken   string          `json:"baseToken"`
	QuoteToken  string          `json:"quoteToken"`
	BaseAmount  decimal.Decimal `json:"baseAmount"`
	QuoteAmount decimal.Decimal `json:"quoteAmount"`
}

// SideAmount is one token leg priced by the protocol. Fiat and Ref are zero
// when the protocol did not price the leg.
type SideAmount struct {
	Token decimal.Decimal `json:"token"`
	Fiat  decimal.Decimal `json:"fiat"`
	Ref   decimal.Decimal `json:"ref"`
}

// AmmSharePool is an Ociswap redemption.
type AmmSharePool struct {
	XAddress string     `json:"xAddress"`
	YAddress string     `json:"yAddress"`
	XAmount  SideAmount `json:"xAmount"`
	YAmount  SideAmount `json:"yAmount"`
}

// ConcentratedPosition is the redemption of one precision NFT.
type ConcentratedPosition struct {
	NFTID string `json:"nftId"`
	AmmSharePool
}

// ConcentratedPositionList holds one entry per NFT of a precision resource.
type ConcentratedPositionList []ConcentratedPosition

func (StaticPool) underlying()               {}
func (AmmSharePool) underlying()             {}
func (ConcentratedPositionList) underlying() {}

// FiatPricer looks up the fiat price of a resource.
type FiatPricer interface {
	FiatPrice(resource string) (decimal.Decimal, bool)
}

// Valuation is the fiat value of an Underlying plus any resources that had no
// price.
type Valuation struct {
	Value         decimal.Decimal
	MissingPrices []string
}

// Value prices u in fiat. Protocol-supplied fiat legs are used as-is; legs
// without one are priced from prices. Unpriced resources count as zero.
func Value(u Underlying, prices FiatPricer) Valuation {
	var v valuer
	v.prices = prices

	switch u := u.(type) {
	case StaticPool:
		v.add(u.BaseToken, u.BaseAmount)
		v.add(u.QuoteToken, u.QuoteAmount)
	case AmmSharePool:
		v.addSide(u.XAddress, u.XAmount)
		v.addSide(u.YAddress, u.YAmount)
	case ConcentratedPositionList:
		for _, p := range u {
			v.addSide(p.XAddress, p.XAmount)
			v.addSide(p.YAddress, p.YAmount)
		}
	case nil:
	default:
		panic("domain: unhandled Underlying variant")
	}

	return Valuation{Value: v.total, MissingPrices: v.missing}
}

// PairTokens returns the two token addresses of u, left then right.
func PairTokens(u Underlying) (string, string) {
	switch u := u.(type) {
	case StaticPool:
		return u.BaseToken, u.QuoteToken
	case AmmSharePool:
		return u.XAddress, u.YAddress
	case ConcentratedPositionList:
		if len(u) > 0 {
			return u[0].XAddress, u[0].YAddress
		}
	}
	return "", ""
}

type valuer struct {
	prices  FiatPricer
	total   decimal.Decimal
	missing []string
}

func (v *valuer) add(resource string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	price, ok := v.prices.FiatPrice(resource)
	if !ok {
		v.missing = append(v.missing, resource)
		return
	}
	v.total = v.total.Add(amount.Mul(price))
}

func (v *valuer) addSide(resource string, side SideAmount) {
	if !side.Fiat.IsZero() {
		v.total = v.total.Add(side.Fiat)
		return
	}
	v.add(resource, side.Token)
}
