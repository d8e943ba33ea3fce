package domain

import (
	"github.com/shopspring/decimal"

	ledgerDomain "github.com/fd1az/lp-portfolio/business/ledger/domain"
	"github.com/fd1az/lp-portfolio/internal/manifest"
)

// unwindLP appends the shared head of the removal and close-out manifests:
// withdraw the LP tokens, remove liquidity and unwrap the wrapped token.
func unwindLP(b *manifest.Builder, account string, def Definition, lpAmount decimal.Decimal) *manifest.Builder {
	return b.
		CallMethod(account, ledgerDomain.MethodWithdraw, manifest.Address(def.LPResource), manifest.Decimal(lpAmount)).
		TakeAllFromWorktop(def.LPResource, "lp").
		CallMethod(def.LPPool, ledgerDomain.MethodRemoveLiquidity, manifest.Bucket("lp")).
		TakeAllFromWorktop(def.WrappedResource, "wrapped").
		CallMethod(def.WrapperComponent, ledgerDomain.MethodUnwrap, manifest.Bucket("wrapped"))
}

// RemovalPreviewManifest unwinds the LP leg and swaps the borrowed token to
// the reference currency without touching the CDP. Previewing it tells what
// the LP leg is worth.
func RemovalPreviewManifest(account string, def Definition, lpAmount decimal.Decimal) (manifest.Manifest, error) {
	return unwindLP(manifest.New(), account, def, lpAmount).
		TakeAllFromWorktop(def.BorrowedResource, "borrowed").
		CallMethod(def.SwapPool, ledgerDomain.MethodSwap, manifest.Bucket("borrowed")).
		DepositBatch(account).
		Build()
}

// CloseOutManifest closes a position: unwind the LP leg, repay the loan with
// the proceeds, withdraw collateral and swap what is left of the borrowed
// token. Two CDP proofs are taken since repay and remove_collateral each
// consume one.
func CloseOutManifest(account string, def Definition, cdpID string, lpAmount, collateral decimal.Decimal) (manifest.Manifest, error) {
	cdpProof := func(b *manifest.Builder, name string) *manifest.Builder {
		return b.
			CallMethod(account, "create_proof_of_non_fungibles",
				manifest.Address(def.CDPResource),
				manifest.Array("NonFungibleLocalId", manifest.NonFungibleLocalID(cdpID))).
			PopFromAuthZone(name)
	}

	b := unwindLP(manifest.New(), account, def, lpAmount)

	b = cdpProof(b, "repay_proof").
		TakeAllFromWorktop(def.BorrowedResource, "repayment").
		CallMethod(def.LendingComponent, ledgerDomain.MethodRepay,
			manifest.Proof("repay_proof"),
			manifest.Enum(0),
			manifest.Array("Bucket", manifest.Bucket("repayment")))

	b = cdpProof(b, "collateral_proof").
		CallMethod(def.LendingComponent, ledgerDomain.MethodRemoveCollateral,
			manifest.Proof("collateral_proof"),
			manifest.Array("Tuple", manifest.Tuple(
				manifest.Address(def.CollateralResource),
				manifest.Decimal(collateral),
				manifest.Bool(false),
			)))

	return b.
		TakeAllFromWorktop(def.BorrowedResource, "leftover").
		CallMethod(def.SwapPool, ledgerDomain.MethodSwap, manifest.Bucket("leftover")).
		DepositBatch(account).
		Build()
}
