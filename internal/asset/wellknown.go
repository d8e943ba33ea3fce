package asset

// Well-known resource addresses on mainnet.
const (
	AddrXRD   = "resource_rdx1tknxxxxxxxxxradxrdxxxxxxxxx009923554798xxxxxxxxxradxrd"
	AddrXUSDC = "resource_rdx1t4upr78guuapv5ept7d7ptekk9mqhy605zgms33mcszen8l9fac8vf"
)

// Well-known Assets (pre-created instances)
var (
	XRD   = NewAssetWithName(AddrXRD, "XRD", "Radix", "https://assets.radixdlt.com/icons/icon-xrd-32x32.png", 18)
	XUSDC = NewAssetWithName(AddrXUSDC, "xUSDC", "Bridged USDC (Instabridge)", "", 6)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(XRD)
	r.Register(XUSDC)
	return r
}
