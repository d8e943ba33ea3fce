package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.MaxPages != 1000 {
		t.Errorf("ledger.max_pages = %d, want 1000", cfg.Ledger.MaxPages)
	}
	if cfg.Pricing.ReferenceResource != XRDResource {
		t.Errorf("pricing.reference_resource = %s", cfg.Pricing.ReferenceResource)
	}
	if !cfg.Portfolio.DustFloorDecimal().Equal(decimal.RequireFromString("0.001")) {
		t.Errorf("dust floor = %s", cfg.Portfolio.DustFloorDecimal())
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("cache.backend = %s", cfg.Cache.Backend)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
ledger:
  max_pages: 10
portfolio:
  dust_floor: "0.5"
strategy:
  definitions:
    - name: LSU leverage
      lending_component: component_rdx1lending
      cdp_resource: resource_rdx1cdp
      collateral_resource: resource_rdx1lsu
      borrowed_resource: resource_rdx1xrd
      wrapper_component: component_rdx1wrapper
      wrapped_resource: resource_rdx1wxrd
      lp_pool: component_rdx1lppool
      lp_resource: resource_rdx1lp
      swap_pool: component_rdx1swap
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LPP_GATEWAY_URL", "http://localhost:5308")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ledger.MaxPages != 10 {
		t.Errorf("ledger.max_pages = %d, want 10", cfg.Ledger.MaxPages)
	}
	if cfg.Ledger.GatewayURL != "http://localhost:5308" {
		t.Errorf("ledger.gateway_url = %s", cfg.Ledger.GatewayURL)
	}
	if len(cfg.Strategy.Definitions) != 1 || cfg.Strategy.Definitions[0].SwapPool != "component_rdx1swap" {
		t.Errorf("strategy definitions = %+v", cfg.Strategy.Definitions)
	}
	if !cfg.Portfolio.DustFloorDecimal().Equal(decimal.RequireFromString("0.5")) {
		t.Errorf("dust floor = %s", cfg.Portfolio.DustFloorDecimal())
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Ledger:    LedgerConfig{GatewayURL: "http://gw"},
			Pricing:   PricingConfig{ReferenceResource: XRDResource},
			Liquidity: LiquidityConfig{Naming: NamingConfig{DefiPlaza: "^DFP", Ociswap: "^OCI", Precision: "^OCI"}},
			Cache:     CacheConfig{Backend: "memory"},
			Portfolio: PortfolioConfig{DustFloor: "0.001"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing gateway", func(c *Config) { c.Ledger.GatewayURL = "" }},
		{"bad reference", func(c *Config) { c.Pricing.ReferenceResource = "xrd" }},
		{"bad regexp", func(c *Config) { c.Liquidity.Naming.Ociswap = "(" }},
		{"bad dust floor", func(c *Config) { c.Portfolio.DustFloor = "tiny" }},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis" }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"incomplete strategy", func(c *Config) {
			c.Strategy.Definitions = []StrategyDefinition{{Name: "x"}}
		}},
	}

	base := valid()
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
