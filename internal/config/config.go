// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// XRDResource is the mainnet native resource.
const XRDResource = "resource_rdx1tknxxxxxxxxxradxrdxxxxxxxxx009923554798xxxxxxxxxradxrd"

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Pricing    PricingConfig    `mapstructure:"pricing"`
	Ociswap    ProtocolConfig   `mapstructure:"ociswap"`
	DefiPlaza  ProtocolConfig   `mapstructure:"defiplaza"`
	Lending    ProtocolConfig   `mapstructure:"lending"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Liquidity  LiquidityConfig  `mapstructure:"liquidity"`
	Strategy   StrategyConfig   `mapstructure:"strategy"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Portfolio  PortfolioConfig  `mapstructure:"portfolio"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	HealthPort   int           `mapstructure:"health_port"`
}

// LedgerConfig holds gateway settings.
type LedgerConfig struct {
	GatewayURL        string        `mapstructure:"gateway_url"`
	Network           string        `mapstructure:"network"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxPages          int           `mapstructure:"max_pages"`
	PageSize          int           `mapstructure:"page_size"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// PricingConfig holds the price table source.
type PricingConfig struct {
	AstrolescentURL   string        `mapstructure:"astrolescent_url"`
	ReferenceResource string        `mapstructure:"reference_resource"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// ProtocolConfig holds a protocol REST API endpoint.
type ProtocolConfig struct {
	APIURL            string        `mapstructure:"api_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// ClassifierConfig names the entities the transaction classifier looks for.
type ClassifierConfig struct {
	AirdropDistributor     string `mapstructure:"airdrop_distributor"`
	AirdropMethod          string `mapstructure:"airdrop_method"`
	RoyaltyCollector       string `mapstructure:"royalty_collector"`
	RoyaltyMethod          string `mapstructure:"royalty_method"`
	LegacyRoyaltyCollector string `mapstructure:"legacy_royalty_collector"`
	LegacyRoyaltyMethod    string `mapstructure:"legacy_royalty_method"`
}

// LiquidityConfig holds position discovery settings.
type LiquidityConfig struct {
	Naming NamingConfig `mapstructure:"naming"`
	// Concurrency bounds the per-NFT protocol calls of one position.
	Concurrency int `mapstructure:"concurrency"`
}

// NamingConfig holds the display-name patterns of LP resources.
type NamingConfig struct {
	DefiPlaza string `mapstructure:"defiplaza"`
	Ociswap   string `mapstructure:"ociswap"`
	Precision string `mapstructure:"precision"`
}

// StrategyConfig lists the leveraged strategies to value.
type StrategyConfig struct {
	Definitions []StrategyDefinition `mapstructure:"definitions"`
}

// StrategyDefinition holds the components one leveraged strategy touches.
type StrategyDefinition struct {
	Name               string `mapstructure:"name"`
	LendingComponent   string `mapstructure:"lending_component"`
	CDPResource        string `mapstructure:"cdp_resource"`
	CollateralResource string `mapstructure:"collateral_resource"`
	BorrowedResource   string `mapstructure:"borrowed_resource"`
	WrapperComponent   string `mapstructure:"wrapper_component"`
	WrappedResource    string `mapstructure:"wrapped_resource"`
	LPPool             string `mapstructure:"lp_pool"`
	LPResource         string `mapstructure:"lp_resource"`
	SwapPool           string `mapstructure:"swap_pool"`
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Prefix        string `mapstructure:"prefix"`
}

// PortfolioConfig holds report assembly settings.
type PortfolioConfig struct {
	DustFloor    string `mapstructure:"dust_floor"`
	StrictPrices bool   `mapstructure:"strict_prices"`
	Concurrency  int    `mapstructure:"concurrency"`
}

// DustFloorDecimal returns the LP dust floor.
func (c *PortfolioConfig) DustFloorDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(c.DustFloor)
	if err != nil {
		return decimal.RequireFromString("0.001")
	}
	return d
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Exporter       string `mapstructure:"exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("LPP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "LPP_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "LPP_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "LPP_LOG_LEVEL", "LOG_LEVEL")

	// Ledger
	v.BindEnv("ledger.gateway_url", "LPP_GATEWAY_URL", "GATEWAY_URL")

	// Cache
	v.BindEnv("cache.redis_addr", "LPP_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("cache.redis_password", "LPP_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "LPP_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "LPP_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "LPP_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "lp-portfolio")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.health_port", 8081)

	// Ledger defaults
	v.SetDefault("ledger.gateway_url", "https://mainnet.radixdlt.com")
	v.SetDefault("ledger.network", "mainnet")
	v.SetDefault("ledger.timeout", "15s")
	v.SetDefault("ledger.max_pages", 1000)
	v.SetDefault("ledger.page_size", 100)
	v.SetDefault("ledger.requests_per_minute", 600)

	// Pricing defaults
	v.SetDefault("pricing.astrolescent_url", "https://api.astrolescent.com/partner/selfisocial")
	v.SetDefault("pricing.reference_resource", XRDResource)
	v.SetDefault("pricing.timeout", "10s")

	// Protocol defaults
	v.SetDefault("ociswap.api_url", "https://api.ociswap.com")
	v.SetDefault("ociswap.timeout", "10s")
	v.SetDefault("defiplaza.api_url", "https://radix.defiplaza.net/api")
	v.SetDefault("defiplaza.timeout", "10s")
	v.SetDefault("lending.api_url", "https://backend-prod.rootfinance.xyz/api")
	v.SetDefault("lending.timeout", "10s")

	// Classifier defaults
	v.SetDefault("classifier.airdrop_method", "airdrop")
	v.SetDefault("classifier.royalty_method", "charge_strategy_royalty")
	v.SetDefault("classifier.legacy_royalty_method", "charge_royalty")

	// Liquidity defaults
	v.SetDefault("liquidity.naming.defiplaza", `^DefiPlaza .+ Quote$|^DefiPlaza .+ Base$`)
	v.SetDefault("liquidity.naming.ociswap", `^Ociswap LP`)
	v.SetDefault("liquidity.naming.precision", `^Ociswap LP .+/.+`)
	v.SetDefault("liquidity.concurrency", 8)

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.prefix", "lpp")

	// Portfolio defaults
	v.SetDefault("portfolio.dust_floor", "0.001")
	v.SetDefault("portfolio.strict_prices", false)
	v.SetDefault("portfolio.concurrency", 8)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "lp-portfolio")
	v.SetDefault("telemetry.exporter", "console")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Ledger.GatewayURL == "" {
		return fmt.Errorf("ledger.gateway_url is required")
	}
	if !strings.HasPrefix(c.Pricing.ReferenceResource, "resource_") {
		return fmt.Errorf("invalid pricing.reference_resource: %s", c.Pricing.ReferenceResource)
	}
	for key, pattern := range map[string]string{
		"liquidity.naming.defiplaza": c.Liquidity.Naming.DefiPlaza,
		"liquidity.naming.ociswap":   c.Liquidity.Naming.Ociswap,
		"liquidity.naming.precision": c.Liquidity.Naming.Precision,
	} {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if _, err := decimal.NewFromString(c.Portfolio.DustFloor); err != nil {
		return fmt.Errorf("invalid portfolio.dust_floor: %w", err)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend: %s", c.Cache.Backend)
	}
	for i, d := range c.Strategy.Definitions {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("strategy.definitions[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks every component of a strategy is set.
func (d *StrategyDefinition) Validate() error {
	for field, value := range map[string]string{
		"name":                d.Name,
		"lending_component":   d.LendingComponent,
		"cdp_resource":        d.CDPResource,
		"collateral_resource": d.CollateralResource,
		"borrowed_resource":   d.BorrowedResource,
		"wrapper_component":   d.WrapperComponent,
		"wrapped_resource":    d.WrappedResource,
		"lp_pool":             d.LPPool,
		"lp_resource":         d.LPResource,
		"swap_pool":           d.SwapPool,
	} {
		if value == "" {
			return fmt.Errorf("%s is required", field)
		}
	}
	return nil
}
