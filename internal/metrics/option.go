package metrics

import (
	"time"
)

type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "otlp"
)

// ProviderFromName maps a configured exporter name to a provider config.
// Unknown names return false.
func ProviderFromName(name, endpoint string, headers map[string]string, insecure bool) (ProviderCfg, bool) {
	switch Provider(name) {
	case PrometheusProvider:
		return ProviderCfg{Provider: PrometheusProvider}, true
	case OtelCollector:
		return NewOtelCollectorConfig(endpoint, headers, insecure), true
	default:
		return ProviderCfg{}, false
	}
}

func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

type Config struct {
	ServiceName string
	Provider    []ProviderCfg
	Interval    time.Duration
}

func (c Config) interval() time.Duration {
	if c.Interval <= 0 {
		return 30 * time.Second
	}
	return c.Interval
}

type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type OptionFn func(config Config) Config

func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

func WithInterval(d time.Duration) OptionFn {
	return func(config Config) Config {
		config.Interval = d
		return config
	}
}

type PromServerConfig struct {
	port string
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

func WithPort(port string) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.port = port
		return config
	}
}
