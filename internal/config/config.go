package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/SolR3/Vali-Weight-Intervals/internal/engine"
	"github.com/SolR3/Vali-Weight-Intervals/internal/health"
	"github.com/SolR3/Vali-Weight-Intervals/internal/resolver"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultEndpoint = "wss://entrypoint-finney.opentensor.ai:443"
	DefaultWindow   = 10
	DefaultCacheDir = "validator_data"

	// Tracked validator identity. The hotkey overrides below pin the
	// registration on subnets where the coldkey maps to multiple UIDs.
	DefaultColdkey = "5FuzgvtfbZWdKSRxyYVPAPYNaNnf9cMnpT7phL3s2T3Kkrzo"

	// Cohort filters. The stake floor matches the value used by the
	// taoyield site; the staleness ceiling is two weeks of blocks.
	DefaultMinStake  = 4000.0
	DefaultMinVtrust = 0.01
	DefaultMaxStale  = 100800

	// Presentation thresholds: 2x and 3x the normal subnet tempo of 360
	// blocks for update intervals, and the trust-gap cutoffs.
	DefaultUpdatedWarning = 720
	DefaultUpdatedError   = 1080
	DefaultVtrustWarning  = 0.1
	DefaultVtrustError    = 0.2
)

func defaultHotkeyOverrides() map[int]string {
	return map[int]string{
		20:  "5ExaAP3ENz3bCJufTzWzs6J6dCWuhjjURT8AdZkQ5qA4As2o",
		86:  "5F9FAMhhzZJBraryVEp1PTeaL5bgjRKcw1FSyuvRLmXBds86",
		123: "5GzaskJbqJvGGXtu2124i9YLgHfMDDr7Pduq6xfYYgkJs123",
		124: "5FKk6ucEKuKzLspVYSv9fVHonumxMJ33MdHqbVjZi2NUs124",
	}
}

// Config is the top-level configuration.
type Config struct {
	Network    NetworkConfig    `yaml:"network"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Gather     GatherConfig     `yaml:"gather"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Cache      CacheConfig      `yaml:"cache"`
}

// NetworkConfig points at the chain RPC endpoint.
type NetworkConfig struct {
	// Endpoint is the WebSocket RPC URL of the state source.
	Endpoint string `yaml:"endpoint"`

	// EndpointEnv names an environment variable that, when set, overrides
	// Endpoint. Useful for pointing CI or a local litenode at the tool
	// without editing the config file.
	EndpointEnv string `yaml:"endpoint_env"`
}

// Resolved returns the effective endpoint after the environment override.
func (n NetworkConfig) Resolved() string {
	if n.EndpointEnv != "" {
		if v := os.Getenv(n.EndpointEnv); v != "" {
			return v
		}
	}
	return n.Endpoint
}

// ValidatorConfig identifies the tracked validator.
type ValidatorConfig struct {
	// Coldkey is the default identity key searched in each snapshot.
	Coldkey string `yaml:"coldkey"`

	// HotkeyOverrides maps netuid to the hotkey identifying the tracked
	// registration on subnets where the coldkey holds multiple UIDs.
	HotkeyOverrides map[int]string `yaml:"hotkey_overrides"`
}

// Resolver builds the resolver for this identity configuration.
func (v ValidatorConfig) Resolver() resolver.Resolver {
	return resolver.Resolver{Coldkey: v.Coldkey, HotkeyOverrides: v.HotkeyOverrides}
}

// GatherConfig parameterizes the reconstruction engine.
type GatherConfig struct {
	// Netuids is the subnet set to monitor. When empty, the CLI falls
	// back to the subnets present in the cache directory.
	Netuids []int `yaml:"netuids"`

	// Window is the number of weight-update intervals kept per subnet.
	Window int `yaml:"window"`

	// OuterAttempts and FetchAttempts bound the retry budgets; zero means
	// the engine defaults (5 and 3).
	OuterAttempts int `yaml:"outer_attempts"`
	FetchAttempts int `yaml:"fetch_attempts"`

	// FetchMode is "batch" (one pinned head block per pass) or
	// "per-network" (independent head fetches).
	FetchMode string `yaml:"fetch_mode"`

	MinStake  float64 `yaml:"min_stake"`
	MinVtrust float64 `yaml:"min_vtrust"`
	MaxStale  int64   `yaml:"max_stale"`
}

// Options builds the engine options for this gather configuration.
func (g GatherConfig) Options() engine.Options {
	return engine.Options{
		Window:        g.Window,
		OuterAttempts: g.OuterAttempts,
		FetchAttempts: g.FetchAttempts,
		FetchMode:     g.FetchMode,
		MinStake:      g.MinStake,
		MinVtrust:     g.MinVtrust,
		MaxStale:      g.MaxStale,
	}
}

// ThresholdsConfig holds the presentation cutoffs.
type ThresholdsConfig struct {
	UpdatedWarning int64   `yaml:"updated_warning"`
	UpdatedError   int64   `yaml:"updated_error"`
	VtrustWarning  float64 `yaml:"vtrust_warning"`
	VtrustError    float64 `yaml:"vtrust_error"`
}

// Thresholds builds the health thresholds for this configuration.
func (t ThresholdsConfig) Thresholds() health.Thresholds {
	return health.Thresholds{
		UpdatedWarning: t.UpdatedWarning,
		UpdatedError:   t.UpdatedError,
		VtrustWarning:  t.VtrustWarning,
		VtrustError:    t.VtrustError,
	}
}

// CacheConfig locates the persisted series files.
type CacheConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads and parses the YAML config at path, filling absent fields
// with defaults. An empty path returns the pure defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Network: NetworkConfig{Endpoint: DefaultEndpoint},
		Validator: ValidatorConfig{
			Coldkey:         DefaultColdkey,
			HotkeyOverrides: defaultHotkeyOverrides(),
		},
		Gather: GatherConfig{
			Window:        DefaultWindow,
			OuterAttempts: engine.DefaultOuterAttempts,
			FetchAttempts: engine.DefaultFetchAttempts,
			FetchMode:     engine.FetchModeBatch,
			MinStake:      DefaultMinStake,
			MinVtrust:     DefaultMinVtrust,
			MaxStale:      DefaultMaxStale,
		},
		Thresholds: ThresholdsConfig{
			UpdatedWarning: DefaultUpdatedWarning,
			UpdatedError:   DefaultUpdatedError,
			VtrustWarning:  DefaultVtrustWarning,
			VtrustError:    DefaultVtrustError,
		},
		Cache: CacheConfig{Dir: DefaultCacheDir},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Network.Resolved() == "" {
		return fmt.Errorf("network.endpoint is required")
	}
	if cfg.Validator.Coldkey == "" {
		return fmt.Errorf("validator.coldkey is required")
	}
	if cfg.Gather.Window <= 0 {
		return fmt.Errorf("gather.window must be positive")
	}
	if cfg.Gather.OuterAttempts < 0 || cfg.Gather.FetchAttempts < 0 {
		return fmt.Errorf("gather attempt budgets must not be negative")
	}
	switch cfg.Gather.FetchMode {
	case engine.FetchModeBatch, engine.FetchModePerNetwork, "":
	default:
		return fmt.Errorf("gather.fetch_mode: unknown mode %q", cfg.Gather.FetchMode)
	}
	for netuid := range cfg.Validator.HotkeyOverrides {
		if netuid < 0 {
			return fmt.Errorf("validator.hotkey_overrides: invalid netuid %d", netuid)
		}
	}
	if cfg.Thresholds.UpdatedWarning > cfg.Thresholds.UpdatedError {
		return fmt.Errorf("thresholds: updated_warning must not exceed updated_error")
	}
	if cfg.Thresholds.VtrustWarning > cfg.Thresholds.VtrustError {
		return fmt.Errorf("thresholds: vtrust_warning must not exceed vtrust_error")
	}
	return nil
}
