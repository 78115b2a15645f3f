// Package config loads the node configuration: defaults first, then an
// optional config file, then SERPD_-prefixed environment variables, each
// layer overriding the previous one.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/stablemint/serpd/internal/core/basket"
	"github.com/stablemint/serpd/internal/core/ledger"
	"github.com/stablemint/serpd/internal/core/serp"
	"github.com/stablemint/serpd/internal/core/types"
)

// Config is the full node configuration. It is immutable after Load; the
// components receive the pieces they need at construction.
//
// Currency-keyed settings are lists of tables rather than maps because the
// config loader folds map keys to lower case, which would corrupt mixed-case
// currency ids.
type Config struct {
	// NativeCurrency is the distinguished currency whose operations may be
	// served by an external native asset implementation.
	NativeCurrency string `mapstructure:"native_currency"`

	// Currencies lists every currency the node manages, native included.
	Currencies []string `mapstructure:"currencies"`

	// RejectZeroTransfers makes zero-amount transfers fail instead of
	// succeeding as no-ops.
	RejectZeroTransfers bool `mapstructure:"reject_zero_transfers"`

	// MinimumBalances holds optional per-currency existential floors.
	MinimumBalances []MinimumBalance `mapstructure:"minimum_balances"`

	// Pegs configures the supply adjuster per stabilized currency.
	Pegs []Peg `mapstructure:"pegs"`

	Storage Storage `mapstructure:"storage"`
	Audit   Audit   `mapstructure:"audit"`
	Log     Log     `mapstructure:"log"`
}

// MinimumBalance is one currency's existential floor.
type MinimumBalance struct {
	Currency string `mapstructure:"currency"`
	Amount   uint64 `mapstructure:"amount"`
}

// Peg is one currency's stabilization target.
type Peg struct {
	Currency string `mapstructure:"currency"`

	// Target is the basket price the supply adjuster steers toward,
	// as a decimal string ("1.0").
	Target string `mapstructure:"target"`

	// Tolerance is the absolute deviation from the target below which no
	// adjustment is made.
	Tolerance string `mapstructure:"tolerance"`

	// Weights lists the peg currencies of the basket and their weights.
	Weights []Weight `mapstructure:"weights"`
}

// Weight is one basket entry: a peg currency and its decimal weight.
type Weight struct {
	Currency string `mapstructure:"currency"`
	Weight   string `mapstructure:"weight"`
}

// Storage selects the key-value backend for ledger state.
type Storage struct {
	// Backend is one of "memory", "bbolt", "pebble".
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// Audit selects the relational backend for the audit trail.
type Audit struct {
	// Backend is one of "none", "sqlite", "postgres".
	Backend string `mapstructure:"backend"`

	// DSN is the sqlite file path or the postgres connection string.
	DSN string `mapstructure:"dsn"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

// Load reads the configuration, optionally from the given file path.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("native_currency", "NATIVE")
	v.SetDefault("currencies", []string{"NATIVE"})
	v.SetDefault("reject_zero_transfers", false)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("audit.backend", "none")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("SERPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field consistency and that every price parses.
func (c *Config) Validate() error {
	if c.NativeCurrency == "" {
		return fmt.Errorf("native_currency must be set")
	}
	known := make(map[string]bool, len(c.Currencies))
	for _, cur := range c.Currencies {
		if cur == "" {
			return fmt.Errorf("empty currency id in currencies")
		}
		// NUL is the storage key separator; an id containing it would alias
		// another currency's keys.
		if strings.ContainsRune(cur, 0) {
			return fmt.Errorf("currency id %q contains a NUL byte", cur)
		}
		if known[cur] {
			return fmt.Errorf("duplicate currency %q", cur)
		}
		known[cur] = true
	}
	if !known[c.NativeCurrency] {
		return fmt.Errorf("native_currency %q is not listed in currencies", c.NativeCurrency)
	}

	switch c.Storage.Backend {
	case "memory":
	case "bbolt", "pebble":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path must be set for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Audit.Backend {
	case "none":
	case "sqlite", "postgres":
		if c.Audit.DSN == "" {
			return fmt.Errorf("audit.dsn must be set for the %s backend", c.Audit.Backend)
		}
	default:
		return fmt.Errorf("unknown audit backend %q", c.Audit.Backend)
	}

	for _, mb := range c.MinimumBalances {
		if !known[mb.Currency] {
			return fmt.Errorf("minimum balance configured for unknown currency %q", mb.Currency)
		}
	}

	pegged := make(map[string]bool, len(c.Pegs))
	for _, peg := range c.Pegs {
		if !known[peg.Currency] {
			return fmt.Errorf("peg configured for unknown currency %q", peg.Currency)
		}
		if pegged[peg.Currency] {
			return fmt.Errorf("duplicate peg for currency %q", peg.Currency)
		}
		pegged[peg.Currency] = true
		if _, err := peg.Config(); err != nil {
			return err
		}
	}
	return nil
}

// LedgerParams converts the configuration into the ledger's parameters.
func (c *Config) LedgerParams() ledger.Params {
	minimums := make(map[types.CurrencyID]types.Balance, len(c.MinimumBalances))
	for _, mb := range c.MinimumBalances {
		minimums[types.CurrencyID(mb.Currency)] = types.Balance(mb.Amount)
	}
	return ledger.Params{
		NativeCurrency:      types.CurrencyID(c.NativeCurrency),
		RejectZeroTransfers: c.RejectZeroTransfers,
		MinimumBalances:     minimums,
	}
}

// Peg returns the peg for a currency, if one is configured.
func (c *Config) Peg(currency string) (Peg, bool) {
	for _, peg := range c.Pegs {
		if peg.Currency == currency {
			return peg, true
		}
	}
	return Peg{}, false
}

// Config converts a peg into the supply adjuster's typed configuration.
func (p Peg) Config() (serp.Config, error) {
	target, err := types.ParsePrice(p.Target)
	if err != nil {
		return serp.Config{}, fmt.Errorf("peg target for %s: %w", p.Currency, err)
	}
	if target.IsZero() {
		return serp.Config{}, fmt.Errorf("peg target for %s must be positive", p.Currency)
	}
	tolerance, err := types.ParsePrice(p.Tolerance)
	if err != nil {
		return serp.Config{}, fmt.Errorf("peg tolerance for %s: %w", p.Currency, err)
	}
	weights := make(basket.Weights, len(p.Weights))
	for _, w := range p.Weights {
		weight, err := types.ParsePrice(w.Weight)
		if err != nil {
			return serp.Config{}, fmt.Errorf("basket weight of %s for %s: %w", w.Currency, p.Currency, err)
		}
		weights[types.CurrencyID(w.Currency)] = weight
	}
	return serp.Config{
		Currency:  types.CurrencyID(p.Currency),
		Peg:       target,
		Tolerance: tolerance,
		Weights:   weights,
	}, nil
}
