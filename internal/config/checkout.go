package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// TierSeed describes a loyalty tier row inserted at startup when missing.
type TierSeed struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	Rate      int    `mapstructure:"rate"`
	MinAmount int64  `mapstructure:"minAmount"`
}

// CheckoutConfig holds order policy limits and the tier seed table.
type CheckoutConfig struct {
	MaxLineItems       int        `mapstructure:"maxLineItems"`
	MaxQuantityPerLine int        `mapstructure:"maxQuantityPerLine"`
	DefaultPageSize    int        `mapstructure:"defaultPageSize"`
	MaxPageSize        int        `mapstructure:"maxPageSize"`
	Tiers              []TierSeed `mapstructure:"tiers"`
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		MaxLineItems:       50,
		MaxQuantityPerLine: 1000,
		DefaultPageSize:    10,
		MaxPageSize:        100,
		Tiers: []TierSeed{
			{ID: "grade_green", Name: "Green", Rate: 1, MinAmount: 0},
			{ID: "grade_orange", Name: "Orange", Rate: 2, MinAmount: 100_000},
			{ID: "grade_red", Name: "Red", Rate: 3, MinAmount: 300_000},
			{ID: "grade_black", Name: "Black", Rate: 4, MinAmount: 500_000},
			{ID: "grade_vip", Name: "VIP", Rate: 5, MinAmount: 1_000_000},
		},
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

// NewStaticCheckoutConfigHolder returns a holder that never reloads.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCheckoutConfigHolder(log *zap.Logger) (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/marketplace")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MARKETPLACE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCheckoutConfig()
	v.SetDefault("checkout.maxLineItems", defaults.MaxLineItems)
	v.SetDefault("checkout.maxQuantityPerLine", defaults.MaxQuantityPerLine)
	v.SetDefault("checkout.defaultPageSize", defaults.DefaultPageSize)
	v.SetDefault("checkout.maxPageSize", defaults.MaxPageSize)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeCheckoutConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticCheckoutConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeCheckoutConfig(v)
		if err != nil {
			log.Warn("checkout config reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("checkout config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

func decodeCheckoutConfig(v *viper.Viper) (CheckoutConfig, error) {
	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return CheckoutConfig{}, err
	}
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = DefaultCheckoutConfig().Tiers
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return CheckoutConfig{}, err
	}
	return cfg, nil
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if cfg.MaxLineItems <= 0 {
		return errors.New("checkout.maxLineItems must be positive")
	}
	if cfg.MaxQuantityPerLine <= 0 {
		return errors.New("checkout.maxQuantityPerLine must be positive")
	}
	if cfg.DefaultPageSize <= 0 || cfg.MaxPageSize < cfg.DefaultPageSize {
		return errors.New("checkout page sizes are inconsistent")
	}
	seen := make(map[string]struct{}, len(cfg.Tiers))
	for _, tier := range cfg.Tiers {
		id := strings.TrimSpace(tier.ID)
		if id == "" {
			return errors.New("checkout.tiers id cannot be empty")
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("checkout.tiers duplicate id %q", id)
		}
		seen[id] = struct{}{}
		if tier.Rate < 0 || tier.Rate > 100 {
			return fmt.Errorf("checkout.tiers %q rate must be within 0..100", id)
		}
		if tier.MinAmount < 0 {
			return fmt.Errorf("checkout.tiers %q minAmount cannot be negative", id)
		}
	}
	return nil
}
