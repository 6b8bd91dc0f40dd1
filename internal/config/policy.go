package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// PolicyKind selects how per-invoice commission is computed. The two rules
// are distinct products, never merged: the active one is a deployment
// decision.
type PolicyKind string

const (
	PolicyLineItem PolicyKind = "line_item"
	PolicyFlat     PolicyKind = "flat"
)

// CommissionConfig is the hot-reloadable commission policy.
type CommissionConfig struct {
	Policy             PolicyKind `mapstructure:"policy"`
	Rate               string     `mapstructure:"rate"`
	SubscriptionPrefix string     `mapstructure:"subscriptionPrefix"`
	UnassignedLabel    string     `mapstructure:"unassignedLabel"`
	QualifyingStatuses []string   `mapstructure:"qualifyingStatuses"`
	RequireSalesperson bool       `mapstructure:"requireSalesperson"`
	TrackedStatuses    []string   `mapstructure:"trackedStatuses"`
}

// RateDecimal parses the configured rate; validation guarantees it parses.
func (c CommissionConfig) RateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(c.Rate)
	if err != nil {
		return decimal.RequireFromString("0.10")
	}
	return rate
}

// QualifiesForFlat reports whether a status earns commission under the flat
// policy.
func (c CommissionConfig) QualifiesForFlat(status string) bool {
	for _, s := range c.QualifyingStatuses {
		if strings.EqualFold(s, status) {
			return true
		}
	}
	return false
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		Policy:             PolicyLineItem,
		Rate:               "0.10",
		SubscriptionPrefix: "SUB",
		UnassignedLabel:    "Unassigned",
		QualifyingStatuses: []string{"paid"},
		RequireSalesperson: false,
		TrackedStatuses:    []string{"paid", "overdue"},
	}
}

// CommissionConfigHolder exposes the current policy and reloads it when the
// config file changes on disk.
type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

func NewCommissionConfigHolder() (*CommissionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/commission-tracker/config")
	v.AddConfigPath("/etc/commission-tracker")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCommissionConfig()
	v.SetDefault("commission.policy", string(defaults.Policy))
	v.SetDefault("commission.rate", defaults.Rate)
	v.SetDefault("commission.subscriptionPrefix", defaults.SubscriptionPrefix)
	v.SetDefault("commission.unassignedLabel", defaults.UnassignedLabel)
	v.SetDefault("commission.qualifyingStatuses", defaults.QualifyingStatuses)
	v.SetDefault("commission.requireSalesperson", defaults.RequireSalesperson)
	v.SetDefault("commission.trackedStatuses", defaults.TrackedStatuses)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg CommissionConfig
	if err := v.UnmarshalKey("commission", &cfg); err != nil {
		return nil, err
	}
	if err := validateCommissionConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated CommissionConfig
		if err := v.UnmarshalKey("commission", &updated); err != nil {
			log.Printf("[commission-config] reload failed: %v", err)
			return
		}
		if err := validateCommissionConfig(updated); err != nil {
			log.Printf("[commission-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[commission-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CommissionConfigHolder) Get() CommissionConfig {
	return h.current.Load().(CommissionConfig)
}

// NewStaticCommissionConfigHolder returns a holder pinned to cfg, for tests.
func NewStaticCommissionConfigHolder(cfg CommissionConfig) *CommissionConfigHolder {
	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateCommissionConfig(cfg CommissionConfig) error {
	switch cfg.Policy {
	case PolicyLineItem, PolicyFlat:
	default:
		return errors.New("commission.policy must be line_item or flat")
	}
	if _, err := decimal.NewFromString(cfg.Rate); err != nil {
		return errors.New("commission.rate must be a decimal")
	}
	if strings.TrimSpace(cfg.UnassignedLabel) == "" {
		return errors.New("commission.unassignedLabel cannot be empty")
	}
	if len(cfg.TrackedStatuses) == 0 {
		return errors.New("commission.trackedStatuses cannot be empty")
	}
	return nil
}
