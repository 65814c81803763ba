package config

import (
	"log"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type LedgerConfig struct {
	LockTimeout         time.Duration
	LockTTL             time.Duration
	LockRetryInterval   time.Duration
	LockKeyPrefix       string
	EventsKey           string
	DefaultInterestRate float64
}

// Keys double as environment variable names (upper-cased) and .env entries.
const (
	keyLockTimeout       = "ledger_lock_timeout"
	keyLockTTL           = "ledger_lock_ttl"
	keyLockRetryInterval = "ledger_lock_retry_interval"
	keyLockPrefix        = "ledger_lock_prefix"
	keyEventsKey         = "ledger_events_key"
	keyDefaultRate       = "ledger_default_interest_rate"
)

// LoadLedgerConfig reads the LEDGER_* settings from v. Malformed values are
// logged and replaced by their defaults.
func LoadLedgerConfig(v *viper.Viper) *LedgerConfig {
	defaults := map[string]any{
		keyLockTimeout:       "5s",
		keyLockTTL:           "10s",
		keyLockRetryInterval: "25ms",
		keyLockPrefix:        "ledger:lock:",
		keyEventsKey:         "ledger_events",
		keyDefaultRate:       "1.0",
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
		v.BindEnv(key)
	}

	return &LedgerConfig{
		LockTimeout:         getDuration(v, keyLockTimeout, 5*time.Second),
		LockTTL:             getDuration(v, keyLockTTL, 10*time.Second),
		LockRetryInterval:   getDuration(v, keyLockRetryInterval, 25*time.Millisecond),
		LockKeyPrefix:       v.GetString(keyLockPrefix),
		EventsKey:           v.GetString(keyEventsKey),
		DefaultInterestRate: getFloat(v, keyDefaultRate, 1.0),
	}
}

func getDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	duration, err := time.ParseDuration(v.GetString(key))
	if err != nil || duration <= 0 {
		log.Printf("[CONFIG] Invalid %s %q, using %s", key, v.GetString(key), defaultVal)
		return defaultVal
	}
	return duration
}

func getFloat(v *viper.Viper, key string, defaultVal float64) float64 {
	f, err := strconv.ParseFloat(v.GetString(key), 64)
	if err != nil {
		log.Printf("[CONFIG] Invalid %s %q, using %v", key, v.GetString(key), defaultVal)
		return defaultVal
	}
	return f
}
