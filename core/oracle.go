package core

import (
	"context"
	"time"
)

// GasPriceOracle is the narrow capability interface through which the
// bridge reaches the external gas-price oracle contract. Concrete
// callees are injected by address at construction time.
type GasPriceOracle interface {
	// GetPrice returns the oracle's quoted price and the timestamp at
	// which it was recorded. Implementations should themselves bound
	// the call by a gas/time limit; base_fee() additionally treats any
	// error as equivalent to a missing oracle.
	GetPrice(ctx context.Context) (price uint64, timestamp time.Time, err error)
}

// OracleConfig is the bridge's view of oracle wiring: the queried
// contract (nil if unset), the clamp bounds, and the fallback price used
// whenever the oracle can't be trusted this call.
type OracleConfig struct {
	Oracle           GasPriceOracle
	MinPrice         uint64
	MaxPrice         uint64
	DefaultGasPrice  uint64
	RelayGasUsage    uint64
	FreshnessWindow  time.Duration
}

// StaleThreshold is the default 24-hour oracle freshness window.
const StaleThreshold = 24 * time.Hour
