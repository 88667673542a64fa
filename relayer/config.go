package relayer

import (
	"fmt"

	"github.com/joho/godotenv"

	"github.com/most-network/bridge/pkg/utils"
)

// Config is the relayer's process-wide configuration, loaded once at
// startup from the environment and shared read-only by every
// watcher/handler task thereafter.
type Config struct {
	LogLevel string

	EthWssURL          string
	AzeroWssURL        string
	EthContractAddress string
	AzeroSudoSeed      string
	EthFromBlock       uint64
}

// LoadConfig loads an optional ".env" file (missing is not an error,
// matching godotenv's own tolerant behavior when no file is present) and
// then reads the recognized environment variables. EthContractAddress is
// required; every other field has a default.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:           utils.EnvOrDefault("LOG_LEVEL", "info"),
		EthWssURL:          utils.EnvOrDefault("ETH_WSS_URL", "ws://127.0.0.1:8546"),
		AzeroWssURL:        utils.EnvOrDefault("AZERO_WSS_URL", "ws://127.0.0.1:9944"),
		AzeroSudoSeed:      utils.EnvOrDefault("AZERO_SUDO_SEED", "//Alice"),
		EthFromBlock:       utils.EnvOrDefaultUint64("ETH_FROM_BLOCK", 0),
		EthContractAddress: utils.EnvOrDefault("ETH_CONTRACT_ADDRESS", ""),
	}
	if cfg.EthContractAddress == "" {
		return nil, fmt.Errorf("missing required ENV variable: ETH_CONTRACT_ADDRESS")
	}
	return cfg, nil
}
