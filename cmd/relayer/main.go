// Command relayer runs the guardian relayer supervisor, watching
// both chains' bridge events and relaying quorum votes between them.
package main

import (
	"context"
	"crypto/ecdsa"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/most-network/bridge/relayer"
	"github.com/most-network/bridge/relayer/chainio"
)

func main() {
	cfg, err := relayer.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load relayer config")
	}

	log := logrus.New()
	lvl, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	entry := logrus.NewEntry(log)

	ethKey, err := loadEthKey()
	if err != nil {
		entry.WithError(err).Fatal("failed to load ETH_PRIVATE_KEY")
	}

	ctx := context.Background()

	ethChain, err := chainio.NewEthereumChain(ctx, cfg.EthWssURL, cfg.EthContractAddress, ethKey, entry)
	if err != nil {
		entry.WithError(err).Fatal("failed to dial ethereum")
	}
	azeroChain, err := chainio.NewSubstrateChain(ctx, cfg.AzeroWssURL, "", cfg.AzeroSudoSeed, entry)
	if err != nil {
		entry.WithError(err).Fatal("failed to dial azero")
	}

	directions := []relayer.Direction{
		{
			Name:      "azero-to-eth",
			Source:    azeroChain,
			Dest:      ethChain,
			Cursor:    relayer.NewMemCursorStore(),
			FromBlock: cfg.EthFromBlock,
		},
		{
			Name:      "eth-to-azero",
			Source:    ethChain,
			Dest:      azeroChain,
			Cursor:    relayer.NewMemCursorStore(),
			FromBlock: cfg.EthFromBlock,
		},
	}

	supervisor := relayer.NewSupervisor(cfg, directions, entry)
	if err := supervisor.Run(ctx); err != nil {
		entry.WithError(err).Fatal("relayer exited with error")
	}
}

// loadEthKey reads the Ethereum signing key from ETH_PRIVATE_KEY (a hex
// string, 0x-prefix optional), mirroring go-ethereum's own
// crypto.HexToECDSA idiom. Key custody beyond this point (rotation,
// HSM-backed signing) is out of scope.
func loadEthKey() (*ecdsa.PrivateKey, error) {
	hexKey := os.Getenv("ETH_PRIVATE_KEY")
	return crypto.HexToECDSA(trimHexPrefix(hexKey))
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
