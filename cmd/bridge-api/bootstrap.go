package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/most-network/bridge/core"
	"github.com/most-network/bridge/pkg/utils"
)

// bootstrapConfig is the declarative, YAML-described initial state for a
// demo/devnet bridge deployment: the token pairs and the committee an
// operator would otherwise have to wire up through a sequence of admin
// API calls.
type bootstrapConfig struct {
	Committee struct {
		Members   []string `yaml:"members"`
		Threshold uint64   `yaml:"threshold"`
	} `yaml:"committee"`
	Pairs []struct {
		Src string `yaml:"src"`
		Dst string `yaml:"dst"`
	} `yaml:"pairs"`
}

// loadBootstrapConfig reads and parses path, returning nil if path is
// empty (no bootstrap file configured).
func loadBootstrapConfig(path string) (*bootstrapConfig, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, utils.Wrap(err, "read bootstrap config")
	}
	var cfg bootstrapConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, utils.Wrap(err, "parse bootstrap config")
	}
	return &cfg, nil
}

// applyBootstrap installs cfg's committee and pairs into bridge, then
// unhalts it: the same set_committee, add_pair (per-pair),
// set_halted(false) sequence an operator would otherwise issue by hand,
// driven from a single declarative file. Each pair's tokens are
// registered as FakeTokens with the bridge as minter, matching the
// in-memory demo wiring the rest of this binary already uses in lieu of
// a real PSP22 deployment.
func applyBootstrap(bridge *core.Bridge, owner core.AccountID, cfg *bootstrapConfig) error {
	if cfg == nil {
		return nil
	}

	members := make([]core.AccountID, 0, len(cfg.Committee.Members))
	for _, m := range cfg.Committee.Members {
		acct, err := core.ParseAccountID(m)
		if err != nil {
			return fmt.Errorf("bootstrap committee member %q: %w", m, err)
		}
		members = append(members, acct)
	}
	if len(members) > 0 {
		if _, err := bridge.SetCommittee(owner, members, cfg.Committee.Threshold); err != nil {
			return fmt.Errorf("bootstrap set_committee: %w", err)
		}
	}

	for _, p := range cfg.Pairs {
		src, err := core.ParseAccountID(p.Src)
		if err != nil {
			return fmt.Errorf("bootstrap pair src %q: %w", p.Src, err)
		}
		dst, err := core.ParseAccountID(p.Dst)
		if err != nil {
			return fmt.Errorf("bootstrap pair dst %q: %w", p.Dst, err)
		}
		bridge.RegisterToken(src, core.NewFakeToken(bridge.BridgeAddress()))
		bridge.RegisterToken(dst, core.NewFakeToken(bridge.BridgeAddress()))
		if err := bridge.AddPair(owner, src, dst); err != nil {
			return fmt.Errorf("bootstrap add_pair %s->%s: %w", p.Src, p.Dst, err)
		}
	}

	return bridge.SetHalted(owner, false)
}
