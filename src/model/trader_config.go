package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// TraderConfig is one followed participant. The static fields come from
// traders.json; LastKnownTradeTS and TotalTradesCopied are runtime state
// owned by the activity monitor.
type TraderConfig struct {
	Address         string  `json:"address"`
	Nickname        string  `json:"nickname"`
	Enabled         bool    `json:"enabled"`
	CopyBuys        bool    `json:"copy_buys"`
	CopySells       bool    `json:"copy_sells"`
	MaxPositionSize float64 `json:"max_position_size"` // 0 means no per-trader cap
	Notes           string  `json:"notes"`

	LastKnownTradeTS  int64 `json:"-"`
	TotalTradesCopied int   `json:"-"`
}

// UnmarshalJSON defaults Enabled, CopyBuys and CopySells to true so a
// minimal entry with only an address is copied on both sides; an explicit
// false in the file still wins.
func (t *TraderConfig) UnmarshalJSON(data []byte) error {
	type plain TraderConfig
	entry := plain{Enabled: true, CopyBuys: true, CopySells: true}
	if err := json.Unmarshal(data, &entry); err != nil {
		return err
	}
	*t = TraderConfig(entry)
	return nil
}

// Key returns the canonical map key for this trader. Addresses are compared
// case-insensitively.
func (t *TraderConfig) Key() string {
	return strings.ToLower(t.Address)
}

// DisplayName returns the nickname when set, otherwise a shortened address.
func (t *TraderConfig) DisplayName() string {
	if t.Nickname != "" {
		return t.Nickname
	}
	if len(t.Address) > 10 {
		return t.Address[:10] + "..."
	}
	return t.Address
}

type tradersFile struct {
	Traders []*TraderConfig `json:"traders"`
}

// LoadTraders reads the traders.json config file. Traders without an address
// are rejected; a duplicate address is a configuration error.
func LoadTraders(path string) ([]*TraderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read traders config: %w", err)
	}

	var file tradersFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse traders config %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Traders))
	for _, trader := range file.Traders {
		if trader.Address == "" {
			return nil, fmt.Errorf("trader config %s: entry without address", path)
		}
		if seen[trader.Key()] {
			return nil, fmt.Errorf("trader config %s: duplicate address %s", path, trader.Address)
		}
		seen[trader.Key()] = true
	}

	return file.Traders, nil
}

// WriteTraders writes a traders.json file, used by the traders subcommand to
// generate a starting config from the leaderboard.
func WriteTraders(path string, traders []*TraderConfig) error {
	out, err := json.MarshalIndent(tradersFile{Traders: traders}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(out, '\n'), 0o644)
}
