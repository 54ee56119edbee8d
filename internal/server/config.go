package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/koupai/koupai/internal/game"
)

// ServerConfig is the complete server configuration.
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Match  MatchSettings  `hcl:"match,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// MatchSettings fixes the defaults applied to newly created rooms.
type MatchSettings struct {
	HandSize       int `hcl:"hand_size,optional"`
	DeckCount      int `hcl:"deck_count,optional"`
	TargetScore    int `hcl:"target_score,optional"`
	TotalRounds    int `hcl:"total_rounds,optional"`
	RevealSeconds  int `hcl:"reveal_seconds,optional"`
	MaxIdleMinutes int `hcl:"max_idle_minutes,optional"`

	// ArchiveDir enables on-disk match archives when set.
	ArchiveDir string `hcl:"archive_dir,optional"`
}

// DefaultServerConfig returns the standard configuration.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "koupai-server.log",
		},
		Match: MatchSettings{
			HandSize:       game.DefaultHandSize,
			DeckCount:      game.DefaultDeckCount,
			TargetScore:    game.DefaultTargetScore,
			TotalRounds:    game.DefaultTotalRounds,
			RevealSeconds:  3,
			MaxIdleMinutes: 30,
		},
	}
}

// LoadServerConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultServerConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = defaults.Server.LogFile
	}
	if config.Match.HandSize == 0 {
		config.Match.HandSize = defaults.Match.HandSize
	}
	if config.Match.DeckCount == 0 {
		config.Match.DeckCount = defaults.Match.DeckCount
	}
	if config.Match.TargetScore == 0 {
		config.Match.TargetScore = defaults.Match.TargetScore
	}
	if config.Match.TotalRounds == 0 {
		config.Match.TotalRounds = defaults.Match.TotalRounds
	}
	if config.Match.RevealSeconds == 0 {
		config.Match.RevealSeconds = defaults.Match.RevealSeconds
	}
	if config.Match.MaxIdleMinutes == 0 {
		config.Match.MaxIdleMinutes = defaults.Match.MaxIdleMinutes
	}

	return &config, nil
}

// Validate checks the configuration for inconsistencies.
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Match.HandSize < 3 || c.Match.HandSize > 7 {
		return fmt.Errorf("hand size must be between 3 and 7, got %d", c.Match.HandSize)
	}
	if c.Match.DeckCount < 1 || c.Match.DeckCount > 2 {
		return fmt.Errorf("deck count must be 1 or 2, got %d", c.Match.DeckCount)
	}
	if c.Match.TargetScore != 40 && c.Match.TargetScore != 45 {
		return fmt.Errorf("target score must be 40 or 45, got %d", c.Match.TargetScore)
	}
	switch c.Match.TotalRounds {
	case 1, 4, 8:
	default:
		return fmt.Errorf("total rounds must be 1, 4 or 8, got %d", c.Match.TotalRounds)
	}
	if c.Match.RevealSeconds < 0 {
		return fmt.Errorf("reveal seconds must not be negative")
	}
	return nil
}

// MatchConfig converts the configured defaults into a game configuration.
func (c *ServerConfig) MatchConfig() game.MatchConfig {
	return game.MatchConfig{
		HandSize:    c.Match.HandSize,
		DeckCount:   c.Match.DeckCount,
		TargetScore: c.Match.TargetScore,
		TotalRounds: c.Match.TotalRounds,
	}
}

// GetServerAddress returns the listen address.
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
