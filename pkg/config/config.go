// pkg/config/config.go
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GameConfig is the full server configuration, loaded from TOML
type GameConfig struct {
	Server  ServerConfig  `toml:"server"`
	Match   MatchConfig   `toml:"match"`
	Weapons WeaponsConfig `toml:"weapons"`
	Teams   []TeamConfig  `toml:"teams"`
	Maps    []MapConfig   `toml:"maps"`
}

// ServerConfig holds transport and process settings
type ServerConfig struct {
	ListenAddr        string `toml:"listen_addr"`
	Mode              string `toml:"mode"` // "tdm" or "ctf"
	TickRate          int    `toml:"tick_rate"`
	FullStateEvery    int    `toml:"full_state_every"`
	CompressThreshold int    `toml:"compress_threshold"`
	MaxPlayers        int    `toml:"max_players"`
	LogEnv            string `toml:"log_env"`
}

// MatchConfig holds the match rules
type MatchConfig struct {
	MinPlayers   int     `toml:"min_players"`
	FillWithAI   bool    `toml:"fill_with_ai"`
	TimeLimit    float64 `toml:"time_limit"`
	PostGameTime float64 `toml:"post_game_time"`
	RespawnDelay float64 `toml:"respawn_delay"`
	ScoreLimit   int     `toml:"score_limit"`
	FriendlyFire bool    `toml:"friendly_fire"`
}

// WeaponsConfig overrides the stock weapon tuning. Zero values keep
// the built-in defaults.
type WeaponsConfig struct {
	CannonDamage   float64 `toml:"cannon_damage"`
	CannonRange    float64 `toml:"cannon_range"`
	LauncherDamage float64 `toml:"launcher_damage"`
	LauncherRange  float64 `toml:"launcher_range"`
}

// TeamConfig names a side
type TeamConfig struct {
	Name  string `toml:"name"`
	Color string `toml:"color"`
}

// MapConfig is one entry of the map rotation
type MapConfig struct {
	Name        string       `toml:"name"`
	SpawnPoints []SpawnPoint `toml:"spawn_points"`
	FlagStands  []FlagStand  `toml:"flag_stands"`
	Props       []Prop       `toml:"props"`
}

// SpawnPoint is a team spawn location on a map
type SpawnPoint struct {
	X       float64 `toml:"x"`
	Y       float64 `toml:"y"`
	Heading float64 `toml:"heading"`
	Team    int     `toml:"team"`
}

// FlagStand is a CTF flag home position
type FlagStand struct {
	X    float64 `toml:"x"`
	Y    float64 `toml:"y"`
	Team int     `toml:"team"`
}

// Prop is a destructible obstacle on a map
type Prop struct {
	X      float64 `toml:"x"`
	Y      float64 `toml:"y"`
	Radius float64 `toml:"radius"`
	Hull   float64 `toml:"hull"`
}

// LoadConfig loads and validates a TOML configuration file
func LoadConfig(path string) (*GameConfig, error) {
	var cfg GameConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes a configuration to a TOML file
func SaveConfig(cfg *GameConfig, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks the configuration for inconsistencies
func (c *GameConfig) Validate() error {
	if len(c.Teams) < 2 {
		return fmt.Errorf("config needs at least 2 teams, got %d", len(c.Teams))
	}
	if c.Server.Mode != "tdm" && c.Server.Mode != "ctf" {
		return fmt.Errorf("unknown game mode %q", c.Server.Mode)
	}
	if len(c.Maps) == 0 {
		return fmt.Errorf("config needs at least one map")
	}
	for _, m := range c.Maps {
		if m.Name == "" {
			return fmt.Errorf("map entries need a name")
		}
		if len(m.SpawnPoints) == 0 {
			return fmt.Errorf("map %q has no spawn points", m.Name)
		}
		for _, sp := range m.SpawnPoints {
			if sp.Team < 0 || sp.Team >= len(c.Teams) {
				return fmt.Errorf("map %q spawn point references team %d of %d", m.Name, sp.Team, len(c.Teams))
			}
		}
		if c.Server.Mode == "ctf" && len(m.FlagStands) < len(c.Teams) {
			return fmt.Errorf("map %q needs a flag stand per team for ctf", m.Name)
		}
	}
	return nil
}

// Map returns the named rotation entry, or the first map when the
// name is empty or unknown.
func (c *GameConfig) Map(name string) MapConfig {
	for _, m := range c.Maps {
		if m.Name == name {
			return m
		}
	}
	return c.Maps[0]
}

// MapNames returns the rotation in config order
func (c *GameConfig) MapNames() []string {
	names := make([]string, len(c.Maps))
	for i, m := range c.Maps {
		names[i] = m.Name
	}
	return names
}

func applyDefaults(cfg *GameConfig) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":4242"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "tdm"
	}
	if cfg.Server.TickRate <= 0 {
		cfg.Server.TickRate = 60
	}
	if cfg.Server.FullStateEvery <= 0 {
		cfg.Server.FullStateEvery = 10
	}
	if cfg.Server.CompressThreshold <= 0 {
		cfg.Server.CompressThreshold = 1024
	}
	if cfg.Server.MaxPlayers <= 0 {
		cfg.Server.MaxPlayers = 16
	}
	if cfg.Server.LogEnv == "" {
		cfg.Server.LogEnv = "production"
	}
	if cfg.Match.MinPlayers <= 0 {
		cfg.Match.MinPlayers = 2
	}
	if cfg.Match.TimeLimit <= 0 {
		cfg.Match.TimeLimit = 300
	}
	if cfg.Match.PostGameTime <= 0 {
		cfg.Match.PostGameTime = 5
	}
	if cfg.Match.RespawnDelay <= 0 {
		cfg.Match.RespawnDelay = 4
	}
}

// DefaultConfig returns a playable two team setup on one map
func DefaultConfig() *GameConfig {
	cfg := &GameConfig{
		Server: ServerConfig{
			ListenAddr: ":4242",
			Mode:       "tdm",
			LogEnv:     "production",
		},
		Match: MatchConfig{
			FillWithAI: true,
		},
		Teams: []TeamConfig{
			{Name: "Red", Color: "#c0392b"},
			{Name: "Blue", Color: "#2980b9"},
		},
		Maps: []MapConfig{
			{
				Name: "canyon",
				SpawnPoints: []SpawnPoint{
					{X: 40, Y: 40, Team: 0},
					{X: 40, Y: 120, Team: 0},
					{X: 460, Y: 40, Heading: 3.14159, Team: 1},
					{X: 460, Y: 120, Heading: 3.14159, Team: 1},
				},
				FlagStands: []FlagStand{
					{X: 20, Y: 80, Team: 0},
					{X: 480, Y: 80, Team: 1},
				},
				Props: []Prop{
					{X: 250, Y: 60, Radius: 8, Hull: 120},
					{X: 250, Y: 100, Radius: 8, Hull: 120},
				},
			},
		},
	}
	applyDefaults(cfg)
	return cfg
}
