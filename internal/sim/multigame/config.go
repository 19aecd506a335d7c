package multigame

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"railcraft.ai/internal/sim/ids"
)

// Config lists the games one server hosts.
type Config struct {
	DefaultGameID string     `yaml:"default_game_id"`
	Games         []GameSpec `yaml:"games"`
}

type GameSpec struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	MaxPlayers int    `yaml:"max_players"`
	// Heightmap is an optional terrain file; empty means a flat map sized by
	// the tuning file.
	Heightmap string `yaml:"heightmap,omitempty"`
	// AIPlayers are seated when the game is created.
	AIPlayers []string `yaml:"ai_players,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	cfg = Config{}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("games.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("games.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Games: []GameSpec{{Name: "main", MaxPlayers: 8}},
	}
}

// Normalize gives unnamed games a fresh id and picks the first game as the
// default when none is set.
func (c *Config) Normalize() {
	if c == nil {
		return
	}
	for i := range c.Games {
		c.Games[i].ID = strings.TrimSpace(c.Games[i].ID)
		if c.Games[i].ID == "" {
			c.Games[i].ID = string(ids.NewGameID())
		}
		if c.Games[i].Name == "" {
			c.Games[i].Name = c.Games[i].ID
		}
	}
	if strings.TrimSpace(c.DefaultGameID) == "" && len(c.Games) > 0 {
		c.DefaultGameID = c.Games[0].ID
	}
}

func (c Config) Validate() error {
	if len(c.Games) == 0 {
		return fmt.Errorf("games must not be empty")
	}
	seen := map[string]bool{}
	for _, g := range c.Games {
		if g.ID == "" {
			return fmt.Errorf("game id must not be empty")
		}
		if seen[g.ID] {
			return fmt.Errorf("duplicate game id: %s", g.ID)
		}
		seen[g.ID] = true
		if g.MaxPlayers < 0 {
			return fmt.Errorf("game %s max_players must be >= 0", g.ID)
		}
		names := map[string]bool{}
		for _, n := range g.AIPlayers {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("game %s has an empty ai player name", g.ID)
			}
			if names[n] {
				return fmt.Errorf("game %s duplicate ai player: %s", g.ID, n)
			}
			names[n] = true
		}
	}
	if !seen[c.DefaultGameID] {
		return fmt.Errorf("default_game_id %q not found in games", c.DefaultGameID)
	}
	return nil
}
