// Package config provides Viper-based configuration loading for the battle tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// BattleConfig holds the pacing and layout of a battle.
type BattleConfig struct {
	// DrawInterval separates consecutive card draws.
	DrawInterval time.Duration `mapstructure:"draw_interval"`
	// DiscardInterval separates consecutive end-of-turn discards.
	DiscardInterval time.Duration `mapstructure:"discard_interval"`
	// EnemyActionDelay elapses between an enemy's last effect and its completion.
	EnemyActionDelay time.Duration `mapstructure:"enemy_action_delay"`
	// EnemyHitInterval separates the hits of a multi-hit enemy attack.
	EnemyHitInterval time.Duration `mapstructure:"enemy_hit_interval"`
	// MinDragDuration guards a drag against being confirmed by the click that started it.
	MinDragDuration time.Duration `mapstructure:"min_drag_duration"`
	AimAnchorX      float64       `mapstructure:"aim_anchor_x"`
	AimAnchorY      float64       `mapstructure:"aim_anchor_y"`
	// AimSnapBackY cancels aiming once the pointer's Y exceeds it.
	AimSnapBackY float64 `mapstructure:"aim_snap_back_y"`
	HandOriginX  float64 `mapstructure:"hand_origin_x"`
	HandOriginY  float64 `mapstructure:"hand_origin_y"`
	CardSpacing  float64 `mapstructure:"card_spacing"`
	// Seed fixes the random source; 0 selects crypto randomness.
	Seed int64 `mapstructure:"seed"`
}

// ContentConfig names the directories battle content is loaded from.
type ContentConfig struct {
	CardsDir      string `mapstructure:"cards_dir"`
	CharactersDir string `mapstructure:"characters_dir"`
	EnemiesDir    string `mapstructure:"enemies_dir"`
	EncountersDir string `mapstructure:"encounters_dir"`
	// ScriptsDir holds global Lua files and one subdirectory per enemy template.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// ScriptingConfig holds Lua sandbox settings.
type ScriptingConfig struct {
	// InstructionLimit bounds every hook call; 0 selects the sandbox default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// JournalConfig controls persistence of battle event streams.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Battle    BattleConfig    `mapstructure:"battle"`
	Content   ContentConfig   `mapstructure:"content"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Journal   JournalConfig   `mapstructure:"journal"`
}

// Validate checks all configuration invariants. Database settings are only
// checked when the journal is enabled.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateBattle(c.Battle); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scripting.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("scripting.instruction_limit must be >= 0, got %d", c.Scripting.InstructionLimit))
	}
	if c.Journal.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateBattle(b BattleConfig) error {
	var errs []string
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"draw_interval", b.DrawInterval},
		{"discard_interval", b.DiscardInterval},
		{"enemy_action_delay", b.EnemyActionDelay},
		{"enemy_hit_interval", b.EnemyHitInterval},
		{"min_drag_duration", b.MinDragDuration},
	}
	for _, d := range durations {
		if d.d < 0 {
			errs = append(errs, fmt.Sprintf("battle.%s must not be negative", d.name))
		}
	}
	if b.CardSpacing < 0 {
		errs = append(errs, "battle.card_spacing must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	dirs := map[string]string{
		"cards_dir":      c.CardsDir,
		"characters_dir": c.CharactersDir,
		"enemies_dir":    c.EnemiesDir,
		"encounters_dir": c.EncountersDir,
	}
	for _, key := range []string{"cards_dir", "characters_dir", "enemies_dir", "encounters_dir"} {
		if dirs[key] == "" {
			errs = append(errs, fmt.Sprintf("content.%s must not be empty", key))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DECKBATTLE_ prefix
	v.SetEnvPrefix("DECKBATTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults registers every default value on v. Callers building a Viper
// instance by hand use it before LoadFromViper.
func Defaults(v *viper.Viper) { setDefaults(v) }

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("battle.draw_interval", "250ms")
	v.SetDefault("battle.discard_interval", "250ms")
	v.SetDefault("battle.enemy_action_delay", "600ms")
	v.SetDefault("battle.enemy_hit_interval", "350ms")
	v.SetDefault("battle.min_drag_duration", "50ms")
	v.SetDefault("battle.aim_anchor_x", 512)
	v.SetDefault("battle.aim_anchor_y", 100)
	v.SetDefault("battle.aim_snap_back_y", 138)
	v.SetDefault("battle.hand_origin_x", 256)
	v.SetDefault("battle.hand_origin_y", 520)
	v.SetDefault("battle.card_spacing", 96)
	v.SetDefault("battle.seed", 0)

	v.SetDefault("content.cards_dir", "content/cards")
	v.SetDefault("content.characters_dir", "content/characters")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.encounters_dir", "content/encounters")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("scripting.instruction_limit", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "deckbattle")
	v.SetDefault("database.password", "deckbattle")
	v.SetDefault("database.name", "deckbattle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("journal.enabled", false)
}
