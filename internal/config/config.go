// Package config provides YAML-based configuration loading for the bounty
// board service.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/linkcheck"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration, loaded from config.yaml.
type Config struct {
	Realm     string           `yaml:"realm"`
	Authority string           `yaml:"authority"`
	DB        DBConfig         `yaml:"db"`
	Tiers     []board.TierSpec `yaml:"tiers"`
	Roles     []board.RoleSpec `yaml:"roles"`
	Sweep     SweepConfig      `yaml:"sweep"`
	Herald    HeraldConfig     `yaml:"herald"`
	LinkCheck LinkCheckConfig  `yaml:"linkcheck"`
	Server    ServerConfig     `yaml:"server"`
}

// DBConfig holds database connection settings.
type DBConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file
	User     string `yaml:"user"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// SweepConfig controls the staleness sweeper daemon.
type SweepConfig struct {
	Cron string `yaml:"cron"` // 5-field cron expression
}

// HeraldConfig holds chat announcement settings.
type HeraldConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack delivery settings.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord delivery settings.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// LinkCheckConfig controls submission link inspection.
type LinkCheckConfig struct {
	Mode        string `yaml:"mode"` // off, warn, strict
	GitHubToken string `yaml:"github_token"`
}

// ServerConfig holds JSON API server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "bountyboard.db"
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" && c.Realm != "" {
		c.DB.Database = "bountyboard_" + c.Realm
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.LinkCheck.Mode == "" {
		c.LinkCheck.Mode = linkcheck.ModeOff
	}
	if c.Sweep.Cron == "" {
		c.Sweep.Cron = "*/5 * * * *"
	}
	if len(c.Roles) == 0 {
		c.Roles = DefaultRoles()
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Realm == "" {
		errs = append(errs, "realm is required")
	}
	if c.Authority == "" {
		errs = append(errs, "authority is required")
	}
	if c.DB.Driver != "sqlite" && c.DB.Driver != "mysql" {
		errs = append(errs, fmt.Sprintf("db.driver must be sqlite or mysql, got %q", c.DB.Driver))
	}
	if !linkcheck.ValidMode(c.LinkCheck.Mode) {
		errs = append(errs, fmt.Sprintf("linkcheck.mode must be off, warn or strict, got %q", c.LinkCheck.Mode))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DefaultTiers returns the stock four-tier ladder paying out in mint. Values
// match the reference bounty board deployment.
func DefaultTiers(mint string) []board.TierSpec {
	return []board.TierSpec{
		{
			TierName: "Entry", DifficultyLevel: "First contribution",
			MinRequiredReputation: 0, MinRequiredSkillsPt: 0,
			ReputationReward: 10, SkillsPtReward: 10,
			PayoutReward: 50, PayoutMint: mint,
			TaskSubmissionWindow:   7 * 24 * 3600,
			SubmissionReviewWindow: 3 * 24 * 3600,
			AddressChangeReqWindow: 3 * 24 * 3600,
		},
		{
			TierName: "A", DifficultyLevel: "Easy",
			MinRequiredReputation: 50, MinRequiredSkillsPt: 50,
			ReputationReward: 20, SkillsPtReward: 20,
			PayoutReward: 200, PayoutMint: mint,
			TaskSubmissionWindow:   14 * 24 * 3600,
			SubmissionReviewWindow: 7 * 24 * 3600,
			AddressChangeReqWindow: 7 * 24 * 3600,
		},
		{
			TierName: "AA", DifficultyLevel: "Moderate",
			MinRequiredReputation: 100, MinRequiredSkillsPt: 100,
			ReputationReward: 50, SkillsPtReward: 50,
			PayoutReward: 500, PayoutMint: mint,
			TaskSubmissionWindow:   30 * 24 * 3600,
			SubmissionReviewWindow: 7 * 24 * 3600,
			AddressChangeReqWindow: 7 * 24 * 3600,
		},
		{
			TierName: "S", DifficultyLevel: "Complex",
			MinRequiredReputation: 500, MinRequiredSkillsPt: 500,
			ReputationReward: 100, SkillsPtReward: 100,
			PayoutReward: 2000, PayoutMint: mint,
			TaskSubmissionWindow:   60 * 24 * 3600,
			SubmissionReviewWindow: 14 * 24 * 3600,
			AddressChangeReqWindow: 14 * 24 * 3600,
		},
	}
}

// DefaultRoles returns the stock role pair: Core holds every permission,
// Contributor is the default landing role with none.
func DefaultRoles() []board.RoleSpec {
	return []board.RoleSpec{
		{
			RoleName: "Core",
			Permissions: []string{
				"createBounty", "updateBounty", "deleteBounty", "assignBounty",
				"requestChangeToSubmission", "acceptSubmission", "rejectSubmission",
			},
		},
		{RoleName: "Contributor", Default: true},
	}
}
