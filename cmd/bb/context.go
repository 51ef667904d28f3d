package main

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/config"
	"github.com/quorumforge/bountyboard/internal/db"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/linkcheck"
)

// cmdContext bundles everything a command needs after config is loaded.
type cmdContext struct {
	cfg       *config.Config
	db        *gorm.DB
	engine    *lifecycle.Engine
	boardAddr string
}

// openContext loads the config, connects to the database and derives the
// board address for the configured realm.
func openContext(configPath string) (*cmdContext, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.Path, cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return nil, err
	}
	boardAddr, err := board.Addr(cfg.Realm)
	if err != nil {
		return nil, err
	}
	engine := lifecycle.New(gdb)
	if cfg.LinkCheck.Mode != linkcheck.ModeOff {
		engine.Links = linkcheck.New(cfg.LinkCheck.Mode, cfg.LinkCheck.GitHubToken)
	}
	return &cmdContext{cfg: cfg, db: gdb, engine: engine, boardAddr: boardAddr}, nil
}

// requireWallet enforces the --as flag on mutating commands.
func requireWallet(as string) (string, error) {
	if as == "" {
		return "", fmt.Errorf("--as <wallet> is required")
	}
	return as, nil
}
