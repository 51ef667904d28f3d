package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quorumforge/bountyboard/internal/config"
	"github.com/quorumforge/bountyboard/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the bounty board database",
		Long:  "Connects to the configured database and migrates all tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bountyboard.yaml", "path to config file")
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	fmt.Fprintf(out, "Loaded config for realm %q from %s\n", cfg.Realm, configPath)

	gdb, err := db.Connect(cfg.DB.Driver, cfg.DB.Path, cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.Database)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := db.AutoMigrate(gdb); err != nil {
		return err
	}
	fmt.Fprintf(out, "Migrated %d tables\n", len(db.AllModels()))
	return nil
}
