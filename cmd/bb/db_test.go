package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDBCmd_Help(t *testing.T) {
	out := mustRun(t, "db", "--help")
	if !strings.Contains(out, "Database management") {
		t.Errorf("expected help to mention 'Database management', got: %s", out)
	}
	if !strings.Contains(out, "init") {
		t.Errorf("expected help to list 'init' subcommand, got: %s", out)
	}
}

func TestNewDBInitCmd(t *testing.T) {
	cmd := newDBInitCmd()
	if cmd.Use != "init" {
		t.Errorf("Use = %q, want %q", cmd.Use, "init")
	}
	flag := cmd.Flags().Lookup("config")
	if flag == nil {
		t.Fatal("expected --config flag")
	}
	if flag.DefValue != "bountyboard.yaml" {
		t.Errorf("--config default = %q, want %q", flag.DefValue, "bountyboard.yaml")
	}
	if flag.Shorthand != "c" {
		t.Errorf("--config shorthand = %q, want %q", flag.Shorthand, "c")
	}
}

func TestDBInitCmd_MissingConfig(t *testing.T) {
	_, err := runCmd(t, "db", "init", "--config", "/nonexistent/bountyboard.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}

func TestDBInitCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "bountyboard.yaml")
	if err := os.WriteFile(cfgPath, []byte("invalid: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := runCmd(t, "db", "init", "--config", cfgPath)
	if err == nil {
		t.Fatal("expected error for config missing realm and authority")
	}
}

func TestDBInitCmd_Migrates(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	out := mustRun(t, "db", "init", "--config", cfgPath)
	if !strings.Contains(out, "Loaded config for realm \"orchard\"") {
		t.Errorf("expected load message, got: %s", out)
	}
	if !strings.Contains(out, "Migrated") {
		t.Errorf("expected migration message, got: %s", out)
	}
}
