package main

import (
	"strings"
	"testing"
)

func TestNewServeCmd(t *testing.T) {
	cmd := newServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}
	if cmd.Flags().Lookup("sweep") == nil {
		t.Error("expected --sweep flag")
	}
	cfgFlag := cmd.Flags().Lookup("config")
	if cfgFlag == nil {
		t.Fatal("expected --config flag")
	}
	if cfgFlag.DefValue != "bountyboard.yaml" {
		t.Errorf("--config default = %q, want %q", cfgFlag.DefValue, "bountyboard.yaml")
	}
}

func TestServeCmd_Help(t *testing.T) {
	out := mustRun(t, "serve", "--help")
	if !strings.Contains(out, "JSON API") {
		t.Errorf("expected help to mention the JSON API, got: %s", out)
	}
	if !strings.Contains(out, "--sweep") {
		t.Errorf("expected --sweep flag, got: %s", out)
	}
}

func TestServeCmd_MissingConfig(t *testing.T) {
	_, err := runCmd(t, "serve", "--config", "/nonexistent/bountyboard.yaml")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "load config") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "load config")
	}
}
