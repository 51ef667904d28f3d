package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCmd executes one bb invocation and returns its combined output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// mustRun executes one bb invocation and fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("bb %s failed: %v\noutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

// writeConfig writes a minimal sqlite config into dir and returns its path.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "bountyboard.yaml")
	cfg := fmt.Sprintf("realm: orchard\nauthority: wallet-authority\ndb:\n  driver: sqlite\n  path: %s\n",
		filepath.Join(dir, "bb.db"))
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestRootCmd_Help(t *testing.T) {
	out := mustRun(t, "--help")
	for _, sub := range []string{"db", "board", "bounty", "submission", "contributor", "sweep", "serve", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("root help should list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.Contains(out, "bb dev") {
		t.Errorf("expected version output to contain 'bb dev', got: %s", out)
	}
}

// The full happy path over the CLI against a file-backed sqlite database:
// migrate, init the board, fund the vault, then run one bounty from creation
// through acceptance.
func TestCLI_FullLifecycle(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())

	mustRun(t, "db", "init", "--config", cfgPath)
	mustRun(t, "board", "init", "--config", cfgPath, "--mint", "points")
	mustRun(t, "board", "fund", "--config", cfgPath, "--mint", "points", "--amount", "1000")
	mustRun(t, "board", "set-role", "--config", cfgPath, "--wallet", "wallet-core", "--role", "Core")

	out := mustRun(t, "bounty", "create", "--config", cfgPath, "--as", "wallet-core",
		"--tier", "Entry", "--title", "Fix the docs", "--skill", "development")
	fields := strings.Fields(out)
	if len(fields) < 4 {
		t.Fatalf("unexpected create output: %s", out)
	}
	bountyAddr := fields[3]

	out = mustRun(t, "bounty", "apply", bountyAddr, "--config", cfgPath,
		"--as", "wallet-hunter", "--validity", "604800")
	fields = strings.Fields(out)
	if len(fields) < 2 {
		t.Fatalf("unexpected apply output: %s", out)
	}
	appAddr := fields[1]

	mustRun(t, "bounty", "assign", bountyAddr, "--config", cfgPath,
		"--as", "wallet-core", "--application", appAddr)
	mustRun(t, "submission", "submit", bountyAddr, "--config", cfgPath,
		"--as", "wallet-hunter", "--link", "https://example.com/patch")
	mustRun(t, "submission", "accept", bountyAddr, "--config", cfgPath, "--as", "wallet-core")

	out = mustRun(t, "bounty", "show", bountyAddr, "--config", cfgPath)
	if !strings.Contains(out, "state: completed") {
		t.Errorf("expected completed bounty, got: %s", out)
	}

	out = mustRun(t, "contributor", "show", "wallet-hunter", "--config", cfgPath)
	if !strings.Contains(out, "reputation: 10") {
		t.Errorf("expected reputation 10, got: %s", out)
	}
	if !strings.Contains(out, "bounties completed: 1") {
		t.Errorf("expected 1 completed bounty, got: %s", out)
	}
	if !strings.Contains(out, "development: 10 pt") {
		t.Errorf("expected 10 development points, got: %s", out)
	}
}

func TestCLI_BoardShow(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	mustRun(t, "db", "init", "--config", cfgPath)
	mustRun(t, "board", "init", "--config", cfgPath, "--mint", "points")

	out := mustRun(t, "board", "show", "--config", cfgPath)
	if !strings.Contains(out, "realm: orchard") {
		t.Errorf("expected realm in output, got: %s", out)
	}
	for _, tier := range []string{"Entry", "A", "AA", "S"} {
		if !strings.Contains(out, tier) {
			t.Errorf("expected tier %q in output, got: %s", tier, out)
		}
	}
	if !strings.Contains(out, "Core") || !strings.Contains(out, "Contributor") {
		t.Errorf("expected stock roles in output, got: %s", out)
	}
}

func TestCLI_PermissionDenied(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	mustRun(t, "db", "init", "--config", cfgPath)
	mustRun(t, "board", "init", "--config", cfgPath, "--mint", "points")
	mustRun(t, "board", "fund", "--config", cfgPath, "--mint", "points", "--amount", "1000")

	// wallet-nobody has no record and no role.
	_, err := runCmd(t, "bounty", "create", "--config", cfgPath, "--as", "wallet-nobody",
		"--tier", "Entry", "--title", "nope", "--skill", "development")
	if err == nil {
		t.Fatal("expected permission error")
	}
}

func TestCLI_SweepReportsNothingToDo(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir())
	mustRun(t, "db", "init", "--config", cfgPath)
	mustRun(t, "board", "init", "--config", cfgPath, "--mint", "points")

	out := mustRun(t, "sweep", "--config", cfgPath, "--as", "wallet-authority")
	if !strings.Contains(out, "0 unassigned") {
		t.Errorf("expected empty sweep report, got: %s", out)
	}
}
