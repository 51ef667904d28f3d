package lifecycle_test

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/config"
	"github.com/quorumforge/bountyboard/internal/contributor"
	"github.com/quorumforge/bountyboard/internal/db"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
)

const (
	testRealm       = "realm-quorum"
	testMint        = "mint-usdc"
	walletAuthority = "wallet-authority"
	walletCore      = "wallet-core"
	walletHunter    = "wallet-hunter"
)

type fixture struct {
	t      *testing.T
	db     *gorm.DB
	clock  *lifecycle.FixedClock
	engine *lifecycle.Engine
	board  *models.Board
}

func newFixture(t *testing.T) *fixture {
	return newFixtureFunded(t, 100_000)
}

// newFixtureFunded builds a board with the stock tiers and roles, a vault
// holding vaultBalance, and walletCore in the Core role.
func newFixtureFunded(t *testing.T, vaultBalance int64) *fixture {
	t.Helper()

	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := &lifecycle.FixedClock{T: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	b, err := board.Init(gdb, clock, testRealm, walletAuthority, config.DefaultTiers(testMint), config.DefaultRoles())
	if err != nil {
		t.Fatalf("init board: %v", err)
	}
	if vaultBalance > 0 {
		if err := token.Mint(gdb, b.VaultAddr, testMint, vaultBalance); err != nil {
			t.Fatalf("fund vault: %v", err)
		}
	}
	if _, err := contributor.SetRole(gdb, b, walletCore, "Core"); err != nil {
		t.Fatalf("grant core role: %v", err)
	}

	return &fixture{
		t:      t,
		db:     gdb,
		clock:  clock,
		engine: lifecycle.NewWithClock(gdb, clock),
		board:  b,
	}
}

// createBounty creates an Entry-tier development bounty as walletCore.
func (f *fixture) createBounty() *models.Bounty {
	f.t.Helper()
	bounty, err := f.engine.CreateBounty(walletCore, f.board.Addr, lifecycle.CreateBountyOpts{
		Tier:  "Entry",
		Title: "Write onboarding docs",
		Skill: models.SkillDevelopment,
	})
	if err != nil {
		f.t.Fatalf("create bounty: %v", err)
	}
	return bounty
}

// assignTo applies wallet to the bounty and assigns it as walletCore.
func (f *fixture) assignTo(bounty *models.Bounty, wallet string) *models.BountySubmission {
	f.t.Helper()
	app, err := f.engine.ApplyToBounty(wallet, bounty.Addr, 7*24*3600)
	if err != nil {
		f.t.Fatalf("apply to bounty: %v", err)
	}
	_, sub, err := f.engine.AssignBounty(walletCore, bounty.Addr, app.Addr)
	if err != nil {
		f.t.Fatalf("assign bounty: %v", err)
	}
	return sub
}

// submitAs assigns the bounty to wallet and submits a link for review.
func (f *fixture) submitAs(bounty *models.Bounty, wallet string) *models.BountySubmission {
	f.t.Helper()
	f.assignTo(bounty, wallet)
	sub, err := f.engine.Submit(wallet, bounty.Addr, "https://github.com/quorumforge/docs/pull/42")
	if err != nil {
		f.t.Fatalf("submit: %v", err)
	}
	return sub
}

func (f *fixture) bounty(addr string) *models.Bounty {
	f.t.Helper()
	var b models.Bounty
	if err := f.db.Where("addr = ?", addr).First(&b).Error; err != nil {
		f.t.Fatalf("reload bounty %s: %v", addr, err)
	}
	return &b
}

func (f *fixture) submission(bountyAddr string, index int64) *models.BountySubmission {
	f.t.Helper()
	var s models.BountySubmission
	err := f.db.Where("bounty_addr = ? AND submission_index = ?", bountyAddr, index).First(&s).Error
	if err != nil {
		f.t.Fatalf("reload submission %d of %s: %v", index, bountyAddr, err)
	}
	return &s
}

func (f *fixture) record(wallet string) *models.ContributorRecord {
	f.t.Helper()
	rec, err := contributor.Get(f.db, f.board.Addr, wallet)
	if err != nil {
		f.t.Fatalf("load record for %s: %v", wallet, err)
	}
	if rec == nil {
		f.t.Fatalf("no contributor record for %s", wallet)
	}
	return rec
}

func (f *fixture) balance(address string) int64 {
	f.t.Helper()
	bal, err := token.BalanceOf(f.db, address)
	if err != nil {
		f.t.Fatalf("balance of %s: %v", address, err)
	}
	return bal
}

// walletBalance reads a wallet's account balance in the test mint.
func (f *fixture) walletBalance(wallet string) int64 {
	f.t.Helper()
	acct, err := token.AccountAddr(wallet, testMint)
	if err != nil {
		f.t.Fatalf("derive account for %s: %v", wallet, err)
	}
	return f.balance(acct)
}

// activities lists the bounty's audit trail ordered by index.
func (f *fixture) activities(bountyAddr string) []models.BountyActivity {
	f.t.Helper()
	var acts []models.BountyActivity
	err := f.db.Where("bounty_addr = ?", bountyAddr).Order("activity_index").Find(&acts).Error
	if err != nil {
		f.t.Fatalf("load activities of %s: %v", bountyAddr, err)
	}
	return acts
}
