package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quorumforge/bountyboard/internal/board"
	"github.com/quorumforge/bountyboard/internal/config"
	"github.com/quorumforge/bountyboard/internal/contributor"
	"github.com/quorumforge/bountyboard/internal/db"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
)

const (
	testMint   = "mint-usdc"
	authority  = "wallet-authority"
	walletCore = "wallet-core"
	hunter     = "wallet-hunter"
)

type apiFixture struct {
	t      *testing.T
	router *gin.Engine
	engine *lifecycle.Engine
	clock  *lifecycle.FixedClock
	board  *models.Board
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	clock := &lifecycle.FixedClock{T: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	b, err := board.Init(gdb, clock, "realm-api", authority, config.DefaultTiers(testMint), config.DefaultRoles())
	if err != nil {
		t.Fatalf("init board: %v", err)
	}
	if err := token.Mint(gdb, b.VaultAddr, testMint, 10_000); err != nil {
		t.Fatalf("fund vault: %v", err)
	}
	if _, err := contributor.SetRole(gdb, b, walletCore, "Core"); err != nil {
		t.Fatalf("grant role: %v", err)
	}
	engine := lifecycle.NewWithClock(gdb, clock)
	return &apiFixture{
		t:      t,
		router: NewRouter(engine, b.Addr),
		engine: engine,
		clock:  clock,
		board:  b,
	}
}

// do issues a JSON request with an optional acting wallet.
func (f *apiFixture) do(method, path, asWallet string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			f.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asWallet != "" {
		req.Header.Set("X-Wallet", asWallet)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) createBounty() string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/bounties", walletCore, gin.H{
		"tier": "Entry", "title": "Ship the docs", "skill": "development",
	})
	if w.Code != http.StatusCreated {
		f.t.Fatalf("create bounty: status %d body %s", w.Code, w.Body.String())
	}
	var b models.Bounty
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		f.t.Fatalf("decode bounty: %v", err)
	}
	return b.Addr
}

func (f *apiFixture) assignTo(bountyAddr, assignee string) {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/bounties/"+bountyAddr+"/apply", assignee, gin.H{"validity_seconds": 3600})
	if w.Code != http.StatusCreated {
		f.t.Fatalf("apply: status %d body %s", w.Code, w.Body.String())
	}
	var app models.BountyApplication
	if err := json.Unmarshal(w.Body.Bytes(), &app); err != nil {
		f.t.Fatalf("decode application: %v", err)
	}
	w = f.do(http.MethodPost, "/api/bounties/"+bountyAddr+"/assign", walletCore, gin.H{"application_addr": app.Addr})
	if w.Code != http.StatusOK {
		f.t.Fatalf("assign: status %d body %s", w.Code, w.Body.String())
	}
}

func TestGetBoard(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodGet, "/api/board", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Board        models.Board `json:"board"`
		VaultBalance int64        `json:"vault_balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Board.Realm != "realm-api" || resp.VaultBalance != 10_000 {
		t.Errorf("board = %s, vault = %d", resp.Board.Realm, resp.VaultBalance)
	}
}

func TestMutationsRequireWalletHeader(t *testing.T) {
	f := newAPIFixture(t)
	w := f.do(http.MethodPost, "/api/bounties", "", gin.H{
		"tier": "Entry", "title": "x", "skill": "development",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestCreateAndFetchBounty(t *testing.T) {
	f := newAPIFixture(t)
	addr := f.createBounty()

	w := f.do(http.MethodGet, "/api/bounties/"+addr, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Bounty        models.Bounty `json:"bounty"`
		EscrowBalance int64         `json:"escrow_balance"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Bounty.State != models.BountyOpen || resp.EscrowBalance != 50 {
		t.Errorf("bounty = (%s, escrow %d), want (open, 50)", resp.Bounty.State, resp.EscrowBalance)
	}
}

func TestListBountiesFiltersByState(t *testing.T) {
	f := newAPIFixture(t)
	addr := f.createBounty()
	f.createBounty()
	f.assignTo(addr, hunter)

	w := f.do(http.MethodGet, "/api/bounties?state=open", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var bounties []models.Bounty
	if err := json.Unmarshal(w.Body.Bytes(), &bounties); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bounties) != 1 {
		t.Errorf("open bounties = %d, want 1", len(bounties))
	}
}

func TestCreateBountyWithoutPermission(t *testing.T) {
	f := newAPIFixture(t)
	// hunter needs a record to be recognized at all; still no permission.
	if _, err := contributor.GetOrCreate(f.engine.DB(), f.board, hunter); err != nil {
		t.Fatalf("create record: %v", err)
	}
	w := f.do(http.MethodPost, "/api/bounties", hunter, gin.H{
		"tier": "Entry", "title": "x", "skill": "development",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403, body %s", w.Code, w.Body.String())
	}
}

func TestFullLifecycleOverAPI(t *testing.T) {
	f := newAPIFixture(t)
	addr := f.createBounty()
	f.assignTo(addr, hunter)

	w := f.do(http.MethodPost, "/api/bounties/"+addr+"/submit", hunter, gin.H{"link": "https://example.com/pr"})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: status %d body %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/request-changes", walletCore, gin.H{"comment": "needs tests"})
	if w.Code != http.StatusOK {
		t.Fatalf("request-changes: status %d body %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/update-submission", hunter, gin.H{"link": "https://example.com/pr2"})
	if w.Code != http.StatusOK {
		t.Fatalf("update-submission: status %d body %s", w.Code, w.Body.String())
	}

	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/accept", walletCore, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept: status %d body %s", w.Code, w.Body.String())
	}
	var sub models.BountySubmission
	if err := json.Unmarshal(w.Body.Bytes(), &sub); err != nil {
		t.Fatalf("decode submission: %v", err)
	}
	if sub.State != models.SubmissionAccepted {
		t.Errorf("submission state = %s, want accepted", sub.State)
	}

	w = f.do(http.MethodGet, "/api/contributors/"+hunter, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get contributor: status %d", w.Code)
	}
	var rec models.ContributorRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Reputation != 10 || rec.BountyCompleted != 1 {
		t.Errorf("record = (rep %d, completed %d), want (10, 1)", rec.Reputation, rec.BountyCompleted)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	f := newAPIFixture(t)
	addr := f.createBounty()
	f.assignTo(addr, hunter)

	// Premature unassign maps staleness to 412.
	w := f.do(http.MethodPost, "/api/bounties/"+addr+"/unassign-overdue", walletCore, nil)
	if w.Code != http.StatusPreconditionFailed {
		t.Errorf("unassign-overdue: status %d, want 412", w.Code)
	}

	// Accept with no submission yet maps invalid state to 409.
	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/accept", walletCore, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("accept: status %d, want 409", w.Code)
	}

	// Unknown bounty maps to 404.
	w = f.do(http.MethodPost, fmt.Sprintf("/api/bounties/%064d/accept", 0), walletCore, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown bounty: status %d, want 404", w.Code)
	}

	// Submitting as a non-assignee maps identity mismatch to 409.
	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/submit", "wallet-impostor", gin.H{"link": "https://x.example"})
	if w.Code != http.StatusConflict {
		t.Errorf("impostor submit: status %d, want 409", w.Code)
	}

	// The stale-reject permission error carries its own 403 mapping.
	f.do(http.MethodPost, "/api/bounties/"+addr+"/submit", hunter, gin.H{"link": "https://example.com/pr"})
	f.do(http.MethodPost, "/api/bounties/"+addr+"/request-changes", walletCore, gin.H{})
	f.clock.Advance(10 * 24 * time.Hour)
	w = f.do(http.MethodPost, "/api/bounties/"+addr+"/reject-stale", hunter, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("reject-stale without permission: status %d, want 403", w.Code)
	}
}

func TestVaultExhaustionMapsTo402(t *testing.T) {
	f := newAPIFixture(t)
	// Drain the vault with S-tier bounties, then one more Entry fails.
	for i := 0; i < 5; i++ {
		w := f.do(http.MethodPost, "/api/bounties", walletCore, gin.H{
			"tier": "S", "title": "big one", "skill": "development",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create %d: status %d body %s", i, w.Code, w.Body.String())
		}
	}
	w := f.do(http.MethodPost, "/api/bounties", walletCore, gin.H{
		"tier": "Entry", "title": "no funds left", "skill": "development",
	})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402, body %s", w.Code, w.Body.String())
	}
}

func TestListActivitiesAndSubmissions(t *testing.T) {
	f := newAPIFixture(t)
	addr := f.createBounty()
	f.assignTo(addr, hunter)

	w := f.do(http.MethodGet, "/api/bounties/"+addr+"/activities", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activities: status %d", w.Code)
	}
	var acts []models.BountyActivity
	if err := json.Unmarshal(w.Body.Bytes(), &acts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(acts) != 3 { // create, apply, assign
		t.Errorf("activities = %d, want 3", len(acts))
	}

	w = f.do(http.MethodGet, "/api/bounties/"+addr+"/submissions", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("submissions: status %d", w.Code)
	}
	var subs []models.BountySubmission
	if err := json.Unmarshal(w.Body.Bytes(), &subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 || subs[0].State != models.SubmissionPendingSubmission {
		t.Errorf("submissions = %+v", subs)
	}
}
