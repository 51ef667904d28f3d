// Package lifecycle implements the bounty and submission state machines and
// the escrow and reputation mutations tied to each transition. Every
// transition validates completely, then applies inside one transaction;
// nothing outside the transaction ever observes a partial transition.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/quorumforge/bountyboard/internal/addr"
	"github.com/quorumforge/bountyboard/internal/herald"
	"github.com/quorumforge/bountyboard/internal/linkcheck"
	"github.com/quorumforge/bountyboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine executes lifecycle transitions against one database.
type Engine struct {
	db    *gorm.DB
	clock Clock

	// Herald, when set, receives an event after each committed transition.
	Herald *herald.Herald
	// Links, when set, inspects submission links before Submit commits.
	Links *linkcheck.Checker
}

// New builds an Engine on the system clock.
func New(db *gorm.DB) *Engine {
	return &Engine{db: db, clock: SystemClock{}}
}

// NewWithClock builds an Engine on an injected clock, used by tests and the
// sweeper's dry-run mode.
func NewWithClock(db *gorm.DB, clock Clock) *Engine {
	return &Engine{db: db, clock: clock}
}

// DB exposes the engine's handle for read-only queries by callers.
func (e *Engine) DB() *gorm.DB { return e.db }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// lockForUpdate narrows tx to lock selected rows on engines that support it.
// SQLite serializes writers on its own and rejects FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// loadBoard fetches and locks the board at address.
func loadBoard(tx *gorm.DB, boardAddr string) (*models.Board, error) {
	var board models.Board
	err := lockForUpdate(tx).Preload("Tiers").Preload("Roles").
		Where("addr = ?", boardAddr).First(&board).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: board %s", ErrNotFound, boardAddr)
		}
		return nil, fmt.Errorf("lifecycle: load board %s: %w", boardAddr, err)
	}
	return &board, nil
}

// loadBounty fetches and locks the bounty at address.
func loadBounty(tx *gorm.DB, bountyAddr string) (*models.Bounty, error) {
	var bounty models.Bounty
	err := lockForUpdate(tx).Where("addr = ?", bountyAddr).First(&bounty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: bounty %s", ErrNotFound, bountyAddr)
		}
		return nil, fmt.Errorf("lifecycle: load bounty %s: %w", bountyAddr, err)
	}
	return &bounty, nil
}

// currentSubmission fetches and locks the submission keyed by the bounty's
// latest assignment. At most one non-terminal submission exists per bounty,
// and it is always this one.
func currentSubmission(tx *gorm.DB, bounty *models.Bounty) (*models.BountySubmission, error) {
	if bounty.AssignCount == 0 {
		return nil, fmt.Errorf("%w: bounty %s has never been assigned", ErrNotFound, bounty.Addr)
	}
	var sub models.BountySubmission
	err := lockForUpdate(tx).
		Where("bounty_addr = ? AND submission_index = ?", bounty.Addr, bounty.AssignCount-1).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: submission %d of bounty %s", ErrNotFound, bounty.AssignCount-1, bounty.Addr)
		}
		return nil, fmt.Errorf("lifecycle: load submission: %w", err)
	}
	return &sub, nil
}

// contributorFor loads the caller's contributor record on a board. Unknown
// wallets resolve to nil without error; permission checks decide what that
// means per transition.
func contributorFor(tx *gorm.DB, boardAddr, wallet string) (*models.ContributorRecord, error) {
	var rec models.ContributorRecord
	err := tx.Preload("SkillsPt").
		Where("board_addr = ? AND wallet = ?", boardAddr, wallet).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lifecycle: load contributor %s: %w", wallet, err)
	}
	return &rec, nil
}

// authorize checks that the caller holds perm on the board, either through
// its role or by being the board authority. Returns the caller's contributor
// record when one exists.
func authorize(tx *gorm.DB, board *models.Board, wallet, perm string) (*models.ContributorRecord, error) {
	rec, err := contributorFor(tx, board.Addr, wallet)
	if err != nil {
		return nil, err
	}
	if wallet == board.Authority {
		return rec, nil
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: wallet %s has no contributor record on board %s", ErrPermissionDenied, wallet, board.Addr)
	}
	for _, role := range board.Roles {
		if role.RoleName == rec.RoleName {
			if role.HasPermission(perm) {
				return rec, nil
			}
			return nil, fmt.Errorf("%w: role %q lacks %s", ErrPermissionDenied, rec.RoleName, perm)
		}
	}
	return nil, fmt.Errorf("%w: role %q is not configured on board %s", ErrPermissionDenied, rec.RoleName, board.Addr)
}

// tierFor finds a tier by name in the board config.
func tierFor(board *models.Board, name string) (*models.Tier, error) {
	for i := range board.Tiers {
		if board.Tiers[i].TierName == name {
			return &board.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q on board %s", ErrTierNotConfigured, name, board.Addr)
}

// appendActivity writes the next row of the bounty's append-only audit trail
// and advances the bounty's activity ordinal in memory. The caller persists
// the bounty afterwards.
func appendActivity(tx *gorm.DB, bounty *models.Bounty, kind, actor, payload string, at time.Time) error {
	actAddr, err := addr.Derive(addr.SeedBountyActivity, bounty.Addr, addr.Ordinal(bounty.ActivityIndex))
	if err != nil {
		return fmt.Errorf("lifecycle: derive activity address: %w", err)
	}
	activity := models.BountyActivity{
		Addr:          actAddr,
		BountyAddr:    bounty.Addr,
		ActivityIndex: bounty.ActivityIndex,
		Kind:          kind,
		Actor:         actor,
		Payload:       payload,
		Timestamp:     at,
	}
	if err := tx.Create(&activity).Error; err != nil {
		return fmt.Errorf("lifecycle: append activity %d to bounty %s: %w", bounty.ActivityIndex, bounty.Addr, err)
	}
	bounty.ActivityIndex++
	return nil
}

// applyRepChange adds delta to a contributor's reputation and records it as
// the most recent change.
func applyRepChange(tx *gorm.DB, recordAddr string, delta int64) error {
	res := tx.Model(&models.ContributorRecord{}).Where("addr = ?", recordAddr).
		Updates(map[string]interface{}{
			"reputation":        gorm.Expr("reputation + ?", delta),
			"recent_rep_change": delta,
		})
	if res.Error != nil {
		return fmt.Errorf("lifecycle: apply reputation change to %s: %w", recordAddr, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: contributor record %s", ErrNotFound, recordAddr)
	}
	return nil
}

// addSkillPoints accumulates points for one skill tag on a contributor record.
func addSkillPoints(tx *gorm.DB, recordAddr, skill string, points int64) error {
	if points == 0 {
		return nil
	}
	res := tx.Model(&models.ContributorSkillPt{}).
		Where("record_addr = ? AND skill = ?", recordAddr, skill).
		Update("points", gorm.Expr("points + ?", points))
	if res.Error != nil {
		return fmt.Errorf("lifecycle: add skill points to %s: %w", recordAddr, res.Error)
	}
	if res.RowsAffected == 0 {
		sp := models.ContributorSkillPt{RecordAddr: recordAddr, Skill: skill, Points: points}
		if err := tx.Create(&sp).Error; err != nil {
			return fmt.Errorf("lifecycle: create skill points for %s: %w", recordAddr, err)
		}
	}
	return nil
}

// announce fires a herald event for a committed transition.
func (e *Engine) announce(kind string, board *models.Board, bounty *models.Bounty, actor, detail string) {
	if e.Herald == nil {
		return
	}
	ev := herald.Event{
		Kind:       kind,
		BountyAddr: bounty.Addr,
		Title:      bounty.Title,
		Actor:      actor,
		Detail:     detail,
	}
	if board != nil {
		ev.Realm = board.Realm
		ev.BoardAddr = board.Addr
	}
	e.Herald.Announce(ev)
}
