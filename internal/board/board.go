// Package board manages bounty board creation and its versioned tier/role
// configuration. Config is replaced wholesale, never patched, and only
// through an approved governance action.
package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quorumforge/bountyboard/internal/addr"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
	"gorm.io/gorm"
)

// TierSpec describes one reward tier in a config proposal.
type TierSpec struct {
	TierName        string `yaml:"tier_name"`
	DifficultyLevel string `yaml:"difficulty_level"`

	MinRequiredReputation int64 `yaml:"min_required_reputation"`
	MinRequiredSkillsPt   int64 `yaml:"min_required_skills_pt"`

	ReputationReward int64  `yaml:"reputation_reward"`
	SkillsPtReward   int64  `yaml:"skills_pt_reward"`
	PayoutReward     int64  `yaml:"payout_reward"`
	PayoutMint       string `yaml:"payout_mint"`

	TaskSubmissionWindow   int64 `yaml:"task_submission_window"`
	SubmissionReviewWindow int64 `yaml:"submission_review_window"`
	AddressChangeReqWindow int64 `yaml:"address_change_req_window"`
}

// RoleSpec describes one role in a config proposal.
type RoleSpec struct {
	RoleName    string   `yaml:"role_name"`
	Default     bool     `yaml:"default"`
	Permissions []string `yaml:"permissions"`
}

// Addr derives the board address for a realm.
func Addr(realm string) (string, error) {
	return addr.Derive(addr.SeedBoard, realm)
}

// Get loads a board with its config.
func Get(db *gorm.DB, boardAddr string) (*models.Board, error) {
	var b models.Board
	err := db.Preload("Tiers").Preload("Roles").Where("addr = ?", boardAddr).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: board %s", lifecycle.ErrNotFound, boardAddr)
		}
		return nil, fmt.Errorf("board: load %s: %w", boardAddr, err)
	}
	return &b, nil
}

// Init creates the board for a realm with its initial role set. Tiers may be
// empty at creation; the original flow configures them through a follow-up
// governance proposal (see SetTiers).
func Init(db *gorm.DB, clock lifecycle.Clock, realm, authority string, tiers []TierSpec, roles []RoleSpec) (*models.Board, error) {
	if realm == "" {
		return nil, fmt.Errorf("board: realm is required")
	}
	if authority == "" {
		return nil, fmt.Errorf("board: authority is required")
	}
	if err := validateRoles(roles); err != nil {
		return nil, err
	}
	if len(tiers) > 0 {
		if err := validateTiers(tiers); err != nil {
			return nil, err
		}
	}

	boardAddr, err := Addr(realm)
	if err != nil {
		return nil, err
	}

	var b models.Board
	err = db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Board{}).Where("addr = ?", boardAddr).Count(&count).Error; err != nil {
			return fmt.Errorf("board: check %s: %w", boardAddr, err)
		}
		if count > 0 {
			return fmt.Errorf("board: a board for realm %q already exists", realm)
		}

		now := clock.Now()
		b = models.Board{
			Addr:        boardAddr,
			Realm:       realm,
			Authority:   authority,
			LastRevised: &now,
		}
		if len(tiers) > 0 {
			vault, err := token.VaultAddr(boardAddr, tiers[0].PayoutMint)
			if err != nil {
				return err
			}
			b.VaultAddr = vault
		}
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("board: create %s: %w", boardAddr, err)
		}
		if err := insertConfig(tx, boardAddr, tiers, roles); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, boardAddr)
}

// SetTiers installs the initial tier set on a board that has none. A board
// whose tiers are already configured rejects this; later revisions go
// through Replace under a fresh governance approval.
func SetTiers(db *gorm.DB, clock lifecycle.Clock, boardAddr string, tiers []TierSpec) (*models.Board, error) {
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		b, err := Get(tx, boardAddr)
		if err != nil {
			return err
		}
		if len(b.Tiers) > 0 {
			return fmt.Errorf("%w: board %s has %d tiers", lifecycle.ErrTiersAlreadyConfigured, boardAddr, len(b.Tiers))
		}

		for _, t := range tiers {
			row := tierRow(boardAddr, t)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("board: add tier %q: %w", t.TierName, err)
			}
		}
		vault, err := token.VaultAddr(boardAddr, tiers[0].PayoutMint)
		if err != nil {
			return err
		}
		now := clock.Now()
		return tx.Model(&models.Board{}).Where("addr = ?", boardAddr).Updates(map[string]interface{}{
			"vault_addr":   vault,
			"last_revised": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return Get(db, boardAddr)
}

// Replace swaps the board's entire config for a new tier and role set and
// stamps LastRevised. There is no partial update path; live bounties keep
// their creation-time reward snapshots.
func Replace(db *gorm.DB, clock lifecycle.Clock, boardAddr string, tiers []TierSpec, roles []RoleSpec) (*models.Board, error) {
	if err := validateTiers(tiers); err != nil {
		return nil, err
	}
	if err := validateRoles(roles); err != nil {
		return nil, err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := Get(tx, boardAddr); err != nil {
			return err
		}
		if err := tx.Where("board_addr = ?", boardAddr).Delete(&models.Tier{}).Error; err != nil {
			return fmt.Errorf("board: clear tiers on %s: %w", boardAddr, err)
		}
		if err := tx.Where("board_addr = ?", boardAddr).Delete(&models.Role{}).Error; err != nil {
			return fmt.Errorf("board: clear roles on %s: %w", boardAddr, err)
		}
		if err := insertConfig(tx, boardAddr, tiers, roles); err != nil {
			return err
		}
		vault, err := token.VaultAddr(boardAddr, tiers[0].PayoutMint)
		if err != nil {
			return err
		}
		now := clock.Now()
		return tx.Model(&models.Board{}).Where("addr = ?", boardAddr).Updates(map[string]interface{}{
			"vault_addr":   vault,
			"last_revised": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return Get(db, boardAddr)
}

func insertConfig(tx *gorm.DB, boardAddr string, tiers []TierSpec, roles []RoleSpec) error {
	for _, t := range tiers {
		row := tierRow(boardAddr, t)
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("board: add tier %q: %w", t.TierName, err)
		}
	}
	for _, r := range roles {
		row := models.Role{
			BoardAddr:   boardAddr,
			RoleName:    r.RoleName,
			Default:     r.Default,
			Permissions: models.JoinPermissions(r.Permissions),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("board: add role %q: %w", r.RoleName, err)
		}
	}
	return nil
}

func tierRow(boardAddr string, t TierSpec) models.Tier {
	return models.Tier{
		BoardAddr:              boardAddr,
		TierName:               t.TierName,
		DifficultyLevel:        t.DifficultyLevel,
		MinRequiredReputation:  t.MinRequiredReputation,
		MinRequiredSkillsPt:    t.MinRequiredSkillsPt,
		ReputationReward:       t.ReputationReward,
		SkillsPtReward:         t.SkillsPtReward,
		PayoutReward:           t.PayoutReward,
		PayoutMint:             t.PayoutMint,
		TaskSubmissionWindow:   t.TaskSubmissionWindow,
		SubmissionReviewWindow: t.SubmissionReviewWindow,
		AddressChangeReqWindow: t.AddressChangeReqWindow,
	}
}

// validateTiers rejects duplicate names, non-positive payouts or windows,
// and missing mints before any row is written.
func validateTiers(tiers []TierSpec) error {
	if len(tiers) == 0 {
		return fmt.Errorf("board: at least one tier is required")
	}
	var errs []string
	seen := map[string]bool{}
	for i, t := range tiers {
		if t.TierName == "" {
			errs = append(errs, fmt.Sprintf("tiers[%d]: name is required", i))
			continue
		}
		if seen[t.TierName] {
			errs = append(errs, fmt.Sprintf("tiers[%d]: duplicate name %q", i, t.TierName))
		}
		seen[t.TierName] = true
		if t.PayoutReward <= 0 {
			errs = append(errs, fmt.Sprintf("tiers[%d] %q: payout must be positive", i, t.TierName))
		}
		if t.PayoutMint == "" {
			errs = append(errs, fmt.Sprintf("tiers[%d] %q: payout mint is required", i, t.TierName))
		}
		if t.TaskSubmissionWindow <= 0 || t.SubmissionReviewWindow <= 0 || t.AddressChangeReqWindow <= 0 {
			errs = append(errs, fmt.Sprintf("tiers[%d] %q: windows must be positive", i, t.TierName))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("board: invalid tiers: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateRoles rejects duplicate names, permissions outside the fixed
// enumeration, and any default-role count other than one.
func validateRoles(roles []RoleSpec) error {
	if len(roles) == 0 {
		return fmt.Errorf("board: at least one role is required")
	}
	var errs []string
	seen := map[string]bool{}
	defaults := 0
	for i, r := range roles {
		if r.RoleName == "" {
			errs = append(errs, fmt.Sprintf("roles[%d]: name is required", i))
			continue
		}
		if seen[r.RoleName] {
			errs = append(errs, fmt.Sprintf("roles[%d]: duplicate name %q", i, r.RoleName))
		}
		seen[r.RoleName] = true
		if r.Default {
			defaults++
		}
		for _, p := range r.Permissions {
			if !models.ValidPermission(p) {
				errs = append(errs, fmt.Sprintf("roles[%d] %q: unknown permission %q", i, r.RoleName, p))
			}
		}
	}
	if defaults != 1 {
		errs = append(errs, fmt.Sprintf("exactly one default role is required, got %d", defaults))
	}
	if len(errs) > 0 {
		return fmt.Errorf("board: invalid roles: %s", strings.Join(errs, "; "))
	}
	return nil
}
