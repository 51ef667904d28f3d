// Package contributor manages per-(board, wallet) reputation records.
// Records are created lazily the first time a wallet touches a board and are
// mutated only by the lifecycle engine, once per terminal transition.
package contributor

import (
	"errors"
	"fmt"

	"github.com/quorumforge/bountyboard/internal/addr"
	"github.com/quorumforge/bountyboard/internal/models"
	"gorm.io/gorm"
)

// RecordAddr derives the contributor record address for a wallet on a board.
func RecordAddr(boardAddr, wallet string) (string, error) {
	return addr.Derive(addr.SeedContributorRecord, boardAddr, addr.Key(wallet))
}

// DefaultRole returns the name of the board's default role.
func DefaultRole(board *models.Board) (string, error) {
	for _, r := range board.Roles {
		if r.Default {
			return r.RoleName, nil
		}
	}
	return "", fmt.Errorf("contributor: board %s has no default role", board.Addr)
}

// GetOrCreate loads the contributor record for wallet on board, creating it
// with the board's default role and zeroed counters if absent.
func GetOrCreate(tx *gorm.DB, board *models.Board, wallet string) (*models.ContributorRecord, error) {
	recAddr, err := RecordAddr(board.Addr, wallet)
	if err != nil {
		return nil, err
	}

	var rec models.ContributorRecord
	err = tx.Preload("SkillsPt").Where("addr = ?", recAddr).First(&rec).Error
	if err == nil {
		return &rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contributor: load record %s: %w", recAddr, err)
	}

	role, err := DefaultRole(board)
	if err != nil {
		return nil, err
	}
	rec = models.ContributorRecord{
		Addr:      recAddr,
		BoardAddr: board.Addr,
		Wallet:    wallet,
		Realm:     board.Realm,
		RoleName:  role,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("contributor: create record for %s: %w", wallet, err)
	}
	return &rec, nil
}

// Get loads the contributor record for wallet on board, or nil when none
// exists.
func Get(tx *gorm.DB, boardAddr, wallet string) (*models.ContributorRecord, error) {
	var rec models.ContributorRecord
	err := tx.Preload("SkillsPt").
		Where("board_addr = ? AND wallet = ?", boardAddr, wallet).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("contributor: load record for %s: %w", wallet, err)
	}
	return &rec, nil
}

// SetRole assigns a configured role to a wallet's record, creating the record
// if needed. Only the governance executor calls this.
func SetRole(tx *gorm.DB, board *models.Board, wallet, roleName string) (*models.ContributorRecord, error) {
	found := false
	for _, r := range board.Roles {
		if r.RoleName == roleName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("contributor: role %q is not configured on board %s", roleName, board.Addr)
	}

	rec, err := GetOrCreate(tx, board, wallet)
	if err != nil {
		return nil, err
	}
	if rec.RoleName != roleName {
		if err := tx.Model(&models.ContributorRecord{}).Where("addr = ?", rec.Addr).
			Update("role_name", roleName).Error; err != nil {
			return nil, fmt.Errorf("contributor: set role on %s: %w", rec.Addr, err)
		}
		rec.RoleName = roleName
	}
	return rec, nil
}
