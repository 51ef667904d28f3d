package lifecycle

import (
	"errors"
	"fmt"

	"github.com/quorumforge/bountyboard/internal/addr"
	"github.com/quorumforge/bountyboard/internal/contributor"
	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
	"gorm.io/gorm"
)

// CreateBountyOpts holds parameters for creating a bounty.
type CreateBountyOpts struct {
	Tier        string
	Title       string
	Description string
	Skill       string
}

// CreateBounty creates a bounty on a board, snapshots the tier's rewards into
// it, and funds its escrow from the board vault. The caller must hold the
// createBounty permission.
func (e *Engine) CreateBounty(caller, boardAddr string, opts CreateBountyOpts) (*models.Bounty, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("lifecycle: bounty title is required")
	}
	if !models.ValidSkill(opts.Skill) {
		return nil, fmt.Errorf("lifecycle: unknown skill %q", opts.Skill)
	}

	var (
		bounty models.Bounty
		board  *models.Board
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		board, err = loadBoard(tx, boardAddr)
		if err != nil {
			return err
		}
		rec, err := authorize(tx, board, caller, models.PermCreateBounty)
		if err != nil {
			return err
		}
		if rec == nil {
			if rec, err = contributor.GetOrCreate(tx, board, caller); err != nil {
				return err
			}
		}
		tier, err := tierFor(board, opts.Tier)
		if err != nil {
			return err
		}

		bountyAddr, err := addr.Derive(addr.SeedBounty, board.Addr, addr.Ordinal(board.BountyCount))
		if err != nil {
			return err
		}
		escrowAddr, err := addr.Derive(addr.SeedBountyEscrow, bountyAddr, addr.Key(tier.PayoutMint))
		if err != nil {
			return err
		}

		// Escrow the full payout up front so an accepted submission can
		// always be paid.
		vaultAddr, err := token.VaultAddr(board.Addr, tier.PayoutMint)
		if err != nil {
			return err
		}
		if err := token.Transfer(tx, vaultAddr, escrowAddr, tier.PayoutReward, tier.PayoutMint); err != nil {
			if errors.Is(err, token.ErrInsufficientFunds) || errors.Is(err, token.ErrAccountNotFound) {
				return fmt.Errorf("%w: vault %s cannot fund %d", ErrInsufficientVaultFunds, vaultAddr, tier.PayoutReward)
			}
			return err
		}

		now := e.clock.Now()
		bounty = models.Bounty{
			Addr:                bountyAddr,
			BoardAddr:           board.Addr,
			BountyIndex:         board.BountyCount,
			State:               models.BountyOpen,
			Title:               opts.Title,
			Description:         opts.Description,
			Skill:               opts.Skill,
			Tier:                tier.TierName,
			CreatorAddr:         rec.Addr,
			RewardPayout:        tier.PayoutReward,
			RewardMint:          tier.PayoutMint,
			RewardReputation:    tier.ReputationReward,
			RewardSkillPt:       tier.SkillsPtReward,
			MinRequiredSkillsPt: tier.MinRequiredSkillsPt,
			EscrowAddr:          escrowAddr,
		}
		if err := appendActivity(tx, &bounty, models.ActivityCreate, caller, opts.Title, now); err != nil {
			return err
		}
		if err := tx.Create(&bounty).Error; err != nil {
			return fmt.Errorf("lifecycle: create bounty at %s: %w", bountyAddr, err)
		}

		return tx.Model(&models.Board{}).Where("addr = ?", board.Addr).
			Update("bounty_count", gorm.Expr("bounty_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityCreate, board, &bounty, caller, "")
	return &bounty, nil
}

// UpdateBounty edits a bounty's title and description while it is still open.
// The caller must hold the updateBounty permission.
func (e *Engine) UpdateBounty(caller, bountyAddr, title, description string) (*models.Bounty, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		if _, err := authorize(tx, board, caller, models.PermUpdateBounty); err != nil {
			return err
		}
		if bounty.State != models.BountyOpen {
			return fmt.Errorf("%w: update requires an open bounty, state is %s", ErrInvalidStateForTransition, bounty.State)
		}

		if title != "" {
			bounty.Title = title
		}
		if description != "" {
			bounty.Description = description
		}
		if err := appendActivity(tx, bounty, models.ActivityUpdate, caller, bounty.Title, e.clock.Now()); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"title":          bounty.Title,
			"description":    bounty.Description,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityUpdate, board, bounty, caller, "")
	return bounty, nil
}

// DeleteBounty closes a bounty that has no active submission, returning its
// escrow balance to the board vault. The caller must hold the deleteBounty
// permission.
func (e *Engine) DeleteBounty(caller, bountyAddr string) error {
	var (
		bounty *models.Bounty
		board  *models.Board
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		if _, err := authorize(tx, board, caller, models.PermDeleteBounty); err != nil {
			return err
		}

		switch bounty.State {
		case models.BountyCompleted, models.BountyDeleted:
			return fmt.Errorf("%w: bounty is already %s", ErrInvalidStateForTransition, bounty.State)
		case models.BountyOpen:
			// deletable
		default:
			// Assigned-class states are deletable only once the current
			// submission has reached a terminal state.
			sub, err := currentSubmission(tx, bounty)
			if err != nil {
				return err
			}
			if !models.TerminalSubmissionState(sub.State) {
				return fmt.Errorf("%w: bounty has an active submission in state %s", ErrInvalidStateForTransition, sub.State)
			}
		}

		// Reclaim the escrowed payout to the vault.
		balance, err := token.BalanceOf(tx, bounty.EscrowAddr)
		if err != nil {
			return err
		}
		if balance > 0 {
			vaultAddr, err := token.VaultAddr(board.Addr, bounty.RewardMint)
			if err != nil {
				return err
			}
			if err := token.Transfer(tx, bounty.EscrowAddr, vaultAddr, balance, bounty.RewardMint); err != nil {
				return err
			}
		}

		now := e.clock.Now()
		if err := appendActivity(tx, bounty, models.ActivityDelete, caller, "", now); err != nil {
			return err
		}
		bounty.State = models.BountyDeleted
		bounty.DeletedAt = &now
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          models.BountyDeleted,
			"deleted_at":     now,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return err
	}
	e.announce(models.ActivityDelete, board, bounty, caller, "")
	return nil
}

// ApplyToBounty records a contributor's offer to take an open bounty,
// creating their contributor record if this is their first touch on the
// board. The applicant must meet the tier's reputation and skill-point
// minimums.
func (e *Engine) ApplyToBounty(caller, bountyAddr string, validitySeconds int64) (*models.BountyApplication, error) {
	if validitySeconds <= 0 {
		return nil, fmt.Errorf("lifecycle: application validity must be positive, got %d", validitySeconds)
	}

	var (
		app    models.BountyApplication
		bounty *models.Bounty
		board  *models.Board
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		if bounty.State != models.BountyOpen {
			return fmt.Errorf("%w: applications require an open bounty, state is %s", ErrInvalidStateForTransition, bounty.State)
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		rec, err := contributor.GetOrCreate(tx, board, caller)
		if err != nil {
			return err
		}

		if tier, err := tierFor(board, bounty.Tier); err == nil {
			if rec.Reputation < tier.MinRequiredReputation {
				return fmt.Errorf("%w: reputation %d below tier minimum %d", ErrTierRequirementNotMet, rec.Reputation, tier.MinRequiredReputation)
			}
		}
		if rec.SkillPoints(bounty.Skill) < bounty.MinRequiredSkillsPt {
			return fmt.Errorf("%w: %s skill points %d below minimum %d", ErrTierRequirementNotMet, bounty.Skill, rec.SkillPoints(bounty.Skill), bounty.MinRequiredSkillsPt)
		}

		appAddr, err := addr.Derive(addr.SeedBountyApplication, bounty.Addr, addr.Key(caller))
		if err != nil {
			return err
		}
		var existing int64
		if err := tx.Model(&models.BountyApplication{}).Where("addr = ?", appAddr).Count(&existing).Error; err != nil {
			return fmt.Errorf("lifecycle: check application %s: %w", appAddr, err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: wallet %s already applied to bounty %s", ErrInvalidStateForTransition, caller, bounty.Addr)
		}

		now := e.clock.Now()
		app = models.BountyApplication{
			Addr:            appAddr,
			BountyAddr:      bounty.Addr,
			Applicant:       caller,
			ApplicantRecord: rec.Addr,
			Validity:        validitySeconds,
			Status:          models.ApplicationNotAssigned,
			AppliedAt:       now,
		}
		if err := tx.Create(&app).Error; err != nil {
			return fmt.Errorf("lifecycle: create application %s: %w", appAddr, err)
		}
		if err := appendActivity(tx, bounty, models.ActivityApply, caller, "", now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).
			Update("activity_index", bounty.ActivityIndex).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityApply, board, bounty, caller, "")
	return &app, nil
}

// AssignBounty assigns an open bounty to an applicant, consuming the
// application and opening a blank submission keyed by the new assign count.
// The caller must hold the assignBounty permission.
func (e *Engine) AssignBounty(caller, bountyAddr, applicationAddr string) (*models.Bounty, *models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    models.BountySubmission
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		if _, err := authorize(tx, board, caller, models.PermAssignBounty); err != nil {
			return err
		}
		if bounty.State != models.BountyOpen {
			return fmt.Errorf("%w: assignment requires an open bounty, state is %s", ErrInvalidStateForTransition, bounty.State)
		}

		var app models.BountyApplication
		if err := lockForUpdate(tx).Where("addr = ?", applicationAddr).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: application %s", ErrNotFound, applicationAddr)
			}
			return fmt.Errorf("lifecycle: load application %s: %w", applicationAddr, err)
		}
		if app.BountyAddr != bounty.Addr {
			return fmt.Errorf("%w: application %s belongs to bounty %s", ErrIdentityMismatch, app.Addr, app.BountyAddr)
		}
		if app.Status != models.ApplicationNotAssigned {
			return fmt.Errorf("%w: application is %s", ErrInvalidStateForTransition, app.Status)
		}

		subAddr, err := addr.Derive(addr.SeedBountySubmission, bounty.Addr, addr.Ordinal(bounty.AssignCount))
		if err != nil {
			return err
		}
		now := e.clock.Now()
		sub = models.BountySubmission{
			Addr:            subAddr,
			BountyAddr:      bounty.Addr,
			SubmissionIndex: bounty.AssignCount,
			Assignee:        app.Applicant,
			AssigneeRecord:  app.ApplicantRecord,
			State:           models.SubmissionPendingSubmission,
			AssignedAt:      now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("lifecycle: create submission %s: %w", subAddr, err)
		}
		if err := tx.Model(&models.BountyApplication{}).Where("addr = ?", app.Addr).
			Update("status", models.ApplicationAssigned).Error; err != nil {
			return fmt.Errorf("lifecycle: consume application %s: %w", app.Addr, err)
		}

		bounty.AssignCount++
		bounty.State = models.BountyAssigned
		if err := appendActivity(tx, bounty, models.ActivityAssign, caller, app.Applicant, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"assign_count":   bounty.AssignCount,
			"state":          bounty.State,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	e.announce(models.ActivityAssign, board, bounty, caller, sub.Assignee)
	return bounty, &sub, nil
}

// UnassignOverdue reopens a bounty whose assignee never submitted within the
// tier's task submission window, at a reputation penalty to the assignee.
// Any caller may trigger it once the window has elapsed; a second attempt
// observes the changed state and fails cleanly.
func (e *Engine) UnassignOverdue(caller, bountyAddr string) (*models.Bounty, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		if bounty.State != models.BountyAssigned {
			return fmt.Errorf("%w: unassign requires an assigned bounty, state is %s", ErrInvalidStateForTransition, bounty.State)
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		sub, err := currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if sub.State != models.SubmissionPendingSubmission {
			return fmt.Errorf("%w: submission is %s", ErrInvalidStateForTransition, sub.State)
		}
		tier, err := tierFor(board, bounty.Tier)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if !windowElapsed(now, sub.AssignedAt, tier.TaskSubmissionWindow) {
			return fmt.Errorf("%w: task submission window ends at %s", ErrSubmissionNotStale, sub.AssignedAt.Add(windowDuration(tier.TaskSubmissionWindow)))
		}

		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"state":         models.SubmissionUnassignedForOverdue,
			"unassigned_at": now,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: unassign submission %s: %w", sub.Addr, err)
		}
		if err := applyRepChange(tx, sub.AssigneeRecord, -bounty.RewardReputation); err != nil {
			return err
		}

		bounty.State = models.BountyOpen
		bounty.UnassignCount++
		if err := appendActivity(tx, bounty, models.ActivityUnassignOverdue, caller, sub.Assignee, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          bounty.State,
			"unassign_count": bounty.UnassignCount,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityUnassignOverdue, board, bounty, caller, "")
	return bounty, nil
}
