package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quorumforge/bountyboard/internal/models"
	"github.com/quorumforge/bountyboard/internal/token"
	"gorm.io/gorm"
)

// Submit records the assignee's first work product on a blank submission and
// puts it up for review.
func (e *Engine) Submit(caller, bountyAddr, link string) (*models.BountySubmission, error) {
	if link == "" {
		return nil, fmt.Errorf("lifecycle: submission link is required")
	}
	if e.Links != nil {
		if err := e.Links.Inspect(context.Background(), link); err != nil {
			return nil, err
		}
	}

	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
	)
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var err error
		bounty, err = loadBounty(tx, bountyAddr)
		if err != nil {
			return err
		}
		if bounty.State != models.BountyAssigned {
			return fmt.Errorf("%w: submit requires an assigned bounty, state is %s", ErrInvalidStateForTransition, bounty.State)
		}
		board, err = loadBoard(tx, bounty.BoardAddr)
		if err != nil {
			return err
		}
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if caller != sub.Assignee {
			return fmt.Errorf("%w: caller %s is not the assignee %s", ErrIdentityMismatch, caller, sub.Assignee)
		}
		if sub.State != models.SubmissionPendingSubmission {
			return fmt.Errorf("%w: submission is %s", ErrInvalidStateForTransition, sub.State)
		}
		if sub.LinkToSubmission != "" {
			return fmt.Errorf("%w: link already recorded", ErrNonBlankSubmission)
		}

		now := e.clock.Now()
		sub.LinkToSubmission = link
		sub.FirstSubmittedAt = &now
		sub.State = models.SubmissionPendingReview
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"link_to_submission": link,
			"first_submitted_at": now,
			"state":              models.SubmissionPendingReview,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: submit to %s: %w", sub.Addr, err)
		}

		bounty.State = models.BountySubmissionUnderReview
		if err := appendActivity(tx, bounty, models.ActivitySubmit, caller, link, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          bounty.State,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivitySubmit, board, bounty, caller, link)
	return sub, nil
}

// UpdateSubmission lets the assignee address a change request with a revised
// link, returning the submission to review.
func (e *Engine) UpdateSubmission(caller, bountyAddr, link string) (*models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
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
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if caller != sub.Assignee {
			return fmt.Errorf("%w: caller %s is not the assignee %s", ErrIdentityMismatch, caller, sub.Assignee)
		}
		if sub.State != models.SubmissionChangeRequested {
			return fmt.Errorf("%w: update requires a change-requested submission, state is %s", ErrInvalidStateForTransition, sub.State)
		}

		now := e.clock.Now()
		if link != "" {
			sub.LinkToSubmission = link
		}
		sub.UpdatedAt = &now
		sub.State = models.SubmissionPendingReview
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"link_to_submission": sub.LinkToSubmission,
			"updated_at":         now,
			"state":              models.SubmissionPendingReview,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: update submission %s: %w", sub.Addr, err)
		}

		bounty.State = models.BountySubmissionUnderReview
		if err := appendActivity(tx, bounty, models.ActivityUpdateSub, caller, sub.LinkToSubmission, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          bounty.State,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityUpdateSub, board, bounty, caller, sub.LinkToSubmission)
	return sub, nil
}

// RequestChanges sends a submission under review back to the assignee, at
// most three times over a submission's lifetime.
func (e *Engine) RequestChanges(caller, bountyAddr, comment string) (*models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
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
		if _, err := authorize(tx, board, caller, models.PermRequestChangeToSubmission); err != nil {
			return err
		}
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if sub.State != models.SubmissionPendingReview {
			return fmt.Errorf("%w: request-changes requires a submission pending review, state is %s", ErrInvalidStateForTransition, sub.State)
		}
		if sub.RequestChangeCount >= models.MaxRequestChangeCount {
			return fmt.Errorf("%w: already requested %d times", ErrRequestChangeLimitReached, sub.RequestChangeCount)
		}

		now := e.clock.Now()
		sub.RequestChangeCount++
		sub.ChangeRequestedAt = &now
		sub.State = models.SubmissionChangeRequested
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"request_change_count": sub.RequestChangeCount,
			"change_requested_at":  now,
			"state":                models.SubmissionChangeRequested,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: request changes on %s: %w", sub.Addr, err)
		}

		if err := appendActivity(tx, bounty, models.ActivityRequestChange, caller, comment, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).
			Update("activity_index", bounty.ActivityIndex).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityRequestChange, board, bounty, caller, comment)
	return sub, nil
}

// Reject turns down a submission under review. The assignee takes the full
// reputation and skill-point penalty and the bounty reopens for new
// applications; the escrow stays funded for the next assignee.
func (e *Engine) Reject(caller, bountyAddr, comment string) (*models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
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
		if _, err := authorize(tx, board, caller, models.PermRejectSubmission); err != nil {
			return err
		}
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if sub.State != models.SubmissionPendingReview {
			return fmt.Errorf("%w: reject requires a submission pending review, state is %s", ErrInvalidStateForTransition, sub.State)
		}

		now := e.clock.Now()
		sub.State = models.SubmissionRejected
		sub.RejectedAt = &now
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"state":       models.SubmissionRejected,
			"rejected_at": now,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: reject %s: %w", sub.Addr, err)
		}
		if err := applyRepChange(tx, sub.AssigneeRecord, -bounty.RewardReputation); err != nil {
			return err
		}
		if err := addSkillPoints(tx, sub.AssigneeRecord, bounty.Skill, -bounty.RewardSkillPt); err != nil {
			return err
		}

		bounty.State = models.BountyOpen
		if err := appendActivity(tx, bounty, models.ActivityReject, caller, comment, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          bounty.State,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	e.announce(models.ActivityReject, board, bounty, caller, comment)
	return sub, nil
}

// Accept approves a submission under review: the escrow pays the assignee
// the snapshotted reward, their ledger is credited, and the bounty completes.
func (e *Engine) Accept(caller, bountyAddr string) (*models.BountySubmission, error) {
	return e.accept(caller, bountyAddr, false)
}

// ForceAccept is the escape hatch for a review that never happened: once the
// tier's review window has elapsed with the submission still pending, the
// board authority can settle it with the same effects as Accept, under a
// distinct terminal tag for audit.
func (e *Engine) ForceAccept(caller, bountyAddr string) (*models.BountySubmission, error) {
	return e.accept(caller, bountyAddr, true)
}

func (e *Engine) accept(caller, bountyAddr string, forced bool) (*models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
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
		if _, err := authorize(tx, board, caller, models.PermAcceptSubmission); err != nil {
			return err
		}
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		if sub.State != models.SubmissionPendingReview {
			return fmt.Errorf("%w: accept requires a submission pending review, state is %s", ErrInvalidStateForTransition, sub.State)
		}

		now := e.clock.Now()
		state := models.SubmissionAccepted
		kind := models.ActivityAccept
		if forced {
			tier, err := tierFor(board, bounty.Tier)
			if err != nil {
				return err
			}
			if !windowElapsed(now, reviewStart(sub), tier.SubmissionReviewWindow) {
				return fmt.Errorf("%w: review window ends at %s", ErrSubmissionNotStale, reviewStart(sub).Add(windowDuration(tier.SubmissionReviewWindow)))
			}
			state = models.SubmissionForceAccepted
			kind = models.ActivityForceAccept
		}

		// Pay the assignee the full escrowed reward.
		assigneeAccount, err := token.AccountAddr(sub.Assignee, bounty.RewardMint)
		if err != nil {
			return err
		}
		if err := token.Transfer(tx, bounty.EscrowAddr, assigneeAccount, bounty.RewardPayout, bounty.RewardMint); err != nil {
			return err
		}

		sub.State = state
		sub.AcceptedAt = &now
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"state":       state,
			"accepted_at": now,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: accept %s: %w", sub.Addr, err)
		}
		if err := applyRepChange(tx, sub.AssigneeRecord, bounty.RewardReputation); err != nil {
			return err
		}
		if err := addSkillPoints(tx, sub.AssigneeRecord, bounty.Skill, bounty.RewardSkillPt); err != nil {
			return err
		}
		if err := tx.Model(&models.ContributorRecord{}).Where("addr = ?", sub.AssigneeRecord).
			Update("bounty_completed", gorm.Expr("bounty_completed + 1")).Error; err != nil {
			return fmt.Errorf("lifecycle: count completion on %s: %w", sub.AssigneeRecord, err)
		}

		bounty.State = models.BountyCompleted
		bounty.CompletedAt = &now
		if err := appendActivity(tx, bounty, kind, caller, sub.LinkToSubmission, now); err != nil {
			return err
		}
		return tx.Model(&models.Bounty{}).Where("addr = ?", bounty.Addr).Updates(map[string]interface{}{
			"state":          bounty.State,
			"completed_at":   now,
			"activity_index": bounty.ActivityIndex,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	kind := models.ActivityAccept
	if forced {
		kind = models.ActivityForceAccept
	}
	e.announce(kind, board, bounty, caller, sub.Assignee)
	return sub, nil
}

// RejectStale settles a change request the assignee never addressed within
// the tier's window: the submission terminates under a distinct tag, the
// assignee takes the reputation penalty, and the bounty reopens.
func (e *Engine) RejectStale(caller, bountyAddr string) (*models.BountySubmission, error) {
	var (
		bounty *models.Bounty
		board  *models.Board
		sub    *models.BountySubmission
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
		if _, err := authorize(tx, board, caller, models.PermRejectSubmission); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				return fmt.Errorf("%w: wallet %s", ErrNotAuthorizedToRejectSubmission, caller)
			}
			return err
		}
		sub, err = currentSubmission(tx, bounty)
		if err != nil {
			return err
		}
		switch sub.State {
		case models.SubmissionChangeRequested:
			// the state this transition punishes
		case models.SubmissionPendingReview:
			// The assignee already addressed the change request.
			return fmt.Errorf("%w: change request was addressed", ErrSubmissionNotStale)
		default:
			return fmt.Errorf("%w: submission is %s", ErrInvalidStateForTransition, sub.State)
		}
		tier, err := tierFor(board, bounty.Tier)
		if err != nil {
			return err
		}
		now := e.clock.Now()
		if sub.ChangeRequestedAt == nil || !windowElapsed(now, *sub.ChangeRequestedAt, tier.AddressChangeReqWindow) {
			return fmt.Errorf("%w: address-change window has not elapsed", ErrSubmissionNotStale)
		}

		sub.State = models.SubmissionRejectedForUnaddressed
		sub.RejectedAt = &now
		if err := tx.Model(&models.BountySubmission{}).Where("addr = ?", sub.Addr).Updates(map[string]interface{}{
			"state":       models.SubmissionRejectedForUnaddressed,
			"rejected_at": now,
		}).Error; err != nil {
			return fmt.Errorf("lifecycle: reject stale %s: %w", sub.Addr, err)
		}
		if err := applyRepChange(tx, sub.AssigneeRecord, -bounty.RewardReputation); err != nil {
			return err
		}

		bounty.State = models.BountyOpen
		bounty.UnassignCount++
		if err := appendActivity(tx, bounty, models.ActivityRejectStale, caller, sub.Assignee, now); err != nil {
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
	e.announce(models.ActivityRejectStale, board, bounty, caller, "")
	return sub, nil
}

// reviewStart returns the timestamp the review window runs from: the latest
// of first submission and last update.
func reviewStart(sub *models.BountySubmission) time.Time {
	if sub.UpdatedAt != nil {
		return *sub.UpdatedAt
	}
	if sub.FirstSubmittedAt != nil {
		return *sub.FirstSubmittedAt
	}
	return sub.AssignedAt
}
