// Package sweep polls for lifecycle records whose time windows have elapsed
// and triggers the corresponding transitions. The engine owns all window and
// state checks; the sweeper is just one caller that happens to run on a
// schedule, with no more privilege than its configured wallet grants.
package sweep

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"github.com/quorumforge/bountyboard/internal/models"
)

// Result summarizes one sweep pass.
type Result struct {
	UnassignedOverdue []string // bounty addresses reopened for missed submission
	RejectedStale     []string // bounty addresses reopened for unaddressed changes
	Skipped           int      // candidates whose window has not elapsed yet
	Failed            int      // candidates that errored for another reason
}

// Run makes one pass over every candidate record, invoking the transition as
// caller. A candidate whose window has not elapsed is skipped; a concurrent
// sweep losing the race observes the changed state and is skipped the same
// way.
func Run(e *lifecycle.Engine, caller string) (*Result, error) {
	res := &Result{}

	var pending []models.BountySubmission
	err := e.DB().
		Where("state IN ?", []string{models.SubmissionPendingSubmission, models.SubmissionChangeRequested}).
		Find(&pending).Error
	if err != nil {
		return nil, fmt.Errorf("sweep: list candidates: %w", err)
	}

	for _, sub := range pending {
		switch sub.State {
		case models.SubmissionPendingSubmission:
			if _, err := e.UnassignOverdue(caller, sub.BountyAddr); err != nil {
				res.note(err, sub.BountyAddr, "unassign-overdue")
				continue
			}
			res.UnassignedOverdue = append(res.UnassignedOverdue, sub.BountyAddr)
		case models.SubmissionChangeRequested:
			if _, err := e.RejectStale(caller, sub.BountyAddr); err != nil {
				res.note(err, sub.BountyAddr, "reject-stale")
				continue
			}
			res.RejectedStale = append(res.RejectedStale, sub.BountyAddr)
		}
	}
	return res, nil
}

func (r *Result) note(err error, bountyAddr, op string) {
	if errors.Is(err, lifecycle.ErrSubmissionNotStale) ||
		errors.Is(err, lifecycle.ErrInvalidStateForTransition) {
		r.Skipped++
		return
	}
	r.Failed++
	log.Printf("sweep: %s on bounty %s: %v", op, bountyAddr, err)
}

// Report writes a one-line summary of a pass.
func Report(out io.Writer, res *Result) {
	fmt.Fprintf(out, "sweep: %d unassigned, %d rejected stale, %d not yet due, %d failed\n",
		len(res.UnassignedOverdue), len(res.RejectedStale), res.Skipped, res.Failed)
}
