package models

import "time"

// Submission lifecycle states.
const (
	SubmissionPendingSubmission     = "pendingSubmission"
	SubmissionUnassignedForOverdue  = "unassignedForOverdue"
	SubmissionPendingReview         = "pendingReview"
	SubmissionChangeRequested       = "changeRequested"
	SubmissionRejected              = "rejected"
	SubmissionRejectedForUnaddressed = "rejectedForUnaddressedChangeRequest"
	SubmissionAccepted              = "accepted"
	SubmissionForceAccepted         = "forceAccepted"
)

// MaxRequestChangeCount caps how many times a reviewer can send a submission
// back for changes.
const MaxRequestChangeCount = 3

// BountySubmission is the work-product record for one assignment of a bounty,
// keyed by the bounty's assign count at assignment time. At most one
// non-terminal submission exists per bounty: the one matching the bounty's
// current AssignCount.
type BountySubmission struct {
	Addr            string `gorm:"primaryKey;size:64"`
	BountyAddr      string `gorm:"size:64;index:idx_bounty_submission,unique"`
	SubmissionIndex int64  `gorm:"index:idx_bounty_submission,unique"` // bounty AssignCount at assignment
	Assignee        string `gorm:"size:64"`                            // wallet
	AssigneeRecord  string `gorm:"size:64"`                            // contributor record addr
	State           string `gorm:"size:48;default:pendingSubmission;index"`

	LinkToSubmission string `gorm:"size:512"`

	RequestChangeCount int64 `gorm:"default:0"`

	AssignedAt        time.Time
	FirstSubmittedAt  *time.Time
	ChangeRequestedAt *time.Time
	// UpdatedAt moves only when the assignee revises the submission, never on
	// other column writes. The review window runs from it.
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"`
	UnassignedAt *time.Time
	RejectedAt        *time.Time
	AcceptedAt        *time.Time
}

// TerminalSubmissionState reports whether state is one no transition leaves.
func TerminalSubmissionState(state string) bool {
	switch state {
	case SubmissionUnassignedForOverdue,
		SubmissionRejected,
		SubmissionRejectedForUnaddressed,
		SubmissionAccepted,
		SubmissionForceAccepted:
		return true
	}
	return false
}

// Application statuses.
const (
	ApplicationNotAssigned = "notAssigned"
	ApplicationAssigned    = "assigned"
	ApplicationWithdrawn   = "withdrawn"
)

// BountyApplication is a contributor's offer to take a bounty, consumed when
// the bounty is assigned or the application withdrawn.
type BountyApplication struct {
	Addr            string `gorm:"primaryKey;size:64"`
	BountyAddr      string `gorm:"size:64;index:idx_bounty_applicant,unique"`
	Applicant       string `gorm:"size:64;index:idx_bounty_applicant,unique"` // wallet
	ApplicantRecord string `gorm:"size:64"`
	Validity        int64  // requested duration in seconds
	Status          string `gorm:"size:16;default:notAssigned"`
	AppliedAt       time.Time
}
