package lifecycle

import "errors"

// Typed transition errors. Every failure is detected before any record is
// mutated; the enclosing transaction never commits a partial transition.
var (
	// ErrPermissionDenied: the caller's role lacks the required permission.
	ErrPermissionDenied = errors.New("lifecycle: permission denied")

	// ErrInvalidStateForTransition: the record is not in a state the
	// requested transition leaves.
	ErrInvalidStateForTransition = errors.New("lifecycle: invalid state for transition")

	// ErrSubmissionNotStale: a time-gated transition was attempted before
	// its window elapsed, or the condition it punishes was already addressed.
	ErrSubmissionNotStale = errors.New("lifecycle: submission not stale")

	// ErrRequestChangeLimitReached: a fourth change request on one submission.
	ErrRequestChangeLimitReached = errors.New("lifecycle: request change limit reached")

	// ErrTierNotConfigured: the named tier is absent from the board config.
	ErrTierNotConfigured = errors.New("lifecycle: tier not configured")

	// ErrTiersAlreadyConfigured: set-once tier configuration attempted twice.
	ErrTiersAlreadyConfigured = errors.New("lifecycle: tiers already configured")

	// ErrInsufficientVaultFunds: the board vault cannot cover a new escrow.
	ErrInsufficientVaultFunds = errors.New("lifecycle: insufficient vault funds")

	// ErrIdentityMismatch: the caller is not the recorded assignee or
	// authority for this record.
	ErrIdentityMismatch = errors.New("lifecycle: identity mismatch")

	// ErrNotFound: no record exists at the derived address.
	ErrNotFound = errors.New("lifecycle: record not found")

	// ErrNonBlankSubmission: first submission attempted when a link already
	// exists.
	ErrNonBlankSubmission = errors.New("lifecycle: submission is not blank")

	// ErrNotAuthorizedToRejectSubmission: the caller lacks permission or
	// role linkage to reject a stale submission on this bounty.
	ErrNotAuthorizedToRejectSubmission = errors.New("lifecycle: not authorized to reject submission")

	// ErrTierRequirementNotMet: the applicant's reputation or skill points
	// fall below the tier's minimums.
	ErrTierRequirementNotMet = errors.New("lifecycle: tier requirement not met")
)
