package models

import "time"

// Bounty lifecycle states.
const (
	BountyOpen                  = "open"
	BountyAssigned              = "assigned"
	BountySubmissionUnderReview = "submissionUnderReview"
	BountyCompleted             = "completed"
	BountyDeleted               = "deleted"
)

// Skill tags a bounty with the contributor track it rewards.
const (
	SkillDevelopment = "development"
	SkillDesign      = "design"
	SkillMarketing   = "marketing"
)

// AllSkills lists every valid skill tag.
var AllSkills = []string{SkillDevelopment, SkillDesign, SkillMarketing}

// ValidSkill reports whether s is a known skill tag.
func ValidSkill(s string) bool {
	for _, v := range AllSkills {
		if v == s {
			return true
		}
	}
	return false
}

// Bounty is one unit of rewarded work on a board. Reward fields are a
// snapshot of the tier taken at creation time. AssignCount keys submissions
// so a stale submission from a previous assignee can never be confused with
// the current one.
type Bounty struct {
	Addr        string `gorm:"primaryKey;size:64"`
	BoardAddr   string `gorm:"size:64;index;not null"`
	BountyIndex int64  `gorm:"index"`
	State       string `gorm:"size:32;default:open;index"`

	Title       string `gorm:"not null"`
	Description string `gorm:"type:text"`
	Skill       string `gorm:"size:16"`
	Tier        string `gorm:"size:24"`
	CreatorAddr string `gorm:"size:64"` // contributor record of the creator

	// Reward snapshot.
	RewardPayout        int64
	RewardMint          string `gorm:"size:64"`
	RewardReputation    int64
	RewardSkillPt       int64
	MinRequiredSkillsPt int64

	EscrowAddr string `gorm:"size:64"`

	AssignCount   int64 `gorm:"default:0"`
	UnassignCount int64 `gorm:"default:0"`
	ActivityIndex int64 `gorm:"default:0"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	DeletedAt   *time.Time
}

// BountyActivity is one immutable row of a bounty's append-only audit trail,
// uniquely addressed by (bounty, activity index).
type BountyActivity struct {
	Addr          string `gorm:"primaryKey;size:64"`
	BountyAddr    string `gorm:"size:64;index:idx_bounty_activity,unique"`
	ActivityIndex int64  `gorm:"index:idx_bounty_activity,unique"`
	Kind          string `gorm:"size:32"`
	Actor         string `gorm:"size:64"`
	Payload       string `gorm:"type:text"`
	Timestamp     time.Time
}

// Activity kinds.
const (
	ActivityCreate          = "create"
	ActivityUpdate          = "update"
	ActivityApply           = "apply"
	ActivityAssign          = "assign"
	ActivitySubmit          = "submit"
	ActivityUpdateSub       = "updateSubmission"
	ActivityRequestChange   = "requestChange"
	ActivityAccept          = "accept"
	ActivityForceAccept     = "forceAccept"
	ActivityReject          = "reject"
	ActivityRejectStale     = "rejectForUnaddressedChangeRequest"
	ActivityUnassignOverdue = "unassignOverdue"
	ActivityDelete          = "delete"
)
