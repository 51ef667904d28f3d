package models

import (
	"strings"
	"time"
)

// Board is the bounty program instance for one DAO realm.
type Board struct {
	Addr        string `gorm:"primaryKey;size:64"`
	Realm       string `gorm:"size:64;uniqueIndex;not null"`
	Authority   string `gorm:"size:64;not null"`
	VaultAddr   string `gorm:"size:64;not null"`
	BountyCount int64  `gorm:"default:0"`
	LastRevised *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Tiers []Tier `gorm:"foreignKey:BoardAddr"`
	Roles []Role `gorm:"foreignKey:BoardAddr"`
}

// Tier is a named reward and difficulty bracket. Reward fields are snapshotted
// into each bounty at creation, so editing a tier never changes live bounties.
type Tier struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	BoardAddr       string `gorm:"size:64;index:idx_board_tier,unique"`
	TierName        string `gorm:"size:24;index:idx_board_tier,unique"`
	DifficultyLevel string `gorm:"size:64"`

	MinRequiredReputation int64
	MinRequiredSkillsPt   int64

	ReputationReward int64
	SkillsPtReward   int64
	PayoutReward     int64
	PayoutMint       string `gorm:"size:64"`

	// Time windows in seconds.
	TaskSubmissionWindow   int64
	SubmissionReviewWindow int64
	AddressChangeReqWindow int64
}

// Role names a permission set. Exactly one role per board is flagged default;
// contributors without an explicit role assignment fall into it.
type Role struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	BoardAddr   string `gorm:"size:64;index:idx_board_role,unique"`
	RoleName    string `gorm:"size:24;index:idx_board_role,unique"`
	Default     bool   `gorm:"default:false"`
	Permissions string `gorm:"size:255"` // comma-joined Permission values
}

// HasPermission reports whether the role grants the given permission token.
func (r Role) HasPermission(p string) bool {
	for _, tok := range strings.Split(r.Permissions, ",") {
		if strings.TrimSpace(tok) == p {
			return true
		}
	}
	return false
}

// JoinPermissions encodes a permission list for storage on a Role.
func JoinPermissions(perms []string) string {
	return strings.Join(perms, ",")
}

// Permission tokens. The set is fixed; config validation rejects anything
// outside it.
const (
	PermCreateBounty              = "createBounty"
	PermUpdateBounty              = "updateBounty"
	PermDeleteBounty              = "deleteBounty"
	PermAssignBounty              = "assignBounty"
	PermRequestChangeToSubmission = "requestChangeToSubmission"
	PermAcceptSubmission          = "acceptSubmission"
	PermRejectSubmission          = "rejectSubmission"
)

// AllPermissions lists every valid permission token.
var AllPermissions = []string{
	PermCreateBounty,
	PermUpdateBounty,
	PermDeleteBounty,
	PermAssignBounty,
	PermRequestChangeToSubmission,
	PermAcceptSubmission,
	PermRejectSubmission,
}

// ValidPermission reports whether p is one of the fixed permission tokens.
func ValidPermission(p string) bool {
	for _, v := range AllPermissions {
		if v == p {
			return true
		}
	}
	return false
}
