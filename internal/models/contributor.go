package models

import "time"

// ContributorRecord is the per-(board, wallet) reputation ledger entry.
// Reputation is a signed accumulator; RecentRepChange always records the
// signed delta of the last lifecycle-driven change so callers can show
// "recent change" without recomputation.
type ContributorRecord struct {
	Addr      string `gorm:"primaryKey;size:64"`
	BoardAddr string `gorm:"size:64;index:idx_board_wallet,unique"`
	Wallet    string `gorm:"size:64;index:idx_board_wallet,unique"`
	Realm     string `gorm:"size:64"`
	RoleName  string `gorm:"size:24"`

	Reputation      int64 `gorm:"default:0"`
	RecentRepChange int64 `gorm:"default:0"`
	BountyCompleted int64 `gorm:"default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	SkillsPt []ContributorSkillPt `gorm:"foreignKey:RecordAddr"`
}

// ContributorSkillPt accumulates skill points per skill tag for one record.
type ContributorSkillPt struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	RecordAddr string `gorm:"size:64;index:idx_record_skill,unique"`
	Skill      string `gorm:"size:16;index:idx_record_skill,unique"`
	Points     int64  `gorm:"default:0"`
}

// SkillPoints returns the accumulated points for one skill tag.
func (c *ContributorRecord) SkillPoints(skill string) int64 {
	for _, sp := range c.SkillsPt {
		if sp.Skill == skill {
			return sp.Points
		}
	}
	return 0
}

// TotalSkillPoints sums points across all skill tags.
func (c *ContributorRecord) TotalSkillPoints() int64 {
	var total int64
	for _, sp := range c.SkillsPt {
		total += sp.Points
	}
	return total
}
