package board

import (
	"fmt"

	"github.com/quorumforge/bountyboard/internal/contributor"
	"github.com/quorumforge/bountyboard/internal/lifecycle"
	"gorm.io/gorm"
)

// Action kinds a governance proposal can carry.
const (
	ActionInitBoard      = "initBoard"
	ActionSetTiers       = "setTiers"
	ActionReplaceConfig  = "replaceConfig"
	ActionAddContributor = "addContributorWithRole"
)

// Action is the payload of an executed governance proposal. Authenticity is
// the governance collaborator's problem; the executor only re-validates the
// config shape before applying it.
type Action struct {
	Kind      string
	Realm     string
	Authority string
	BoardAddr string
	Tiers     []TierSpec
	Roles     []RoleSpec

	// AddContributor fields.
	ContributorWallet string
	RoleName          string
}

// Executor applies approved governance actions to the board. It is the only
// path into config mutation; direct callers of the RPC surface never reach
// SetTiers or Replace.
type Executor struct {
	db    *gorm.DB
	clock lifecycle.Clock
}

// NewExecutor builds an Executor on the given database and clock.
func NewExecutor(db *gorm.DB, clock lifecycle.Clock) *Executor {
	return &Executor{db: db, clock: clock}
}

// OnApprovedAction applies one approved action.
func (x *Executor) OnApprovedAction(a Action) error {
	switch a.Kind {
	case ActionInitBoard:
		_, err := Init(x.db, x.clock, a.Realm, a.Authority, a.Tiers, a.Roles)
		return err
	case ActionSetTiers:
		_, err := SetTiers(x.db, x.clock, a.BoardAddr, a.Tiers)
		return err
	case ActionReplaceConfig:
		_, err := Replace(x.db, x.clock, a.BoardAddr, a.Tiers, a.Roles)
		return err
	case ActionAddContributor:
		return x.addContributor(a)
	default:
		return fmt.Errorf("board: unknown governance action %q", a.Kind)
	}
}

func (x *Executor) addContributor(a Action) error {
	return x.db.Transaction(func(tx *gorm.DB) error {
		b, err := Get(tx, a.BoardAddr)
		if err != nil {
			return err
		}
		_, err = contributor.SetRole(tx, b, a.ContributorWallet, a.RoleName)
		return err
	})
}
