// Package addr derives deterministic record identities from a parent
// identity plus typed discriminators.
package addr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Seed strings for each record kind. A record's address is derived from its
// kind seed, its parent's address, and a discriminator, so identical inputs
// always map to the same address and distinct records never collide.
const (
	SeedBoard             = "bounty_board"
	SeedVault             = "vault"
	SeedBounty            = "bounty"
	SeedBountyEscrow      = "bounty_escrow"
	SeedBountySubmission  = "bounty_submission"
	SeedBountyApplication = "bounty_application"
	SeedBountyActivity    = "bounty_activity"
	SeedContributorRecord = "contributor_record"
	SeedTokenAccount      = "token_account"
)

// Discriminator is a typed component of an address derivation.
type Discriminator interface {
	appendTo(h []byte) ([]byte, error)
}

// Ordinal discriminates sibling records by a non-negative sequence number.
type Ordinal int64

func (o Ordinal) appendTo(h []byte) ([]byte, error) {
	if o < 0 {
		return nil, fmt.Errorf("addr: ordinal must be non-negative, got %d", o)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(o))
	return append(h, buf[:]...), nil
}

// Key discriminates sibling records by a wallet, mint or other identity string.
type Key string

func (k Key) appendTo(h []byte) ([]byte, error) {
	if k == "" {
		return nil, fmt.Errorf("addr: key discriminator must not be empty")
	}
	return append(append(h, byte(len(k))), k...), nil
}

// Derive computes the address for a record of the given kind under parent.
// Discriminator validation happens before any hashing, so an out-of-domain
// input never produces a usable address.
func Derive(seed, parent string, discs ...Discriminator) (string, error) {
	if seed == "" {
		return "", fmt.Errorf("addr: seed is required")
	}
	input := append([]byte(seed), 0)
	input = append(input, parent...)
	input = append(input, 0)
	for _, d := range discs {
		var err error
		input, err = d.appendTo(input)
		if err != nil {
			return "", err
		}
	}
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:]), nil
}

// MustDerive is Derive for inputs already validated by the caller.
// It panics on a derivation error.
func MustDerive(seed, parent string, discs ...Discriminator) string {
	a, err := Derive(seed, parent, discs...)
	if err != nil {
		panic(err)
	}
	return a
}
