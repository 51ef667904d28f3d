package models

import "time"

// TokenAccount is one balance row in the token-custody ledger. Board vaults,
// bounty escrows and contributor wallets are all accounts here, discriminated
// by Owner and derived address.
type TokenAccount struct {
	Addr      string `gorm:"primaryKey;size:64"`
	Mint      string `gorm:"size:64;index"`
	Owner     string `gorm:"size:64;index"`
	Balance   int64  `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
