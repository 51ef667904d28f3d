// Package token implements the token-custody ledger the escrow and vault
// operations are expressed in. The whole surface is two primitives, Transfer
// and BalanceOf, plus a Mint faucet for seeding vaults.
package token

import (
	"errors"
	"fmt"

	"github.com/quorumforge/bountyboard/internal/addr"
	"github.com/quorumforge/bountyboard/internal/models"
	"gorm.io/gorm"
)

// ErrInsufficientFunds is returned when a transfer exceeds the source balance.
var ErrInsufficientFunds = errors.New("token: insufficient funds")

// ErrAccountNotFound is returned when the named account does not exist.
var ErrAccountNotFound = errors.New("token: account not found")

// AccountAddr derives the ledger address for an owner's account in one mint.
func AccountAddr(owner, mint string) (string, error) {
	return addr.Derive(addr.SeedTokenAccount, mint, addr.Key(owner))
}

// VaultAddr derives the address of a board's vault account for one mint.
func VaultAddr(boardAddr, mint string) (string, error) {
	return addr.Derive(addr.SeedVault, boardAddr, addr.Key(mint))
}

// GetOrCreate loads the account at address, creating it with a zero balance
// if it does not exist.
func GetOrCreate(tx *gorm.DB, address, mint, owner string) (*models.TokenAccount, error) {
	var acc models.TokenAccount
	err := tx.Where("addr = ?", address).First(&acc).Error
	if err == nil {
		return &acc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("token: load account %s: %w", address, err)
	}
	acc = models.TokenAccount{Addr: address, Mint: mint, Owner: owner}
	if err := tx.Create(&acc).Error; err != nil {
		return nil, fmt.Errorf("token: create account %s: %w", address, err)
	}
	return &acc, nil
}

// BalanceOf returns the balance of the account at address. A missing account
// reads as zero, matching how an unopened token account holds nothing.
func BalanceOf(tx *gorm.DB, address string) (int64, error) {
	var acc models.TokenAccount
	if err := tx.Where("addr = ?", address).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("token: balance of %s: %w", address, err)
	}
	return acc.Balance, nil
}

// Transfer moves amount units of mint between two accounts. It fails before
// any mutation if the source balance is short, and must run inside the same
// transaction as the lifecycle transition it backs.
func Transfer(tx *gorm.DB, from, to string, amount int64, mint string) error {
	if amount <= 0 {
		return fmt.Errorf("token: transfer amount must be positive, got %d", amount)
	}
	if from == to {
		return fmt.Errorf("token: transfer from an account to itself")
	}

	var src models.TokenAccount
	if err := tx.Where("addr = ? AND mint = ?", from, mint).First(&src).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, from)
		}
		return fmt.Errorf("token: load source %s: %w", from, err)
	}
	if src.Balance < amount {
		return fmt.Errorf("%w: %s holds %d, need %d", ErrInsufficientFunds, from, src.Balance, amount)
	}

	dst, err := GetOrCreate(tx, to, mint, "")
	if err != nil {
		return err
	}

	if err := tx.Model(&models.TokenAccount{}).Where("addr = ?", src.Addr).
		Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("token: debit %s: %w", src.Addr, err)
	}
	if err := tx.Model(&models.TokenAccount{}).Where("addr = ?", dst.Addr).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("token: credit %s: %w", dst.Addr, err)
	}
	return nil
}

// Mint credits amount units of mint to the account at address, creating the
// account if needed. This stands in for the external funding source that
// seeds board vaults.
func Mint(tx *gorm.DB, address, mint string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("token: mint amount must be positive, got %d", amount)
	}
	if _, err := GetOrCreate(tx, address, mint, ""); err != nil {
		return err
	}
	if err := tx.Model(&models.TokenAccount{}).Where("addr = ?", address).
		Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("token: mint to %s: %w", address, err)
	}
	return nil
}
