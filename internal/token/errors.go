package token

import (
	"errors"

	"BattleLedger/internal/money"
)

var (
	ErrInvalidTokenName   = errors.New("token name cannot be empty")
	ErrInvalidTokenSymbol = errors.New("token symbol cannot be empty")
	ErrTokenSymbolTooLong = errors.New("token symbol must be 8 characters or less")
	ErrTokenNameTooLong   = errors.New("token name must be 32 characters or less")

	ErrAccountExists   = errors.New("token account already exists")
	ErrAccountNotFound = errors.New("token account not found")

	ErrUnauthorized  = errors.New("you are not authorized to perform this action")
	ErrAccountFrozen = errors.New("account is frozen and cannot be modified")
	ErrAlreadyFrozen = errors.New("account is already frozen")
	ErrNotFrozen     = errors.New("account is not frozen")
)

// ErrInvalidFees aliases the money package's fee-ceiling sentinel.
var ErrInvalidFees = money.ErrFeeTooHigh

// ErrCalculation aliases the overflow sentinel: any checked arithmetic step
// in mint or trade settlement that overflows fails with this identity.
var ErrCalculation = money.ErrOverflow
