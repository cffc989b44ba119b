package repository

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrKeepAlive         = errors.New("transfer would kill account")
	ErrOverflow          = errors.New("balance overflow")
)
