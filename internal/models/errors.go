package models

import "errors"

// Ошибки движка закупок. Все проверочные ошибки обнаруживаются локально до
// отправки перехода в реестр; ErrConflict и ErrLedgerUnavailable приходят
// с границы реестра и пробрасываются вызывающему без повторов.
var (
	ErrNotFound          = errors.New("request not found")
	ErrUnauthorized      = errors.New("actor is not allowed to perform this transition")
	ErrInvalidTransition = errors.New("transition is not allowed from current status")
	ErrEmptyBidSet       = errors.New("no bids recorded for this request")
	ErrAmountMismatch    = errors.New("supplied amount does not match stored winning amount")
	ErrInsufficientFunds = errors.New("payer account balance is below payment amount")
	ErrConflict          = errors.New("request state changed between fetch and submit")
	ErrLedgerUnavailable = errors.New("ledger is unavailable")
)
