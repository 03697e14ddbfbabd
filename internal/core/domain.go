package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	EventFees       EventType = "HONORARIOS"
	EventRPV        EventType = "RPV"
	EventPrecatorio EventType = "PRECATORIO"

	StatusReceived   PaymentStatus = "RECEBIDO"
	StatusReceivable PaymentStatus = "A_RECEBER"

	// NoProcess is the sentinel contract number assigned to financial
	// events imported without a resolvable process number. Contract
	// imports skip such rows instead; the asymmetry is deliberate,
	// a financial event must never be dropped.
	NoProcess = "SEM_PROCESSO"
)

type (
	EventType     string
	PaymentStatus string

	// Contract is a legal case ("processo") tracked by the practice,
	// keyed by its process number.
	Contract struct {
		Number      string
		Client      string
		CaseType    string
		ActionType  string
		ClosingDate string // ISO date or empty while the case is open
	}

	// LedgerEntry is one financial event attached to a contract.
	// Entries are append-only; they are never updated or deleted.
	LedgerEntry struct {
		ID             int64
		ContractNumber string
		EventType      EventType
		Description    string
		Amount         Money
		PaymentStatus  PaymentStatus
		ExpectedDate   string // ISO date or empty
		ReceivedDate   string // ISO date or empty
	}
)

var (
	ErrEmptyNumber    = errors.New("empty contract number")
	ErrEmptyClient    = errors.New("empty client name")
	ErrEmptyEventType = errors.New("empty event type")
	ErrInvalidStatus  = errors.New("invalid payment status")
)

// MissingFieldError reports a required form field that was absent or blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

func (c Contract) Validate() error {
	if strings.TrimSpace(c.Number) == "" {
		return ErrEmptyNumber
	}
	if strings.TrimSpace(c.Client) == "" {
		return ErrEmptyClient
	}
	return nil
}

// Closed reports whether the contract has a closing date recorded.
func (c Contract) Closed() bool {
	return strings.TrimSpace(c.ClosingDate) != ""
}

func (e LedgerEntry) Validate() error {
	if strings.TrimSpace(e.ContractNumber) == "" {
		return ErrEmptyNumber
	}
	if strings.TrimSpace(string(e.EventType)) == "" {
		return ErrEmptyEventType
	}
	switch e.PaymentStatus {
	case StatusReceived, StatusReceivable:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// EventDate is the date used for time-grouped aggregates: the received
// date when the amount was paid out, otherwise the expected date.
func (e LedgerEntry) EventDate() string {
	if strings.TrimSpace(e.ReceivedDate) != "" {
		return e.ReceivedDate
	}
	return e.ExpectedDate
}
