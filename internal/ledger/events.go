package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a notification produced by a successful ledger operation.
type EventType string

const (
	TypeManagerAuthorized     EventType = "ManagerAuthorized"
	TypeManagerRevoked        EventType = "ManagerRevoked"
	TypeDistributionCreated   EventType = "DistributionCreated"
	TypeBonusAllocated        EventType = "BonusAllocated"
	TypeBonusClaimed          EventType = "BonusClaimed"
	TypeDistributionFinalized EventType = "DistributionFinalized"
)

// EventTypes lists every event type in the order the ledger lifecycle
// produces them.
var EventTypes = []EventType{
	TypeManagerAuthorized,
	TypeManagerRevoked,
	TypeDistributionCreated,
	TypeBonusAllocated,
	TypeBonusClaimed,
	TypeDistributionFinalized,
}

// Event represents a state change emitted by the ledger.
type Event interface {
	EventType() EventType
}

// Emitter broadcasts events to subscribers.
//
// Emit is called while the ledger holds its write lock. Implementations
// must return quickly and must never call back into the ledger.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards all events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

type ManagerAuthorized struct {
	Manager Principal `json:"manager"`
}

func (ManagerAuthorized) EventType() EventType { return TypeManagerAuthorized }

type ManagerRevoked struct {
	Manager Principal `json:"manager"`
}

func (ManagerRevoked) EventType() EventType { return TypeManagerRevoked }

type DistributionCreated struct {
	DistributionID int64           `json:"distributionId"`
	Title          string          `json:"title"`
	TotalBudget    decimal.Decimal `json:"totalBudget"`
	Deadline       time.Time       `json:"deadline"`
}

func (DistributionCreated) EventType() EventType { return TypeDistributionCreated }

type BonusAllocated struct {
	DistributionID int64     `json:"distributionId"`
	Recipient      Principal `json:"recipient"`
}

func (BonusAllocated) EventType() EventType { return TypeBonusAllocated }

type BonusClaimed struct {
	DistributionID int64     `json:"distributionId"`
	Recipient      Principal `json:"recipient"`
}

func (BonusClaimed) EventType() EventType { return TypeBonusClaimed }

// DistributionFinalized carries the number of recipients at the time of
// finalization. Amounts are encrypted and therefore cannot be summed.
type DistributionFinalized struct {
	DistributionID int64 `json:"distributionId"`
	RecipientCount int   `json:"recipientCount"`
}

func (DistributionFinalized) EventType() EventType { return TypeDistributionFinalized }
