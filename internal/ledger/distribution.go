package ledger

import (
	"bytes"
	"time"

	"github.com/shopspring/decimal"
)

// MaxDurationDays is the longest duration a distribution can be created with.
const MaxDurationDays = 36500

// Total budgets have at most BudgetIntegerDigits digits before and
// BudgetScale digits after the decimal point.
const (
	BudgetIntegerDigits = 12
	BudgetScale         = 8
)

var maxBudget = decimal.New(1, BudgetIntegerDigits)

// ValidBudget reports whether b can be used as a total budget.
func ValidBudget(b decimal.Decimal) bool {
	return b.IsPositive() && b.LessThan(maxBudget) && b.Equal(b.Truncate(BudgetScale))
}

// distribution is the ledger internal representation of a bonus pool.
type distribution struct {
	id          int64
	title       string
	totalBudget decimal.Decimal
	createdAt   time.Time
	deadline    time.Time
	isActive    bool
	isFinalized bool

	// recipients keeps allocation order, allocations and positions give
	// O(1) lookups. All are append-only.
	recipients  []Principal
	allocations map[Principal]*Allocation
	positions   map[Principal]int
}

func newDistribution(id int64) *distribution {
	return &distribution{
		id:          id,
		allocations: make(map[Principal]*Allocation),
		positions:   make(map[Principal]int),
	}
}

// add appends the allocation of recipient to the recipient list.
func (d *distribution) add(recipient Principal, a *Allocation) {
	d.positions[recipient] = len(d.recipients)
	d.recipients = append(d.recipients, recipient)
	d.allocations[recipient] = a
}

func (d *distribution) info() DistributionInfo {
	return DistributionInfo{
		ID:             d.id,
		Title:          d.title,
		TotalBudget:    d.totalBudget,
		IsActive:       d.isActive,
		IsFinalized:    d.isFinalized,
		CreatedAt:      d.createdAt,
		Deadline:       d.deadline,
		RecipientCount: len(d.recipients),
	}
}

// DistributionInfo is the public view of a distribution.
type DistributionInfo struct {
	ID             int64
	Title          string
	TotalBudget    decimal.Decimal
	IsActive       bool
	IsFinalized    bool
	CreatedAt      time.Time
	Deadline       time.Time
	RecipientCount int
}

// Allocation is the record of a bonus for one recipient of one distribution.
//
// EncryptedAmount and Proof are opaque to the ledger.
type Allocation struct {
	EncryptedAmount []byte
	Proof           []byte
	HasBonus        bool
	HasClaimed      bool
	ClaimedAt       time.Time
}

func (a *Allocation) clone() *Allocation {
	if a == nil {
		return nil
	}

	out := *a
	out.EncryptedAmount = bytes.Clone(a.EncryptedAmount)
	out.Proof = bytes.Clone(a.Proof)
	return &out
}

// BonusStatus is the claim state of a recipient. The zero value is
// returned for recipients without an allocation.
type BonusStatus struct {
	HasBonus   bool
	HasClaimed bool
	ClaimedAt  time.Time
}

// EncryptedBonus is the ciphertext of a recipient's own bonus.
type EncryptedBonus struct {
	EncryptedAmount []byte
	Proof           []byte
}
