package models

import (
	"fmt"
	"time"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Timestamps only contains the timestamps that gorm sets automatically.
type Timestamps struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AfterFind updates the timestamps to use UTC as
// timezone, not +0000.
func (t *Timestamps) AfterFind(_ *gorm.DB) error {
	t.CreatedAt = t.CreatedAt.In(time.UTC)
	t.UpdatedAt = t.UpdatedAt.In(time.UTC)
	return nil
}

// Decimal is a decimal column that round-trips exactly. sqlite converts
// numeric values to floating point, so there it is stored as text.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == DriverSQLite {
		return "TEXT"
	}

	return fmt.Sprintf("DECIMAL(%d,%d)", ledger.BudgetIntegerDigits+ledger.BudgetScale, ledger.BudgetScale)
}

// Manager is an entry of the manager registry.
type Manager struct {
	Timestamps
	Principal  string `gorm:"primaryKey;size:42"`
	Authorized bool
}

// Distribution is the stored header of a distribution. The recipients are
// the allocations ordered by position.
type Distribution struct {
	Timestamps
	ID          int64  `gorm:"primaryKey;autoIncrement:false"`
	Title       string `gorm:"size:255"`
	TotalBudget Decimal
	Deadline    time.Time
	IsActive    bool
	IsFinalized bool
}

func (d *Distribution) AfterFind(tx *gorm.DB) error {
	err := d.Timestamps.AfterFind(tx)
	if err != nil {
		return err
	}

	d.Deadline = d.Deadline.In(time.UTC)
	return nil
}

// Allocation is the stored allocation of one recipient.
type Allocation struct {
	DistributionID  int64        `gorm:"primaryKey;autoIncrement:false"`
	Distribution    Distribution `gorm:"constraint:OnDelete:CASCADE"`
	Recipient       string       `gorm:"primaryKey;size:42"`
	Position        int          `gorm:"index"`
	EncryptedAmount []byte
	Proof           []byte
	HasBonus        bool
	HasClaimed      bool
	ClaimedAt       *time.Time
	UpdatedAt       time.Time
}

func (a *Allocation) AfterFind(_ *gorm.DB) error {
	if a.ClaimedAt != nil {
		claimedAt := a.ClaimedAt.In(time.UTC)
		a.ClaimedAt = &claimedAt
	}

	return nil
}

// Event is an entry of the event log.
type Event struct {
	Sequence       uint64 `gorm:"primaryKey;autoIncrement"`
	Type           string `gorm:"index;size:64"`
	DistributionID int64  `gorm:"index"` // 0 for events that do not belong to a distribution
	Principal      string `gorm:"index;size:42"`
	Payload        string
	CreatedAt      time.Time
}

func (e *Event) AfterFind(_ *gorm.DB) error {
	e.CreatedAt = e.CreatedAt.In(time.UTC)
	return nil
}
