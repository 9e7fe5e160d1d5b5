package models_test

import (
	"encoding/json"
	"time"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/bonus-distribution/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// populate runs a full distribution lifecycle on l.
func (suite *TestSuiteStandard) populate(l *ledger.Ledger) {
	suite.Require().Nil(l.SetManagerAuthorization(suite.ctx, admin, manager, true))
	suite.Require().Nil(l.SetManagerAuthorization(suite.ctx, admin, employee2, true))
	suite.Require().Nil(l.SetManagerAuthorization(suite.ctx, admin, employee2, false))

	id, err := l.CreateDistribution(suite.ctx, manager, "Q4 Performance Bonus", decimal.NewFromFloat(10.5), 30)
	suite.Require().Nil(err)
	suite.Require().Nil(l.AllocateBonus(suite.ctx, manager, id, employee2, []byte{0x02}, []byte{0xb2}))
	suite.Require().Nil(l.AllocateBonus(suite.ctx, manager, id, employee1, []byte{0x01}, nil))
	suite.Require().Nil(l.ClaimBonus(suite.ctx, employee1, id))
	suite.Require().Nil(l.FinalizeDistribution(suite.ctx, admin, id))

	_, err = l.CreateDistribution(suite.ctx, manager, "Holiday Bonus", decimal.NewFromInt(5), 14)
	suite.Require().Nil(err)
}

func (suite *TestSuiteStandard) TestLoadEmpty() {
	state, err := suite.store.Load(suite.ctx)
	suite.Require().Nil(err)

	assert.Empty(suite.T(), state.Managers)
	assert.Empty(suite.T(), state.Distributions)
	assert.Empty(suite.T(), state.Allocations)
}

func (suite *TestSuiteStandard) TestRoundTrip() {
	original := suite.newLedger(nil)
	suite.populate(original)

	// Reopen the database to make sure nothing is read from memory
	suite.CloseDB()
	db, err := models.Open(models.DriverSQLite, suite.dsn)
	suite.Require().Nil(err)
	suite.db = db
	suite.store = models.NewStore(db)

	state, err := suite.store.Load(suite.ctx)
	suite.Require().Nil(err)

	restored := suite.newLedger(state)

	assert.Equal(suite.T(), original.CurrentDistributionID(), restored.CurrentDistributionID())
	assert.Equal(suite.T(), original.Managers(), restored.Managers())
	assert.Equal(suite.T(), []ledger.Principal{manager}, restored.Managers())

	for id := int64(1); id <= original.CurrentDistributionID(); id++ {
		want, err := original.DistributionInfo(id)
		suite.Require().Nil(err)

		got, err := restored.DistributionInfo(id)
		suite.Require().Nil(err)

		assert.Equal(suite.T(), want.Title, got.Title)
		assert.True(suite.T(), want.TotalBudget.Equal(got.TotalBudget), "Budget %s != %s", want.TotalBudget, got.TotalBudget)
		assert.Equal(suite.T(), want.IsActive, got.IsActive)
		assert.Equal(suite.T(), want.IsFinalized, got.IsFinalized)
		assert.True(suite.T(), want.CreatedAt.Equal(got.CreatedAt), "CreatedAt %s != %s", want.CreatedAt, got.CreatedAt)
		assert.True(suite.T(), want.Deadline.Equal(got.Deadline), "Deadline %s != %s", want.Deadline, got.Deadline)
		assert.Equal(suite.T(), want.RecipientCount, got.RecipientCount)

		wantRecipients, _ := original.DistributionRecipients(id)
		gotRecipients, _ := restored.DistributionRecipients(id)
		assert.Equal(suite.T(), wantRecipients, gotRecipients)
	}

	status, err := restored.BonusStatus(1, employee1)
	suite.Require().Nil(err)
	assert.True(suite.T(), status.HasClaimed)
	assert.Equal(suite.T(), time.UTC, status.ClaimedAt.Location())

	wantStatus, _ := original.BonusStatus(1, employee1)
	assert.True(suite.T(), wantStatus.ClaimedAt.Equal(status.ClaimedAt))

	status, err = restored.BonusStatus(1, employee2)
	suite.Require().Nil(err)
	assert.True(suite.T(), status.HasBonus)
	assert.False(suite.T(), status.HasClaimed)
	assert.True(suite.T(), status.ClaimedAt.IsZero())

	bonus, err := restored.EncryptedBonus(employee2, 1)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), []byte{0x02}, bonus.EncryptedAmount)
	assert.Equal(suite.T(), []byte{0xb2}, bonus.Proof)

	// The restored ledger keeps writing to the same store
	id, err := restored.CreateDistribution(suite.ctx, manager, "Project Completion", decimal.NewFromInt(3), 7)
	suite.Require().Nil(err)
	assert.Equal(suite.T(), int64(3), id)

	err = restored.ClaimBonus(suite.ctx, employee1, 1)
	assert.ErrorIs(suite.T(), err, ledger.ErrAlreadyClaimed)
}

func (suite *TestSuiteStandard) TestBudgetRoundTrip() {
	l := suite.newLedger(nil)
	suite.Require().Nil(l.SetManagerAuthorization(suite.ctx, admin, manager, true))

	budgets := []string{"123456789012.12345678", "999999999999.99999999", "0.00000001", "10.5"}
	for _, b := range budgets {
		_, err := l.CreateDistribution(suite.ctx, manager, "Q4", decimal.RequireFromString(b), 30)
		suite.Require().Nil(err)
	}

	// The store cannot hold budgets the ledger rejects
	_, err := l.CreateDistribution(suite.ctx, manager, "Q4", decimal.RequireFromString("123456789012.123456789"), 30)
	suite.Require().ErrorIs(err, ledger.ErrInvalidBudget)

	suite.CloseDB()
	db, err := models.Open(models.DriverSQLite, suite.dsn)
	suite.Require().Nil(err)
	suite.db = db
	suite.store = models.NewStore(db)

	state, err := suite.store.Load(suite.ctx)
	suite.Require().Nil(err)
	restored := suite.newLedger(state)

	for i, b := range budgets {
		info, err := restored.DistributionInfo(int64(i + 1))
		suite.Require().Nil(err)
		assert.Equal(suite.T(), decimal.RequireFromString(b).String(), info.TotalBudget.String())
	}

	// The event carries the same budget
	events, _, err := suite.store.Events(suite.ctx, models.EventFilter{Type: string(ledger.TypeDistributionCreated), Limit: 1})
	suite.Require().Nil(err)
	suite.Require().Len(events, 1)

	var created ledger.DistributionCreated
	suite.Require().Nil(json.Unmarshal([]byte(events[0].Payload), &created))
	assert.Equal(suite.T(), budgets[0], created.TotalBudget.String())
}

func (suite *TestSuiteStandard) TestCommitDuplicateAllocation() {
	l := suite.newLedger(nil)
	suite.Require().Nil(l.SetManagerAuthorization(suite.ctx, admin, manager, true))
	id, err := l.CreateDistribution(suite.ctx, manager, "Q4", decimal.NewFromInt(1), 1)
	suite.Require().Nil(err)
	suite.Require().Nil(l.AllocateBonus(suite.ctx, manager, id, employee1, []byte{0x01}, nil))

	// A second writer on the same database that did not see the allocation
	err = suite.store.Commit(suite.ctx, ledger.Change{
		Allocation: &ledger.AllocationRecord{
			DistributionID: id,
			Recipient:      employee1,
			Allocation:     ledger.Allocation{EncryptedAmount: []byte{0x09}, HasBonus: true},
		},
		Events: []ledger.Event{ledger.BonusAllocated{DistributionID: id, Recipient: employee1}},
	})
	assert.ErrorIs(suite.T(), err, models.ErrAllocationNotUnique)

	// The transaction was rolled back, no event was written
	events, total, err := suite.store.Events(suite.ctx, models.EventFilter{Type: string(ledger.TypeBonusAllocated)})
	suite.Require().Nil(err)
	assert.Equal(suite.T(), 1, total)
	assert.Len(suite.T(), events, 1)
}

func (suite *TestSuiteStandard) TestCommitDuplicateDistribution() {
	info := ledger.DistributionInfo{ID: 1, Title: "Q4", TotalBudget: decimal.NewFromInt(1), IsActive: true}

	err := suite.store.Commit(suite.ctx, ledger.Change{Distribution: &info})
	suite.Require().Nil(err)

	err = suite.store.Commit(suite.ctx, ledger.Change{Distribution: &info})
	assert.ErrorIs(suite.T(), err, models.ErrDistributionNotUnique)
}

func (suite *TestSuiteStandard) TestCommitMissingRows() {
	err := suite.store.Commit(suite.ctx, ledger.Change{
		Distribution: &ledger.DistributionInfo{ID: 5, IsFinalized: true},
	})
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)

	err = suite.store.Commit(suite.ctx, ledger.Change{
		Allocation: &ledger.AllocationRecord{
			DistributionID: 5,
			Recipient:      employee1,
			Allocation:     ledger.Allocation{HasBonus: true, HasClaimed: true, ClaimedAt: time.Now()},
		},
	})
	assert.ErrorIs(suite.T(), err, models.ErrResourceNotFound)
}

func (suite *TestSuiteStandard) TestCommitClosedDatabase() {
	l := suite.newLedger(nil)
	suite.CloseDB()

	err := l.SetManagerAuthorization(suite.ctx, admin, manager, true)
	assert.NotNil(suite.T(), err)
	assert.False(suite.T(), l.IsAuthorizedManager(manager))

	_, err = suite.store.Load(suite.ctx)
	assert.ErrorIs(suite.T(), err, models.ErrGeneral)
}

func (suite *TestSuiteStandard) TestEvents() {
	suite.populate(suite.newLedger(nil))

	tests := []struct {
		name   string
		filter models.EventFilter
		types  []string
		total  int
	}{
		{"All", models.EventFilter{}, []string{
			"ManagerAuthorized", "ManagerAuthorized", "ManagerRevoked",
			"DistributionCreated", "BonusAllocated", "BonusAllocated", "BonusClaimed", "DistributionFinalized",
			"DistributionCreated",
		}, 9},
		{"Glob", models.EventFilter{Type: "Bonus*"}, []string{"BonusAllocated", "BonusAllocated", "BonusClaimed"}, 3},
		{"Exact type", models.EventFilter{Type: "ManagerRevoked"}, []string{"ManagerRevoked"}, 1},
		{"Distribution", models.EventFilter{DistributionID: 2}, []string{"DistributionCreated"}, 1},
		{"Principal", models.EventFilter{Principal: employee1}, []string{"BonusAllocated", "BonusClaimed"}, 2},
		{"Principal and type", models.EventFilter{Principal: employee2, Type: "Manager*"}, []string{"ManagerAuthorized", "ManagerRevoked"}, 2},
		{"Paged", models.EventFilter{Type: "*", Offset: 2, Limit: 2}, []string{"ManagerRevoked", "DistributionCreated"}, 9},
		{"Offset beyond total", models.EventFilter{Offset: 20}, []string{}, 9},
		{"No match", models.EventFilter{Type: "Unknown"}, []string{}, 0},
		{"Case sensitive", models.EventFilter{Type: "bonus*"}, []string{}, 0},
		{"Paged with filter", models.EventFilter{Type: "*Allocated", Offset: 1, Limit: 5}, []string{"BonusAllocated"}, 2},
		{"Limit only", models.EventFilter{Limit: 1}, []string{"ManagerAuthorized"}, 9},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			events, total, err := suite.store.Events(suite.ctx, tt.filter)
			suite.Require().Nil(err)
			assert.Equal(suite.T(), tt.total, total)

			types := make([]string, 0, len(events))
			for _, e := range events {
				types = append(types, e.Type)
			}
			assert.Equal(suite.T(), tt.types, types)
		})
	}
}

func (suite *TestSuiteStandard) TestEventPayload() {
	suite.populate(suite.newLedger(nil))

	events, _, err := suite.store.Events(suite.ctx, models.EventFilter{Type: "DistributionFinalized"})
	suite.Require().Nil(err)
	suite.Require().Len(events, 1)

	e := events[0]
	assert.Equal(suite.T(), int64(1), e.DistributionID)
	assert.Empty(suite.T(), e.Principal)
	assert.Equal(suite.T(), time.UTC, e.CreatedAt.Location())

	var payload ledger.DistributionFinalized
	suite.Require().Nil(json.Unmarshal([]byte(e.Payload), &payload))
	assert.Equal(suite.T(), ledger.DistributionFinalized{DistributionID: 1, RecipientCount: 2}, payload)

	events, _, err = suite.store.Events(suite.ctx, models.EventFilter{Type: "BonusClaimed"})
	suite.Require().Nil(err)
	suite.Require().Len(events, 1)
	assert.Equal(suite.T(), employee1.Hex(), events[0].Principal)
}
