package models

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bonus-distribution/backend/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ryanuber/go-glob"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists the ledger to the database. It implements ledger.Store.
type Store struct {
	db *gorm.DB
}

var _ ledger.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Commit writes a single ledger change and its events in one transaction.
func (s *Store) Commit(ctx context.Context, change ledger.Change) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if change.Manager != nil {
			if err := commitManager(tx, change.Manager); err != nil {
				return err
			}
		}

		if change.Distribution != nil {
			if err := commitDistribution(tx, change.Distribution); err != nil {
				return err
			}
		}

		if change.Allocation != nil {
			if err := commitAllocation(tx, change.Allocation); err != nil {
				return err
			}
		}

		for _, e := range change.Events {
			event, err := newEvent(e)
			if err != nil {
				return err
			}

			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func commitManager(tx *gorm.DB, entry *ledger.ManagerEntry) error {
	manager := Manager{
		Principal:  entry.Principal.Hex(),
		Authorized: entry.Authorized,
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal"}},
		DoUpdates: clause.AssignmentColumns([]string{"authorized", "updated_at"}),
	}).Create(&manager).Error
}

// commitDistribution inserts new distributions. For finalized ones, only
// the state flags are updated.
func commitDistribution(tx *gorm.DB, info *ledger.DistributionInfo) error {
	if !info.IsFinalized {
		return tx.Create(&Distribution{
			Timestamps:  Timestamps{CreatedAt: info.CreatedAt},
			ID:          info.ID,
			Title:       info.Title,
			TotalBudget: Decimal{info.TotalBudget},
			Deadline:    info.Deadline,
			IsActive:    info.IsActive,
		}).Error
	}

	result := tx.Model(&Distribution{}).Where("id = ?", info.ID).Updates(map[string]any{
		"is_active":    info.IsActive,
		"is_finalized": info.IsFinalized,
	})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w distribution with ID %d", ErrResourceNotFound, info.ID)
	}

	return nil
}

// commitAllocation inserts new allocations. For claimed ones, only the claim
// is updated.
func commitAllocation(tx *gorm.DB, record *ledger.AllocationRecord) error {
	if !record.Allocation.HasClaimed {
		return tx.Omit(clause.Associations).Create(&Allocation{
			DistributionID:  record.DistributionID,
			Recipient:       record.Recipient.Hex(),
			Position:        record.Position,
			EncryptedAmount: record.Allocation.EncryptedAmount,
			Proof:           record.Allocation.Proof,
			HasBonus:        record.Allocation.HasBonus,
		}).Error
	}

	result := tx.Model(&Allocation{}).
		Where("distribution_id = ? AND recipient = ?", record.DistributionID, record.Recipient.Hex()).
		Updates(map[string]any{
			"has_claimed": true,
			"claimed_at":  record.Allocation.ClaimedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("%w allocation for %s in distribution %d", ErrResourceNotFound, record.Recipient.Hex(), record.DistributionID)
	}

	return nil
}

// Load reads the complete ledger state.
func (s *Store) Load(ctx context.Context) (*ledger.State, error) {
	db := s.db.WithContext(ctx)

	var managers []Manager
	if err := db.Order("principal").Find(&managers).Error; err != nil {
		return nil, fmt.Errorf("could not load managers: %w", err)
	}

	var distributions []Distribution
	if err := db.Order("id").Find(&distributions).Error; err != nil {
		return nil, fmt.Errorf("could not load distributions: %w", err)
	}

	var allocations []Allocation
	if err := db.Order("distribution_id, position").Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("could not load allocations: %w", err)
	}

	state := &ledger.State{
		Managers:      make([]ledger.ManagerEntry, 0, len(managers)),
		Distributions: make([]ledger.DistributionInfo, 0, len(distributions)),
		Allocations:   make([]ledger.AllocationRecord, 0, len(allocations)),
	}

	for _, m := range managers {
		state.Managers = append(state.Managers, ledger.ManagerEntry{
			Principal:  common.HexToAddress(m.Principal),
			Authorized: m.Authorized,
		})
	}

	for _, d := range distributions {
		state.Distributions = append(state.Distributions, ledger.DistributionInfo{
			ID:          d.ID,
			Title:       d.Title,
			TotalBudget: d.TotalBudget.Decimal,
			IsActive:    d.IsActive,
			IsFinalized: d.IsFinalized,
			CreatedAt:   d.CreatedAt,
			Deadline:    d.Deadline,
		})
	}

	for _, a := range allocations {
		record := ledger.AllocationRecord{
			DistributionID: a.DistributionID,
			Recipient:      common.HexToAddress(a.Recipient),
			Position:       a.Position,
			Allocation: ledger.Allocation{
				EncryptedAmount: a.EncryptedAmount,
				Proof:           a.Proof,
				HasBonus:        a.HasBonus,
				HasClaimed:      a.HasClaimed,
			},
		}

		if a.ClaimedAt != nil {
			record.Allocation.ClaimedAt = *a.ClaimedAt
		}

		state.Allocations = append(state.Allocations, record)
	}

	return state, nil
}

// EventFilter selects entries of the event log. Zero values do not filter.
type EventFilter struct {
	Type           string // glob pattern, e.g. "Bonus*"
	DistributionID int64
	Principal      ledger.Principal
	Offset         int
	Limit          int // a limit < 1 returns all matching events
}

// Events returns the matching events ordered by sequence together with the
// total number of matching events.
func (s *Store) Events(ctx context.Context, filter EventFilter) ([]Event, int, error) {
	query := s.db.WithContext(ctx).Model(&Event{})

	if filter.Type != "" {
		types := matchingTypes(filter.Type)
		if len(types) == 0 {
			return []Event{}, 0, nil
		}
		query = query.Where("type IN ?", types)
	}

	if filter.DistributionID != 0 {
		query = query.Where("distribution_id = ?", filter.DistributionID)
	}

	if filter.Principal != (ledger.Principal{}) {
		query = query.Where("principal = ?", filter.Principal.Hex())
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("could not count events: %w", err)
	}

	limit := filter.Limit
	if limit < 1 {
		limit = int(total)
	}

	events := []Event{}
	err := query.Order("sequence").Offset(max(filter.Offset, 0)).Limit(limit).Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("could not load events: %w", err)
	}

	return events, int(total), nil
}

// matchingTypes resolves a glob pattern to the event types it matches.
func matchingTypes(pattern string) []string {
	var types []string
	for _, t := range ledger.EventTypes {
		if glob.Glob(pattern, string(t)) {
			types = append(types, string(t))
		}
	}

	return types
}

// newEvent converts a ledger event into its log entry.
func newEvent(e ledger.Event) (Event, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Event{}, fmt.Errorf("could not encode %s event: %w", e.EventType(), err)
	}

	event := Event{
		Type:    string(e.EventType()),
		Payload: string(payload),
	}

	switch e := e.(type) {
	case ledger.ManagerAuthorized:
		event.Principal = e.Manager.Hex()
	case ledger.ManagerRevoked:
		event.Principal = e.Manager.Hex()
	case ledger.DistributionCreated:
		event.DistributionID = e.DistributionID
	case ledger.BonusAllocated:
		event.DistributionID = e.DistributionID
		event.Principal = e.Recipient.Hex()
	case ledger.BonusClaimed:
		event.DistributionID = e.DistributionID
		event.Principal = e.Recipient.Hex()
	case ledger.DistributionFinalized:
		event.DistributionID = e.DistributionID
	}

	return event, nil
}
