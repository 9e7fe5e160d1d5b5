// Package ledger implements the distribution lifecycle and the access control
// rules for confidential bonus allocations.
//
// A Ledger is owned by the process that hosts it. All operations are
// serialized by a single lock: preconditions, persistence, the in-memory
// mutation and event emission of one operation never interleave with
// another operation.
package ledger

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
)

// Config holds the dependencies of a Ledger.
type Config struct {
	Admin   Principal
	Store   Store           // optional, nil keeps the ledger in memory only
	Emitter Emitter         // optional
	Clock   clockwork.Clock // optional, defaults to the real clock
	State   *State          // optional state to restore
}

func (cfg *Config) Validate() error {
	if cfg.Admin == (Principal{}) {
		return ErrMissingAdmin
	}

	if cfg.Emitter == nil {
		cfg.Emitter = NoopEmitter{}
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return nil
}

type Ledger struct {
	mu            sync.RWMutex
	admin         Principal
	managers      map[Principal]bool
	distributions []*distribution

	store   Store
	emitter Emitter
	clock   clockwork.Clock
}

// New creates a Ledger. If cfg.State is set, the ledger is rebuilt from it.
func New(cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Ledger{
		admin:    cfg.Admin,
		managers: make(map[Principal]bool),
		store:    cfg.Store,
		emitter:  cfg.Emitter,
		clock:    cfg.Clock,
	}

	if cfg.State != nil {
		if err := l.restore(cfg.State); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// commit persists the change and emits its events. It must be called with
// the write lock held. apply is only run if persisting succeeded.
func (l *Ledger) commit(ctx context.Context, change Change, apply func()) error {
	if l.store != nil {
		if err := l.store.Commit(ctx, change); err != nil {
			return fmt.Errorf("could not persist ledger change: %w", err)
		}
	}

	apply()

	for _, e := range change.Events {
		l.emitter.Emit(e)
	}

	return nil
}

// now returns the current time in UTC, truncated to seconds.
func (l *Ledger) now() time.Time {
	return l.clock.Now().UTC().Truncate(time.Second)
}

// distribution returns the distribution for the ID. Must be called with
// the lock held.
func (l *Ledger) distribution(id int64) (*distribution, error) {
	if id <= 0 || id > int64(len(l.distributions)) {
		return nil, ErrInvalidDistributionID
	}

	return l.distributions[id-1], nil
}

// SetManagerAuthorization grants or revokes manager status for target.
// Only the admin can do this. Setting the current value again is valid and
// emits the event again.
func (l *Ledger) SetManagerAuthorization(ctx context.Context, caller, target Principal, authorized bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrUnauthorized
	}

	var event Event = ManagerRevoked{Manager: target}
	if authorized {
		event = ManagerAuthorized{Manager: target}
	}

	change := Change{
		Manager: &ManagerEntry{Principal: target, Authorized: authorized},
		Events:  []Event{event},
	}

	return l.commit(ctx, change, func() {
		l.managers[target] = authorized
	})
}

// CreateDistribution creates a new active distribution and returns its ID.
//
// The title is not validated, callers are expected to do that.
func (l *Ledger) CreateDistribution(ctx context.Context, caller Principal, title string, totalBudget decimal.Decimal, durationDays int) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.managers[caller] {
		return 0, ErrUnauthorized
	}

	if !ValidBudget(totalBudget) {
		return 0, ErrInvalidBudget
	}

	if durationDays <= 0 || durationDays > MaxDurationDays {
		return 0, ErrInvalidDuration
	}

	now := l.now()
	d := newDistribution(int64(len(l.distributions)) + 1)
	d.title = title
	d.totalBudget = totalBudget
	d.createdAt = now
	d.deadline = now.Add(time.Duration(durationDays) * 24 * time.Hour)
	d.isActive = true

	info := d.info()
	change := Change{
		Distribution: &info,
		Events: []Event{DistributionCreated{
			DistributionID: d.id,
			Title:          d.title,
			TotalBudget:    d.totalBudget,
			Deadline:       d.deadline,
		}},
	}

	err := l.commit(ctx, change, func() {
		l.distributions = append(l.distributions, d)
	})
	if err != nil {
		return 0, err
	}

	return d.id, nil
}

// AllocateBonus records the encrypted bonus for recipient. The ciphertext and
// proof are stored as they are, verifying them is up to the caller.
func (l *Ledger) AllocateBonus(ctx context.Context, caller Principal, id int64, recipient Principal, encryptedAmount, proof []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, err := l.allocatable(caller, id, recipient)
	if err != nil {
		return err
	}

	allocation := &Allocation{
		EncryptedAmount: bytes.Clone(encryptedAmount),
		Proof:           bytes.Clone(proof),
		HasBonus:        true,
	}

	change := Change{
		Allocation: &AllocationRecord{
			DistributionID: id,
			Recipient:      recipient,
			Position:       len(d.recipients),
			Allocation:     *allocation.clone(),
		},
		Events: []Event{BonusAllocated{DistributionID: id, Recipient: recipient}},
	}

	return l.commit(ctx, change, func() {
		d.add(recipient, allocation)
	})
}

// CheckAllocation reports the error AllocateBonus would return for the
// given caller, distribution and recipient without changing anything.
func (l *Ledger) CheckAllocation(caller Principal, id int64, recipient Principal) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, err := l.allocatable(caller, id, recipient)
	return err
}

func (l *Ledger) allocatable(caller Principal, id int64, recipient Principal) (*distribution, error) {
	d, err := l.distribution(id)
	if err != nil {
		return nil, err
	}

	if !l.managers[caller] {
		return nil, ErrUnauthorized
	}

	if !d.isActive {
		return nil, ErrDistributionInactive
	}

	if _, ok := d.allocations[recipient]; ok {
		return nil, ErrDuplicateAllocation
	}

	return d, nil
}

// ClaimBonus marks the bonus of the caller as claimed. Claiming is possible
// for finalized distributions.
func (l *Ledger) ClaimBonus(ctx context.Context, caller Principal, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	d, err := l.distribution(id)
	if err != nil {
		return err
	}

	allocation, ok := d.allocations[caller]
	if !ok || !allocation.HasBonus {
		return ErrNoBonusAllocated
	}

	if allocation.HasClaimed {
		return ErrAlreadyClaimed
	}

	claimed := allocation.clone()
	claimed.HasClaimed = true
	claimed.ClaimedAt = l.now()

	change := Change{
		Allocation: &AllocationRecord{
			DistributionID: id,
			Recipient:      caller,
			Position:       d.position(caller),
			Allocation:     *claimed.clone(),
		},
		Events: []Event{BonusClaimed{DistributionID: id, Recipient: caller}},
	}

	return l.commit(ctx, change, func() {
		d.allocations[caller] = claimed
	})
}

// FinalizeDistribution deactivates the distribution for good. Only the admin
// can finalize.
func (l *Ledger) FinalizeDistribution(ctx context.Context, caller Principal, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrUnauthorized
	}

	d, err := l.distribution(id)
	if err != nil {
		return err
	}

	if d.isFinalized {
		return ErrAlreadyFinalized
	}

	info := d.info()
	info.IsActive = false
	info.IsFinalized = true

	change := Change{
		Distribution: &info,
		Events:       []Event{DistributionFinalized{DistributionID: id, RecipientCount: len(d.recipients)}},
	}

	return l.commit(ctx, change, func() {
		d.isActive = false
		d.isFinalized = true
	})
}

// position returns the index of recipient in the recipient list.
func (d *distribution) position(recipient Principal) int {
	if i, ok := d.positions[recipient]; ok {
		return i
	}

	return -1
}

// Admin returns the admin principal.
func (l *Ledger) Admin() Principal {
	return l.admin
}

// IsAuthorizedManager reports whether p is currently a manager.
func (l *Ledger) IsAuthorizedManager(p Principal) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.managers[p]
}

// Managers returns all currently authorized managers, sorted by address.
func (l *Ledger) Managers() []Principal {
	l.mu.RLock()
	defer l.mu.RUnlock()

	managers := make([]Principal, 0, len(l.managers))
	for p, authorized := range l.managers {
		if authorized {
			managers = append(managers, p)
		}
	}

	sort.Slice(managers, func(i, j int) bool {
		return bytes.Compare(managers[i][:], managers[j][:]) < 0
	})

	return managers
}

// CurrentDistributionID returns the ID of the latest distribution, 0 if
// none has been created yet.
func (l *Ledger) CurrentDistributionID() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return int64(len(l.distributions))
}

func (l *Ledger) DistributionInfo(id int64) (DistributionInfo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, err := l.distribution(id)
	if err != nil {
		return DistributionInfo{}, err
	}

	return d.info(), nil
}

// Distributions returns a page of distributions ordered by ID together with
// the total number of distributions. A negative limit returns all
// distributions after offset.
func (l *Ledger) Distributions(offset, limit int) ([]DistributionInfo, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	total := len(l.distributions)
	if offset < 0 {
		offset = 0
	}

	if offset > total {
		offset = total
	}

	end := total
	if limit >= 0 && offset+limit < total {
		end = offset + limit
	}

	infos := make([]DistributionInfo, 0, end-offset)
	for _, d := range l.distributions[offset:end] {
		infos = append(infos, d.info())
	}

	return infos, total
}

func (l *Ledger) BonusStatus(id int64, recipient Principal) (BonusStatus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, err := l.distribution(id)
	if err != nil {
		return BonusStatus{}, err
	}

	allocation, ok := d.allocations[recipient]
	if !ok {
		return BonusStatus{}, nil
	}

	return BonusStatus{
		HasBonus:   allocation.HasBonus,
		HasClaimed: allocation.HasClaimed,
		ClaimedAt:  allocation.ClaimedAt,
	}, nil
}

func (l *Ledger) HasReceivedBonus(id int64, recipient Principal) (bool, error) {
	status, err := l.BonusStatus(id, recipient)
	if err != nil {
		return false, err
	}

	return status.HasBonus, nil
}

// DistributionRecipients returns the recipients in allocation order.
func (l *Ledger) DistributionRecipients(id int64) ([]Principal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, err := l.distribution(id)
	if err != nil {
		return nil, err
	}

	recipients := make([]Principal, len(d.recipients))
	copy(recipients, d.recipients)

	return recipients, nil
}

// EncryptedBonus returns the ciphertext and proof of the caller's own
// allocation.
func (l *Ledger) EncryptedBonus(caller Principal, id int64) (EncryptedBonus, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, err := l.distribution(id)
	if err != nil {
		return EncryptedBonus{}, err
	}

	allocation, ok := d.allocations[caller]
	if !ok || !allocation.HasBonus {
		return EncryptedBonus{}, ErrNoBonusAllocated
	}

	return EncryptedBonus{
		EncryptedAmount: bytes.Clone(allocation.EncryptedAmount),
		Proof:           bytes.Clone(allocation.Proof),
	}, nil
}
