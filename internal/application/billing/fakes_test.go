package billing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hostpanel/backend/internal/domain/billing"
	"github.com/hostpanel/backend/internal/domain/catalog"
	"github.com/hostpanel/backend/internal/domain/shared"
	"github.com/hostpanel/backend/internal/domain/shared/valueobject"
)

// fakeClock is a settable clock for deterministic tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is the in-memory backing state shared by the fake repositories
type memStore struct {
	mu         sync.Mutex
	resources  map[uuid.UUID]*billing.BillableResource
	terminated map[uuid.UUID]bool
	entries    []*billing.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		resources:  make(map[uuid.UUID]*billing.BillableResource),
		terminated: make(map[uuid.UUID]bool),
	}
}

func (s *memStore) add(res *billing.BillableResource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[res.ID] = res
}

func (s *memStore) checkpoint(id uuid.UUID) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resources[id]
	if !ok || res.Checkpoint == nil {
		return nil
	}
	cp := *res.Checkpoint
	return &cp
}

func (s *memStore) entriesFor(id uuid.UUID) []*billing.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*billing.LedgerEntry
	for _, e := range s.entries {
		if e.ResourceID == id {
			out = append(out, e)
		}
	}
	return out
}

// fakeScope runs the function against repositories bound to the store.
// The per-resource serialization the real scope provides via row locks is
// approximated with the store mutex taken inside each repository call.
type fakeScope struct {
	store *memStore
}

func (f *fakeScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(&fakeRepos{store: f.store})
}

type fakeRepos struct {
	store *memStore
}

func (r *fakeRepos) Resources(kind billing.ResourceKind) billing.ResourceRepository {
	return &fakeResourceRepo{store: r.store, kind: kind}
}

func (r *fakeRepos) Ledger() billing.LedgerRepository {
	return &fakeLedgerRepo{store: r.store}
}

type fakeResourceRepo struct {
	store *memStore
	kind  billing.ResourceKind
}

func (r *fakeResourceRepo) FindForUpdate(_ context.Context, id uuid.UUID) (*billing.BillableResource, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.resources[id]
	if !ok || res.Kind != r.kind {
		return nil, shared.ErrNotFound
	}
	copied := *res
	if res.Checkpoint != nil {
		cp := *res.Checkpoint
		copied.Checkpoint = &cp
	}
	return &copied, nil
}

func (r *fakeResourceRepo) AdvanceCheckpoint(_ context.Context, id uuid.UUID, to time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res, ok := r.store.resources[id]
	if !ok {
		return shared.ErrNotFound
	}
	res.Checkpoint = &to
	return nil
}

type fakeLedgerRepo struct {
	store *memStore
}

func (r *fakeLedgerRepo) Append(_ context.Context, entry *billing.LedgerEntry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, entry)
	return nil
}

func (r *fakeLedgerRepo) FindByResource(_ context.Context, resourceID uuid.UUID) ([]*billing.LedgerEntry, error) {
	return r.store.entriesFor(resourceID), nil
}

// fakeStamper stamps checkpoints and marks the resource terminated so the
// fake source stops listing it, mirroring catalog removal on deletion.
type fakeStamper struct {
	store *memStore
}

func (s *fakeStamper) StampCheckpoint(_ context.Context, id uuid.UUID, at time.Time) error {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	res, ok := s.store.resources[id]
	if !ok {
		return shared.ErrNotFound
	}
	res.Checkpoint = &at
	s.store.terminated[id] = true
	return nil
}

// fakeSource lists due resources of one kind. forceInclude returns resources
// regardless of due state, simulating a stale selection racing a concurrent
// sweep.
type fakeSource struct {
	store        *memStore
	kind         billing.ResourceKind
	forceInclude bool
}

func (s *fakeSource) Kind() billing.ResourceKind { return s.kind }

func (s *fakeSource) DueResources(_ context.Context, now time.Time) ([]*billing.BillableResource, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	var due []*billing.BillableResource
	for _, res := range s.store.resources {
		if res.Kind != s.kind || s.store.terminated[res.ID] {
			continue
		}
		if s.forceInclude || res.Checkpoint == nil || !res.Checkpoint.After(now.Add(-billing.MinimumBillableAge)) {
			copied := *res
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CreatedAt.Before(due[j].CreatedAt) })
	return due, nil
}

// fakeWallet holds balances in memory and records debits
type fakeWallet struct {
	mu        sync.Mutex
	balances  map[uuid.UUID]valueobject.Money
	debits    []fakeDebit
	failDebit bool
	panicOn   uuid.UUID
}

type fakeDebit struct {
	accountID   uuid.UUID
	amount      valueobject.Money
	description string
	reference   uuid.UUID
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: make(map[uuid.UUID]valueobject.Money)}
}

func (w *fakeWallet) setBalance(accountID uuid.UUID, amount string) {
	money, err := valueobject.NewMoneyUSDFromString(amount)
	if err != nil {
		panic(err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[accountID] = money
}

func (w *fakeWallet) balance(accountID uuid.UUID) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[accountID].StringFixed(4)
}

func (w *fakeWallet) GetBalance(_ context.Context, accountID uuid.UUID) (valueobject.Money, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if accountID == w.panicOn {
		panic("wallet backend corrupted")
	}
	balance, ok := w.balances[accountID]
	if !ok {
		return valueobject.Money{}, shared.ErrNotFound
	}
	return balance, nil
}

func (w *fakeWallet) Debit(_ context.Context, accountID uuid.UUID, amount valueobject.Money, description string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failDebit {
		return fmt.Errorf("gateway rejected debit")
	}
	balance, ok := w.balances[accountID]
	if !ok {
		return shared.ErrNotFound
	}
	covered, err := balance.GreaterThanOrEqual(amount)
	if err != nil {
		return err
	}
	if !covered {
		return shared.ErrInsufficientBalance
	}
	remaining, err := balance.Subtract(amount)
	if err != nil {
		return err
	}
	w.balances[accountID] = remaining
	w.debits = append(w.debits, fakeDebit{
		accountID:   accountID,
		amount:      amount,
		description: description,
		reference:   uuid.New(),
	})
	return nil
}

// fakePayments resolves references from the wallet's recorded debits
type fakePayments struct {
	wallet *fakeWallet
	fail   bool
}

func (p *fakePayments) LatestCompletedTransaction(_ context.Context, accountID uuid.UUID, description string) (uuid.UUID, error) {
	if p.fail {
		return uuid.Nil, fmt.Errorf("payment store unavailable")
	}
	p.wallet.mu.Lock()
	defer p.wallet.mu.Unlock()
	for i := len(p.wallet.debits) - 1; i >= 0; i-- {
		d := p.wallet.debits[i]
		if d.accountID == accountID && d.description == description {
			return d.reference, nil
		}
	}
	return uuid.Nil, shared.ErrNotFound
}

// fakePlans serves plan pricing from maps
type fakePlans struct {
	plans  map[uuid.UUID]*catalog.Plan
	addons map[uuid.UUID]*catalog.BackupAddOn
}

func newFakePlans() *fakePlans {
	return &fakePlans{
		plans:  make(map[uuid.UUID]*catalog.Plan),
		addons: make(map[uuid.UUID]*catalog.BackupAddOn),
	}
}

func (p *fakePlans) FindPlan(_ context.Context, id uuid.UUID) (*catalog.Plan, error) {
	plan, ok := p.plans[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return plan, nil
}

func (p *fakePlans) FindBackupAddOn(_ context.Context, id uuid.UUID) (*catalog.BackupAddOn, error) {
	addon, ok := p.addons[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return addon, nil
}

// fakeSchema fails the pre-flight when err is set
type fakeSchema struct {
	err error
}

func (s *fakeSchema) EnsureBillingSchema(context.Context) error {
	return s.err
}
