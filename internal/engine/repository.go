package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
)

// ErrCombatNotFound is returned when a combat lookup yields no results.
var ErrCombatNotFound = errors.New("combat not found")

// ErrCombatExists is returned when creating a combat whose id is taken.
var ErrCombatExists = errors.New("combat already exists")

// ErrVersionConflict is returned when a save loses an optimistic-lock race:
// the stored version no longer matches the version the session was loaded
// at. The caller should reload and retry.
var ErrVersionConflict = errors.New("combat version conflict")

// Repository persists combat snapshots. Implementations must enforce the
// compare-and-set contract on Save.
type Repository interface {
	// Create stores a new combat. Returns ErrCombatExists on duplicate ids.
	Create(ctx context.Context, snap combat.Snapshot) error
	// Get loads the snapshot for id, or ErrCombatNotFound.
	Get(ctx context.Context, id string) (combat.Snapshot, error)
	// Save stores snap only if the stored version equals expectedVersion.
	// Returns ErrVersionConflict when another writer got there first.
	Save(ctx context.Context, snap combat.Snapshot, expectedVersion int) error
	// Delete removes the combat, or returns ErrCombatNotFound.
	Delete(ctx context.Context, id string) error
}

// MemoryRepository is an in-memory Repository for tests and the simulator.
// It is safe for concurrent use.
type MemoryRepository struct {
	mu    sync.Mutex
	snaps map[string]combat.Snapshot
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{snaps: make(map[string]combat.Snapshot)}
}

// Create implements Repository.
func (r *MemoryRepository) Create(_ context.Context, snap combat.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snaps[snap.ID]; ok {
		return ErrCombatExists
	}
	r.snaps[snap.ID] = snap
	return nil
}

// Get implements Repository.
func (r *MemoryRepository) Get(_ context.Context, id string) (combat.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snaps[id]
	if !ok {
		return combat.Snapshot{}, ErrCombatNotFound
	}
	return snap, nil
}

// Save implements Repository.
func (r *MemoryRepository) Save(_ context.Context, snap combat.Snapshot, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.snaps[snap.ID]
	if !ok {
		return ErrCombatNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	r.snaps[snap.ID] = snap
	return nil
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.snaps[id]; !ok {
		return ErrCombatNotFound
	}
	delete(r.snaps, id)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
