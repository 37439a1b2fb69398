package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mezosauce/DNDDM-sub000/internal/engine"
	"github.com/mezosauce/DNDDM-sub000/internal/game/combat"
)

// CombatRepository persists combat session snapshots as JSONB rows. Saves
// are compare-and-set on the version column, so two writers racing on the
// same combat cannot both win.
type CombatRepository struct {
	db *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatRepository(db *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{db: db}
}

// Create inserts a new combat row.
//
// Precondition: snap.ID must be a UUID string.
// Postcondition: Returns nil on success or engine.ErrCombatExists when the
// id is already stored.
func (r *CombatRepository) Create(ctx context.Context, snap combat.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding combat snapshot: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO combats (id, version, phase, snapshot)
		VALUES ($1, $2, $3, $4)`,
		snap.ID, snap.Version, snap.Phase, data,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return engine.ErrCombatExists
		}
		return fmt.Errorf("inserting combat: %w", err)
	}
	return nil
}

// Get loads the snapshot for the given combat id.
//
// Postcondition: Returns the snapshot or engine.ErrCombatNotFound.
func (r *CombatRepository) Get(ctx context.Context, id string) (combat.Snapshot, error) {
	var data []byte
	err := r.db.QueryRow(ctx, `
		SELECT snapshot FROM combats WHERE id = $1`,
		id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return combat.Snapshot{}, engine.ErrCombatNotFound
		}
		return combat.Snapshot{}, fmt.Errorf("querying combat: %w", err)
	}
	var snap combat.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return combat.Snapshot{}, fmt.Errorf("decoding combat snapshot: %w", err)
	}
	return snap, nil
}

// Save stores snap only if the stored version still equals expectedVersion.
//
// Postcondition: Returns nil on success, engine.ErrCombatNotFound when no
// row exists, or engine.ErrVersionConflict when another writer updated the
// combat since it was loaded.
func (r *CombatRepository) Save(ctx context.Context, snap combat.Snapshot, expectedVersion int) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding combat snapshot: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE combats
		SET version = $3, phase = $4, snapshot = $5, updated_at = NOW()
		WHERE id = $1 AND version = $2`,
		snap.ID, expectedVersion, snap.Version, snap.Phase, data,
	)
	if err != nil {
		return fmt.Errorf("updating combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM combats WHERE id = $1)`,
			snap.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking combat existence: %w", err)
		}
		if exists {
			return engine.ErrVersionConflict
		}
		return engine.ErrCombatNotFound
	}
	return nil
}

// Delete removes the combat row.
//
// Postcondition: Returns nil on success or engine.ErrCombatNotFound.
func (r *CombatRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return engine.ErrCombatNotFound
	}
	return nil
}

// ListActive returns the ids of combats not yet in the ended phase, oldest
// first.
func (r *CombatRepository) ListActive(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM combats WHERE phase <> 'ended' ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing combats: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning combat row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ engine.Repository = (*CombatRepository)(nil)
