// Package sqlite implements the storage interfaces on SQLite using the
// CGO-free modernc.org/sqlite driver. This is the default backend.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

// Ensure *Store implements the full storage surface at compile time.
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using SQLite.
type Store struct {
	db *sql.DB
}

// New opens a SQLite database, configures WAL mode, applies the schema,
// and seeds the protected system bags.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s failed: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.seedBags(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to seed system bags: %w", err)
	}

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// seedBags inserts the pre-seeded system bags if they are not present.
// Existing rows are left untouched so user edits to a system bag's policy
// survive restarts.
func (s *Store) seedBags() error {
	now := time.Now().UTC()
	for _, bag := range storage.SeedBags() {
		bag.Clamp()
		kindsJSON, err := marshalKinds(bag.AllowedKinds)
		if err != nil {
			return err
		}
		_, err = s.db.Exec(`
			INSERT INTO bags (name, description, default_top_k, recency_half_life_days, importance_weight, allowed_kinds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO NOTHING
		`, bag.Name, bag.Description, bag.DefaultTopK, bag.RecencyHalfLifeDays, bag.ImportanceWeight, kindsJSON, now, now)
		if err != nil {
			return fmt.Errorf("seed bag %q: %w", bag.Name, err)
		}
	}
	return nil
}

// ListBags returns all bag policies ordered by name.
func (s *Store) ListBags(ctx context.Context) ([]types.BagPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, description, default_top_k, recency_half_life_days, importance_weight, allowed_kinds, created_at, updated_at
		FROM bags
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list bags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bags []types.BagPolicy
	for rows.Next() {
		bag, err := scanBag(rows.Scan)
		if err != nil {
			return nil, err
		}
		bags = append(bags, *bag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: bag rows error: %w", err)
	}

	return bags, nil
}

// GetBag retrieves a single policy by name.
func (s *Store) GetBag(ctx context.Context, name string) (*types.BagPolicy, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: bag name is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, description, default_top_k, recency_half_life_days, importance_weight, allowed_kinds, created_at, updated_at
		FROM bags
		WHERE name = ?
	`, name)

	bag, err := scanBag(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return bag, nil
}

// UpsertBag creates or merges a bag policy. Omitted fields keep their
// existing value; on first creation they take the documented defaults.
// Numeric fields are clamped on every write. created_at is never changed
// after the first write.
func (s *Store) UpsertBag(ctx context.Context, input storage.BagUpsert) (*types.BagPolicy, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: bag name is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT name, description, default_top_k, recency_half_life_days, importance_weight, allowed_kinds, created_at, updated_at
		FROM bags
		WHERE name = ?
	`, name)

	now := time.Now().UTC()
	bag, err := scanBag(row.Scan)
	created := false
	if errors.Is(err, sql.ErrNoRows) {
		created = true
		bag = &types.BagPolicy{
			Name:                name,
			DefaultTopK:         types.DefaultTopK,
			RecencyHalfLifeDays: types.DefaultRecencyHalfLifeDays,
			ImportanceWeight:    types.DefaultImportanceWeight,
			CreatedAt:           now,
		}
	} else if err != nil {
		return nil, err
	}

	if input.Description != nil {
		bag.Description = *input.Description
	}
	if input.DefaultTopK != nil {
		bag.DefaultTopK = *input.DefaultTopK
	}
	if input.RecencyHalfLifeDays != nil {
		bag.RecencyHalfLifeDays = *input.RecencyHalfLifeDays
	}
	if input.ImportanceWeight != nil {
		bag.ImportanceWeight = *input.ImportanceWeight
	}
	if input.AllowedKinds != nil {
		bag.AllowedKinds = *input.AllowedKinds
	}
	bag.UpdatedAt = now
	bag.Clamp()

	kindsJSON, err := marshalKinds(bag.AllowedKinds)
	if err != nil {
		return nil, err
	}

	if created {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bags (name, description, default_top_k, recency_half_life_days, importance_weight, allowed_kinds, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, bag.Name, bag.Description, bag.DefaultTopK, bag.RecencyHalfLifeDays, bag.ImportanceWeight, kindsJSON, bag.CreatedAt, bag.UpdatedAt)
	} else {
		_, err = tx.ExecContext(ctx, `
			UPDATE bags
			SET description = ?, default_top_k = ?, recency_half_life_days = ?, importance_weight = ?, allowed_kinds = ?, updated_at = ?
			WHERE name = ?
		`, bag.Description, bag.DefaultTopK, bag.RecencyHalfLifeDays, bag.ImportanceWeight, kindsJSON, bag.UpdatedAt, bag.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to upsert bag %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to commit bag upsert: %w", err)
	}

	return bag, nil
}

// DeleteBag removes a bag policy. A missing bag is a no-op reporting
// Deleted=false. Protected bags require AllowSystem; non-empty bags require
// Force, which also deletes every owned memory (vectors cascade) in the
// same transaction.
func (s *Store) DeleteBag(ctx context.Context, name string, opts storage.DeleteBagOptions) (storage.BagDeleteResult, error) {
	var result storage.BagDeleteResult

	if name == "" {
		return result, fmt.Errorf("%w: bag name is required", storage.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM bags WHERE name = ?`, name).Scan(&exists)
	if err != nil {
		return result, fmt.Errorf("sqlite: failed to check bag %q: %w", name, err)
	}
	if exists == 0 {
		return result, nil
	}

	if storage.ProtectedBags[name] && !opts.AllowSystem {
		return result, fmt.Errorf("%w: %q is a system bag", storage.ErrBagProtected, name)
	}

	var owned int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE bag = ?`, name).Scan(&owned)
	if err != nil {
		return result, fmt.Errorf("sqlite: failed to count memories in bag %q: %w", name, err)
	}

	if owned > 0 {
		if !opts.Force {
			return result, fmt.Errorf("%w: bag %q owns %d memories", storage.ErrBagNotEmpty, name, owned)
		}
		// Vectors cascade via the FK on vectors.memory_id.
		if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE bag = ?`, name); err != nil {
			return result, fmt.Errorf("sqlite: failed to delete memories in bag %q: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bags WHERE name = ?`, name); err != nil {
		return result, fmt.Errorf("sqlite: failed to delete bag %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("sqlite: failed to commit bag delete: %w", err)
	}

	result.Deleted = true
	result.MemoriesRemoved = owned
	return result, nil
}

// InsertMemory atomically inserts a record and its embedding vector.
// Both rows are written in one transaction; either both persist or neither.
func (s *Store) InsertMemory(ctx context.Context, record *types.MemoryRecord, vector *types.EmbeddingVector) error {
	if record == nil || vector == nil {
		return fmt.Errorf("%w: record and vector are required", storage.ErrInvalidInput)
	}
	if record.ID == "" || record.ID != vector.MemoryID {
		return fmt.Errorf("%w: record and vector IDs must match", storage.ErrInvalidInput)
	}

	tagsJSON, sourceJSON, err := marshalMemoryFields(record)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO memories (id, bag, kind, content, tags, importance, source, created_at, updated_at, last_accessed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Bag, string(record.Kind), record.Content,
		tagsJSON, record.Importance, sourceJSON,
		record.CreatedAt, record.UpdatedAt,
		nullableTime(record.LastAccessedAt), nullableTime(record.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert memory: %w", err)
	}

	if err := upsertVector(ctx, tx, vector); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit memory insert: %w", err)
	}

	return nil
}

// UpdateMemory atomically updates a record and, when vector is non-nil,
// overwrites its stored embedding in the same transaction.
func (s *Store) UpdateMemory(ctx context.Context, record *types.MemoryRecord, vector *types.EmbeddingVector) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	tagsJSON, sourceJSON, err := marshalMemoryFields(record)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE memories
		SET content = ?, tags = ?, importance = ?, source = ?, updated_at = ?, expires_at = ?
		WHERE id = ?
	`,
		record.Content, tagsJSON, record.Importance, sourceJSON,
		record.UpdatedAt, nullableTime(record.ExpiresAt),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if vector != nil {
		if vector.MemoryID != record.ID {
			return fmt.Errorf("%w: record and vector IDs must match", storage.ErrInvalidInput)
		}
		if err := upsertVector(ctx, tx, vector); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit memory update: %w", err)
	}

	return nil
}

// GetMemory retrieves a record by ID.
func (s *Store) GetMemory(ctx context.Context, id string) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, bag, kind, content, tags, importance, source, created_at, updated_at, last_accessed_at, expires_at
		FROM memories
		WHERE id = ?
	`, id)

	record, err := scanMemory(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// GetEmbedding retrieves the embedding vector stored for a record.
func (s *Store) GetEmbedding(ctx context.Context, id string) (*types.EmbeddingVector, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	var (
		blob      []byte
		model     string
		dimension int
		norm      float64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT vector, model, dimension, norm
		FROM vectors
		WHERE memory_id = ?
	`, id).Scan(&blob, &model, &dimension, &norm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get embedding: %w", err)
	}

	vector, err := deserializeVector(blob, dimension)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to deserialize embedding: %w", err)
	}

	return &types.EmbeddingVector{
		MemoryID:  id,
		Vector:    vector,
		Model:     model,
		Dimension: dimension,
		Norm:      norm,
	}, nil
}

// DeleteMemory removes a record; the vector row cascades. Returns whether a
// row was actually removed so deletion stays idempotent.
func (s *Store) DeleteMemory(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("%w: memory ID is required", storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to delete memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}

	return affected > 0, nil
}

// Candidates selects the recall candidate pool: unexpired memories joined
// with their vectors, optionally filtered by bag and kind set, newest first.
func (s *Store) Candidates(ctx context.Context, q storage.CandidateQuery) ([]storage.Candidate, error) {
	q.Normalize()

	query := `
		SELECT m.id, m.bag, m.kind, m.content, m.tags, m.importance, m.source,
		       m.created_at, m.updated_at, m.last_accessed_at, m.expires_at,
		       v.vector, v.dimension, v.norm
		FROM memories m
		JOIN vectors v ON v.memory_id = m.id
		WHERE (m.expires_at IS NULL OR m.expires_at > ?)
	`
	args := []any{q.Now}

	if q.Bag != "" {
		query += " AND m.bag = ?"
		args = append(args, q.Bag)
	}
	if len(q.Kinds) > 0 {
		placeholders := make([]string, len(q.Kinds))
		for i, k := range q.Kinds {
			placeholders[i] = "?"
			args = append(args, string(k))
		}
		query += " AND m.kind IN (" + strings.Join(placeholders, ", ") + ")"
	}

	query += " ORDER BY m.created_at DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []storage.Candidate
	for rows.Next() {
		var (
			record         types.MemoryRecord
			kind           string
			tagsJSON       sql.NullString
			sourceJSON     sql.NullString
			lastAccessedAt sql.NullTime
			expiresAt      sql.NullTime
			blob           []byte
			dimension      int
			norm           float64
		)
		err := rows.Scan(
			&record.ID, &record.Bag, &kind, &record.Content,
			&tagsJSON, &record.Importance, &sourceJSON,
			&record.CreatedAt, &record.UpdatedAt, &lastAccessedAt, &expiresAt,
			&blob, &dimension, &norm,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan candidate: %w", err)
		}

		if err := applyNullableMemoryFields(&record, kind, tagsJSON, sourceJSON, lastAccessedAt, expiresAt); err != nil {
			return nil, err
		}

		vector, err := deserializeVector(blob, dimension)
		if err != nil {
			return nil, fmt.Errorf("sqlite: candidate %s: %w", record.ID, err)
		}

		candidates = append(candidates, storage.Candidate{
			Record:    record,
			Vector:    vector,
			Dimension: dimension,
			Norm:      norm,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: candidate rows error: %w", err)
	}

	return candidates, nil
}

// TouchAccessed sets last_accessed_at on the given records. Failures here
// are the caller's choice to ignore; recall treats them as non-fatal.
func (s *Store) TouchAccessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, at)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE memories SET last_accessed_at = ? WHERE id IN (`+strings.Join(placeholders, ", ")+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("sqlite: failed to stamp access time: %w", err)
	}

	return nil
}

// upsertVector writes the embedding row inside the caller's transaction.
func upsertVector(ctx context.Context, tx *sql.Tx, vector *types.EmbeddingVector) error {
	if len(vector.Vector) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", storage.ErrInvalidInput)
	}
	if vector.Dimension != len(vector.Vector) {
		return fmt.Errorf("%w: vector length (%d) does not match dimension (%d)",
			storage.ErrInvalidInput, len(vector.Vector), vector.Dimension)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO vectors (memory_id, vector, model, dimension, norm)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(memory_id) DO UPDATE SET
			vector = excluded.vector,
			model = excluded.model,
			dimension = excluded.dimension,
			norm = excluded.norm
	`, vector.MemoryID, serializeVector(vector.Vector), vector.Model, vector.Dimension, vector.Norm)
	if err != nil {
		return fmt.Errorf("sqlite: failed to store embedding: %w", err)
	}

	return nil
}

// marshalMemoryFields serialises the JSON-backed columns of a record.
func marshalMemoryFields(record *types.MemoryRecord) (tagsJSON, sourceJSON any, err error) {
	if len(record.Tags) > 0 {
		b, err := json.Marshal(record.Tags)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
		}
		tagsJSON = string(b)
	}
	if len(record.Source) > 0 {
		b, err := json.Marshal(record.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal source: %w", err)
		}
		sourceJSON = string(b)
	}
	return tagsJSON, sourceJSON, nil
}

// marshalKinds serialises an allowed-kinds list, with NULL meaning
// "all kinds allowed".
func marshalKinds(kinds []types.Kind) (any, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(kinds)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allowed kinds: %w", err)
	}
	return string(b), nil
}

// scanBag reads one bag row. The scan argument order must match the SELECT
// column order used by every bag query in this file.
func scanBag(scan func(...any) error) (*types.BagPolicy, error) {
	var (
		bag       types.BagPolicy
		kindsJSON sql.NullString
	)
	err := scan(
		&bag.Name, &bag.Description,
		&bag.DefaultTopK, &bag.RecencyHalfLifeDays, &bag.ImportanceWeight,
		&kindsJSON, &bag.CreatedAt, &bag.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: failed to scan bag: %w", err)
	}

	if kindsJSON.Valid && kindsJSON.String != "" {
		if err := json.Unmarshal([]byte(kindsJSON.String), &bag.AllowedKinds); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal allowed kinds: %w", err)
		}
	}

	return &bag, nil
}

// scanMemory reads one memory row. The scan argument order must match the
// SELECT column order used by GetMemory.
func scanMemory(scan func(...any) error) (*types.MemoryRecord, error) {
	var (
		record         types.MemoryRecord
		kind           string
		tagsJSON       sql.NullString
		sourceJSON     sql.NullString
		lastAccessedAt sql.NullTime
		expiresAt      sql.NullTime
	)
	err := scan(
		&record.ID, &record.Bag, &kind, &record.Content,
		&tagsJSON, &record.Importance, &sourceJSON,
		&record.CreatedAt, &record.UpdatedAt, &lastAccessedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("sqlite: failed to scan memory: %w", err)
	}

	if err := applyNullableMemoryFields(&record, kind, tagsJSON, sourceJSON, lastAccessedAt, expiresAt); err != nil {
		return nil, err
	}

	return &record, nil
}

// applyNullableMemoryFields decodes the nullable SQL fields into the record.
func applyNullableMemoryFields(
	record *types.MemoryRecord,
	kind string,
	tagsJSON, sourceJSON sql.NullString,
	lastAccessedAt, expiresAt sql.NullTime,
) error {
	record.Kind = types.Kind(kind)

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &record.Tags); err != nil {
			return fmt.Errorf("sqlite: failed to unmarshal tags: %w", err)
		}
	}
	if sourceJSON.Valid && sourceJSON.String != "" {
		if err := json.Unmarshal([]byte(sourceJSON.String), &record.Source); err != nil {
			return fmt.Errorf("sqlite: failed to unmarshal source: %w", err)
		}
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		record.LastAccessedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		record.ExpiresAt = &t
	}

	return nil
}

// nullableTime converts a *time.Time to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
