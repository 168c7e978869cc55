package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/esskayesss/local-memory/internal/embedding"
	"github.com/esskayesss/local-memory/internal/engine"
	"github.com/esskayesss/local-memory/internal/storage"
	"github.com/esskayesss/local-memory/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func insertTestMemory(t *testing.T, store *Store, id, bag string, createdAt time.Time) *types.MemoryRecord {
	t.Helper()
	record := &types.MemoryRecord{
		ID:         id,
		Bag:        bag,
		Kind:       types.KindNote,
		Content:    "content for " + id,
		Importance: 3,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	vector := &types.EmbeddingVector{
		MemoryID:  id,
		Vector:    []float64{0.1, 0.2, 0.3},
		Model:     "test-model",
		Dimension: 3,
		Norm:      0.374165738,
	}
	if err := store.InsertMemory(context.Background(), record, vector); err != nil {
		t.Fatalf("InsertMemory(%s) failed: %v", id, err)
	}
	return record
}

func TestNew_SeedsSystemBags(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for name, wantTopK := range map[string]int{"default": 8, "identity": 8, "journal": 10} {
		bag, err := store.GetBag(ctx, name)
		if err != nil {
			t.Fatalf("GetBag(%s) failed: %v", name, err)
		}
		if bag.DefaultTopK != wantTopK {
			t.Errorf("bag %s DefaultTopK = %d, want %d", name, bag.DefaultTopK, wantTopK)
		}
	}

	identity, err := store.GetBag(ctx, "identity")
	if err != nil {
		t.Fatalf("GetBag(identity) failed: %v", err)
	}
	if len(identity.AllowedKinds) != 3 {
		t.Errorf("identity AllowedKinds = %v, want fact/preference/constraint", identity.AllowedKinds)
	}
	if identity.RecencyHalfLifeDays != 3650 {
		t.Errorf("identity half-life = %f, want 3650", identity.RecencyHalfLifeDays)
	}
}

func TestUpsertBag_CreateWithDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bag, err := store.UpsertBag(ctx, storage.BagUpsert{Name: "projects"})
	if err != nil {
		t.Fatalf("UpsertBag failed: %v", err)
	}
	if bag.DefaultTopK != types.DefaultTopK {
		t.Errorf("DefaultTopK = %d, want %d", bag.DefaultTopK, types.DefaultTopK)
	}
	if bag.RecencyHalfLifeDays != types.DefaultRecencyHalfLifeDays {
		t.Errorf("RecencyHalfLifeDays = %f", bag.RecencyHalfLifeDays)
	}
	if bag.ImportanceWeight != types.DefaultImportanceWeight {
		t.Errorf("ImportanceWeight = %f", bag.ImportanceWeight)
	}
	if bag.CreatedAt.IsZero() || bag.UpdatedAt.IsZero() {
		t.Error("timestamps must be set on creation")
	}
}

func TestUpsertBag_ClampsOutOfRangeValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	topK := 9999
	halfLife := 0.001
	weight := 50.0
	bag, err := store.UpsertBag(ctx, storage.BagUpsert{
		Name:                "wild",
		DefaultTopK:         &topK,
		RecencyHalfLifeDays: &halfLife,
		ImportanceWeight:    &weight,
	})
	if err != nil {
		t.Fatalf("UpsertBag failed: %v", err)
	}
	if bag.DefaultTopK != types.MaxTopK {
		t.Errorf("DefaultTopK = %d, want clamped to %d", bag.DefaultTopK, types.MaxTopK)
	}
	if bag.RecencyHalfLifeDays != types.MinRecencyHalfLifeDays {
		t.Errorf("RecencyHalfLifeDays = %f, want clamped to %f", bag.RecencyHalfLifeDays, types.MinRecencyHalfLifeDays)
	}
	if bag.ImportanceWeight != types.MaxImportanceWeight {
		t.Errorf("ImportanceWeight = %f, want clamped to %f", bag.ImportanceWeight, types.MaxImportanceWeight)
	}
}

func TestUpsertBag_MergePreservesOmittedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	desc := "work items"
	topK := 12
	created, err := store.UpsertBag(ctx, storage.BagUpsert{
		Name:        "work",
		Description: &desc,
		DefaultTopK: &topK,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	weight := 0.9
	updated, err := store.UpsertBag(ctx, storage.BagUpsert{
		Name:             "work",
		ImportanceWeight: &weight,
	})
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	if updated.Description != "work items" {
		t.Errorf("Description = %q, want preserved", updated.Description)
	}
	if updated.DefaultTopK != 12 {
		t.Errorf("DefaultTopK = %d, want preserved 12", updated.DefaultTopK)
	}
	if updated.ImportanceWeight != 0.9 {
		t.Errorf("ImportanceWeight = %f, want 0.9", updated.ImportanceWeight)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("CreatedAt changed on merge: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestGetBag_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetBag(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteBag_MissingIsNoOp(t *testing.T) {
	store := newTestStore(t)
	result, err := store.DeleteBag(context.Background(), "ghost", storage.DeleteBagOptions{})
	if err != nil {
		t.Fatalf("DeleteBag failed: %v", err)
	}
	if result.Deleted {
		t.Error("deleting a missing bag must report Deleted=false")
	}
}

func TestDeleteBag_ProtectedRequiresAllowSystem(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.DeleteBag(ctx, "identity", storage.DeleteBagOptions{})
	if !errors.Is(err, storage.ErrBagProtected) {
		t.Fatalf("expected ErrBagProtected, got %v", err)
	}

	result, err := store.DeleteBag(ctx, "identity", storage.DeleteBagOptions{AllowSystem: true})
	if err != nil {
		t.Fatalf("DeleteBag with AllowSystem failed: %v", err)
	}
	if !result.Deleted {
		t.Error("expected deletion with AllowSystem")
	}
}

func TestDeleteBag_NonEmptyRequiresForce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.UpsertBag(ctx, storage.BagUpsert{Name: "stash"}); err != nil {
		t.Fatalf("UpsertBag failed: %v", err)
	}
	insertTestMemory(t, store, "m1", "stash", time.Now().UTC())
	insertTestMemory(t, store, "m2", "stash", time.Now().UTC())

	_, err := store.DeleteBag(ctx, "stash", storage.DeleteBagOptions{})
	if !errors.Is(err, storage.ErrBagNotEmpty) {
		t.Fatalf("expected ErrBagNotEmpty, got %v", err)
	}

	result, err := store.DeleteBag(ctx, "stash", storage.DeleteBagOptions{Force: true})
	if err != nil {
		t.Fatalf("force delete failed: %v", err)
	}
	if !result.Deleted || result.MemoriesRemoved != 2 {
		t.Errorf("force delete result = %+v, want Deleted with 2 removed", result)
	}

	// The owned memories and their vectors must be gone.
	if _, err := store.GetMemory(ctx, "m1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("memory m1 should be gone, got %v", err)
	}
	if _, err := store.GetEmbedding(ctx, "m1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("vector for m1 should be gone, got %v", err)
	}
}

func TestInsertAndGetMemory_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	expires := now.Add(24 * time.Hour)
	record := &types.MemoryRecord{
		ID:         "mem-rt",
		Bag:        "default",
		Kind:       types.KindFact,
		Content:    "water boils at 100C at sea level",
		Tags:       []string{"physics", "cooking"},
		Importance: 4,
		Source:     map[string]any{"session": "abc", "turn": float64(12)},
		CreatedAt:  now,
		UpdatedAt:  now,
		ExpiresAt:  &expires,
	}
	vector := &types.EmbeddingVector{
		MemoryID:  "mem-rt",
		Vector:    []float64{0.5, -0.25, 0.75, 0.1},
		Model:     "nomic-embed-text",
		Dimension: 4,
		Norm:      0.942,
	}
	if err := store.InsertMemory(ctx, record, vector); err != nil {
		t.Fatalf("InsertMemory failed: %v", err)
	}

	got, err := store.GetMemory(ctx, "mem-rt")
	if err != nil {
		t.Fatalf("GetMemory failed: %v", err)
	}
	if got.Bag != "default" || got.Kind != types.KindFact || got.Content != record.Content {
		t.Errorf("record mismatch: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "physics" {
		t.Errorf("tags mismatch: %v", got.Tags)
	}
	if got.Source["session"] != "abc" {
		t.Errorf("source mismatch: %v", got.Source)
	}
	if got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("expiry mismatch: %v", got.ExpiresAt)
	}
	if got.LastAccessedAt != nil {
		t.Errorf("LastAccessedAt should start nil, got %v", got.LastAccessedAt)
	}

	emb, err := store.GetEmbedding(ctx, "mem-rt")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if emb.Dimension != 4 || emb.Model != "nomic-embed-text" {
		t.Errorf("embedding metadata mismatch: %+v", emb)
	}
	for i, v := range emb.Vector {
		if v != vector.Vector[i] {
			t.Errorf("vector[%d] = %f, want %f", i, v, vector.Vector[i])
		}
	}
}

func TestInsertMemory_RejectsMismatchedIDs(t *testing.T) {
	store := newTestStore(t)
	record := &types.MemoryRecord{ID: "a", Bag: "default", Kind: types.KindNote, Content: "x"}
	vector := &types.EmbeddingVector{MemoryID: "b", Vector: []float64{1}, Dimension: 1}
	err := store.InsertMemory(context.Background(), record, vector)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateMemory_NilVectorKeepsEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := insertTestMemory(t, store, "keep-vec", "default", time.Now().UTC())
	before, err := store.GetEmbedding(ctx, "keep-vec")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}

	record.Tags = []string{"updated"}
	record.UpdatedAt = time.Now().UTC()
	if err := store.UpdateMemory(ctx, record, nil); err != nil {
		t.Fatalf("UpdateMemory failed: %v", err)
	}

	after, err := store.GetEmbedding(ctx, "keep-vec")
	if err != nil {
		t.Fatalf("GetEmbedding after update failed: %v", err)
	}
	for i := range before.Vector {
		if before.Vector[i] != after.Vector[i] {
			t.Fatalf("vector changed at %d: %f -> %f", i, before.Vector[i], after.Vector[i])
		}
	}

	got, err := store.GetMemory(ctx, "keep-vec")
	if err != nil {
		t.Fatalf("GetMemory failed: %v", err)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "updated" {
		t.Errorf("tags not updated: %v", got.Tags)
	}
}

func TestUpdateMemory_WithVectorOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := insertTestMemory(t, store, "new-vec", "default", time.Now().UTC())
	record.Content = "rewritten"
	record.UpdatedAt = time.Now().UTC()
	vector := &types.EmbeddingVector{
		MemoryID:  "new-vec",
		Vector:    []float64{9, 8, 7},
		Model:     "test-model-v2",
		Dimension: 3,
		Norm:      13.928,
	}
	if err := store.UpdateMemory(ctx, record, vector); err != nil {
		t.Fatalf("UpdateMemory failed: %v", err)
	}

	emb, err := store.GetEmbedding(ctx, "new-vec")
	if err != nil {
		t.Fatalf("GetEmbedding failed: %v", err)
	}
	if emb.Vector[0] != 9 || emb.Model != "test-model-v2" {
		t.Errorf("vector not overwritten: %+v", emb)
	}
}

func TestUpdateMemory_MissingRecord(t *testing.T) {
	store := newTestStore(t)
	record := &types.MemoryRecord{ID: "ghost", Bag: "default", Kind: types.KindNote, Content: "x", UpdatedAt: time.Now()}
	err := store.UpdateMemory(context.Background(), record, nil)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMemory_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertTestMemory(t, store, "del-me", "default", time.Now().UTC())

	deleted, err := store.DeleteMemory(ctx, "del-me")
	if err != nil || !deleted {
		t.Fatalf("first delete = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = store.DeleteMemory(ctx, "del-me")
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if deleted {
		t.Error("second delete must report false")
	}

	// Vector must have cascaded with the record.
	if _, err := store.GetEmbedding(ctx, "del-me"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("vector should be gone, got %v", err)
	}
}

func TestCandidates_FiltersAndOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.UpsertBag(ctx, storage.BagUpsert{Name: "work"}); err != nil {
		t.Fatalf("UpsertBag failed: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		insertTestMemory(t, store, fmt.Sprintf("c%d", i), "default", base.Add(time.Duration(i)*time.Minute))
	}
	insertTestMemory(t, store, "w0", "work", base)

	// Expired memory must never appear.
	expired := time.Now().UTC().Add(-time.Minute)
	rec := &types.MemoryRecord{
		ID: "gone", Bag: "default", Kind: types.KindNote, Content: "expired",
		Importance: 3, CreatedAt: base, UpdatedAt: base, ExpiresAt: &expired,
	}
	vec := &types.EmbeddingVector{MemoryID: "gone", Vector: []float64{1, 2, 3}, Dimension: 3, Norm: 3.742}
	if err := store.InsertMemory(ctx, rec, vec); err != nil {
		t.Fatalf("InsertMemory(expired) failed: %v", err)
	}

	all, err := store.Candidates(ctx, storage.CandidateQuery{})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("all candidates = %d, want 6 (expired excluded)", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Record.CreatedAt.After(all[i-1].Record.CreatedAt) {
			t.Error("candidates must be ordered newest first")
		}
	}

	work, err := store.Candidates(ctx, storage.CandidateQuery{Bag: "work"})
	if err != nil {
		t.Fatalf("Candidates(work) failed: %v", err)
	}
	if len(work) != 1 || work[0].Record.ID != "w0" {
		t.Errorf("bag filter: %+v", work)
	}

	facts, err := store.Candidates(ctx, storage.CandidateQuery{Kinds: []types.Kind{types.KindFact}})
	if err != nil {
		t.Fatalf("Candidates(kinds) failed: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("kind filter: got %d, want 0 (all test memories are notes)", len(facts))
	}

	limited, err := store.Candidates(ctx, storage.CandidateQuery{Limit: 2})
	if err != nil {
		t.Fatalf("Candidates(limit) failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}
}

func TestTouchAccessed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertTestMemory(t, store, "t1", "default", time.Now().UTC())
	insertTestMemory(t, store, "t2", "default", time.Now().UTC())

	at := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.TouchAccessed(ctx, []string{"t1", "t2"}, at); err != nil {
		t.Fatalf("TouchAccessed failed: %v", err)
	}

	for _, id := range []string{"t1", "t2"} {
		got, err := store.GetMemory(ctx, id)
		if err != nil {
			t.Fatalf("GetMemory(%s) failed: %v", id, err)
		}
		if got.LastAccessedAt == nil || !got.LastAccessedAt.Equal(at) {
			t.Errorf("%s LastAccessedAt = %v, want %v", id, got.LastAccessedAt, at)
		}
	}

	if err := store.TouchAccessed(ctx, nil, at); err != nil {
		t.Errorf("empty TouchAccessed must be a no-op, got %v", err)
	}
}

func TestVectorSerialization_RoundTrip(t *testing.T) {
	in := []float64{0.123456789, -42.5, 1e-12, 0}
	blob := serializeVector(in)
	out, err := deserializeVector(blob, len(in))
	if err != nil {
		t.Fatalf("deserializeVector failed: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("round trip mismatch at %d: %v != %v", i, in[i], out[i])
		}
	}

	if _, err := deserializeVector(blob[:7], len(in)); err == nil {
		t.Error("expected error for truncated blob")
	}
}

// Recall must not fail when a memory's bag row was removed out-of-band;
// scoring falls back to the default policy instead. The public API cannot
// produce this state (bag deletion either refuses or cascades), so the row
// is removed here with foreign keys switched off.
func TestRecall_MissingBagFallsBackToDefaultPolicy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	weight := 2.0
	if _, err := store.UpsertBag(ctx, storage.BagUpsert{Name: "scratch", ImportanceWeight: &weight}); err != nil {
		t.Fatalf("UpsertBag failed: %v", err)
	}
	insertTestMemory(t, store, "mem-orphan", "scratch", time.Now().UTC())

	for _, stmt := range []string{
		"PRAGMA foreign_keys=OFF",
		"DELETE FROM bags WHERE name = 'scratch'",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := store.db.Exec(stmt); err != nil {
			t.Fatalf("%s failed: %v", stmt, err)
		}
	}
	if _, err := store.GetBag(ctx, "scratch"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetBag after raw delete = %v, want ErrNotFound", err)
	}

	eng := engine.New(store, embedding.NewMockClient(3), 0)
	results, err := eng.Recall(ctx, engine.RecallInput{Query: "anything"})
	if err != nil {
		t.Fatalf("Recall with orphaned memory failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Recall returned %d results, want 1", len(results))
	}

	wantImportance := 3.0 / 5.0 * types.DefaultImportanceWeight
	got := results[0].Breakdown.Importance
	if math.Abs(got-wantImportance) > 1e-9 {
		t.Errorf("importance boost = %f, want %f from the default policy, not %f from the deleted bag",
			got, wantImportance, 3.0/5.0*weight)
	}
	if results[0].Breakdown.Recency <= 0 {
		t.Errorf("recency boost = %f, want > 0 under the default half-life", results[0].Breakdown.Recency)
	}
}
