package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sage-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "sage-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument saves a document to satisfy foreign key constraints.
func createTestDocument(t *testing.T, store *Store, id string, created time.Time) *domain.Document {
	t.Helper()
	doc := &domain.Document{
		ID:        id,
		Title:     "Doc " + id,
		Category:  domain.CategoryKnowledge,
		Content:   "content of " + id,
		Status:    domain.StatusUploaded,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, store.DocumentStore().SaveDocument(context.Background(), doc))
	return doc
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sage.db"), store.Path())
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var versions int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)
}

func TestNewStore_BadDir(t *testing.T) {
	_, err := NewStore("/dev/null/nope")
	assert.Error(t, err)
}

func TestFloat32Conversion(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4e38}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

func TestDocumentStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	docs := store.DocumentStore()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	createTestDocument(t, store, "b", base)
	createTestDocument(t, store, "a", base)
	createTestDocument(t, store, "c", base.Add(time.Minute))

	t.Run("get", func(t *testing.T) {
		doc, err := docs.GetDocument(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, "Doc a", doc.Title)
		assert.Equal(t, domain.CategoryKnowledge, doc.Category)
		assert.Equal(t, domain.StatusUploaded, doc.Status)
		assert.True(t, base.Equal(doc.CreatedAt))

		_, err = docs.GetDocument(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list ordered by created then id", func(t *testing.T) {
		list, err := docs.ListDocuments(ctx, domain.DocumentFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{list[0].ID, list[1].ID, list[2].ID})
	})

	t.Run("update status and filter", func(t *testing.T) {
		require.NoError(t, docs.UpdateStatus(ctx, "b", domain.StatusFailed, "empty content"))

		failed, err := docs.ListDocuments(ctx, domain.DocumentFilter{Status: domain.StatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 1)
		assert.Equal(t, "empty content", failed[0].FailureReason)

		training, err := docs.ListDocuments(ctx, domain.DocumentFilter{Category: domain.CategoryTraining})
		require.NoError(t, err)
		assert.Empty(t, training)

		assert.ErrorIs(t, docs.UpdateStatus(ctx, "missing", domain.StatusIndexed, ""), domain.ErrNotFound)
	})

	t.Run("replace chunks", func(t *testing.T) {
		first := []domain.Chunk{
			{ID: "a#0", DocumentID: "a", Ordinal: 0, Content: "hello ", Start: 0, End: 6},
			{ID: "a#1", DocumentID: "a", Ordinal: 1, Content: "world", Start: 6, End: 11},
		}
		require.NoError(t, docs.ReplaceChunks(ctx, "a", first))

		second := []domain.Chunk{{ID: "a#0", DocumentID: "a", Ordinal: 0, Content: "hello world", End: 11}}
		require.NoError(t, docs.ReplaceChunks(ctx, "a", second))

		chunks, err := docs.GetChunks(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, second, chunks)

		doc, err := docs.GetDocument(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.ChunkCount)

		c, err := docs.GetChunk(ctx, "a#0")
		require.NoError(t, err)
		assert.Equal(t, "hello world", c.Content)

		_, err = docs.GetChunk(ctx, "a#1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.ErrorIs(t, docs.ReplaceChunks(ctx, "missing", second), domain.ErrNotFound)
	})

	t.Run("delete cascades to chunks and vectors", func(t *testing.T) {
		idx := store.VectorIndex()
		require.NoError(t, idx.Upsert(ctx, "a", vectors("a", []float32{1, 0})))

		require.NoError(t, docs.DeleteDocument(ctx, "a"))

		chunks, err := docs.GetChunks(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, chunks)

		n, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		assert.ErrorIs(t, docs.DeleteDocument(ctx, "a"), domain.ErrNotFound)
	})
}

func TestJobStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	jobs := store.JobStore()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	job := &domain.IngestionJob{
		ID:          "j1",
		DocumentIDs: []string{"d1", "d2"},
		State:       domain.JobQueued,
		Total:       2,
		CreatedAt:   created,
	}
	require.NoError(t, jobs.SaveJob(ctx, job))

	got, err := jobs.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, got.DocumentIDs)
	assert.Equal(t, domain.JobQueued, got.State)
	assert.True(t, got.StartedAt.IsZero())
	assert.Nil(t, got.Failures)

	job.State = domain.JobCompleted
	job.Processed = 2
	job.Progress = 100
	job.Success = true
	job.Message = "indexed 1 of 2 documents"
	job.Failures = []domain.DocumentFailure{{DocumentID: "d2", Reason: "empty content"}}
	job.StartedAt = created.Add(time.Second)
	job.CompletedAt = created.Add(2 * time.Second)
	require.NoError(t, jobs.SaveJob(ctx, job))

	got, err = jobs.GetJob(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, got.State)
	assert.Equal(t, 100, got.Progress)
	assert.True(t, got.Success)
	assert.Equal(t, job.Failures, got.Failures)
	assert.True(t, job.CompletedAt.Equal(got.CompletedAt))

	require.NoError(t, jobs.SaveJob(ctx, &domain.IngestionJob{
		ID: "j2", DocumentIDs: []string{"d3"}, State: domain.JobQueued, Total: 1, CreatedAt: created.Add(time.Hour),
	}))

	list, err := jobs.ListJobs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "j2", list[0].ID)

	list, err = jobs.ListJobs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = jobs.GetJob(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemberStore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	members := store.MemberStore()

	require.NoError(t, members.SaveMembers(ctx, []domain.Member{
		{ID: "2", Name: "Linh", Skills: []string{"rust"}, Available: false, TelegramHandle: "linh"},
		{ID: "1", Name: "Minh", Skills: []string{"go", "rust"}, Projects: []string{"bridge"}, Available: true},
	}))

	list, err := members.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, []string{"bridge"}, list[0].Projects)
	assert.False(t, list[1].Available)
	assert.Nil(t, list[1].Projects)

	// Upsert replaces.
	require.NoError(t, members.SaveMembers(ctx, []domain.Member{{ID: "2", Name: "Linh N", Available: true}}))
	m, err := members.GetMember(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "Linh N", m.Name)
	assert.True(t, m.Available)
	assert.Empty(t, m.Skills)

	_, err = members.GetMember(ctx, "9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
