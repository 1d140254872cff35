package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"docuvault/scan-api/model"
	"docuvault/scan-api/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedDoc(t *testing.T, db *gorm.DB, owner, id, title, content string) model.Document {
	t.Helper()

	doc := model.Document{
		ID:        id,
		OwnerID:   owner,
		Title:     title,
		Content:   content,
		FileKey:   id + ".png",
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	require.NoError(t, db.Create(&doc).Error)

	return doc
}

func newDocStore(t *testing.T) (*DocStore, *gorm.DB, *storage.MemoryStore) {
	t.Helper()

	db := newTestDB(t)
	store := storage.NewMemoryStore()

	return NewDocStore(db, store), db, store
}

func putObject(t *testing.T, store *storage.MemoryStore, key string) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), key, strings.NewReader("scan-bytes"), 10, "image/png"))
}

func TestListIsOwnershipScoped(t *testing.T) {
	d, db, _ := newDocStore(t)

	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")
	seedDoc(t, db, "alice", "doc-2", "Receipt", "total 7")
	seedDoc(t, db, "bob", "doc-3", "Contract", "terms")

	aliceDocs, err := d.List("alice")
	require.NoError(t, err)
	require.Len(t, aliceDocs, 2)
	for _, doc := range aliceDocs {
		assert.Equal(t, "alice", doc.OwnerID)
	}

	bobDocs, err := d.List("bob")
	require.NoError(t, err)
	require.Len(t, bobDocs, 1)
	assert.Equal(t, "doc-3", bobDocs[0].ID)

	emptyDocs, err := d.List("mallory")
	require.NoError(t, err)
	assert.Empty(t, emptyDocs)
}

func TestUpdateOnlySuppliedFields(t *testing.T) {
	d, db, _ := newDocStore(t)
	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")

	newTitle := "Invoice (March)"
	updated, err := d.Update("alice", "doc-1", DocumentPatch{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "Invoice (March)", updated.Title)
	assert.Equal(t, "total 42", updated.Content)
	assert.Equal(t, "alice", updated.OwnerID)
	assert.Equal(t, "doc-1.png", updated.FileKey)

	// And the change must be visible on a fresh read
	var fresh model.Document
	require.NoError(t, db.First(&fresh, "id = ?", "doc-1").Error)
	assert.Equal(t, "Invoice (March)", fresh.Title)
	assert.Equal(t, "total 42", fresh.Content)
}

func TestUpdateForeignDocumentLooksMissing(t *testing.T) {
	d, db, _ := newDocStore(t)
	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")

	title := "hijacked"
	_, err := d.Update("bob", "doc-1", DocumentPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)

	// And alice's document is untouched
	var fresh model.Document
	require.NoError(t, db.First(&fresh, "id = ?", "doc-1").Error)
	assert.Equal(t, "Invoice", fresh.Title)
}

func TestUpdateMissingDocument(t *testing.T) {
	d, _, _ := newDocStore(t)

	title := "whatever"
	_, err := d.Update("alice", "no-such-doc", DocumentPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReleasesStoredFile(t *testing.T) {
	d, db, store := newDocStore(t)
	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")
	putObject(t, store, "doc-1.png")

	require.NoError(t, d.Delete(context.Background(), "alice", "doc-1"))

	assert.EqualValues(t, 0, docCount(t, db))
	assert.Empty(t, store.Keys())

	// A second delete of the same document reports not found
	assert.ErrorIs(t, d.Delete(context.Background(), "alice", "doc-1"), ErrNotFound)
}

func TestDeleteForeignDocumentLooksMissing(t *testing.T) {
	d, db, store := newDocStore(t)
	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")
	putObject(t, store, "doc-1.png")

	assert.ErrorIs(t, d.Delete(context.Background(), "bob", "doc-1"), ErrNotFound)

	assert.EqualValues(t, 1, docCount(t, db))
	assert.Len(t, store.Keys(), 1)
}

func TestUpdateAfterDelete(t *testing.T) {
	d, db, _ := newDocStore(t)
	seedDoc(t, db, "alice", "doc-1", "Invoice", "total 42")

	require.NoError(t, d.Delete(context.Background(), "alice", "doc-1"))

	title := "too late"
	_, err := d.Update("alice", "doc-1", DocumentPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}
