package service

import (
	"context"
	"errors"
	"time"

	"docuvault/scan-api/model"
	"docuvault/scan-api/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotFound covers both a missing document and a document owned by
// someone else. Collapsing the two keeps non-owners from probing which
// IDs exist; the true cause is still logged for auditing.
var ErrNotFound = errors.New("document not found")

// DocumentPatch carries the only fields an owner may change. Owner and
// file reference are immutable after creation.
type DocumentPatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Content == nil
}

// DocStore is the ownership-scoped gateway over persisted documents.
// Every operation takes the caller's verified identity and only ever
// touches records whose owner matches it.
type DocStore struct {
	DB    *gorm.DB
	Store storage.Store
}

func NewDocStore(db *gorm.DB, store storage.Store) *DocStore {
	return &DocStore{
		DB:    db,
		Store: store,
	}
}

// List returns the caller's documents, newest first.
func (d *DocStore) List(userID string) ([]model.Document, error) {
	docs := make([]model.Document, 0)

	err := d.DB.
		Where("owner_id = ?", userID).
		Order("created_at desc").
		Find(&docs).
		Error
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Update changes only the supplied fields of a document the caller owns
// and returns the new state.
func (d *DocStore) Update(userID, docID string, patch DocumentPatch) (*model.Document, error) {
	doc, err := d.fetchOwned(userID, docID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"updated_at": time.Now().Unix(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}

	err = d.DB.
		Model(&model.Document{}).
		Where("owner_id = ? AND id = ?", userID, docID).
		Updates(updates).
		Error
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Content != nil {
		doc.Content = *patch.Content
	}
	doc.UpdatedAt = updates["updated_at"].(int64)

	return doc, nil
}

// Delete removes a document the caller owns and releases the stored
// file. The record deletion and the file release are a best-effort
// pair: a release failure is logged but doesn't resurrect the already
// deleted record.
func (d *DocStore) Delete(ctx context.Context, userID, docID string) error {
	doc, err := d.fetchOwned(userID, docID)
	if err != nil {
		return err
	}

	err = d.DB.
		Where("owner_id = ? AND id = ?", userID, docID).
		Delete(&model.Document{}).
		Error
	if err != nil {
		return err
	}

	if err := d.Store.Delete(ctx, doc.FileKey); err != nil {
		zap.L().Error("Failed to release stored file after document deletion",
			zap.Error(err),
			zap.String("docID", docID),
			zap.String("key", doc.FileKey))
	}

	return nil
}

func (d *DocStore) fetchOwned(userID, docID string) (*model.Document, error) {
	var doc model.Document

	err := d.DB.
		Where("owner_id = ? AND id = ?", userID, docID).
		First(&doc).
		Error
	if err == nil {
		return &doc, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Log whether this was a miss or an ownership violation, the caller
	// only ever sees not-found either way
	var count int64
	if err := d.DB.Model(&model.Document{}).Where("id = ?", docID).Count(&count).Error; err == nil && count > 0 {
		zap.L().Warn("Blocked access to another user's document",
			zap.String("docID", docID),
			zap.String("userID", userID))
	}

	return nil, ErrNotFound
}
