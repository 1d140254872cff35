// Package service holds the business logic behind the API handlers
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"docuvault/scan-api/model"
	"docuvault/scan-api/ocr"
	"docuvault/scan-api/storage"
	"docuvault/scan-api/util"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMissingFile = errors.New("no scan file provided")
	ErrStorage     = errors.New("storage backend failed")
	ErrInference   = errors.New("text recognition failed")
)

const idCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Scanner runs the upload -> inference -> persist pipeline. The
// database, file store and OCR registry are supplied at construction so
// they can be swapped out in tests.
type Scanner struct {
	DB    *gorm.DB
	Store storage.Store
	OCR   *ocr.Registry
}

func NewScanner(db *gorm.DB, store storage.Store, reg *ocr.Registry) *Scanner {
	return &Scanner{
		DB:    db,
		Store: store,
		OCR:   reg,
	}
}

// Scan persists the uploaded file, runs OCR over it and creates a
// document owned by userID. Nothing is written before the upload is
// validated. If inference fails after the file was stored, the stored
// file is kept rather than deleted; a concurrent request could already
// reference it, so cleanup is an explicit maintenance task and not done
// here.
func (s *Scanner) Scan(ctx context.Context, userID, title string, fh *multipart.FileHeader) (*model.Document, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrMissingFile
	}

	f, err := fh.Open()
	if err != nil {
		zap.L().Error("Failed to open multipart file", zap.Error(err))
		return nil, ErrMissingFile
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		zap.L().Error("Failed to read uploaded scan", zap.Error(err))
		return nil, ErrStorage
	}

	if len(data) == 0 {
		return nil, ErrMissingFile
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}

	key := util.RandStr(10) + strings.ToLower(path.Ext(fh.Filename))

	err = s.Store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		zap.L().Error("Failed to store scan bytes", zap.Error(err), zap.String("key", key))
		return nil, ErrStorage
	}

	engine, err := s.OCR.Get(ctx)
	if err != nil {
		return nil, err
	}

	text, err := engine.Recognize(ctx, data)
	if err != nil {
		// The stored object stays behind as an at-least-once artifact
		zap.L().Error("OCR failed on stored scan", zap.Error(err), zap.String("key", key))
		return nil, ErrInference
	}

	docID, err := gonanoid.Generate(idCharset, 16)
	if err != nil {
		zap.L().Error("Failed to generate document ID", zap.Error(err))
		return nil, ErrStorage
	}

	doc := &model.Document{
		ID:        docID,
		OwnerID:   userID,
		Title:     title,
		Content:   text,
		FileKey:   key,
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}

	if err := s.DB.WithContext(ctx).Create(doc).Error; err != nil {
		zap.L().Error("Failed to create document record", zap.Error(err), zap.String("key", key))
		return nil, ErrStorage
	}

	return doc, nil
}
