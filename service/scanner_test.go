package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"docuvault/scan-api/model"
	"docuvault/scan-api/ocr"
	"docuvault/scan-api/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeEngine struct {
	text string
	err  error
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte) (string, error) {
	return f.text, f.err
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, io.Reader, int64, string) error {
	return errors.New("bucket unreachable")
}

func (failingStore) Get(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("bucket unreachable")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("bucket unreachable")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}, model.Document{}))

	return db
}

func fixedRegistry(e ocr.Engine, err error) *ocr.Registry {
	return ocr.NewRegistry(func() (ocr.Engine, error) {
		return e, err
	})
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func makeFileHeader(t *testing.T, name string, contents []byte, contentType string) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(contents)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, fh, err := req.FormFile("file")
	require.NoError(t, err)

	return fh
}

func docCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&model.Document{}).Count(&count).Error)

	return count
}

func TestScanSuccess(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	s := NewScanner(db, store, fixedRegistry(&fakeEngine{text: "Total due: 42.00"}, nil))

	fh := makeFileHeader(t, "invoice.png", pngBytes(t), "image/png")

	doc, err := s.Scan(context.Background(), "alice", "Invoice", fh)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "alice", doc.OwnerID)
	assert.Equal(t, "Invoice", doc.Title)
	assert.Equal(t, "Total due: 42.00", doc.Content)
	assert.NotEmpty(t, doc.FileKey)

	// The raw scan must be retrievable under the stored reference
	r, err := store.Get(context.Background(), doc.FileKey)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), data)

	assert.EqualValues(t, 1, docCount(t, db))
}

func TestScanEmptyContentIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	s := NewScanner(db, store, fixedRegistry(&fakeEngine{text: ""}, nil))

	fh := makeFileHeader(t, "blank.png", pngBytes(t), "image/png")

	doc, err := s.Scan(context.Background(), "alice", "Blank page", fh)
	require.NoError(t, err)
	assert.Equal(t, "", doc.Content)
}

func TestScanMissingFile(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	s := NewScanner(db, store, fixedRegistry(&fakeEngine{text: "unused"}, nil))

	_, err := s.Scan(context.Background(), "alice", "Nothing", nil)
	assert.ErrorIs(t, err, ErrMissingFile)

	// Nothing may be written when validation fails
	assert.Empty(t, store.Keys())
	assert.EqualValues(t, 0, docCount(t, db))
}

func TestScanStorageFailureLeavesNoDocument(t *testing.T) {
	db := newTestDB(t)
	s := NewScanner(db, failingStore{}, fixedRegistry(&fakeEngine{text: "unused"}, nil))

	fh := makeFileHeader(t, "invoice.png", pngBytes(t), "image/png")

	_, err := s.Scan(context.Background(), "alice", "Invoice", fh)
	assert.ErrorIs(t, err, ErrStorage)
	assert.EqualValues(t, 0, docCount(t, db))
}

func TestScanModelLoadErrorPropagates(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	s := NewScanner(db, store, fixedRegistry(nil, errors.New("traineddata missing")))

	fh := makeFileHeader(t, "invoice.png", pngBytes(t), "image/png")

	_, err := s.Scan(context.Background(), "alice", "Invoice", fh)
	assert.ErrorIs(t, err, ocr.ErrModelLoad)
	assert.EqualValues(t, 0, docCount(t, db))
}

func TestScanInferenceFailureKeepsStoredFile(t *testing.T) {
	db := newTestDB(t)
	store := storage.NewMemoryStore()
	s := NewScanner(db, store, fixedRegistry(&fakeEngine{err: errors.New("segfault in tesseract")}, nil))

	fh := makeFileHeader(t, "invoice.png", pngBytes(t), "image/png")

	_, err := s.Scan(context.Background(), "alice", "Invoice", fh)
	assert.ErrorIs(t, err, ErrInference)

	// No document record, but the uploaded bytes stay behind for a
	// later reconciliation pass
	assert.EqualValues(t, 0, docCount(t, db))
	assert.Len(t, store.Keys(), 1)
}
