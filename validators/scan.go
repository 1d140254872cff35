package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrScanTooLarge        = errors.New("scan file too large")
	ErrScanNameTooLong     = errors.New("file name is too long")
	ErrScanTypeUnsupported = errors.New("unsupported scan file type")
	ErrNoScan              = errors.New("no scan file provided")
)

const maxFileNameSize = 255

// ScanValidator checks that an uploaded multipart file is a non-empty
// image within the configured size limit. Returns the opened file
// positioned at the start on success.
func ScanValidator(fh *multipart.FileHeader) (int, multipart.File, error) {
	if fh == nil || fh.Size == 0 {
		return http.StatusBadRequest, nil, ErrNoScan
	}

	// Check headers first which is easy to spoof, but faster for legit clients
	ct := fh.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "image/") {
		return http.StatusBadRequest, nil, ErrScanTypeUnsupported
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrScanNameTooLong
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if maxFileSize > 0 && fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, ErrScanTooLarge
	}

	// And now do the checks on the actual file to avoid
	// malicious clients
	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !strings.HasPrefix(mime.String(), "image/") {
		f.Close()
		return http.StatusBadRequest, nil, ErrScanTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	return 0, f, nil
}
