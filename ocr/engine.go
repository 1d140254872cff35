// Package ocr wraps the text recognition engine behind a lazily loaded,
// process-wide registry
package ocr

import "context"

// Engine extracts text from a scanned image. Implementations must be
// safe for concurrent use.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
