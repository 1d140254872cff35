package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/spf13/viper"
)

// TesseractEngine runs OCR through the gosseract Tesseract binding.
// Clients aren't safe for concurrent use so a fresh one is created per
// recognition.
type TesseractEngine struct {
	languages      []string
	tessdataPrefix string
	clientFactory  func() *gosseract.Client
}

// TesseractLoader returns the load function the registry uses to bring
// up the engine. Loading probes the installed language data once so a
// missing model surfaces at load time instead of mid-request.
func TesseractLoader() func() (Engine, error) {
	return func() (Engine, error) {
		e := &TesseractEngine{
			languages:      viper.GetStringSlice("ocr.languages"),
			tessdataPrefix: viper.GetString("ocr.tessdata_prefix"),
			clientFactory:  gosseract.NewClient,
		}

		if err := e.probe(); err != nil {
			return nil, err
		}

		return e, nil
	}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata prefix, %w", err)
		}
	}

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return "", fmt.Errorf("failed to set languages, %w", err)
		}
	}

	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to set image, %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text, %w", err)
	}

	return strings.TrimSpace(text), nil
}

// probe runs a recognition over a tiny blank image to force Tesseract
// to load its traineddata
func (e *TesseractEngine) probe() error {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode probe image, %w", err)
	}

	if _, err := e.Recognize(context.Background(), buf.Bytes()); err != nil {
		return fmt.Errorf("model probe failed, %w", err)
	}

	return nil
}
