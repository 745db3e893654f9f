package remote

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"
)

const maxImageBytes = 20 << 20

// Image is a downloaded image body and its decoded header.
type Image struct {
	Data   []byte
	Format string
	Config image.Config
}

// ImageDownloader fetches images over HTTP.
type ImageDownloader struct {
	httpClient *http.Client
}

// NewImageDownloader creates a downloader whose requests give up after timeout.
func NewImageDownloader(timeout time.Duration) *ImageDownloader {
	return &ImageDownloader{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Download fetches rawURL and checks that the body decodes as an image.
func (d *ImageDownloader) Download(ctx context.Context, rawURL string) (*Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "image download failed"}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image at %s exceeds %d bytes", rawURL, maxImageBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	return &Image{Data: data, Format: format, Config: cfg}, nil
}
