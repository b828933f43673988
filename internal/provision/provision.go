// Package provision makes sure model weight files exist on disk before the
// inference sessions that need them are built.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrModelMissing is returned when a weight file is absent and has no download URL
	ErrModelMissing = errors.New("model file not found")

	// ErrDownloadFailed is returned when fetching a weight file does not succeed
	ErrDownloadFailed = errors.New("model download failed")
)

// Asset is a weight file and the location it can be fetched from
type Asset struct {
	Name string
	Path string
	URL  string
}

// Provisioner fetches missing assets over HTTP
type Provisioner struct {
	client *http.Client
	logger *slog.Logger
}

// New creates a Provisioner whose downloads are bounded by timeout
func New(timeout time.Duration, logger *slog.Logger) *Provisioner {
	return NewWithClient(&http.Client{Timeout: timeout}, logger)
}

// NewWithClient creates a Provisioner around an existing HTTP client
func NewWithClient(client *http.Client, logger *slog.Logger) *Provisioner {
	return &Provisioner{
		client: client,
		logger: logger,
	}
}

// Ensure leaves an existing file untouched and otherwise downloads it.
// The body is written under a unique temp name next to the target and renamed into place.
func (p *Provisioner) Ensure(ctx context.Context, a Asset) error {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	if _, err := os.Stat(a.Path); err == nil {
		p.logger.Debug("model present", slog.String("model", a.Name), slog.String("path", a.Path))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", a.Path, err)
	}

	if a.URL == "" {
		return fmt.Errorf("%w: %s", ErrModelMissing, a.Path)
	}

	p.logger.Info("downloading model",
		slog.String("model", a.Name),
		slog.String("url", a.URL),
		slog.String("path", a.Path),
	)

	start := time.Now()
	n, err := p.download(ctx, a, dir)
	if err != nil {
		return err
	}

	p.logger.Info("model downloaded",
		slog.String("model", a.Name),
		slog.Int64("bytes", n),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Provisioner) download(ctx context.Context, a Asset, dir string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, a.Name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %s returned status %d", ErrDownloadFailed, a.URL, resp.StatusCode)
	}

	tmp := TempPath(dir)
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	n, err := io.Copy(f, resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("%w: %s: %v", ErrDownloadFailed, a.Name, err)
	}

	if err := os.Rename(tmp, a.Path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("install %s: %w", a.Path, err)
	}
	return n, nil
}

// TempPath returns a fresh "temp_<8 hex>" path inside dir
func TempPath(dir string) string {
	return filepath.Join(dir, "temp_"+uuid.NewString()[:8])
}
