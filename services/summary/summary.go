package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veradanicode/Country-Currency-and-Exchange-Api/internal/logger"
	"github.com/veradanicode/Country-Currency-and-Exchange-Api/models"
)

// Service renders the refresh summary and caches it on disk.
type Service struct {
	renderer Renderer
	path     string
	timeout  time.Duration
}

func NewService(renderer Renderer, path string, timeout time.Duration) *Service {
	return &Service{renderer: renderer, path: path, timeout: timeout}
}

// Path is where the cached image lives.
func (s *Service) Path() string {
	return s.path
}

// Generate renders the summary and replaces the cached image. The previous
// image stays in place if rendering or writing fails.
func (s *Service) Generate(ctx context.Context, summary models.Summary) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	img, err := s.renderer.Render(ctx, summary)
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	if err := writeFileAtomic(s.path, img); err != nil {
		return fmt.Errorf("write summary image: %w", err)
	}

	logger.Info("Summary image created at %s (%d bytes)", s.path, len(img))
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
