package receipt

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const Folder = "receipts"

// Store keeps receipt blobs addressed by a relative path such as
// "receipts/<uuid>.pdf".
type Store interface {
	Save(ctx context.Context, u *Upload) (string, error)
	Delete(ctx context.Context, relPath string) error
	URL(relPath string) string
}

// LocalStore writes receipts below Root, served publicly under /storage.
type LocalStore struct {
	Root          string
	PublicBaseURL string
	MaxDimension  int
	logger        *slog.Logger
}

func NewLocalStore(root, publicBaseURL string, maxDimension int, logger *slog.Logger) *LocalStore {
	return &LocalStore{
		Root:          root,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		MaxDimension:  maxDimension,
		logger:        logger,
	}
}

func (s *LocalStore) Save(ctx context.Context, u *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rel := path.Join(Folder, uuid.NewString()+"."+u.Extension())
	dst := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create receipts dir: %w", err)
	}

	if u.IsImage() && s.MaxDimension > 0 {
		saved, err := s.saveImage(u, dst)
		if err != nil {
			return "", err
		}
		if saved {
			return rel, nil
		}
	}

	if err := copyTo(u.File, dst); err != nil {
		return "", err
	}
	return rel, nil
}

// saveImage downscales images whose longer side exceeds MaxDimension. It
// reports false when the raw bytes should be stored instead, either because
// the image is small enough or because it could not be decoded.
func (s *LocalStore) saveImage(u *Upload, dst string) (bool, error) {
	img, err := imaging.Decode(u.File, imaging.AutoOrientation(true))
	if _, seekErr := u.File.Seek(0, io.SeekStart); seekErr != nil {
		return false, fmt.Errorf("rewind receipt: %w", seekErr)
	}
	if err != nil {
		s.logger.Warn("receipt image not decodable, storing as uploaded", "error", err)
		return false, nil
	}

	if !exceeds(img.Bounds(), s.MaxDimension) {
		return false, nil
	}

	resized := imaging.Fit(img, s.MaxDimension, s.MaxDimension, imaging.Lanczos)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(85)); err != nil {
		_ = os.Remove(dst)
		return false, fmt.Errorf("save resized receipt: %w", err)
	}
	s.logger.Info("receipt image downscaled",
		"from", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()),
		"to", fmt.Sprintf("%dx%d", resized.Bounds().Dx(), resized.Bounds().Dy()))
	return true, nil
}

func exceeds(b image.Rectangle, max int) bool {
	return b.Dx() > max || b.Dy() > max
}

func copyTo(src io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create receipt file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return fmt.Errorf("write receipt file: %w", err)
	}
	return out.Close()
}

// Delete is a no-op for receipts that are already gone.
func (s *LocalStore) Delete(ctx context.Context, relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

func (s *LocalStore) URL(relPath string) string {
	if relPath == "" {
		return ""
	}
	return s.PublicBaseURL + "/storage/" + relPath
}
