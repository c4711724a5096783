package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrTooLarge   = errors.New("file too large")
	ErrNotImage   = errors.New("file is not an image")
	ErrInvalidKey = errors.New("invalid file key")
	ErrNotFound   = errors.New("file not found")
)

// File is a stored object: the public URL and the key used to delete it.
type File struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var keyPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.(jpg|png|gif|webp)$`)

// DiskStorage keeps uploads in a local directory served under baseURL.
type DiskStorage struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewDiskStorage(dir, baseURL string, maxBytes int64) (*DiskStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

func (s *DiskStorage) Dir() string { return s.dir }

func (s *DiskStorage) BaseURL() string { return s.baseURL }

// Save sniffs the content type, rejects anything that is not an image or is
// over the size limit, and writes the bytes under a random key.
func (s *DiskStorage) Save(ctx context.Context, r io.Reader) (File, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return File{}, ErrTooLarge
	}
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	ext, ok := imageExt[http.DetectContentType(data)]
	if !ok {
		return File{}, ErrNotImage
	}

	key := uuid.NewString() + ext
	if err := writeFile(filepath.Join(s.dir, key), data); err != nil {
		return File{}, err
	}
	return File{URL: s.baseURL + "/" + key, Key: key}, nil
}

// SaveMultipart stores a multipart form file.
func (s *DiskStorage) SaveMultipart(ctx context.Context, fh *multipart.FileHeader) (File, error) {
	if fh.Size > s.maxBytes {
		return File{}, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.Save(ctx, f)
}

func (s *DiskStorage) Delete(_ context.Context, key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
