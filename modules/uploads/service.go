package uploads

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxBytes is the upload size ceiling.
const DefaultMaxBytes = 5 * 1024 * 1024

// URLPrefix is the path under which stored images are served.
const URLPrefix = "/uploads/"

// sniffLen is how many leading bytes http.DetectContentType considers.
const sniffLen = 512

var (
	// ErrUnsupportedType is returned for uploads whose MIME type is not image/*.
	ErrUnsupportedType = errors.New("only image files are allowed")
	// ErrTooLarge is returned for uploads over the size ceiling.
	ErrTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrEmptyFile is returned for zero-byte uploads.
	ErrEmptyFile = errors.New("file is empty")
	// ErrContentMismatch is returned when the bytes of an upload are not an
	// image of the declared type.
	ErrContentMismatch = errors.New("file content does not match its declared type")
	// ErrImageNotFound is returned when no image is stored under the requested path.
	ErrImageNotFound = errors.New("image not found")
)

// Image is a stored image.
type Image struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// Service validates and stores uploaded images.
type Service struct {
	store    ImageStore
	maxBytes int64
}

// NewService creates a service. maxBytes <= 0 selects DefaultMaxBytes.
func NewService(store ImageStore, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{store: store, maxBytes: maxBytes}
}

// MaxBytes returns the upload size ceiling.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// CheckUpload validates the declared type and size of an upload before its body is read.
func (s *Service) CheckUpload(contentType string, size int64) error {
	if !isImage(contentType) {
		return ErrUnsupportedType
	}
	if size > s.maxBytes {
		return ErrTooLarge
	}
	return nil
}

// SaveImage stores the image and returns its relative URL. The stored
// content type is the one sniffed from data, which must agree with the
// declared contentType.
func (s *Service) SaveImage(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	if err := s.CheckUpload(contentType, int64(len(data))); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	contentType, err := sniffImage(data, contentType)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	name := sanitizeFilename(filename)
	key := id + "/" + name

	if err := s.store.Put(ctx, key, data, map[string]string{
		"Content-Type":  contentType,
		"Original-Name": filename,
		"Uploaded-At":   uploadedAt(),
	}); err != nil {
		return "", err
	}
	return URLPrefix + key, nil
}

// GetImage loads an image stored by SaveImage.
func (s *Service) GetImage(ctx context.Context, id, name string) (*Image, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrImageNotFound
	}
	if name != sanitizeFilename(name) {
		return nil, ErrImageNotFound
	}

	data, headers, found, err := s.store.Get(ctx, id+"/"+name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrImageNotFound
	}

	contentType := headers["Content-Type"]
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Image{ID: id, Name: name, ContentType: contentType, Data: data}, nil
}

func isImage(contentType string) bool {
	sub, ok := strings.CutPrefix(mediaType(contentType), "image/")
	return ok && sub != ""
}

// mediaType lowercases contentType and drops its parameters.
func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return "image/jpeg"
	}
	return mt
}

// sniffImage detects the type of data and returns it when it is the image
// type that declared names.
func sniffImage(data []byte, declared string) (string, error) {
	sniffed := mediaType(http.DetectContentType(data[:min(len(data), sniffLen)]))
	if !isImage(sniffed) || sniffed != mediaType(declared) {
		return "", ErrContentMismatch
	}
	return sniffed, nil
}

// sanitizeFilename removes path components and characters unsafe in a URL path.
func sanitizeFilename(filename string) string {
	clean := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, "\\", "/")))
	clean = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, clean)
	if clean == "." || clean == ".." || clean == "" || strings.Trim(clean, "._") == "" {
		return "image"
	}
	return clean
}
