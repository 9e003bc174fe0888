// Package media stores uploaded product images under content-addressed
// references so a record's imageUrl stays valid across restarts.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// RefPrefix prefixes every reference handed out by the service.
const RefPrefix = "media/"

var (
	// ErrNotFound indicates no object is stored under the reference.
	ErrNotFound = errors.New("media not found")
	// ErrUnsupportedType indicates the upload is not an image.
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrTooLarge indicates the upload exceeds the configured limit.
	ErrTooLarge = errors.New("media too large")
)

// Object is a stored image.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Backend persists raw objects by key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
}

// Service validates uploads and maps them onto backend keys.
type Service struct {
	backend  Backend
	maxBytes int64
	logger   *zap.Logger
}

// NewService wires a Service. maxBytes <= 0 disables the size limit.
func NewService(backend Backend, maxBytes int64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, maxBytes: maxBytes, logger: logger}
}

// Upload stores an image read from r and returns its reference. Uploading the
// same bytes twice yields the same reference.
func (s *Service) Upload(ctx context.Context, r io.Reader) (string, error) {
	reader := r
	if s.maxBytes > 0 {
		reader = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := Key(data)
	if err := s.backend.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("store media %s: %w", key, err)
	}

	s.logger.Debug("media stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return RefPrefix + key, nil
}

// Open loads the object behind ref.
func (s *Service) Open(ctx context.Context, ref string) (Object, error) {
	key := strings.TrimPrefix(ref, RefPrefix)
	if !validKey(key) {
		return Object{}, ErrNotFound
	}
	return s.backend.Get(ctx, key)
}

// Key derives the content address of data.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func validKey(key string) bool {
	if len(key) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(key)
	return err == nil
}

// MemoryBackend keeps objects in process memory.
type MemoryBackend struct {
	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{objects: make(map[string]Object)}
}

// Put stores a copy of data.
func (b *MemoryBackend) Put(_ context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = Object{Key: key, ContentType: contentType, Data: bytes.Clone(data)}
	return nil
}

// Get returns a copy of the stored object.
func (b *MemoryBackend) Get(_ context.Context, key string) (Object, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	obj.Data = bytes.Clone(obj.Data)
	return obj, nil
}
