// Package records keeps the ordered product collection in step with the
// products slot. Every mutation rewrites the whole slot.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/repository/slots"
)

var (
	// ErrNotFound indicates no record carries the requested id.
	ErrNotFound = errors.New("product not found")

	// ErrConfirmationRequired is returned when a delete is attempted without a confirmer.
	ErrConfirmationRequired = errors.New("delete requires confirmation")
)

// DeserializationError wraps a products slot that could not be decoded.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode products slot: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// Confirmer is asked before a record is removed; returning false cancels the delete.
type Confirmer func(record models.ProductRecord) bool

// Confirmed is a Confirmer that always agrees.
func Confirmed(models.ProductRecord) bool { return true }

// Store holds the product records in insertion order.
type Store struct {
	slots  slots.Store
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	records []models.ProductRecord
	loaded  bool
	lastID  int64
}

// NewStore wires a Store on top of the given slot storage.
func NewStore(storage slots.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		slots:  storage,
		logger: logger,
		now:    time.Now,
	}
}

// Load rehydrates the collection from the products slot. Missing or corrupt
// content yields an empty collection; the caller never sees an error. A
// failed read also yields an empty view but leaves the store unloaded, so
// later mutations retry the read instead of overwriting the slot.
func (s *Store) Load(ctx context.Context) []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		s.logger.Error("failed to read products slot", zap.Error(err))
		return []models.ProductRecord{}
	}
	return cloneRecords(s.records)
}

func (s *Store) loadLocked(ctx context.Context) error {
	records, err := s.read(ctx)
	if err != nil {
		s.loaded = false
		return err
	}
	s.records = records
	s.loaded = true
	s.lastID = 0
	for _, record := range s.records {
		if record.ID > s.lastID {
			s.lastID = record.ID
		}
	}
	return nil
}

func (s *Store) read(ctx context.Context) ([]models.ProductRecord, error) {
	raw, ok, err := s.slots.Get(ctx, slots.KeyProducts)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []models.ProductRecord{}, nil
	}

	var records []models.ProductRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("products slot unreadable, starting empty", zap.Error(&DeserializationError{Err: err}))
		return []models.ProductRecord{}, nil
	}
	if records == nil {
		records = []models.ProductRecord{}
	}
	return records, nil
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// Persist serializes records into the products slot and adopts them as the
// current collection.
func (s *Store) Persist(ctx context.Context, records []models.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneRecords(records)
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.records = next
	s.loaded = true
	for _, record := range next {
		if record.ID > s.lastID {
			s.lastID = record.ID
		}
	}
	return nil
}

func (s *Store) write(ctx context.Context, records []models.ProductRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	if err := s.slots.Set(ctx, slots.KeyProducts, string(payload)); err != nil {
		return fmt.Errorf("persist products: %w", err)
	}
	return nil
}

// Add validates the draft, stamps identity and provenance, appends the record
// and persists the collection. A rejected draft leaves the store untouched.
func (s *Store) Add(ctx context.Context, draft models.ProductDraft, creator models.Session) (models.ProductRecord, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return models.ProductRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.ProductRecord{}, err
	}

	status := draft.Status
	if status == "" {
		status = strings.ToLower(string(creator.Role))
	}

	record := models.ProductRecord{
		ID:            s.nextID(),
		Name:          draft.Name,
		CropType:      draft.CropType,
		SoilType:      draft.SoilType,
		Status:        status,
		Pesticides:    draft.Pesticides,
		PlantedDate:   draft.PlantedDate,
		HarvestedDate: draft.HarvestedDate,
		UseBefore:     draft.UseBefore,
		Location:      draft.Location,
		CreatedBy:     creator.Identity,
		CreatedRole:   strings.ToLower(string(creator.Role)),
		ImageURL:      draft.ImageURL,
	}

	next := append(cloneRecords(s.records), record)
	if err := s.write(ctx, next); err != nil {
		return models.ProductRecord{}, err
	}
	s.records = next
	s.lastID = record.ID

	s.logger.Info("product added",
		zap.Int64("id", record.ID),
		zap.String("name", record.Name),
		zap.String("created_by", record.CreatedBy))

	return record, nil
}

// nextID derives an id from the clock, bumped past the highest id seen.
func (s *Store) nextID() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}

// Remove deletes the record with id once confirm agrees. A missing id is a
// no-op and reports false.
func (s *Store) Remove(ctx context.Context, id int64, confirm Confirmer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return false, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		s.logger.Debug("remove skipped", zap.Int64("id", id), zap.Error(ErrNotFound))
		return false, nil
	}

	if confirm == nil {
		return false, ErrConfirmationRequired
	}
	if !confirm(s.records[idx]) {
		s.logger.Debug("remove cancelled", zap.Int64("id", id))
		return false, nil
	}

	next := make([]models.ProductRecord, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)
	if err := s.write(ctx, next); err != nil {
		return false, err
	}
	s.records = next

	s.logger.Info("product removed", zap.Int64("id", id))
	return true, nil
}

// List returns a copy of every record in insertion order. A failed read
// yields an empty list.
func (s *Store) List(ctx context.Context) []models.ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.logger.Error("failed to read products slot", zap.Error(err))
		return []models.ProductRecord{}
	}
	return cloneRecords(s.records)
}

// Find returns the record carrying id.
func (s *Store) Find(ctx context.Context, id int64) (models.ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return models.ProductRecord{}, err
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return models.ProductRecord{}, ErrNotFound
	}
	return s.records[idx], nil
}

func (s *Store) indexOf(id int64) int {
	for i, record := range s.records {
		if record.ID == id {
			return i
		}
	}
	return -1
}

func cloneRecords(records []models.ProductRecord) []models.ProductRecord {
	out := make([]models.ProductRecord, len(records))
	copy(out, records)
	return out
}
