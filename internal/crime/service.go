package crime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neogan74/intent/internal/logger"
	"github.com/neogan74/intent/internal/metrics"
	"github.com/neogan74/intent/internal/storage"
)

// Store is the slice of the storage service the crime service uses.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and validation.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how ids for new records are generated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service provides CRUD and query operations over the crime collection.
// The whole collection lives as one JSON array under storage.KeyCrimes;
// writers hold mu across the read-modify-write so concurrent saves through
// one Service never lose updates.
type Service struct {
	store  Store
	log    logger.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

// NewService creates a crime service over store.
func NewService(store Store, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.GetDefault()
	}
	s := &Service{
		store:  store,
		log:    log,
		tracer: otel.Tracer("github.com/neogan74/intent/internal/crime"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll returns every record, newest date first.
func (s *Service) ListAll(ctx context.Context) ([]Crime, error) {
	ctx, span := s.tracer.Start(ctx, "crime.ListAll")
	defer span.End()

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "list", err)
		return nil, err
	}

	sortByDateDesc(crimes)
	span.SetAttributes(attribute.Int("crime.count", len(crimes)))
	metrics.CrimeOperationsTotal.WithLabelValues("list", "success").Inc()
	return crimes, nil
}

// GetByID returns the record with id. An absent id yields *NotFoundError.
func (s *Service) GetByID(ctx context.Context, id string) (Crime, error) {
	ctx, span := s.tracer.Start(ctx, "crime.GetByID", trace.WithAttributes(attribute.String("crime.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		err := &InputError{Field: "id"}
		s.fail(span, "get", err)
		return Crime{}, err
	}

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "get", err)
		return Crime{}, err
	}

	for _, c := range crimes {
		if c.ID == id {
			metrics.CrimeOperationsTotal.WithLabelValues("get", "success").Inc()
			return c, nil
		}
	}

	err = &NotFoundError{ID: id}
	s.fail(span, "get", err)
	return Crime{}, err
}

// Save validates in and inserts or replaces the record with its id. A
// validation failure writes nothing; success performs exactly one write of
// the whole collection.
func (s *Service) Save(ctx context.Context, in Input) (Crime, error) {
	ctx, span := s.tracer.Start(ctx, "crime.Save")
	defer span.End()

	now := s.now()
	ts := FormatTime(now)

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = s.newID()
	}
	span.SetAttributes(attribute.String("crime.id", id))

	record := Crime{
		ID:        id,
		Title:     SanitizeTitle(in.Title),
		Details:   SanitizeDetails(in.Details),
		Date:      strings.TrimSpace(in.Date),
		Solved:    in.Solved,
		Photo:     normalizePhoto(in.Photo),
		CreatedAt: strings.TrimSpace(in.CreatedAt),
		UpdatedAt: ts,
	}
	if record.CreatedAt != "" {
		if _, err := ParseTime(record.CreatedAt); err != nil {
			s.log.Debug("Ignoring unparseable createdAt",
				logger.String("id", id),
				logger.String("createdAt", record.CreatedAt))
			record.CreatedAt = ""
		}
	}
	if record.CreatedAt == "" {
		record.CreatedAt = ts
	}

	if errs := Validate(record, now); errs != nil {
		err := &ValidationError{Message: errs.First(), Fields: errs}
		metrics.ValidationFailuresTotal.WithLabelValues(string(errs.FirstField())).Inc()
		s.log.Debug("Crime failed validation",
			logger.String("id", id),
			logger.String("field", string(errs.FirstField())),
			logger.String("message", err.Message))
		s.fail(span, "save", err)
		return Crime{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "save", err)
		return Crime{}, err
	}

	replaced := false
	for i := range crimes {
		if crimes[i].ID == id {
			// createdAt is immutable once a record exists
			if crimes[i].CreatedAt != "" {
				record.CreatedAt = crimes[i].CreatedAt
			}
			crimes[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		crimes = append(crimes, record)
	}

	if err := s.store.Set(ctx, storage.KeyCrimes, crimes); err != nil {
		err = fmt.Errorf("save crime %s: %w", id, err)
		s.fail(span, "save", err)
		return Crime{}, err
	}

	metrics.CrimesTotal.Set(float64(len(crimes)))
	metrics.CrimeOperationsTotal.WithLabelValues("save", "success").Inc()
	s.log.Info("Crime saved",
		logger.String("id", id),
		logger.Bool("created", !replaced))
	return record, nil
}

// Delete removes the record with id and persists the remainder.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "crime.Delete", trace.WithAttributes(attribute.String("crime.id", id)))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		err := &InputError{Field: "id"}
		s.fail(span, "delete", err)
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	crimes, err := s.load(ctx)
	if err != nil {
		s.fail(span, "delete", err)
		return false, err
	}

	remaining := make([]Crime, 0, len(crimes))
	for _, c := range crimes {
		if c.ID != id {
			remaining = append(remaining, c)
		}
	}
	if len(remaining) == len(crimes) {
		err := &NotFoundError{ID: id}
		s.fail(span, "delete", err)
		return false, err
	}

	if err := s.store.Set(ctx, storage.KeyCrimes, remaining); err != nil {
		err = fmt.Errorf("delete crime %s: %w", id, err)
		s.fail(span, "delete", err)
		return false, err
	}

	metrics.CrimesTotal.Set(float64(len(remaining)))
	metrics.CrimeOperationsTotal.WithLabelValues("delete", "success").Inc()
	s.log.Info("Crime deleted", logger.String("id", id))
	return true, nil
}

// ClearAll removes the whole collection.
func (s *Service) ClearAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "crime.ClearAll")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Remove(ctx, storage.KeyCrimes); err != nil {
		err = fmt.Errorf("clear crimes: %w", err)
		s.fail(span, "clear", err)
		return err
	}

	metrics.CrimesTotal.Set(0)
	metrics.CrimeOperationsTotal.WithLabelValues("clear", "success").Inc()
	s.log.Info("All crimes cleared")
	return nil
}

func (s *Service) load(ctx context.Context) ([]Crime, error) {
	var crimes []Crime
	found, err := s.store.Get(ctx, storage.KeyCrimes, &crimes)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	if !found || crimes == nil {
		crimes = []Crime{}
	}

	for _, c := range crimes {
		if !IsWellFormed(c) {
			s.log.Warn("Stored crime is missing required fields", logger.String("id", c.ID))
		}
	}

	metrics.CrimesTotal.Set(float64(len(crimes)))
	return crimes, nil
}

func (s *Service) fail(span trace.Span, op string, err error) {
	status := "error"
	switch {
	case IsValidation(err):
		status = "invalid"
	case IsNotFound(err):
		status = "not_found"
	case IsInputError(err):
		status = "bad_input"
	default:
		s.log.Error("Crime operation failed",
			logger.String("operation", op),
			logger.Error(err))
	}
	metrics.CrimeOperationsTotal.WithLabelValues(op, status).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func normalizePhoto(photo *string) *string {
	if photo == nil {
		return nil
	}
	p := strings.TrimSpace(*photo)
	if p == "" {
		return nil
	}
	return &p
}

// sortByDateDesc orders crimes newest first. Unparseable dates sort last.
func sortByDateDesc(crimes []Crime) {
	type keyed struct {
		date  time.Time
		crime Crime
	}
	entries := make([]keyed, len(crimes))
	for i, c := range crimes {
		entries[i].crime = c
		if t, err := ParseTime(c.Date); err == nil {
			entries[i].date = t
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date.After(entries[j].date)
	})
	for i := range entries {
		crimes[i] = entries[i].crime
	}
}
