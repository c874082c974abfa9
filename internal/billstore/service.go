package billstore

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/zombor/billed/internal/bill"
)

var (
	// ErrInvalidBill is returned when a bill misses required fields
	ErrInvalidBill = errors.New("invalid bill")

	// ErrContentMismatch is returned when an upload's bytes are not the image its type declares
	ErrContentMismatch = errors.New("file content is not a jpg or png image")
)

// IDGenerator generates unique IDs for bills and stored files
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles bill and receipt operations
type Service struct {
	db          DB
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage) *Service {
	return NewServiceWithDeps(db, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename keeps alphanumerics, spaces, hyphens and underscores and truncates long names
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeChars.ReplaceAllString(base, "")
	base = spaces.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// StoreFile checks and saves an uploaded receipt. The declared type must pass
// the attachment rules and the bytes must sniff as a jpg or png.
func (s *Service) StoreFile(email, filename string, data []byte, contentType string) (*FileRecord, error) {
	if bill.ValidateAttachment(filename, contentType) == bill.Rejected {
		return nil, &bill.AttachmentError{FileName: filename, MimeType: contentType}
	}

	detected := mimetype.Detect(data)
	if !detected.Is("image/png") && !detected.Is("image/jpeg") {
		slog.Warn("Upload content does not match declared type",
			"filename", filename,
			"declared", contentType,
			"detected", detected.String(),
		)
		return nil, ErrContentMismatch
	}

	key := fmt.Sprintf("%s_%s", s.idGenerator.Generate(), sanitizeFilename(filename))
	savedPath, err := s.storage.Save(key, data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	record := &FileRecord{
		Key:         savedPath,
		Name:        filename,
		ContentType: detected.String(),
		Size:        len(data),
		Email:       email,
		CreatedAt:   s.timeSource.Now(),
	}
	if err := s.db.SaveFile(record); err != nil {
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to delete file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("saving file record: %w", err)
	}

	return record, nil
}

// CreateBill stores a new bill. The store assigns the ID and creation time
// and forces the status to pending; email comes from the caller's identity
// when one is known.
func (s *Service) CreateBill(email string, in *bill.Bill) (*bill.Bill, error) {
	b := *in
	b.ID = s.idGenerator.Generate()
	if email != "" {
		b.Email = email
	}
	b.Status = bill.StatusPending
	b.CommentAdmin = ""
	b.CreatedAt = s.timeSource.Now()

	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBill, err)
	}

	if err := s.db.SaveBill(&b); err != nil {
		return nil, fmt.Errorf("saving bill to database: %w", err)
	}
	return &b, nil
}

// GetBill retrieves a bill by ID
func (s *Service) GetBill(id string) (*bill.Bill, error) {
	b, err := s.db.GetBill(id)
	if err != nil {
		return nil, fmt.Errorf("getting bill: %w", err)
	}
	return b, nil
}

// ListBills returns the bills submitted by email, or every bill when email is empty
func (s *Service) ListBills(email string) ([]*bill.Bill, error) {
	bills, err := s.db.ListBills()
	if err != nil {
		return nil, fmt.Errorf("listing bills: %w", err)
	}
	if email == "" {
		return bills, nil
	}

	owned := make([]*bill.Bill, 0, len(bills))
	for _, b := range bills {
		if strings.EqualFold(b.Email, email) {
			owned = append(owned, b)
		}
	}
	return owned, nil
}

// GetFile retrieves a stored receipt and its content type
func (s *Service) GetFile(key string) ([]byte, string, error) {
	record, err := s.db.GetFile(key)
	if err != nil {
		return nil, "", fmt.Errorf("getting file record: %w", err)
	}

	data, err := s.storage.Get(record.Key)
	if err != nil {
		return nil, "", fmt.Errorf("getting file: %w", err)
	}

	return data, record.ContentType, nil
}
