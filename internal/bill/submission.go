package bill

import (
	"context"
	"log/slog"
	"sync"
)

// SubmissionState is a step of the new bill lifecycle
type SubmissionState string

const (
	StateIdle             SubmissionState = "idle"
	StateAttachmentStaged SubmissionState = "attachment_staged"
	StateSubmitting       SubmissionState = "submitting"
	StateSucceeded        SubmissionState = "succeeded"
	StateFailed           SubmissionState = "failed"
)

// SubmissionSnapshot is a read-only copy of the submission state
type SubmissionSnapshot struct {
	State           SubmissionState
	Selection       FileSelection
	StorageFilePath string
	Error           *DisplayableError
}

// Submission drives the new bill form: it stages a receipt, then uploads it
// and creates the bill record, in that order.
type Submission struct {
	store     RemoteStore
	identity  Identity
	navigator Navigator
	reporter  ErrorReporter

	mu              sync.Mutex
	state           SubmissionState
	selection       FileSelection
	staged          *Attachment
	storageFilePath string
	lastErr         *DisplayableError
	unmounted       bool
}

// NewSubmission creates a Submission in the Idle state
func NewSubmission(store RemoteStore, identity Identity, navigator Navigator, reporter ErrorReporter) *Submission {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &Submission{
		store:     store,
		identity:  identity,
		navigator: navigator,
		reporter:  reporter,
		state:     StateIdle,
	}
}

// OnAttachmentSelected validates the picked receipt. A rejected file clears
// the selection and any previously staged receipt.
func (s *Submission) OnAttachmentSelected(att Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitting {
		return ErrSubmitInFlight
	}

	if ValidateAttachment(att.Name, att.ContentType) == Rejected {
		slog.Debug("Attachment rejected", "filename", att.Name, "content_type", att.ContentType)
		s.selection.Clear()
		s.staged = nil
		s.storageFilePath = ""
		s.state = StateIdle
		return &AttachmentError{FileName: att.Name, MimeType: att.ContentType}
	}

	s.selection.set(att)
	s.staged = &att
	s.storageFilePath = ""
	s.state = StateAttachmentStaged
	return nil
}

// OnSubmit uploads the staged receipt then creates the bill. Nothing is sent
// when a required field or the receipt is missing. Store failures are
// reported and returned unchanged; the form stays in place for a manual retry.
func (s *Submission) OnSubmit(ctx context.Context, draft Draft) error {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	if err := s.checkRequired(draft); err != nil {
		s.mu.Unlock()
		slog.Debug("Submission incomplete", "error", err)
		return err
	}
	att := *s.staged
	s.state = StateSubmitting
	s.lastErr = nil
	s.mu.Unlock()

	// No dedup key: a retry after a failed create uploads the receipt again.
	stored, err := s.store.StoreFile(ctx, att)
	if err == nil && stored == nil {
		err = &TransportError{Op: "store file", Err: ErrEmptyResponse}
	}
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	s.storageFilePath = stored.StorageFilePath
	s.mu.Unlock()

	record := draft.Record(s.identity, stored, att.BaseName())
	created, err := s.store.CreateBill(ctx, record)
	if err == nil && created == nil {
		err = &TransportError{Op: "create bill", Err: ErrEmptyResponse}
	}
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted {
		slog.Debug("Submission finished after unmount", "bill_id", created.ID)
		return nil
	}
	s.state = StateSucceeded
	slog.Info("Bill submitted", "bill_id", created.ID, "email", s.identity.Email)
	if s.navigator != nil {
		s.navigator.Navigate(RouteBills)
	}
	return nil
}

func (s *Submission) checkRequired(draft Draft) error {
	missing := &MissingFieldsError{}
	if err := draft.Validate(); err != nil {
		if m, ok := err.(*MissingFieldsError); ok {
			missing = m
		} else {
			return err
		}
	}
	if s.staged == nil {
		missing.Fields = append(missing.Fields, "File")
	}
	if len(missing.Fields) > 0 {
		return missing
	}
	return nil
}

func (s *Submission) fail(err error) error {
	s.reporter.Report(err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unmounted {
		return err
	}
	s.state = StateFailed
	display := Present(err)
	s.lastErr = &display
	return err
}

// OnBackToList requests the bill list view
func (s *Submission) OnBackToList() {
	if s.navigator != nil {
		s.navigator.Navigate(RouteBills)
	}
}

// Unmount marks the form as torn down. A call still in flight completes
// without touching the view or navigating.
func (s *Submission) Unmount() {
	s.mu.Lock()
	s.unmounted = true
	s.mu.Unlock()
}

// Snapshot returns the current state of the form
func (s *Submission) Snapshot() SubmissionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := SubmissionSnapshot{
		State:           s.state,
		Selection:       FileSelection{files: append([]Attachment(nil), s.selection.files...)},
		StorageFilePath: s.storageFilePath,
	}
	if s.lastErr != nil {
		e := *s.lastErr
		snap.Error = &e
	}
	return snap
}
