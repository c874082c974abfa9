package bill

import (
	"context"
	"log/slog"
	"sync"
)

// Row is one bill ready for display
type Row struct {
	Bill        *Bill
	DisplayDate string
	StatusLabel string
}

// Preview is the receipt modal of the bill list
type Preview struct {
	Open    bool
	FileURL string
}

// Page is everything the bill list view renders
type Page struct {
	Rows    []Row
	Error   *DisplayableError
	Preview Preview
}

// List drives the bill list view
type List struct {
	store     RemoteStore
	identity  Identity
	navigator Navigator
	reporter  ErrorReporter

	mu        sync.Mutex
	rows      []Row
	lastErr   *DisplayableError
	preview   Preview
	unmounted bool
}

// NewList creates the list view logic for the given identity
func NewList(store RemoteStore, identity Identity, navigator Navigator, reporter ErrorReporter) *List {
	if reporter == nil {
		reporter = LogReporter{}
	}
	return &List{
		store:     store,
		identity:  identity,
		navigator: navigator,
		reporter:  reporter,
	}
}

// OnFetch loads the bills once and derives the display rows. A store failure
// is reported and lands in the page's error region; it is also returned.
func (l *List) OnFetch(ctx context.Context) (Page, error) {
	bills, err := l.store.ListBills(ctx)
	if err != nil {
		l.reporter.Report(err)
		display := Present(err)

		l.mu.Lock()
		defer l.mu.Unlock()
		if !l.unmounted {
			l.rows = nil
			l.lastErr = &display
		}
		return l.pageLocked(), err
	}

	sorted := make([]*Bill, 0, len(bills))
	for _, b := range bills {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	SortAntiChronological(sorted)

	rows := make([]Row, 0, len(sorted))
	for _, b := range sorted {
		rows = append(rows, Row{
			Bill:        b,
			DisplayDate: FormatDate(b.Date),
			StatusLabel: FormatStatus(b.Status),
		})
	}
	slog.Debug("Bills fetched", "email", l.identity.Email, "count", len(rows))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unmounted {
		return Page{Rows: rows}, nil
	}
	l.rows = rows
	l.lastErr = nil
	return l.pageLocked(), nil
}

// OnPreviewRequested opens the receipt modal on fileURL, replacing any
// receipt already shown.
func (l *List) OnPreviewRequested(fileURL string) Preview {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.preview = Preview{Open: true, FileURL: fileURL}
	return l.preview
}

// ClosePreview hides the receipt modal
func (l *List) ClosePreview() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.preview = Preview{}
}

// OnNewBill requests the new bill view
func (l *List) OnNewBill() {
	if l.navigator != nil {
		l.navigator.Navigate(RouteNewBill)
	}
}

// Unmount marks the view as torn down; a late fetch result is discarded
func (l *List) Unmount() {
	l.mu.Lock()
	l.unmounted = true
	l.mu.Unlock()
}

// Page returns what the view currently shows
func (l *List) Page() Page {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pageLocked()
}

func (l *List) pageLocked() Page {
	page := Page{
		Rows:    append([]Row(nil), l.rows...),
		Preview: l.preview,
	}
	if l.lastErr != nil {
		e := *l.lastErr
		page.Error = &e
	}
	return page
}
