package bill

import "context"

// RemoteStore is the persistence service the bill views depend on.
// Implementations are expected to be safe for concurrent use.
type RemoteStore interface {
	// ListBills returns the bills visible to the current identity
	ListBills(ctx context.Context) ([]*Bill, error)

	// StoreFile uploads a receipt and returns where it can be downloaded
	StoreFile(ctx context.Context, att Attachment) (*StoredFile, error)

	// CreateBill persists a new bill and returns the stored record
	CreateBill(ctx context.Context, b *Bill) (*Bill, error)
}
