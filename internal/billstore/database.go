package billstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/zombor/billed/internal/bill"
)

const (
	billsBucketName = "bills"
	filesBucketName = "files"
)

// ErrNotFound is returned when a bill or file key is unknown
var ErrNotFound = errors.New("not found")

// FileRecord describes a stored receipt
type FileRecord struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB defines the interface for database operations
type DB interface {
	// SaveBill saves a bill to the database
	SaveBill(b *bill.Bill) error

	// GetBill retrieves a bill by ID
	GetBill(id string) (*bill.Bill, error)

	// ListBills returns all bills
	ListBills() ([]*bill.Bill, error)

	// SaveFile records a stored receipt
	SaveFile(f *FileRecord) error

	// GetFile retrieves a stored receipt record by key
	GetFile(key string) (*FileRecord, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{billsBucketName, filesBucketName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

func put(db *bbolt.DB, bucketName, key string, v any) error {
	return db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling %s: %w", bucketName, err)
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

func get(db *bbolt.DB, bucketName, key string, v any) error {
	return db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s %s: %w", bucketName, key, ErrNotFound)
		}
		return json.Unmarshal(data, v)
	})
}

// SaveBill saves a bill to the database
func (b *BoltDB) SaveBill(bl *bill.Bill) error {
	return put(b.db, billsBucketName, bl.ID, bl)
}

// GetBill retrieves a bill by ID
func (b *BoltDB) GetBill(id string) (*bill.Bill, error) {
	var bl bill.Bill
	if err := get(b.db, billsBucketName, id, &bl); err != nil {
		return nil, err
	}
	return &bl, nil
}

// ListBills returns all bills in key order
func (b *BoltDB) ListBills() ([]*bill.Bill, error) {
	bills := make([]*bill.Bill, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(billsBucketName)).ForEach(func(k, v []byte) error {
			var bl bill.Bill
			if err := json.Unmarshal(v, &bl); err != nil {
				return fmt.Errorf("unmarshaling bill: %w", err)
			}
			bills = append(bills, &bl)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// SaveFile records a stored receipt
func (b *BoltDB) SaveFile(f *FileRecord) error {
	return put(b.db, filesBucketName, f.Key, f)
}

// GetFile retrieves a stored receipt record by key
func (b *BoltDB) GetFile(key string) (*FileRecord, error) {
	var f FileRecord
	if err := get(b.db, filesBucketName, key, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
