// Package store is the persistent side of the client state: a key/value table
// holding JSON-encoded collections, modelled after the browser's local storage
// the web client used. Every write is visible to the next read in the same
// session; there is no buffering and no cross-key atomicity beyond the
// single-key overwrite.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Lokankara/giftstore/internal/models"
)

// Well-known keys. Certificate collections live under per-user partitions
// derived by CertificatesKey, everything else under a fixed key.
const (
	KeyUser    = "user"
	KeyTags    = "tags"
	KeyScroll  = "scrollPosition"
	KeyProduct = "product"

	certificatesSuffix = "_certificates"
)

type record struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte
	UpdatedAt time.Time
}

func (record) TableName() string {
	return "records"
}

// Store owns the serialized representation of certificates, tags and the
// current user. Callers must re-derive their views from it rather than trust
// in-memory copies across sessions.
type Store struct {
	db *gorm.DB
}

// Open migrates the record table on the given backend. Use OpenSQLite for the
// local single-user store and OpenPostgres for a shared install.
func Open(dialector gorm.Dialector) (*Store, error) {
	return open(dialector, 0)
}

func open(dialector gorm.Dialector, maxOpenConns int) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenSQLite opens a file-backed store; ":memory:" gives a throwaway one.
// The pool is pinned to a single connection before migration: every in-memory
// connection is its own database, and the on-disk store has exactly one
// writer anyway.
func OpenSQLite(path string) (*Store, error) {
	return open(sqlite.Open(path), 1)
}

// OpenPostgres builds the DSN from its parts and opens a shared store.
func OpenPostgres(host, port, user, password, dbname string) (*Store, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname,
	)
	return Open(postgres.Open(dsn))
}

func (s *Store) get(key string) ([]byte, bool) {
	var rec record
	if err := s.db.First(&rec, "key = ?", key).Error; err != nil {
		return nil, false
	}
	return rec.Value, true
}

func (s *Store) put(key string, value []byte) error {
	rec := record{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("store put %q: %w", key, err)
	}
	return nil
}

// Remove deletes a key. Removing an absent key is a no-op.
func (s *Store) Remove(key string) error {
	return s.db.Delete(&record{}, "key = ?", key).Error
}

// ReadCollection decodes the list stored under key. An absent or malformed
// value reads as an empty list, never an error.
func ReadCollection[T any](s *Store, key string) []T {
	raw, ok := s.get(key)
	if !ok {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// WriteCollection serializes items and overwrites the key in one statement, so
// readers never observe a partial write.
func WriteCollection[T any](s *Store, key string, items []T) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.put(key, raw)
}

// ReadValue decodes the single record under key.
func ReadValue[T any](s *Store, key string) (T, bool) {
	var v T
	raw, ok := s.get(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

// WriteValue serializes a single record under key.
func WriteValue[T any](s *Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return s.put(key, raw)
}

// ReadUser returns the persisted user, or a fresh guest when the record is
// absent or unreadable.
func (s *Store) ReadUser() models.User {
	user, ok := ReadValue[models.User](s, KeyUser)
	if !ok {
		return models.NewGuest()
	}
	return user
}

// WriteUser persists the active user under the fixed user key.
func (s *Store) WriteUser(user models.User) error {
	return WriteValue(s, KeyUser, user)
}

// RemoveUser drops the persisted user, returning the store to guest scope.
func (s *Store) RemoveUser() error {
	return s.Remove(KeyUser)
}

// CertificatesKey derives the active certificate partition from the current
// user: "<username>_certificates", or "user_certificates" before anyone has
// logged in. Switching users therefore switches the visible collection.
func (s *Store) CertificatesKey() string {
	username := s.ReadUser().Username
	if username == "" {
		username = models.GuestUsername
	}
	return username + certificatesSuffix
}

// ReadProduct returns the last-viewed certificate, set on navigation to the
// detail view or after creating one.
func (s *Store) ReadProduct() (models.Certificate, bool) {
	return ReadValue[models.Certificate](s, KeyProduct)
}

// WriteProduct records the last-viewed certificate.
func (s *Store) WriteProduct(cert models.Certificate) error {
	return WriteValue(s, KeyProduct, cert)
}

// ReadCategories returns the cached browse categories.
func (s *Store) ReadCategories() []models.Category {
	return ReadCollection[models.Category](s, KeyTags)
}

// WriteCategories caches the browse categories under the tags key.
func (s *Store) WriteCategories(items []models.Category) error {
	return WriteCollection(s, KeyTags, items)
}

// ReadCertificates returns the collection in the active partition.
func (s *Store) ReadCertificates() []models.Certificate {
	return ReadCollection[models.Certificate](s, s.CertificatesKey())
}

// WriteCertificates overwrites the collection in the active partition.
func (s *Store) WriteCertificates(items []models.Certificate) error {
	return WriteCollection(s, s.CertificatesKey(), items)
}
