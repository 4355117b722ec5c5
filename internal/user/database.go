package user

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	usersBucketName   = "users"
	userIDsBucketName = "user_ids"
)

// DB defines the interface for user persistence.
type DB interface {
	// SaveUser inserts or updates a user
	SaveUser(u *User) error

	// GetUserByEmail retrieves a user by email
	GetUserByEmail(email string) (*User, error)

	// GetUserByID retrieves a user by ID
	GetUserByID(id string) (*User, error)

	// ListUsers returns all users
	ListUsers() ([]*User, error)

	// DeleteUser removes a user by ID
	DeleteUser(id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Users are stored in the
// users bucket keyed by email, with an id -> email index bucket alongside.
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
		if _, err := tx.CreateBucketIfNotExists([]byte(usersBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(userIDsBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// NewBoltDBFromExisting wraps an already opened bbolt database, creating
// the user buckets if needed. Used when users and receipts share one file.
func NewBoltDBFromExisting(db *bbolt.DB) (*BoltDB, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(usersBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(userIDsBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &BoltDB{db: db}, nil
}

// SaveUser inserts or updates a user
func (b *BoltDB) SaveUser(u *User) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("marshaling user: %w", err)
		}
		if err := tx.Bucket([]byte(usersBucketName)).Put([]byte(u.Email), data); err != nil {
			return err
		}
		return tx.Bucket([]byte(userIDsBucketName)).Put([]byte(u.ID), []byte(u.Email))
	})
}

// GetUserByEmail retrieves a user by email
func (b *BoltDB) GetUserByEmail(email string) (*User, error) {
	var u *User
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(usersBucketName)).Get([]byte(email))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByID retrieves a user by ID
func (b *BoltDB) GetUserByID(id string) (*User, error) {
	var u *User
	err := b.db.View(func(tx *bbolt.Tx) error {
		email := tx.Bucket([]byte(userIDsBucketName)).Get([]byte(id))
		if email == nil {
			return ErrNotFound
		}
		data := tx.Bucket([]byte(usersBucketName)).Get(email)
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all users
func (b *BoltDB) ListUsers() ([]*User, error) {
	users := make([]*User, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(usersBucketName)).ForEach(func(k, v []byte) error {
			var u User
			if err := json.Unmarshal(v, &u); err != nil {
				return fmt.Errorf("unmarshaling user: %w", err)
			}
			users = append(users, &u)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a user by ID
func (b *BoltDB) DeleteUser(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		ids := tx.Bucket([]byte(userIDsBucketName))
		email := ids.Get([]byte(id))
		if email == nil {
			return ErrNotFound
		}
		if err := tx.Bucket([]byte(usersBucketName)).Delete(email); err != nil {
			return err
		}
		return ids.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
