package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketUsers     = []byte("users")
	bucketEmails    = []byte("emails")
	bucketAnalytics = []byte("business_analytics")
)

// BoltStore keeps each user record, history included, as one JSON document.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// boltUser mirrors User but keeps the password hash in the document.
type boltUser struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	DisplayName  string      `json:"display_name"`
	Phone        string      `json:"phone"`
	Pincode      string      `json:"pincode"`
	CreatedAt    time.Time   `json:"created_at"`
	ChatHistory  []ChatEntry `json:"chat_history"`
}

func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bolt directory: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketEmails, bucketAnalytics} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) CreateUser(_ context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	u.Email = normalizeEmail(u.Email)
	u.ChatHistory = []ChatEntry{}

	return s.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(bucketEmails)
		if emails.Get([]byte(u.Email)) != nil {
			return ErrDuplicateEmail
		}
		if err := putUser(tx, toBoltUser(u)); err != nil {
			return err
		}
		return emails.Put([]byte(u.Email), []byte(u.ID))
	})
}

func (s *BoltStore) GetUser(_ context.Context, id string) (*User, error) {
	var user *User
	err := s.db.View(func(tx *bolt.Tx) error {
		doc, err := getUser(tx, id)
		if err != nil || doc == nil {
			return err
		}
		user = doc.toUser()
		return nil
	})
	return user, err
}

func (s *BoltStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	var user *User
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucketEmails).Get([]byte(normalizeEmail(email)))
		if id == nil {
			return nil
		}
		doc, err := getUser(tx, string(id))
		if err != nil || doc == nil {
			return err
		}
		user = doc.toUser()
		return nil
	})
	return user, err
}

func (s *BoltStore) UpdateUser(_ context.Context, id string, fields UserFields) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		doc, err := getUser(tx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return ErrNotFound
		}
		if fields.DisplayName != nil {
			doc.DisplayName = *fields.DisplayName
		}
		if fields.Phone != nil {
			doc.Phone = *fields.Phone
		}
		if fields.Pincode != nil {
			doc.Pincode = *fields.Pincode
		}
		return putUser(tx, doc)
	})
}

func (s *BoltStore) AppendChat(_ context.Context, userID, userMessage, aiResponse string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		doc, err := getUser(tx, userID)
		if err != nil {
			return err
		}
		if doc == nil {
			return ErrNotFound
		}
		doc.ChatHistory = append(doc.ChatHistory, ChatEntry{
			UserMessage: userMessage,
			AIResponse:  aiResponse,
			Timestamp:   time.Now(),
		})
		return putUser(tx, doc)
	})
}

func (s *BoltStore) ChatHistory(ctx context.Context, userID string) ([]ChatEntry, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return []ChatEntry{}, nil
	}
	return user.ChatHistory, nil
}

func (s *BoltStore) RecordAnalytics(_ context.Context, rec AnalyticsRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAnalytics)
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate analytics key: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

func getUser(tx *bolt.Tx, id string) (*boltUser, error) {
	raw := tx.Bucket(bucketUsers).Get([]byte(id))
	if raw == nil {
		return nil, nil
	}
	var doc boltUser
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &doc, nil
}

func putUser(tx *bolt.Tx, doc *boltUser) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", doc.ID, err)
	}
	return tx.Bucket(bucketUsers).Put([]byte(doc.ID), data)
}

func toBoltUser(u *User) *boltUser {
	return &boltUser{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		DisplayName:  u.DisplayName,
		Phone:        u.Phone,
		Pincode:      u.Pincode,
		CreatedAt:    u.CreatedAt,
		ChatHistory:  u.ChatHistory,
	}
}

func (d *boltUser) toUser() *User {
	history := d.ChatHistory
	if history == nil {
		history = []ChatEntry{}
	}
	return &User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DisplayName:  d.DisplayName,
		Phone:        d.Phone,
		Pincode:      d.Pincode,
		CreatedAt:    d.CreatedAt,
		ChatHistory:  history,
	}
}
