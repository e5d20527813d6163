// Package session keeps login sessions in a bbolt file keyed by random
// tokens carried in a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const sessionsBucket = "sessions"

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Type    string `json:"type"` // "success" or "error"
	Message string `json:"message"`
}

// Data is the persisted session record.
type Data struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Flash     *Flash    `json:"flash,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists sessions.
type Store struct {
	db     *bolt.DB
	maxAge time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// Open creates or opens the session database at path.
func Open(path string, maxAge time.Duration, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions bucket: %w", err)
	}

	return &Store{db: db, maxAge: maxAge, now: time.Now, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MaxAge is the lifetime of a new session.
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

// Create stores data under a new random token and returns the token.
func (s *Store) Create(data Data) (string, error) {
	token := uuid.NewString()
	data.ExpiresAt = s.now().Add(s.maxAge)
	if err := s.put(token, data); err != nil {
		return "", err
	}
	return token, nil
}

// Get returns the live session for token. Expired sessions are deleted and
// reported as ErrNotFound.
func (s *Store) Get(token string) (*Data, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	var data Data
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(sessionsBucket)).Get([]byte(token))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}

	if !s.now().Before(data.ExpiresAt) {
		if err := s.Delete(token); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, ErrNotFound
	}
	return &data, nil
}

// Save overwrites the record of an existing token, keeping its expiry.
// A token deleted in the meantime is not recreated and yields ErrNotFound.
func (s *Store) Save(token string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionsBucket))
		if b.Get([]byte(token)) == nil {
			return ErrNotFound
		}
		return b.Put([]byte(token), raw)
	})
}

func (s *Store) put(token string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Put([]byte(token), raw)
	})
}

// Delete removes a session. Unknown tokens are ignored.
func (s *Store) Delete(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Delete([]byte(token))
	})
}

// Purge deletes every expired session and returns how many were removed.
func (s *Store) Purge() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionsBucket))
		var expired [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var data Data
			if err := json.Unmarshal(v, &data); err != nil || !now.Before(data.ExpiresAt) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(expired)
		return nil
	})
	return removed, err
}

// RunJanitor purges expired sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Purge()
			if err != nil {
				s.logger.Error("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Debug("purged expired sessions", zap.Int("count", n))
			}
		}
	}
}
