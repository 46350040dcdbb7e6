package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"veritas-backend/models"
)

// Sync states of a locally cached record.
const (
	syncPending   = "pending"
	syncConfirmed = "confirmed"
	syncFailed    = "failed"
)

// localOwner marks records created before the user ever signed in.
const localOwner = "local"

// Entry is one cached history record with its sync state.
type Entry struct {
	ID         string            `json:"id"`
	Record     *models.FactCheck `json:"record"`
	SavedAt    time.Time         `json:"savedAt"`
	SyncStatus string            `json:"syncStatus"`
}

// HistoryStore keeps the verification history available offline. Writes go
// to the server first; when that fails the record is cached locally with a
// pending status and retried by the reconciler.
type HistoryStore struct {
	db      *sql.DB
	remote  Remote
	ownerID string
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	entropy *rand.Rand
}

// HistoryStoreOption configures a HistoryStore.
type HistoryStoreOption func(*HistoryStore)

// StoreWithRemote attaches the backend API.
func StoreWithRemote(remote Remote) HistoryStoreOption {
	return func(s *HistoryStore) { s.remote = remote }
}

// StoreWithOwner scopes the cache to a signed-in user.
func StoreWithOwner(ownerID string) HistoryStoreOption {
	return func(s *HistoryStore) { s.ownerID = ownerID }
}

// StoreWithLogger attaches a logger.
func StoreWithLogger(l *zap.SugaredLogger) HistoryStoreOption {
	return func(s *HistoryStore) { s.logger = l }
}

// OpenHistoryStore opens (or creates) the cache database under baseDir.
func OpenHistoryStore(baseDir string, opts ...HistoryStoreOption) (*HistoryStore, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "history.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS history (
	  id          TEXT PRIMARY KEY,
	  owner_id    TEXT NOT NULL,
	  record      TEXT NOT NULL,
	  saved_at    INTEGER NOT NULL,
	  sync_status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_history_owner_saved
	ON history(owner_id, saved_at DESC);

	CREATE INDEX IF NOT EXISTS idx_history_sync_status
	ON history(sync_status)
	WHERE sync_status <> 'confirmed';
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &HistoryStore{
		db:      db,
		ownerID: localOwner,
		logger:  zap.NewNop().Sugar(),
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the cache database.
func (s *HistoryStore) Close() error {
	return s.db.Close()
}

// newLocalID mints a sortable placeholder ID for records awaiting a
// server-assigned one.
func (s *HistoryStore) newLocalID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Add stores a record remote-first. When the server accepts it, the cache
// adopts the server ID and the entry is confirmed. When the server is
// unreachable the record is cached under a local ID and marked pending; the
// reconciler retries it later. Add never loses the record.
func (s *HistoryStore) Add(ctx context.Context, check *models.FactCheck) (*Entry, error) {
	entry := &Entry{
		Record:  check,
		SavedAt: time.Now().UTC(),
	}

	if s.remote != nil {
		stored, err := s.remote.CreateFactCheck(ctx, check)
		if err == nil {
			entry.ID = stored.ID.String()
			entry.Record = stored
			entry.SyncStatus = syncConfirmed
			if err := s.put(ctx, entry); err != nil {
				return nil, err
			}
			return entry, nil
		}
		s.logger.Warnw("remote add failed, caching locally", "error", err)
	}

	entry.ID = s.newLocalID()
	entry.SyncStatus = syncPending
	if err := s.put(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the cached history, newest first.
func (s *HistoryStore) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record, saved_at, sync_status
		FROM history
		WHERE owner_id = ?
		ORDER BY saved_at DESC, id DESC`, s.ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{Record: &models.FactCheck{}}
		var recordJSON string
		var savedAt int64
		if err := rows.Scan(&entry.ID, &recordJSON, &savedAt, &entry.SyncStatus); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(recordJSON), entry.Record); err != nil {
			return nil, fmt.Errorf("corrupt cache entry %s: %w", entry.ID, err)
		}
		entry.SavedAt = time.Unix(savedAt, 0).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Remove deletes one record. The remote delete is best-effort; the local
// entry goes regardless so the UI reflects the removal immediately.
func (s *HistoryStore) Remove(ctx context.Context, id string) error {
	if s.remote != nil {
		status, err := s.status(ctx, id)
		// Only confirmed entries exist server-side under this ID.
		if err == nil && status == syncConfirmed {
			if err := s.remote.DeleteFactCheck(ctx, id); err != nil {
				s.logger.Warnw("remote delete failed", "error", err, "id", id)
			}
		}
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE id = ? AND owner_id = ?`, id, s.ownerID)
	return err
}

// Clear wipes the history, best-effort on the server, unconditionally in the
// cache.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if s.remote != nil {
		if err := s.remote.ClearFactChecks(ctx); err != nil {
			s.logger.Warnw("remote clear failed", "error", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM history WHERE owner_id = ?`, s.ownerID)
	return err
}

func (s *HistoryStore) put(ctx context.Context, entry *Entry) error {
	recordJSON, err := json.Marshal(entry.Record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, owner_id, record, saved_at, sync_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			record = excluded.record,
			saved_at = excluded.saved_at,
			sync_status = excluded.sync_status`,
		entry.ID, s.ownerID, string(recordJSON), entry.SavedAt.Unix(), entry.SyncStatus)
	return err
}

func (s *HistoryStore) status(ctx context.Context, id string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT sync_status FROM history WHERE id = ? AND owner_id = ?`,
		id, s.ownerID).Scan(&status)
	return status, err
}

// unsynced returns entries still awaiting a successful push.
func (s *HistoryStore) unsynced(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record, saved_at, sync_status
		FROM history
		WHERE owner_id = ? AND sync_status <> ?
		ORDER BY saved_at ASC`, s.ownerID, syncConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{Record: &models.FactCheck{}}
		var recordJSON string
		var savedAt int64
		if err := rows.Scan(&entry.ID, &recordJSON, &savedAt, &entry.SyncStatus); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(recordJSON), entry.Record); err != nil {
			return nil, fmt.Errorf("corrupt cache entry %s: %w", entry.ID, err)
		}
		entry.SavedAt = time.Unix(savedAt, 0).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// swapID replaces a local placeholder ID with the server-assigned one.
func (s *HistoryStore) swapID(ctx context.Context, oldID string, entry *Entry) error {
	recordJSON, err := json.Marshal(entry.Record)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE history SET
			id = ?,
			record = ?,
			sync_status = ?
		WHERE id = ? AND owner_id = ?`,
		entry.ID, string(recordJSON), entry.SyncStatus, oldID, s.ownerID)
	return err
}

func (s *HistoryStore) markFailed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE history SET sync_status = ? WHERE id = ? AND owner_id = ?`,
		syncFailed, id, s.ownerID)
	return err
}
