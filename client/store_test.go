package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritas-backend/models"
)

type fakeRemote struct {
	online  bool
	created []*models.FactCheck
	deleted []string
	cleared int
}

func (f *fakeRemote) CreateFactCheck(_ context.Context, check *models.FactCheck) (*models.FactCheck, error) {
	if !f.online {
		return nil, errors.New("connection refused")
	}
	stored := *check
	stored.ID = uuid.New()
	f.created = append(f.created, &stored)
	return &stored, nil
}

func (f *fakeRemote) DeleteFactCheck(_ context.Context, id string) error {
	if !f.online {
		return errors.New("connection refused")
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeRemote) ClearFactChecks(context.Context) error {
	if !f.online {
		return errors.New("connection refused")
	}
	f.cleared++
	return nil
}

func openTestStore(t *testing.T, remote Remote) *HistoryStore {
	t.Helper()
	store, err := OpenHistoryStore(t.TempDir(), StoreWithRemote(remote))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleCheck(claim string) *models.FactCheck {
	return &models.FactCheck{
		Claim:           claim,
		Verdict:         models.VerdictFalse,
		ConfidenceScore: 90,
		Summary:         "Faux.",
		Analysis:        "Analyse.",
		Sources:         models.SourceList{},
	}
}

func TestAddOnlineAdoptsServerID(t *testing.T) {
	remote := &fakeRemote{online: true}
	store := openTestStore(t, remote)

	entry, err := store.Add(context.Background(), sampleCheck("claim"))
	require.NoError(t, err)

	assert.Equal(t, syncConfirmed, entry.SyncStatus)
	require.Len(t, remote.created, 1)
	assert.Equal(t, remote.created[0].ID.String(), entry.ID)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestAddOfflineCachesPending(t *testing.T) {
	remote := &fakeRemote{online: false}
	store := openTestStore(t, remote)

	entry, err := store.Add(context.Background(), sampleCheck("claim"))
	require.NoError(t, err)

	assert.Equal(t, syncPending, entry.SyncStatus)
	assert.NotEmpty(t, entry.ID)
	assert.Empty(t, remote.created)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "claim", entries[0].Record.Claim)
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStore(t, &fakeRemote{online: false})

	first, err := store.Add(context.Background(), sampleCheck("ancienne"))
	require.NoError(t, err)
	second, err := store.Add(context.Background(), sampleCheck("récente"))
	require.NoError(t, err)
	second.SavedAt = first.SavedAt.Add(time.Minute)
	require.NoError(t, store.put(context.Background(), second))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "récente", entries[0].Record.Claim)
	assert.Equal(t, "ancienne", entries[1].Record.Claim)
}

func TestRemoveConfirmedDeletesRemotely(t *testing.T) {
	remote := &fakeRemote{online: true}
	store := openTestStore(t, remote)

	entry, err := store.Add(context.Background(), sampleCheck("claim"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), entry.ID))

	assert.Equal(t, []string{entry.ID}, remote.deleted)
	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemovePendingSkipsRemote(t *testing.T) {
	remote := &fakeRemote{online: false}
	store := openTestStore(t, remote)

	entry, err := store.Add(context.Background(), sampleCheck("claim"))
	require.NoError(t, err)

	remote.online = true
	require.NoError(t, store.Remove(context.Background(), entry.ID))

	// The pending entry never reached the server under this ID.
	assert.Empty(t, remote.deleted)
	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearSurvivesRemoteFailure(t *testing.T) {
	remote := &fakeRemote{online: false}
	store := openTestStore(t, remote)

	_, err := store.Add(context.Background(), sampleCheck("a"))
	require.NoError(t, err)
	_, err = store.Add(context.Background(), sampleCheck("b"))
	require.NoError(t, err)

	require.NoError(t, store.Clear(context.Background()))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReconcilerPushesPending(t *testing.T) {
	remote := &fakeRemote{online: false}
	store := openTestStore(t, remote)

	entry, err := store.Add(context.Background(), sampleCheck("hors-ligne"))
	require.NoError(t, err)
	localID := entry.ID

	rec := NewReconciler(store, time.Hour)

	// Still offline: the entry moves to failed and stays cached.
	rec.Sync(context.Background())
	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, syncFailed, entries[0].SyncStatus)

	// Back online: the entry uploads and adopts the server ID.
	remote.online = true
	rec.Sync(context.Background())

	entries, err = store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, syncConfirmed, entries[0].SyncStatus)
	assert.NotEqual(t, localID, entries[0].ID)
	require.Len(t, remote.created, 1)
	assert.Equal(t, remote.created[0].ID.String(), entries[0].ID)
}

func TestEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := OpenHistoryStore(dir, StoreWithRemote(&fakeRemote{online: false}))
	require.NoError(t, err)
	entry, err := store.Add(context.Background(), sampleCheck("hors-ligne"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenHistoryStore(dir, StoreWithRemote(&fakeRemote{online: false}))
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, syncPending, entries[0].SyncStatus)
	assert.Equal(t, "hors-ligne", entries[0].Record.Claim)
}

func TestOwnersIsolated(t *testing.T) {
	dir := t.TempDir()

	storeA, err := OpenHistoryStore(dir, StoreWithOwner("user-a"))
	require.NoError(t, err)
	defer storeA.Close()
	storeB, err := OpenHistoryStore(dir, StoreWithOwner("user-b"))
	require.NoError(t, err)
	defer storeB.Close()

	_, err = storeA.Add(context.Background(), sampleCheck("de A"))
	require.NoError(t, err)

	entriesB, err := storeB.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entriesB)
}
