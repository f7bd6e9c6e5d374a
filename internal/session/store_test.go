package session

import (
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/storefront/internal/models"
	"github.com/wolfeidau/storefront/internal/storage"
)

func testUser() *models.User {
	return &models.User{ID: "u1", Email: "jo@example.com", FirstName: "Jo", Role: models.RoleCustomer}
}

func TestSetSession(t *testing.T) {
	durable := storage.NewMemory()
	store := New(durable)

	var seen []models.Session
	store.Subscribe(func(s models.Session) { seen = append(seen, s) })

	require.NoError(t, store.SetSession(testUser(), "abc123"))

	assert.Equal(t, "abc123", store.Credential())
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "u1", store.User().ID)

	assert.Equal(t, "abc123", storage.Lookup(durable, storage.KeyToken))

	u, err := models.UnmarshalUser([]byte(storage.Lookup(durable, storage.KeyUser)))
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", u.Email)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal([]byte(storage.Lookup(durable, storage.KeyAuthState)), &envelope))
	assert.EqualValues(t, 0, envelope["version"])
	state := envelope["state"].(map[string]any)
	assert.Equal(t, "abc123", state["token"])
	assert.Equal(t, true, state["isAuthenticated"])

	require.Len(t, seen, 1)
	assert.Equal(t, "abc123", seen[0].Token)
}

func TestSetSession_rejects(t *testing.T) {
	store := New(storage.NewMemory())

	require.ErrorIs(t, store.SetSession(testUser(), ""), ErrEmptyCredential)
	require.ErrorIs(t, store.SetSession(&models.User{ID: "u1"}, "abc123"), models.ErrInvalidUser)
	require.ErrorIs(t, store.SetSession(nil, "abc123"), models.ErrInvalidUser)
	assert.False(t, store.IsAuthenticated())
}

func TestSnapshotIsACopy(t *testing.T) {
	store := New(storage.NewMemory())
	require.NoError(t, store.SetSession(testUser(), "abc123"))

	snap := store.Snapshot()
	snap.User.Role = models.RoleAdmin
	store.User().ID = "other"

	assert.Equal(t, models.RoleCustomer, store.User().Role)
	assert.Equal(t, "u1", store.User().ID)
}

func TestClearSession(t *testing.T) {
	durable := storage.NewMemory()
	store := New(durable)
	require.NoError(t, store.SetSession(testUser(), "abc123"))

	var last *models.Session
	store.Subscribe(func(s models.Session) { last = &s })

	store.ClearSession()

	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.User())
	for _, key := range []string{storage.KeyToken, storage.KeyUser, storage.KeyAuthState} {
		_, err := durable.Get(key)
		assert.ErrorIs(t, err, storage.ErrNotFound, key)
	}
	require.NotNil(t, last)
	assert.False(t, last.IsAuthenticated())
	assert.Empty(t, store.ResolveCredential())
}

func TestRehydrate(t *testing.T) {
	t.Run("round trip through file storage", func(t *testing.T) {
		dir := t.TempDir()
		durable, err := storage.NewFile(dir)
		require.NoError(t, err)
		require.NoError(t, New(durable).SetSession(testUser(), "abc123"))

		reopened, err := storage.NewFile(dir)
		require.NoError(t, err)
		store := New(reopened)

		restored := store.Rehydrate()
		assert.Equal(t, "abc123", restored.Token)
		assert.True(t, restored.IsAuthenticated())
		require.NotNil(t, restored.User)
		assert.Equal(t, *testUser(), *restored.User)
	})

	t.Run("token slot without envelope recovers identity", func(t *testing.T) {
		durable := storage.NewMemory()
		require.NoError(t, durable.Set(storage.KeyToken, "abc123"))
		require.NoError(t, durable.Set(storage.KeyUser, `{"id":"u1","role":"customer"}`))

		restored := New(durable).Rehydrate()
		assert.Equal(t, "abc123", restored.Token)
		require.NotNil(t, restored.User)
		assert.Equal(t, "u1", restored.User.ID)
	})

	t.Run("envelope without identity recovers identity", func(t *testing.T) {
		durable := storage.NewMemory()
		require.NoError(t, durable.Set(storage.KeyAuthState, `{"state":{"token":"abc123","user":null,"isAuthenticated":false},"version":0}`))
		require.NoError(t, durable.Set(storage.KeyUser, `{"id":"a1","role":"admin"}`))

		restored := New(durable).Rehydrate()
		assert.True(t, restored.IsAuthenticated())
		assert.True(t, restored.IsAdmin())
	})

	t.Run("token without any identity", func(t *testing.T) {
		durable := storage.NewMemory()
		require.NoError(t, durable.Set(storage.KeyToken, "abc123"))
		require.NoError(t, durable.Set(storage.KeyUser, "{broken"))

		restored := New(durable).Rehydrate()
		assert.Equal(t, "abc123", restored.Token)
		assert.Nil(t, restored.User)
	})

	t.Run("nothing durable keeps memory and notifies", func(t *testing.T) {
		store := New(storage.Unavailable{})
		require.NoError(t, store.SetSession(testUser(), "abc123"))

		var notified bool
		store.Subscribe(func(models.Session) { notified = true })

		restored := store.Rehydrate()
		assert.Equal(t, "abc123", restored.Token)
		assert.True(t, notified)
	})
}

func TestUnavailableStorageDegrades(t *testing.T) {
	store := New(storage.Unavailable{})
	require.NoError(t, store.SetSession(testUser(), "abc123"))
	assert.Equal(t, "abc123", store.Credential())

	store.ClearSession()
	assert.False(t, store.IsAuthenticated())

	// after a restart nothing survives
	assert.False(t, New(storage.Unavailable{}).Rehydrate().IsAuthenticated())
}

func TestSubscribe_unsubscribe(t *testing.T) {
	store := New(storage.NewMemory())

	var calls int
	unsubscribe := store.Subscribe(func(models.Session) { calls++ })
	require.NoError(t, store.SetSession(testUser(), "abc123"))
	unsubscribe()
	store.ClearSession()

	assert.Equal(t, 1, calls)
}

func TestResolveCredential(t *testing.T) {
	t.Run("durable slot first", func(t *testing.T) {
		durable := storage.NewMemory()
		store := New(durable)
		require.NoError(t, store.SetSession(testUser(), "memory"))
		require.NoError(t, durable.Set(storage.KeyToken, "durable"))

		assert.Equal(t, "durable", store.ResolveCredential())
	})

	t.Run("memory when durable slot missing", func(t *testing.T) {
		durable := storage.NewMemory()
		store := New(durable)
		require.NoError(t, store.SetSession(testUser(), "memory"))
		require.NoError(t, durable.Remove(storage.KeyToken))

		assert.Equal(t, "memory", store.ResolveCredential())
	})

	t.Run("envelope last", func(t *testing.T) {
		durable := storage.NewMemory()
		require.NoError(t, durable.Set(storage.KeyAuthState, `{"state":{"token":"envelope"},"version":0}`))

		assert.Equal(t, "envelope", New(durable).ResolveCredential())
	})

	t.Run("none", func(t *testing.T) {
		assert.Empty(t, New(storage.NewMemory()).ResolveCredential())
	})
}

func TestTokenSource(t *testing.T) {
	store := New(storage.NewMemory())
	ts := store.TokenSource()

	_, err := ts.Token()
	require.ErrorIs(t, err, ErrNoCredential)

	require.NoError(t, store.SetSession(testUser(), "abc123"))
	tok, err := ts.Token()
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/orders", nil)
	tok.SetAuthHeader(r)
	assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
}

func TestConcurrentAccess(t *testing.T) {
	store := New(storage.NewMemory())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetSession(testUser(), "abc123")
		}()
		go func() {
			defer wg.Done()
			_ = store.Snapshot()
			_ = store.ResolveCredential()
		}()
	}
	wg.Wait()

	assert.Equal(t, "abc123", store.Credential())
}
