package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *MemStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewMemStore()
	c, err := New(srv.URL, store)
	require.NoError(t, err)
	return c, store
}

func seedSession(t *testing.T, c *Client, access, refresh string) {
	t.Helper()
	require.NoError(t, c.setSession(Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &User{ID: "u1", Name: "Maksim", Email: "m@example.com"},
	}))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestLoginEstablishesAndPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "m@example.com", body["email"])
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  "acc-1",
			"refresh_token": "ref-1",
			"user":          User{ID: "u1", Name: "Maksim", Email: "m@example.com"},
		})
	})

	c, store := newTestClient(t, mux)
	user, err := c.Login(context.Background(), "m@example.com", "Secret123")
	require.NoError(t, err)
	require.Equal(t, "Maksim", user.Name)

	sess := c.Session()
	require.True(t, sess.Authenticated())
	require.Equal(t, "acc-1", sess.AccessToken)

	persisted, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, sess, persisted)
}

func TestLoginInvalidCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Login(context.Background(), "m@example.com", "wrong")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.False(t, c.Session().Authenticated())
}

func TestRegisterValidationError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  "validation failed",
			"fields": map[string]string{"password_confirmation": "must match password"},
		})
	})

	c, _ := newTestClient(t, mux)
	_, err := c.Register(context.Background(), "Maksim", "m@example.com", "Secret123", "Other123")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "password_confirmation")
}

func TestDoAttachesBearerToken(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, User{ID: "u1", Email: "m@example.com"})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-1", "ref-1")

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, "Bearer acc-1", gotAuth)
}

func TestExpiredAccessTokenIsRefreshedOnce(t *testing.T) {
	var refreshCalls, itemCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&itemCalls, 1)
		if r.Header.Get("Authorization") != "Bearer acc-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []Item{{ID: "i1", Name: "Hammer"}})
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ref-1", body["refresh_token"])
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token":  "acc-2",
			"refresh_token": "ref-2",
		})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-stale", "ref-1")

	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Hammer", items[0].Name)

	require.EqualValues(t, 1, refreshCalls)
	require.EqualValues(t, 2, itemCalls)

	sess := c.Session()
	require.Equal(t, "acc-2", sess.AccessToken)
	require.Equal(t, "ref-2", sess.RefreshToken)
	// user identity survives a refresh response that omits it
	require.NotNil(t, sess.User)
	require.Equal(t, "u1", sess.User.ID)
}

func TestBothTokensInvalidClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token revoked"})
	})

	c, store := newTestClient(t, mux)
	seedSession(t, c, "acc-stale", "ref-stale")

	_, err := c.ListItems(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.False(t, c.Session().Authenticated())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.False(t, persisted.Authenticated())
}

func TestConcurrentRequestsShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	var mu sync.Mutex
	accepted := map[string]bool{"acc-2": true}

	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := accepted[r.Header.Get("Authorization")[len("Bearer "):]]
		mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []Item{})
	})
	mux.HandleFunc("/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token":  "acc-2",
			"refresh_token": "ref-2",
		})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-stale", "ref-1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.ListItems(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, refreshCalls)
}

func TestRefreshTransportErrorKeepsSession(t *testing.T) {
	refreshSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	refreshSrv.Close() // every call now fails at the transport level

	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-stale", "ref-1")
	// point only the refresh exchange at the dead server by replaying through
	// refreshAccessToken directly
	c.baseURL = refreshSrv.URL

	_, err := c.refreshAccessToken(context.Background(), "acc-stale")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnauthorized)
	require.True(t, c.Session().Authenticated())
	require.Equal(t, "ref-1", c.Session().RefreshToken)
}

func TestLogoutAlwaysClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	c, store := newTestClient(t, mux)
	seedSession(t, c, "acc-1", "ref-1")

	require.NoError(t, c.Logout(context.Background()))
	require.False(t, c.Session().Authenticated())

	persisted, err := store.Load()
	require.NoError(t, err)
	require.False(t, persisted.Authenticated())
}

func TestLogoutWithoutSessionIsNoop(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))
	require.NoError(t, c.Logout(context.Background()))
}

func TestListItemsNormalization(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"i1","name":"Hammer"},{"id":"i2","name":"Nails"}]`, 2},
		{"data wrapper", `{"data":[{"id":"i1","name":"Hammer"}]}`, 1},
		{"empty array", `[]`, 0},
		{"empty wrapper", `{"data":[]}`, 0},
		{"null body", `null`, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			})

			c, _ := newTestClient(t, mux)
			seedSession(t, c, "acc-1", "ref-1")

			items, err := c.ListItems(context.Background())
			require.NoError(t, err)
			require.NotNil(t, items)
			require.Len(t, items, tc.want)
		})
	}
}

func TestItemLifecycle(t *testing.T) {
	price := 9.99
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload ItemPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		writeJSON(w, http.StatusCreated, Item{ID: "i1", Name: payload.Name, Price: payload.Price})
	})
	mux.HandleFunc("/items/i1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, Item{ID: "i1", Name: "Hammer", Price: &price})
		case http.MethodPut:
			var payload ItemPayload
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			writeJSON(w, http.StatusOK, Item{ID: "i1", Name: payload.Name})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-1", "ref-1")
	ctx := context.Background()

	created, err := c.CreateItem(ctx, ItemPayload{Name: "Hammer", Price: &price})
	require.NoError(t, err)
	require.Equal(t, "i1", created.ID)
	require.NotNil(t, created.Price)
	require.Equal(t, 9.99, *created.Price)

	got, err := c.GetItem(ctx, "i1")
	require.NoError(t, err)
	require.Equal(t, "Hammer", got.Name)

	updated, err := c.UpdateItem(ctx, "i1", ItemPayload{Name: "Sledgehammer"})
	require.NoError(t, err)
	require.Equal(t, "Sledgehammer", updated.Name)

	require.NoError(t, c.DeleteItem(ctx, "i1"))
}

func TestGetItemNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-1", "ref-1")

	_, err := c.GetItem(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServerErrorMapsToUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "db down"})
	})

	c, _ := newTestClient(t, mux)
	seedSession(t, c, "acc-1", "ref-1")

	_, err := c.ListItems(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	// never-written store yields a zero session
	sess, err := store.Load()
	require.NoError(t, err)
	require.False(t, sess.Authenticated())

	saved := Session{
		AccessToken:  "acc-1",
		RefreshToken: "ref-1",
		User:         &User{ID: "u1", Email: "m@example.com"},
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	require.NoError(t, store.Clear())
	sess, err = store.Load()
	require.NoError(t, err)
	require.False(t, sess.Authenticated())
	// clearing twice stays silent
	require.NoError(t, store.Clear())
}

func TestNewLoadsPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(Session{AccessToken: "acc-1", RefreshToken: "ref-1"}))

	c, err := New("http://localhost:0", store)
	require.NoError(t, err)
	require.True(t, c.Session().Authenticated())
	require.Equal(t, "acc-1", c.Session().AccessToken)
}

func TestValidationErrorMessageIsStable(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"name":  "name is required",
		"price": "price must be zero or greater",
	}}
	require.Equal(t, "validation failed: name: name is required; price: price must be zero or greater", err.Error())
	require.False(t, errors.Is(err, ErrUnauthorized))
}
