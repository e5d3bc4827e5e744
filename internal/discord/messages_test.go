package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testToken   = "test-token"
	testChannel = snowflake.ID(1000)
	me          = snowflake.ID(42)
	someoneElse = snowflake.ID(13)
)

// fakeHistory serves the pages in order, recording the "before" parameter of
// each request.
type fakeHistory struct {
	mu      sync.Mutex
	pages   [][]Message
	failAt  int // page request number (0-based) that fails, -1 to disable
	befores []string
}

func (f *fakeHistory) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Header.Get("Authorization") != testToken {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "401: Unauthorized", "code": 0}`))
		return
	}
	n := len(f.befores)
	f.befores = append(f.befores, r.URL.Query().Get("before"))
	if n == f.failAt {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Missing Access", "code": 50001}`))
		return
	}
	var page = []Message{}
	if n < len(f.pages) {
		page = f.pages[n]
	}
	json.NewEncoder(w).Encode(page)
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cl, err := New(testToken, WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Inf, 0)))
	require.NoError(t, err)
	return cl
}

// genPage generates n messages with descending IDs starting at start,
// authored by authors in round-robin order.
func genPage(start snowflake.ID, n int, authors ...snowflake.ID) []Message {
	var mm = make([]Message, n)
	for i := range mm {
		mm[i] = Message{
			ID:     start - snowflake.ID(i),
			Author: User{ID: authors[i%len(authors)]},
		}
	}
	return mm
}

func TestNew(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_SearchAllMessages(t *testing.T) {
	t.Run("N pages of other's messages", func(t *testing.T) {
		const nPages = 5
		var pages [][]Message
		for i := 0; i < nPages; i++ {
			pages = append(pages, genPage(snowflake.ID(100_000-i*100), 100, someoneElse))
		}
		fh := &fakeHistory{pages: pages, failAt: -1}
		cl := newTestClient(t, fh)

		got, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Len(t, fh.befores, nPages+1)
	})
	t.Run("filters messages by author preserving order", func(t *testing.T) {
		fh := &fakeHistory{
			pages:  [][]Message{genPage(500, 6, me, someoneElse, someoneElse)},
			failAt: -1,
		}
		cl := newTestClient(t, fh)

		got, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, snowflake.ID(500), got[0].ID)
		assert.Equal(t, snowflake.ID(497), got[1].ID)
	})
	t.Run("cursor is the last message of the raw page", func(t *testing.T) {
		// last message on the first page is from someone else.
		fh := &fakeHistory{
			pages: [][]Message{
				genPage(900, 3, me, me, someoneElse),
				genPage(897, 2, me),
			},
			failAt: -1,
		}
		cl := newTestClient(t, fh)

		got, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		assert.Len(t, got, 4)
		assert.Equal(t, []string{"", "898", "896"}, fh.befores)
	})
	t.Run("returns partial results on error", func(t *testing.T) {
		fh := &fakeHistory{
			pages: [][]Message{
				genPage(900, 4, me, someoneElse),
				genPage(896, 4, me),
				genPage(892, 4, me),
			},
			failAt: 2,
		}
		cl := newTestClient(t, fh)

		got, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.Error(t, err)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, CodeMissingAccess, apiErr.Code)
		assert.Len(t, got, 6)
		assert.Len(t, fh.befores, 3)
	})
	t.Run("callback receives scanned count", func(t *testing.T) {
		fh := &fakeHistory{
			pages:  [][]Message{genPage(900, 100, me, someoneElse), genPage(800, 30, me)},
			failAt: -1,
		}
		cl := newTestClient(t, fh)

		var total int
		_, err := cl.SearchAllMessages(context.Background(), testChannel, me, func(n int) { total += n })
		require.NoError(t, err)
		assert.Equal(t, 130, total)
	})
	t.Run("uses cache until deletion", func(t *testing.T) {
		var deletes int
		fh := &fakeHistory{pages: [][]Message{genPage(900, 2, me)}, failAt: -1}
		mux := http.NewServeMux()
		mux.Handle("GET /channels/{id}/messages", fh)
		mux.HandleFunc("DELETE /channels/{id}/messages/{mid}", func(w http.ResponseWriter, r *http.Request) {
			deletes++
			w.WriteHeader(http.StatusNoContent)
		})
		cl := newTestClient(t, mux)

		_, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		_, err = cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		assert.Len(t, fh.befores, 2, "second search must be served from cache")

		_, err = cl.DeleteMessage(context.Background(), testChannel, 900)
		require.NoError(t, err)
		_, err = cl.SearchAllMessages(context.Background(), testChannel, me, nil)
		require.NoError(t, err)
		// history is exhausted on the fake, so it's a single empty page.
		assert.Len(t, fh.befores, 3)
		assert.Equal(t, 1, deletes)
	})
}

func TestClient_Forget(t *testing.T) {
	fh := &fakeHistory{pages: [][]Message{genPage(900, 2, me)}, failAt: -1}
	cl := newTestClient(t, fh)

	assert.False(t, cl.Forget(testChannel), "nothing cached yet")
	got, err := cl.SearchAllMessages(context.Background(), testChannel, me, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, fh.befores, 2)

	assert.True(t, cl.Forget(testChannel))
	_, err = cl.SearchAllMessages(context.Background(), testChannel, me, nil)
	require.NoError(t, err)
	assert.Len(t, fh.befores, 3, "search after Forget must hit the API")
}

func TestClient_ChannelMessages(t *testing.T) {
	var gotQuery = map[string]string{}
	cl := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/1000/messages", r.URL.Path)
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`[{"id":"12","author":{"id":"42","username":"me"},"type":0}]`))
	}))

	mm, err := cl.ChannelMessages(context.Background(), testChannel, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "100"}, gotQuery)
	require.Len(t, mm, 1)
	assert.Equal(t, snowflake.ID(12), mm[0].ID)
	assert.Equal(t, me, mm[0].Author.ID)

	_, err = cl.ChannelMessages(context.Background(), testChannel, 12345, 50)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"limit": "50", "before": "12345"}, gotQuery)
}

func TestClient_DeleteMessage(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    bool
		wantSystem bool
	}{
		{"no content", http.StatusNoContent, "", http.StatusNoContent, false, false},
		{"unexpected ok", http.StatusOK, "{}", http.StatusOK, false, false},
		{"system message", http.StatusBadRequest, `{"message": "Cannot execute action on a system message", "code": 50021}`, http.StatusBadRequest, true, true},
		{"already deleted", http.StatusNotFound, `{"message": "Unknown Message", "code": 10008}`, http.StatusNotFound, true, false},
		{"garbage", http.StatusBadGateway, "<html>bad gateway</html>", http.StatusBadGateway, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cl := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodDelete, r.Method)
				assert.Equal(t, "/channels/1000/messages/77", r.URL.Path)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			got, err := cl.DeleteMessage(context.Background(), testChannel, 77)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DeleteMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			assert.Equal(t, tt.wantStatus, got)
			assert.Equal(t, tt.wantSystem, IsSystemMessage(err))
		})
	}
}

func TestClient_Me(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me" || r.Header.Get("Authorization") != testToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message": "401: Unauthorized", "code": 0}`))
			return
		}
		w.Write([]byte(`{"id":"` + strconv.Itoa(int(me)) + `","username":"rusq","global_name":"Rustam"}`))
	}))
	defer srv.Close()

	t.Run("valid token", func(t *testing.T) {
		cl, err := New(testToken, WithBaseURL(srv.URL))
		require.NoError(t, err)
		u, err := cl.Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, me, u.ID)
		assert.Equal(t, "Rustam", u.DisplayName())
	})
	t.Run("invalid token", func(t *testing.T) {
		cl, err := New("bad", WithBaseURL(srv.URL))
		require.NoError(t, err)
		_, err = cl.Me(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})
}
