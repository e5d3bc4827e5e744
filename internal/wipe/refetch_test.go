package wipe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rusq/dlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/rusq/wipemychannel/internal/discord"
)

// channelServer serves a single channel history, newest first.
type channelServer struct {
	mu      sync.Mutex
	history []discord.Message
	gets    int
}

func (s *channelServer) post(m discord.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]discord.Message{m}, s.history...)
}

func (s *channelServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /channels/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.gets++
		var page = []discord.Message{}
		if r.URL.Query().Get("before") == "" {
			page = s.history
		}
		json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc("DELETE /channels/{id}/messages/{mid}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		mid, err := snowflake.Parse(r.PathValue("mid"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for i, m := range s.history {
			if m.ID == mid {
				s.history = append(s.history[:i], s.history[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func TestWiper_Wipe_refetchesAfterDecline(t *testing.T) {
	cs := &channelServer{history: []discord.Message{
		{ID: 500, Author: testMe},
		{ID: 400, Author: discord.User{ID: 13}},
	}}
	srv := httptest.NewServer(cs.handler())
	defer srv.Close()

	cl, err := discord.New("token", discord.WithBaseURL(srv.URL), discord.WithLimiter(rate.NewLimiter(rate.Inf, 0)))
	require.NoError(t, err)

	conf := &fakeConfirmer{answer: false}
	w, err := New(cl, testMe, Delays{}, conf,
		WithLogger(dlog.New(io.Discard, "", 0, false)),
	)
	require.NoError(t, err)

	res, err := w.Wipe(context.Background(), testChannel)
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, res.Found)
	getsAfterFirst := cs.gets

	cs.post(discord.Message{ID: 600, Author: testMe})
	conf.answer = true

	res, err = w.Wipe(context.Background(), testChannel)
	require.NoError(t, err)
	assert.Equal(t, Result{Found: 2, Deleted: 2}, res)
	assert.Greater(t, cs.gets, getsAfterFirst, "second run must fetch the history again")
	assert.Equal(t, []discord.Message{{ID: 400, Author: discord.User{ID: 13}}}, cs.history)
}
