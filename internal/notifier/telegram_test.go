package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(srv *httptest.Server) *TelegramNotifier {
	n := NewTelegramNotifier("TOKEN", "42", "")
	n.APIBase = srv.URL
	n.Client = srv.Client()
	return n
}

func TestSend_PostsHTMLMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).Send(context.Background(), "<b>hi</b>"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>hi</b>", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
	assert.Equal(t, true, got["disable_web_page_preview"])
}

func TestSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestNotifier(srv).Send(context.Background(), "x")
	assert.ErrorContains(t, err, "status 400")
}

func TestNotify_MissingCredentials(t *testing.T) {
	n := NewTelegramNotifier("", "", "")
	assert.False(t, n.Notify(context.Background(), "x"))
	assert.ErrorIs(t, n.Send(context.Background(), "x"), ErrNotConfigured)
}

func TestNotify_ReportsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	assert.True(t, newTestNotifier(srv).Notify(context.Background(), "x"))
}

func TestSendWithRetry_RecoversAfterFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv).SendWithRetry(context.Background(), "x", 2))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWithRetry_NotConfiguredIsNotRetried(t *testing.T) {
	n := NewTelegramNotifier("", "42", "")
	start := time.Now()
	err := n.SendWithRetry(context.Background(), "x", 3)
	assert.True(t, errors.Is(err, ErrNotConfigured))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := newTestNotifier(srv).SendWithRetry(ctx, "x", 5)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStartPolling_HandlesOwnChatOnly(t *testing.T) {
	var sent atomic.Value
	var polls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/botTOKEN/getUpdates":
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[
{"update_id":7,"message":{"text":"/status","chat":{"id":99}}},
{"update_id":8,"message":{"text":" /help ","chat":{"id":42}}}]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case "/botTOKEN/sendMessage":
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			sent.Store(body["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	var handled []string
	n := newTestNotifier(srv)
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			handled = append(handled, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/help"}, handled)
	assert.Equal(t, "reply to /help", sent.Load())
}
