package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuntur-security/kuntur-console/internal/alert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_FetchNext_PendingAlert(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/get_alerta", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"location": "Quito", "date": "2025-07-03", "key_words": ["robo", "arma"]},
			"delivery_tag": 42
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, testLogger())

	a, handle, err := client.FetchNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "Quito", a.Location)
	assert.Equal(t, "2025-07-03", a.Date)
	assert.Equal(t, "robo, arma", a.Keywords)
	assert.Equal(t, alert.DeliveryHandle(42), handle)
}

func TestClient_FetchNext_NothingPending(t *testing.T) {
	t.Run("null data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": null}`))
		}))
		defer server.Close()

		a, handle, err := NewClient(server.URL, testLogger()).FetchNext(context.Background())
		require.NoError(t, err)
		assert.Nil(t, a)
		assert.Equal(t, alert.DeliveryHandle(0), handle)
	})

	t.Run("missing data field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		a, _, err := NewClient(server.URL, testLogger()).FetchNext(context.Background())
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

func TestClient_FetchNext_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	a, _, err := NewClient(server.URL, testLogger()).FetchNext(context.Background())
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestClient_FetchNext_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer server.Close()

	_, _, err := NewClient(server.URL, testLogger()).FetchNext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse fetch response")
}

func TestClient_Ack(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/ack_alerta", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = body
	}))
	defer server.Close()

	err := NewClient(server.URL, testLogger()).Ack(context.Background(), 42)
	require.NoError(t, err)

	var decoded map[string]int64
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(gotBody), &decoded))
	assert.Equal(t, int64(42), decoded["delivery_tag"])
}

func TestClient_Ack_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := NewClient(server.URL, testLogger()).Ack(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP status 404")
}
