package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	report := Build(testAlert(), testOfficer(), "desc", "CP-580")

	t.Run("should decode JSON responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/ia/recibir_alerta", r.URL.Path)

			var received PoliceReport
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			assert.Equal(t, report.ID, received.ID)

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			fmt.Fprint(w, `{"estado": "recibido", "folio": "F-1009"}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		result, err := client.Submit(context.Background(), report)
		require.NoError(t, err)

		assert.Equal(t, "application/json", result.ContentType)
		assert.Equal(t, "recibido", result.Document["estado"])
		assert.Equal(t, "F-1009", result.Document["folio"])
		assert.Nil(t, result.PDF)
		assert.Empty(t, result.Text)
	})

	t.Run("should return PDF responses as bytes", func(t *testing.T) {
		pdf := []byte("%PDF-1.7 fake document")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(pdf)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		result, err := client.Submit(context.Background(), report)
		require.NoError(t, err)

		assert.Equal(t, "application/pdf", result.ContentType)
		assert.Equal(t, pdf, result.PDF)
		assert.Nil(t, result.Document)
	})

	t.Run("should return other responses as text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprint(w, "reporte recibido")
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		result, err := client.Submit(context.Background(), report)
		require.NoError(t, err)

		assert.Equal(t, "text/plain", result.ContentType)
		assert.Equal(t, "reporte recibido", result.Text)
	})

	t.Run("should return error on backend failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		_, err := client.Submit(context.Background(), report)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}

func TestCompleteFields(t *testing.T) {
	a := testAlert()

	t.Run("should send alert data and empty field names", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/completar-campos", r.URL.Path)

			var body struct {
				AlertData   map[string]interface{} `json:"alertData"`
				EmptyFields []string               `json:"camposVacios"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Av. Amazonas y Colón", body.AlertData["location"])
			assert.Equal(t, []string{"key_words", "cordinates"}, body.EmptyFields)

			fmt.Fprint(w, `{"completados": {"key_words": "disparo", "cordinates": "-0.18,-78.46"}}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		completed, err := client.CompleteFields(context.Background(), a, []string{"key_words", "cordinates"})
		require.NoError(t, err)

		assert.Equal(t, "disparo", completed["key_words"])
		assert.Equal(t, "-0.18,-78.46", completed["cordinates"])
	})

	t.Run("should parse string-encoded completions", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"completados": "{\"location\": \"Quito\"}"}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		completed, err := client.CompleteFields(context.Background(), a, []string{"location"})
		require.NoError(t, err)

		assert.Equal(t, "Quito", completed["location"])
	})

	t.Run("should degrade unparseable completions to empty mapping", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"completados": "not valid json at all"}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		completed, err := client.CompleteFields(context.Background(), a, []string{"location"})
		require.NoError(t, err)

		assert.NotNil(t, completed)
		assert.Empty(t, completed)
	})

	t.Run("should handle missing completados key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		completed, err := client.CompleteFields(context.Background(), a, nil)
		require.NoError(t, err)

		assert.NotNil(t, completed)
		assert.Empty(t, completed)
	})

	t.Run("should return error on backend failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(server.URL, slog.Default())
		_, err := client.CompleteFields(context.Background(), a, nil)
		require.Error(t, err)
	})
}
