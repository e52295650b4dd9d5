package telegram

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(baseURL string) *Client {
	return &Client{
		token:      "test-token",
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req sendMessageReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(42), req.ChatID)
		assert.Equal(t, "high severity consultation", req.Text)

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendMessage(42, "high severity consultation")

	assert.NoError(t, err)
}

func TestSendMessageNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false, "description": "Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendMessage(42, "text")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestSendDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendDocument", r.URL.Path)

		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("chat_id"))

		file, header, err := r.FormFile("document")
		assert.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "consultation_report.pdf", header.Filename)

		data, err := io.ReadAll(file)
		assert.NoError(t, err)
		assert.Equal(t, []byte("%PDF-fake"), data)

		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendDocument(7, []byte("%PDF-fake"), "consultation_report.pdf")

	assert.NoError(t, err)
}

func TestSendDocumentNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).SendDocument(7, []byte("data"), "report.pdf")

	assert.Error(t, err)
}
