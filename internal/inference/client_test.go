package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOllamaClientGenerate(t *testing.T) {
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "POST", r.Method)
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "Rest and drink fluids."})
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "llama3")
	text, err := client.Generate(context.Background(), "I have a headache")

	assert.NoError(t, err)
	assert.Equal(t, "Rest and drink fluids.", text)
	assert.Equal(t, "llama3", gotReq.Model)
	assert.Equal(t, "I have a headache", gotReq.Prompt)
	assert.False(t, gotReq.Stream)
}

func TestOllamaClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "llama3")
	_, err := client.Generate(context.Background(), "prompt")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInference))
}

func TestOllamaClientMissingResponseField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"done": true}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(srv.URL, "llama3")
	_, err := client.Generate(context.Background(), "prompt")

	assert.True(t, errors.Is(err, ErrInference))
}

func TestOllamaClientUnreachable(t *testing.T) {
	client := NewOllamaClient("http://127.0.0.1:1", "llama3")
	_, err := client.Generate(context.Background(), "prompt")

	assert.True(t, errors.Is(err, ErrInference))
}
