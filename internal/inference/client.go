package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrInference marks any failure to obtain generated text from the model
// endpoint. Callers match it with errors.Is and fall back to a canned
// response instead of surfacing the transport detail to the user.
var ErrInference = errors.New("inference failed")

// Client produces raw model text for a prompt. Implementations make exactly
// one network call per invocation and do not retry.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ollamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

const defaultOllamaModel = "llama3"

// NewOllamaClient builds a client for an Ollama-compatible generate endpoint.
// The timeout bounds the whole request; a slow model counts as a failure.
func NewOllamaClient(baseURL, model string) Client {
	if model == "" {
		model = defaultOllamaModel
	}
	return &ollamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: inference API error: %s - %s", ErrInference, resp.Status, string(body))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: malformed response body: %v", ErrInference, err)
	}
	if result.Response == "" {
		// A body without the text field is indistinguishable from a
		// transport failure as far as the pipeline is concerned.
		return "", fmt.Errorf("%w: response field missing or empty", ErrInference)
	}

	return result.Response, nil
}
