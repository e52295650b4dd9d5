package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// ExtractResult is the text pulled out of a prescription image together
// with the extractor's confidence in it.
type ExtractResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TextExtractor turns an uploaded prescription image into plain text for
// the analysis pipeline.
type TextExtractor interface {
	Extract(ctx context.Context, imageData []byte, filename string) (ExtractResult, error)
}

type httpClient struct {
	serviceURL string
	httpClient *http.Client
}

// NewHTTPClient talks to an OCR sidecar service that accepts a multipart
// upload on /extract and returns {text, confidence}.
func NewHTTPClient(serviceURL string) TextExtractor {
	return &httpClient{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *httpClient) Extract(ctx context.Context, imageData []byte, filename string) (ExtractResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return ExtractResult{}, err
	}
	if _, err := part.Write(imageData); err != nil {
		return ExtractResult{}, err
	}
	if err := writer.Close(); err != nil {
		return ExtractResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.serviceURL+"/extract", body)
	if err != nil {
		return ExtractResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ExtractResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return ExtractResult{}, fmt.Errorf("OCR API error: %s - %s", resp.Status, string(respBody))
	}

	var result ExtractResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ExtractResult{}, err
	}
	return result, nil
}

// StubExtractor returns a fixed sample prescription regardless of input.
// It stands in when no OCR service is configured, so the rest of the
// analysis pipeline stays exercisable in development.
type StubExtractor struct{}

func (StubExtractor) Extract(ctx context.Context, imageData []byte, filename string) (ExtractResult, error) {
	return ExtractResult{
		Text:       "Amoxicillin 500 mg three times daily for 7 days. Paracetamol 650mg as needed for fever.",
		Confidence: 0.5,
	}, nil
}
