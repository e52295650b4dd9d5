package consultation

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medmarket-ai/internal/ocr"
)

type Handler struct {
	svc       Service
	extractor ocr.TextExtractor
}

func NewHandler(svc Service, extractor ocr.TextExtractor) *Handler {
	return &Handler{svc: svc, extractor: extractor}
}

type ConsultHTTPRequest struct {
	Symptoms     string `json:"symptoms"`
	UserID       string `json:"userId,omitempty"`
	SessionToken string `json:"sessionToken,omitempty"`
	Language     string `json:"language,omitempty"`
}

type AnalyzePrescriptionResponse struct {
	Success          bool       `json:"success"`
	PrescriptionText string     `json:"prescriptionText"`
	Medicines        []Medicine `json:"medicines"`
	Warnings         []string   `json:"warnings"`
	Confidence       float64    `json:"confidence"`
	Error            string     `json:"error,omitempty"`
}

func (h *Handler) HandleConsult(w http.ResponseWriter, r *http.Request) {
	var req ConsultHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	consultReq := ConsultRequest{
		Symptoms:     req.Symptoms,
		SessionToken: req.SessionToken,
		Language:     req.Language,
	}
	if req.UserID != "" {
		uid, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}
		consultReq.UserID = &uid
	}

	result, err := h.svc.Consult(r.Context(), consultReq)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			http.Error(w, "Symptoms must not be empty", http.StatusBadRequest)
			return
		}
		logrus.Errorf("Consultation failed: %v", err)
		http.Error(w, "Consultation failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, result)
}

func (h *Handler) HandleAnalyzePrescription(w http.ResponseWriter, r *http.Request) {
	// Prescription photos are small; 10MB leaves plenty of headroom.
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("prescription")
	if err != nil {
		http.Error(w, "Missing prescription file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		http.Error(w, "Failed to read prescription file", http.StatusInternalServerError)
		return
	}

	extracted, err := h.extractor.Extract(r.Context(), buf.Bytes(), header.Filename)
	if err != nil {
		logrus.Errorf("OCR extraction failed: %v", err)
		writeJSON(w, AnalyzePrescriptionResponse{
			Success:   false,
			Medicines: []Medicine{},
			Warnings:  []string{},
			Error:     "Unable to read the prescription image",
		})
		return
	}

	analyzeReq := AnalyzeRequest{Text: extracted.Text}
	if userID := r.FormValue("userId"); userID != "" {
		if uid, err := uuid.Parse(userID); err == nil {
			analyzeReq.UserID = &uid
		}
	}

	result, err := h.svc.AnalyzePrescription(r.Context(), analyzeReq)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			http.Error(w, "Prescription text must not be empty", http.StatusBadRequest)
			return
		}
		logrus.Errorf("Prescription analysis failed: %v", err)
		http.Error(w, "Prescription analysis failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, AnalyzePrescriptionResponse{
		Success:          result.Error == "",
		PrescriptionText: extracted.Text,
		Medicines:        result.Medicines,
		Warnings:         result.DosageWarnings,
		Confidence:       extracted.Confidence,
		Error:            result.Error,
	})
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "sessionToken")
	if token == "" {
		http.Error(w, "Missing session token", http.StatusBadRequest)
		return
	}

	messages, err := h.svc.History(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		logrus.Errorf("History lookup failed: %v", err)
		http.Error(w, "History lookup failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"sessionToken": token,
		"messages":     messages,
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/ai/consult", h.HandleConsult)
	r.Post("/ai/analyze-prescription", h.HandleAnalyzePrescription)
	r.Get("/ai/consult/{sessionToken}/history", h.HandleHistory)
}
