package consultation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"medmarket-ai/internal/inference"
	"medmarket-ai/internal/registry"
)

// FallbackResponse is shown whenever inference fails. The user always gets
// a well-formed reply that points them at a professional.
const FallbackResponse = "I'm sorry, I couldn't process your consultation right now. " +
	"Please consult a healthcare professional about your symptoms, especially if they are severe or getting worse."

// ErrEmptyInput is the only error Consult/AnalyzePrescription surface to
// the HTTP layer; everything below is converted into a fallback result.
var ErrEmptyInput = fmt.Errorf("input text must not be empty")

// ReportService delivers high-severity consultation summaries to the
// on-call pharmacist.
type ReportService interface {
	SendSeverityAlert(ctx context.Context, s Session, result ConsultResult) error
}

type ConsultRequest struct {
	Symptoms     string
	UserID       *uuid.UUID
	SessionToken string
	Language     string
}

type AnalyzeRequest struct {
	Text   string
	UserID *uuid.UUID
}

type Service interface {
	Consult(ctx context.Context, req ConsultRequest) (ConsultResult, error)
	AnalyzePrescription(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error)
	History(ctx context.Context, sessionToken string) ([]ChatMessage, error)
}

type service struct {
	repo      Repository
	aiClient  inference.Client
	registry  registry.Client
	reportSvc ReportService
}

func NewService(repo Repository, ai inference.Client, reg registry.Client, report ReportService) Service {
	return &service{
		repo:      repo,
		aiClient:  ai,
		registry:  reg,
		reportSvc: report,
	}
}

// Consult runs one consultation turn: persist the user's message, run
// inference, parse, persist the AI reply with metadata. Inference failure
// never reaches the caller; the turn completes with the fallback reply.
func (s *service) Consult(ctx context.Context, req ConsultRequest) (ConsultResult, error) {
	if strings.TrimSpace(req.Symptoms) == "" {
		return ConsultResult{}, ErrEmptyInput
	}

	session, err := s.loadOrCreateSession(ctx, req)
	if err != nil {
		return ConsultResult{}, err
	}

	// The user's question is recorded before inference so it survives a
	// model outage.
	userMsg := &ChatMessage{
		ConsultationID: session.ID,
		IsAI:           false,
		Message:        req.Symptoms,
	}
	if err := s.repo.AppendMessage(ctx, userMsg); err != nil {
		return ConsultResult{}, err
	}

	prompt := BuildMedicalPrompt(req.Symptoms, req.Language)

	responseText, err := s.aiClient.Generate(ctx, prompt)
	if err != nil {
		logrus.Warnf("Inference failed for session %s: %v", session.ID, err)
		return s.recordFallbackTurn(ctx, session)
	}

	parsed := ParseMedicalResponse(responseText)

	aiMsg := &ChatMessage{
		ConsultationID: session.ID,
		IsAI:           true,
		Message:        responseText,
		Metadata: &MessageMetadata{
			Severity:         parsed.Severity,
			FollowUpRequired: parsed.FollowUpRequired,
			Recommendations:  parsed.Recommendations,
			MessageType:      MessageTypeMedical,
		},
	}
	if err := s.repo.AppendMessage(ctx, aiMsg); err != nil {
		return ConsultResult{}, err
	}

	result := ConsultResult{
		Response:         responseText,
		Recommendations:  parsed.Recommendations,
		Severity:         parsed.Severity,
		FollowUpRequired: parsed.FollowUpRequired,
		SessionToken:     session.SessionToken,
	}

	if parsed.Severity == SeverityHigh && s.reportSvc != nil {
		// Alerting the pharmacist is best-effort and must not delay the
		// reply to a potentially distressed user.
		go func(sess Session, res ConsultResult) {
			if err := s.reportSvc.SendSeverityAlert(context.Background(), sess, res); err != nil {
				logrus.Errorf("Failed to send severity alert for session %s: %v", sess.ID, err)
			}
		}(*session, result)
	}

	return result, nil
}

// AnalyzePrescription runs the prescription variant of the pipeline. The
// degraded result carries an Error field instead of failing the call.
func (s *service) AnalyzePrescription(ctx context.Context, req AnalyzeRequest) (AnalyzeResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return AnalyzeResult{}, ErrEmptyInput
	}

	session := &Session{
		UserID:       req.UserID,
		SessionToken: uuid.NewString(),
		Symptoms:     req.Text,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return AnalyzeResult{}, err
	}

	userMsg := &ChatMessage{
		ConsultationID: session.ID,
		IsAI:           false,
		Message:        req.Text,
	}
	if err := s.repo.AppendMessage(ctx, userMsg); err != nil {
		return AnalyzeResult{}, err
	}

	prompt := BuildPrescriptionPrompt(req.Text)

	analysisText, err := s.aiClient.Generate(ctx, prompt)
	if err != nil {
		logrus.Warnf("Prescription inference failed for session %s: %v", session.ID, err)
		degraded := AnalyzeResult{
			Medicines:      []Medicine{},
			DosageWarnings: []string{},
			Error:          "Unable to analyze prescription at this time",
		}
		aiMsg := &ChatMessage{
			ConsultationID: session.ID,
			IsAI:           true,
			Message:        degraded.Error,
			Metadata: &MessageMetadata{
				MessageType:    MessageTypePrescription,
				Medicines:      []Medicine{},
				DosageWarnings: []string{},
			},
		}
		if err := s.repo.AppendMessage(ctx, aiMsg); err != nil {
			logrus.Errorf("Failed to persist degraded prescription turn: %v", err)
		}
		return degraded, nil
	}

	medicines := s.enrichMedicines(ctx, ExtractMedicines(analysisText))
	warnings := ExtractWarnings(analysisText)

	aiMsg := &ChatMessage{
		ConsultationID: session.ID,
		IsAI:           true,
		Message:        analysisText,
		Metadata: &MessageMetadata{
			MessageType:    MessageTypePrescription,
			Medicines:      medicines,
			DosageWarnings: warnings,
		},
	}
	if err := s.repo.AppendMessage(ctx, aiMsg); err != nil {
		return AnalyzeResult{}, err
	}

	return AnalyzeResult{
		Medicines:      medicines,
		DosageWarnings: warnings,
		Analysis:       analysisText,
	}, nil
}

func (s *service) History(ctx context.Context, sessionToken string) ([]ChatMessage, error) {
	session, err := s.repo.GetSessionByToken(ctx, sessionToken)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, session.ID)
}

func (s *service) loadOrCreateSession(ctx context.Context, req ConsultRequest) (*Session, error) {
	if req.SessionToken != "" {
		session, err := s.repo.GetSessionByToken(ctx, req.SessionToken)
		if err == nil {
			// The stored row is never updated; the current complaint is
			// recorded in the message log for this turn.
			session.Symptoms = req.Symptoms
			return session, nil
		}
		if err != ErrSessionNotFound {
			return nil, err
		}
		// Unknown token: start a fresh session under the token the client
		// is already holding.
		session = &Session{
			UserID:       req.UserID,
			SessionToken: req.SessionToken,
			Symptoms:     req.Symptoms,
		}
		return session, s.repo.CreateSession(ctx, session)
	}

	session := &Session{
		UserID:       req.UserID,
		SessionToken: uuid.NewString(),
		Symptoms:     req.Symptoms,
	}
	return session, s.repo.CreateSession(ctx, session)
}

// recordFallbackTurn persists and returns the canned reply used when the
// model is unreachable.
func (s *service) recordFallbackTurn(ctx context.Context, session *Session) (ConsultResult, error) {
	degraded := DegradedDefault()
	aiMsg := &ChatMessage{
		ConsultationID: session.ID,
		IsAI:           true,
		Message:        FallbackResponse,
		Metadata: &MessageMetadata{
			Severity:         degraded.Severity,
			FollowUpRequired: degraded.FollowUpRequired,
			Recommendations:  degraded.Recommendations,
			MessageType:      MessageTypeMedical,
		},
	}
	if err := s.repo.AppendMessage(ctx, aiMsg); err != nil {
		logrus.Errorf("Failed to persist fallback turn: %v", err)
	}

	return ConsultResult{
		Response:         FallbackResponse,
		Recommendations:  degraded.Recommendations,
		Severity:         degraded.Severity,
		FollowUpRequired: degraded.FollowUpRequired,
		SessionToken:     session.SessionToken,
	}, nil
}

// enrichMedicines annotates parsed medicines with registry matches. The
// registry being down only means the annotations stay empty.
func (s *service) enrichMedicines(ctx context.Context, medicines []Medicine) []Medicine {
	if s.registry == nil {
		return medicines
	}
	for i, med := range medicines {
		entries, err := s.registry.Search(ctx, med.Name)
		if err != nil {
			logrus.Warnf("Registry lookup failed for %q: %v", med.Name, err)
			continue
		}
		if len(entries) > 0 {
			medicines[i].RegisteredName = entries[0].Name
			medicines[i].LicenseID = entries[0].LicenseID
		}
	}
	return medicines
}
