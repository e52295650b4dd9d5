package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"medmarket-ai/internal/consultation"
)

type mockTelegramClient struct {
	SendMessageFunc  func(chatID int64, text string) error
	SendDocumentFunc func(chatID int64, fileData []byte, fileName string) error
}

var _ TelegramClient = (*mockTelegramClient)(nil)

func (m *mockTelegramClient) SendMessage(chatID int64, text string) error {
	if m.SendMessageFunc == nil {
		return fmt.Errorf("SendMessageFunc not set in mock")
	}
	return m.SendMessageFunc(chatID, text)
}

func (m *mockTelegramClient) SendDocument(chatID int64, fileData []byte, fileName string) error {
	if m.SendDocumentFunc == nil {
		return fmt.Errorf("SendDocumentFunc not set in mock")
	}
	return m.SendDocumentFunc(chatID, fileData, fileName)
}

func installedFontPath(t *testing.T) string {
	t.Helper()
	for _, path := range defaultFontPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("no DejaVuSans.ttf installed")
	return ""
}

func TestSendSeverityAlertDeliversPDF(t *testing.T) {
	fontPath := installedFontPath(t)

	var sentChatID int64
	var sentData []byte
	var sentName string
	tg := &mockTelegramClient{
		SendDocumentFunc: func(chatID int64, fileData []byte, fileName string) error {
			sentChatID = chatID
			sentData = fileData
			sentName = fileName
			return nil
		},
	}

	svc := NewService(tg, 99)
	svc.fontPaths = []string{fontPath}

	sess := consultation.Session{
		ID:           uuid.New(),
		SessionToken: "tok",
		Symptoms:     "crushing chest pain radiating to the left arm",
	}
	result := consultation.ConsultResult{
		Severity:         consultation.SeverityHigh,
		FollowUpRequired: true,
		Recommendations:  []string{"You should seek medical attention immediately."},
	}

	err := svc.SendSeverityAlert(context.Background(), sess, result)

	assert.NoError(t, err)
	assert.Equal(t, int64(99), sentChatID)
	assert.Equal(t, fmt.Sprintf("consultation_%s.pdf", sess.ID), sentName)
	assert.True(t, bytes.HasPrefix(sentData, []byte("%PDF")))
}

func TestSendSeverityAlertMissingFont(t *testing.T) {
	documentSent := false
	tg := &mockTelegramClient{
		SendDocumentFunc: func(chatID int64, fileData []byte, fileName string) error {
			documentSent = true
			return nil
		},
	}

	svc := NewService(tg, 99)
	svc.fontPaths = []string{"/nonexistent/DejaVuSans.ttf"}

	err := svc.SendSeverityAlert(context.Background(), consultation.Session{ID: uuid.New()}, consultation.ConsultResult{})

	assert.Error(t, err)
	assert.False(t, documentSent)
}

func TestSendSeverityAlertDocumentFailure(t *testing.T) {
	fontPath := installedFontPath(t)

	tg := &mockTelegramClient{
		SendDocumentFunc: func(chatID int64, fileData []byte, fileName string) error {
			return fmt.Errorf("telegram down")
		},
	}

	svc := NewService(tg, 99)
	svc.fontPaths = []string{fontPath}

	err := svc.SendSeverityAlert(context.Background(), consultation.Session{ID: uuid.New()}, consultation.ConsultResult{})

	assert.Error(t, err)
}
