package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/signintech/gopdf"
	"github.com/sirupsen/logrus"

	"medmarket-ai/internal/consultation"
)

type TelegramClient interface {
	SendMessage(chatID int64, text string) error
	SendDocument(chatID int64, fileData []byte, fileName string) error
}

// defaultFontPaths are the DejaVuSans locations across the distros we deploy
// on.
var defaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// Service renders a PDF summary of a high-severity consultation and pushes
// it to the on-call pharmacist chat.
type Service struct {
	tgClient         TelegramClient
	pharmacistChatID int64
	fontPaths        []string
}

func NewService(tg TelegramClient, pharmacistChatID int64) *Service {
	return &Service{
		tgClient:         tg,
		pharmacistChatID: pharmacistChatID,
		fontPaths:        defaultFontPaths,
	}
}

func (s *Service) SendSeverityAlert(ctx context.Context, sess consultation.Session, result consultation.ConsultResult) error {
	logrus.Infof("Generating severity alert for session %s", sess.ID)

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("DejaVu", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return fmt.Errorf("failed to load font for PDF, ensure ttf-dejavu is installed: %w", fontErr)
	}

	if err := pdf.SetFont("DejaVu", "", 20); err != nil {
		return err
	}
	pdf.Cell(nil, "High-severity consultation alert")
	pdf.Br(30)

	if err := pdf.SetFont("DejaVu", "", 12); err != nil {
		return err
	}
	pdf.Cell(nil, fmt.Sprintf("Date: %s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("Session: %s", sess.ID))
	pdf.Br(15)
	if sess.UserID != nil {
		pdf.Cell(nil, fmt.Sprintf("User: %s", sess.UserID))
		pdf.Br(15)
	}
	pdf.Cell(nil, fmt.Sprintf("Severity: %s", result.Severity))
	pdf.Br(25)

	if err := pdf.SetFont("DejaVu", "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, "Reported symptoms:")
	pdf.Br(15)

	if err := pdf.SetFont("DejaVu", "", 11); err != nil {
		return err
	}
	lines, _ := pdf.SplitText(sess.Symptoms, 500)
	for _, l := range lines {
		pdf.Cell(nil, l)
		pdf.Br(12)
	}
	pdf.Br(15)

	if len(result.Recommendations) > 0 {
		if err := pdf.SetFont("DejaVu", "", 14); err != nil {
			return err
		}
		pdf.Cell(nil, "Assistant recommendations:")
		pdf.Br(15)
		if err := pdf.SetFont("DejaVu", "", 11); err != nil {
			return err
		}
		for _, rec := range result.Recommendations {
			recLines, _ := pdf.SplitText("- "+rec, 500)
			for _, l := range recLines {
				pdf.Cell(nil, l)
				pdf.Br(12)
			}
			pdf.Br(5)
		}
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	fileName := fmt.Sprintf("consultation_%s.pdf", sess.ID)
	if err := s.tgClient.SendDocument(s.pharmacistChatID, buf.Bytes(), fileName); err != nil {
		return fmt.Errorf("failed to send alert document: %w", err)
	}
	logrus.Infof("Severity alert sent for session %s", sess.ID)
	return nil
}
