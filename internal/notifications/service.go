package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Lova-clover/DevHistory/internal/config"
	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service delivers report-ready notifications via webhook and email.
// Delivery is best effort: generation jobs log failures but do not fail
// because a notification could not be sent.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// webhookPayload is the JSON body posted to the configured webhook.
type webhookPayload struct {
	Event        string `json:"event"`
	UserID       string `json:"user_id"`
	SummaryID    string `json:"summary_id"`
	WeekStart    string `json:"week_start"`
	WeekEnd      string `json:"week_end"`
	CommitCount  int    `json:"commit_count"`
	ProblemCount int    `json:"problem_count"`
	NoteCount    int    `json:"note_count"`
	GeneratedAt  string `json:"generated_at"`
}

// NewService creates a new notification service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// ReportReady sends the completed weekly report through every configured
// channel and joins any per-channel failures into one error.
func (s *Service) ReportReady(user models.User, summary *models.WeeklySummary, report string) error {
	var errors []string

	if s.config.WebhookURL != "" {
		if err := s.sendWebhook(user, summary); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errors = append(errors, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Infof("Sent report-ready webhook for summary %s", summary.ID)
		}
	}

	if s.config.SMTPHost != "" && user.Email != "" {
		if err := s.sendEmail(user, summary, report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Infof("Sent report-ready email for summary %s to %s", summary.ID, user.Email)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}
	return nil
}

func (s *Service) sendWebhook(user models.User, summary *models.WeeklySummary) error {
	payload := webhookPayload{
		Event:        "weekly_report.completed",
		UserID:       user.ID,
		SummaryID:    summary.ID,
		WeekStart:    summary.WeekStart.Format("2006-01-02"),
		WeekEnd:      summary.WeekEnd.Format("2006-01-02"),
		CommitCount:  summary.CommitCount,
		ProblemCount: summary.ProblemCount,
		NoteCount:    summary.NoteCount,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(s.config.WebhookURL)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func (s *Service) sendEmail(user models.User, summary *models.WeeklySummary, report string) error {
	subject := fmt.Sprintf("Your weekly report is ready (%s ~ %s)",
		summary.WeekStart.Format("2006-01-02"), summary.WeekEnd.Format("2006-01-02"))

	htmlBody, err := s.buildEmailHTML(summary, report)
	if err != nil {
		return fmt.Errorf("building email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(summary, report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

var emailTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Weekly Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #24292f; color: white; padding: 20px; border-radius: 5px; }
        .counts { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .report { border-left: 4px solid #2da44e; padding: 10px; background-color: #fafafa; white-space: pre-wrap; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Weekly Report</h1>
        <p>{{.WeekStart.Format "2006-01-02"}} ~ {{.WeekEnd.Format "2006-01-02"}}</p>
    </div>
    <div class="counts">
        <p><strong>Commits:</strong> {{.CommitCount}}</p>
        <p><strong>Problems solved:</strong> {{.ProblemCount}}</p>
        <p><strong>Notes:</strong> {{.NoteCount}}</p>
    </div>
    <div class="report">{{.Report}}</div>
    <hr>
    <p><small>Generated automatically by DevHistory.</small></p>
</body>
</html>
`))

func (s *Service) buildEmailHTML(summary *models.WeeklySummary, report string) (string, error) {
	data := struct {
		*models.WeeklySummary
		Report string
	}{summary, report}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) buildEmailText(summary *models.WeeklySummary, report string) string {
	var text strings.Builder
	text.WriteString(fmt.Sprintf("Weekly Report %s ~ %s\n\n",
		summary.WeekStart.Format("2006-01-02"), summary.WeekEnd.Format("2006-01-02")))
	text.WriteString(fmt.Sprintf("Commits: %d | Problems: %d | Notes: %d\n\n",
		summary.CommitCount, summary.ProblemCount, summary.NoteCount))
	text.WriteString(report)
	text.WriteString("\n\n---\nGenerated automatically by DevHistory.\n")
	return text.String()
}
