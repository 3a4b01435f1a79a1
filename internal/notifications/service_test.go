package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lova-clover/DevHistory/internal/config"
	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary() *models.WeeklySummary {
	return &models.WeeklySummary{
		ID:           "sum-1",
		UserID:       "user-1",
		WeekStart:    time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		WeekEnd:      time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		CommitCount:  6,
		ProblemCount: 3,
		NoteCount:    1,
	}
}

func TestReportReady_Webhook(t *testing.T) {
	var payload webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	service := NewService(&config.Config{WebhookURL: server.URL})
	user := models.User{ID: "user-1", Email: "dev@example.com"}

	require.NoError(t, service.ReportReady(user, testSummary(), "## Report"))
	assert.Equal(t, "weekly_report.completed", payload.Event)
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, "sum-1", payload.SummaryID)
	assert.Equal(t, "2024-01-08", payload.WeekStart)
	assert.Equal(t, "2024-01-14", payload.WeekEnd)
	assert.Equal(t, 6, payload.CommitCount)
}

func TestReportReady_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewService(&config.Config{WebhookURL: server.URL})
	err := service.ReportReady(models.User{ID: "user-1"}, testSummary(), "## Report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook")
	assert.Contains(t, err.Error(), "status 500")
}

func TestReportReady_NoChannelsConfigured(t *testing.T) {
	service := NewService(&config.Config{})
	assert.NoError(t, service.ReportReady(models.User{ID: "user-1"}, testSummary(), "## Report"))
}

func TestBuildEmailBodies(t *testing.T) {
	service := NewService(&config.Config{})
	summary := testSummary()

	text := service.buildEmailText(summary, "## Report body")
	assert.Contains(t, text, "Weekly Report 2024-01-08 ~ 2024-01-14")
	assert.Contains(t, text, "Commits: 6 | Problems: 3 | Notes: 1")
	assert.Contains(t, text, "## Report body")

	html, err := service.buildEmailHTML(summary, "## Report body")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Commits:</strong> 6")
	assert.Contains(t, html, "2024-01-08 ~ 2024-01-14")
	assert.Contains(t, html, "## Report body")
}
