package services

import (
	"encoding/json"
	"testing"

	"github.com/igorsal/webhook-relay/internal/models"
)

const pullRequestPayload = `{
  "action": "opened",
  "pull_request": {
    "title": "Fix bug",
    "html_url": "http://x/1",
    "created_at": "2024-01-01T00:00:00Z",
    "user": {"login": "alice"},
    "assignees": [],
    "requested_reviewers": [{"login": "bob"}],
    "head": {"ref": "fix"},
    "base": {"ref": "main"}
  },
  "repository": {"name": "repo1"}
}`

const deploymentPayload = `{
  "action": "created",
  "deployment": {
    "ref": "v1.2.0",
    "environment": "production",
    "description": "Release 1.2.0",
    "creator": {"login": "carol"},
    "created_at": "2024-03-10T17:30:15Z"
  },
  "repository": {"name": "repo1"}
}`

const deploymentStatusPayload = `{
  "action": "created",
  "deployment_status": {
    "state": "success",
    "environment": "staging",
    "environment_url": "https://staging.example.com",
    "log_url": "https://ci.example.com/runs/42",
    "creator": {"login": "deploy-bot"},
    "created_at": "2024-06-30T23:59:59Z"
  },
  "deployment": {
    "ref": "main",
    "environment": "staging",
    "creator": {"login": "carol"},
    "created_at": "2024-06-30T23:50:00Z"
  },
  "repository": {"name": "repo1"}
}`

func decodePayload(t *testing.T, raw string) *models.WebhookPayload {
	t.Helper()

	var p models.WebhookPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	return &p
}
