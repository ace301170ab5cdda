package models

import "github.com/google/go-github/v66/github"

// EventKind is the classification of a webhook payload
type EventKind string

const (
	EventKindDeploymentStatus EventKind = "deployment_status"
	EventKindDeployment       EventKind = "deployment"
	EventKindPullRequest      EventKind = "pull_request"
	EventKindIgnored          EventKind = "ignored"
)

// WebhookPayload is the union of the GitHub webhook bodies the relay
// understands. Sub-records are nil when absent from the JSON body; nested
// optional fields are read through go-github's GetX accessors.
type WebhookPayload struct {
	Action           *string                  `json:"action,omitempty"`
	PullRequest      *github.PullRequest      `json:"pull_request,omitempty"`
	Deployment       *github.Deployment       `json:"deployment,omitempty"`
	DeploymentStatus *github.DeploymentStatus `json:"deployment_status,omitempty"`
	Repository       *github.Repository       `json:"repository,omitempty"`
}

// GetAction returns the Action field if it's non-nil, zero value otherwise.
func (p *WebhookPayload) GetAction() string {
	if p == nil || p.Action == nil {
		return ""
	}
	return *p.Action
}

// GetRepositoryName returns repository.name or "" when absent.
func (p *WebhookPayload) GetRepositoryName() string {
	if p == nil {
		return ""
	}
	return p.Repository.GetName()
}
