package services

import "github.com/igorsal/webhook-relay/internal/models"

// Classify decides which notification a payload produces. A deployment
// status always travels with its deployment, so the pair wins over a bare
// deployment, and both win over a pull request.
func Classify(p *models.WebhookPayload) models.EventKind {
	if p == nil {
		return models.EventKindIgnored
	}

	switch {
	case p.DeploymentStatus != nil && p.Deployment != nil:
		return models.EventKindDeploymentStatus
	case p.Deployment != nil:
		return models.EventKindDeployment
	case p.PullRequest != nil:
		return models.EventKindPullRequest
	default:
		return models.EventKindIgnored
	}
}
