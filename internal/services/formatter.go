package services

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/go-github/v66/github"

	"github.com/igorsal/webhook-relay/internal/models"
	pkgerrors "github.com/igorsal/webhook-relay/pkg/errors"
)

const (
	// id-ID locale rendering: day/month/year, dotted time
	localDateLayout = "2/1/2006, 15.04.05"
	localZoneSuffix = "WIB"
	emptyField      = "-"
)

var jakarta = loadJakarta()

func loadJakarta() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		return time.FixedZone(localZoneSuffix, 7*60*60)
	}
	return loc
}

var deploymentStateEmoji = map[string]string{
	"success":     "✅",
	"failure":     "❌",
	"error":       "🚨",
	"pending":     "⏳",
	"in_progress": "🔄",
	"queued":      "📋",
	"waiting":     "⌛",
}

var deploymentActionEmoji = map[string]string{
	"created": "🚀",
	"deleted": "🗑️",
}

const defaultEmoji = "🔔"

// Format renders the notification text for an already classified payload
func Format(kind models.EventKind, p *models.WebhookPayload) (string, error) {
	switch kind {
	case models.EventKindDeploymentStatus:
		return FormatDeploymentStatus(p), nil
	case models.EventKindDeployment:
		return FormatDeployment(p), nil
	case models.EventKindPullRequest:
		return FormatPullRequest(p), nil
	default:
		return "", pkgerrors.NewInternalError(fmt.Sprintf("no message template for %q", kind))
	}
}

// FormatDeploymentStatus renders a deployment_status event
func FormatDeploymentStatus(p *models.WebhookPayload) string {
	status := p.DeploymentStatus
	deployment := p.Deployment
	state := status.GetState()

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Deployment Status*\n\n", lookupEmoji(deploymentStateEmoji, state))
	writeField(&b, "Project Name", p.GetRepositoryName())
	writeField(&b, "Environment", statusEnvironment(p))
	writeField(&b, "Status", strings.ToUpper(state))
	writeField(&b, "Ref", deployment.GetRef())
	writeField(&b, "Creator", status.GetCreator().GetLogin())
	writeField(&b, "Description", orDash(status.GetDescription()))
	writeField(&b, "Date", FormatTimestamp(status.GetCreatedAt().Time))
	if url := status.GetEnvironmentURL(); url != "" {
		writeField(&b, "Environment URL", url)
	}
	if url := status.GetLogURL(); url != "" {
		writeField(&b, "Log URL", url)
	}

	return b.String()
}

// FormatDeployment renders a deployment event
func FormatDeployment(p *models.WebhookPayload) string {
	deployment := p.Deployment
	action := p.GetAction()

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Deployment*\n\n", lookupEmoji(deploymentActionEmoji, action))
	writeField(&b, "Project Name", p.GetRepositoryName())
	writeField(&b, "Action", orDash(action))
	writeField(&b, "Environment", deployment.GetEnvironment())
	writeField(&b, "Ref", deployment.GetRef())
	writeField(&b, "Creator", deployment.GetCreator().GetLogin())
	writeField(&b, "Description", orDash(deployment.GetDescription()))
	writeField(&b, "Date", FormatTimestamp(deployment.GetCreatedAt().Time))

	return b.String()
}

// FormatPullRequest renders a pull_request event
func FormatPullRequest(p *models.WebhookPayload) string {
	pr := p.PullRequest

	var b strings.Builder
	fmt.Fprintf(&b, "%s *Merge Request*\n\n", defaultEmoji)
	writeField(&b, "Project Name", p.GetRepositoryName())
	writeField(&b, "Action", orDash(p.GetAction()))
	writeField(&b, "User", pr.GetUser().GetLogin())
	writeField(&b, "Assignee", mentions(pr.Assignees))
	writeField(&b, "Reviewer", mentions(pr.RequestedReviewers))
	writeField(&b, "Source Branch", pr.GetHead().GetRef())
	writeField(&b, "Target Branch", pr.GetBase().GetRef())
	writeField(&b, "Requested Date", FormatTimestamp(pr.GetCreatedAt().Time))
	writeLink(&b, "Link MR", pr.GetTitle(), pr.GetHTMLURL())

	return b.String()
}

// FormatTimestamp renders t in Western Indonesia Time
func FormatTimestamp(t time.Time) string {
	return t.In(jakarta).Format(localDateLayout) + " " + localZoneSuffix
}

// Validate reports the fields a template needs that the payload lacks
func Validate(kind models.EventKind, p *models.WebhookPayload) error {
	var missing []string
	require := func(field string, present bool) {
		if !present {
			missing = append(missing, field)
		}
	}

	require("repository.name", p.GetRepositoryName() != "")

	switch kind {
	case models.EventKindDeploymentStatus:
		status := p.DeploymentStatus
		require("deployment.ref", p.Deployment.GetRef() != "")
		require("deployment_status.state", status.GetState() != "")
		require("deployment_status.environment", statusEnvironment(p) != "")
		require("deployment_status.creator.login", status.GetCreator().GetLogin() != "")
		require("deployment_status.created_at", !status.GetCreatedAt().IsZero())
	case models.EventKindDeployment:
		deployment := p.Deployment
		require("deployment.ref", deployment.GetRef() != "")
		require("deployment.environment", deployment.GetEnvironment() != "")
		require("deployment.creator.login", deployment.GetCreator().GetLogin() != "")
		require("deployment.created_at", !deployment.GetCreatedAt().IsZero())
	case models.EventKindPullRequest:
		pr := p.PullRequest
		require("pull_request.title", pr.GetTitle() != "")
		require("pull_request.html_url", pr.GetHTMLURL() != "")
		require("pull_request.user.login", pr.GetUser().GetLogin() != "")
		require("pull_request.head.ref", pr.GetHead().GetRef() != "")
		require("pull_request.base.ref", pr.GetBase().GetRef() != "")
		require("pull_request.created_at", !pr.GetCreatedAt().IsZero())
	default:
		return nil
	}

	if len(missing) > 0 {
		return pkgerrors.NewMissingFieldsError(string(kind), missing)
	}
	return nil
}

// statusEnvironment prefers the status' own environment, falling back to the deployment's
func statusEnvironment(p *models.WebhookPayload) string {
	if env := p.DeploymentStatus.GetEnvironment(); env != "" {
		return env
	}
	return p.Deployment.GetEnvironment()
}

// Telegram's legacy Markdown takes a backslash before these outside entities
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// Link text sits inside an entity, where escapes are not allowed; only a
// bracket can end it early.
var linkTextEscaper = strings.NewReplacer("[", "(", "]", ")")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "*%s:* %s\n", label, escapeMarkdown(value))
}

func writeLink(b *strings.Builder, label, text, url string) {
	fmt.Fprintf(b, "*%s:* [%s](%s)\n", label, linkTextEscaper.Replace(text), url)
}

func lookupEmoji(table map[string]string, key string) string {
	if emoji, ok := table[key]; ok {
		return emoji
	}
	return defaultEmoji
}

func mentions(users []*github.User) string {
	handles := make([]string, 0, len(users))
	for _, u := range users {
		if login := u.GetLogin(); login != "" {
			handles = append(handles, "@"+login)
		}
	}
	return orDash(strings.Join(handles, ", "))
}

func orDash(s string) string {
	if s == "" {
		return emptyField
	}
	return s
}
