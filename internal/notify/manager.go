// Package notify announces completed scans on Slack and Discord.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"sentinelscan/internal/model"
	"sentinelscan/internal/telemetry"

	"github.com/slack-go/slack"
	"github.com/spf13/viper"
)

// Config selects the providers that receive scan notifications.
type Config struct {
	SlackToken        string
	SlackChannel      string
	SlackWebhookURL   string
	SlackAPIURL       string // overrides the Slack API endpoint, tests only
	DiscordWebhookURL string
	MinSeverity       model.Severity
}

// ConfigFromViper reads the notifications.* keys. The Slack bot token comes
// from SLACK_BOT_USER_TOKEN and is only used when notifications.slack.enabled is set.
func ConfigFromViper() Config {
	cfg := Config{
		SlackChannel:      viper.GetString("notifications.slack.channel"),
		SlackWebhookURL:   viper.GetString("notifications.slack.webhook_url"),
		DiscordWebhookURL: viper.GetString("notifications.discord.webhook_url"),
		MinSeverity:       model.SeverityHigh,
	}
	if viper.GetBool("notifications.slack.enabled") {
		cfg.SlackToken = os.Getenv("SLACK_BOT_USER_TOKEN")
		if cfg.SlackToken == "" {
			telemetry.LogWarn("SLACK_BOT_USER_TOKEN not set, slack bot notifications disabled")
		}
	}
	if sev, err := model.ParseSeverity(viper.GetString("notifications.min_severity")); err == nil {
		cfg.MinSeverity = sev
	}
	return cfg
}

// Manager fans scan notifications out to every configured provider.
type Manager struct {
	client    *slack.Client
	channelID string

	slackWebhook *SlackNotifier
	discord      *DiscordNotifier

	minSeverity model.Severity
}

// NewManager creates a new notification Manager.
func NewManager(cfg Config) *Manager {
	m := &Manager{minSeverity: cfg.MinSeverity}
	if m.minSeverity == "" {
		m.minSeverity = model.SeverityHigh
	}

	if cfg.SlackToken != "" {
		opts := []slack.Option{}
		if cfg.SlackAPIURL != "" {
			opts = append(opts, slack.OptionAPIURL(cfg.SlackAPIURL))
		}
		m.client = slack.New(cfg.SlackToken, opts...)
		m.channelID = cfg.SlackChannel
		if m.channelID == "" {
			m.channelID = "#security"
		}
	}
	if cfg.SlackWebhookURL != "" {
		m.slackWebhook = NewSlackNotifier(cfg.SlackWebhookURL)
	}
	if cfg.DiscordWebhookURL != "" {
		m.discord = NewDiscordNotifier(cfg.DiscordWebhookURL)
	}
	return m
}

// Enabled reports whether at least one provider is configured.
func (m *Manager) Enabled() bool {
	return m.client != nil || m.slackWebhook != nil || m.discord != nil
}

// ShouldNotify reports whether report warrants a notification.
func (m *Manager) ShouldNotify(report *model.ScanReport) bool {
	return report != nil && !report.Failed() && report.HasSeverityAtLeast(m.minSeverity)
}

// NotifyReport announces report on every provider. Provider failures are
// logged and joined; one failing provider does not stop the others.
func (m *Manager) NotifyReport(ctx context.Context, report *model.ScanReport) error {
	if !m.Enabled() || !m.ShouldNotify(report) {
		return nil
	}

	message := FormatReport(report, m.minSeverity)
	telemetry.LogDebug("Sending scan notification", "scan_id", report.ScanID)

	var errs []error
	if m.client != nil {
		if _, _, err := m.client.PostMessageContext(ctx, m.channelID, slack.MsgOptionText(message, false)); err != nil {
			telemetry.LogError("Failed to send Slack notification", err, "scan_id", report.ScanID)
			errs = append(errs, fmt.Errorf("slack: %w", err))
		}
	}
	if m.slackWebhook != nil {
		if err := m.slackWebhook.Notify(ctx, message); err != nil {
			telemetry.LogError("Failed to send Slack webhook notification", err, "scan_id", report.ScanID)
			errs = append(errs, err)
		}
	}
	if m.discord != nil {
		if err := m.discord.NotifyReport(ctx, report, message); err != nil {
			telemetry.LogError("Failed to send Discord notification", err, "scan_id", report.ScanID)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// maximum findings listed in one message
const maxListed = 10

// FormatReport renders a short plain text summary of findings at or above min.
func FormatReport(report *model.ScanReport, min model.Severity) string {
	s := report.Summary
	var sb strings.Builder
	fmt.Fprintf(&sb, ":rotating_light: Scan %s of %s found %d issue(s) (High: %d, Medium: %d, Low: %d) in %d file(s)\n",
		report.ScanID, report.Source, s.Total, s.High, s.Medium, s.Low, report.FilesScanned)

	listed := 0
	for _, f := range report.Vulnerabilities {
		if f.Severity.Rank() < min.Rank() {
			continue
		}
		if listed == maxListed {
			sb.WriteString("• ...\n")
			break
		}
		fmt.Fprintf(&sb, "• [%s] %s at %s\n", f.Severity, f.Title, f.Location())
		listed++
	}
	return strings.TrimRight(sb.String(), "\n")
}
