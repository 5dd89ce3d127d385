package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sentinelscan/internal/model"
)

// discord rejects content longer than this
const discordMaxContent = 2000

var discordColors = map[model.Severity]int{
	model.SeverityHigh:   0xE74C3C,
	model.SeverityMedium: 0xE67E22,
	model.SeverityLow:    0x3498DB,
}

type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title  string         `json:"title"`
	Color  int            `json:"color,omitempty"`
	Fields []discordField `json:"fields,omitempty"`
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordNotifier posts scan results to a Discord channel webhook.
type DiscordNotifier struct {
	WebhookURL string
	Client     *http.Client
}

func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookURL: webhookURL,
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts a plain text message.
func (n *DiscordNotifier) Notify(ctx context.Context, message string) error {
	return n.post(ctx, discordMessage{Content: clampContent(message)})
}

// NotifyReport posts message with a summary embed for report, coloured by
// its most severe finding.
func (n *DiscordNotifier) NotifyReport(ctx context.Context, report *model.ScanReport, message string) error {
	s := report.Summary
	embed := discordEmbed{
		Title: fmt.Sprintf("Scan %s", report.ScanID),
		Fields: []discordField{
			{Name: "Source", Value: report.Source},
			{Name: "Files", Value: strconv.Itoa(report.FilesScanned), Inline: true},
			{Name: "High", Value: strconv.Itoa(s.High), Inline: true},
			{Name: "Medium", Value: strconv.Itoa(s.Medium), Inline: true},
			{Name: "Low", Value: strconv.Itoa(s.Low), Inline: true},
		},
	}
	for _, sev := range model.Severities {
		if s.Count(sev) > 0 {
			embed.Color = discordColors[sev]
			break
		}
	}
	return n.post(ctx, discordMessage{Content: clampContent(message), Embeds: []discordEmbed{embed}})
}

func clampContent(message string) string {
	if r := []rune(message); len(r) > discordMaxContent {
		return string(r[:discordMaxContent-3]) + "..."
	}
	return message
}

func (n *DiscordNotifier) post(ctx context.Context, msg discordMessage) error {
	if n.WebhookURL == "" {
		return fmt.Errorf("discord webhook URL is not configured")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send discord notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord notification failed with status: %d", resp.StatusCode)
	}
	return nil
}
