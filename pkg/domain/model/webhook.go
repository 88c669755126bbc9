package model

import (
	"strings"
	"time"
)

// WebhookEventType represents the type of webhook event received
type WebhookEventType string

const (
	EventTypeRelease WebhookEventType = "release"
	EventTypePing    WebhookEventType = "ping"
	EventTypeUnknown WebhookEventType = "unknown"
)

// WebhookEvent represents a webhook event received from GitHub
type WebhookEvent struct {
	ID         string           // Retrieved from X-GitHub-Delivery header
	Type       WebhookEventType // Retrieved from X-GitHub-Event header
	Action     string           // Event action (e.g., released)
	Repository string           // Repository full name
	Sender     string           // Sender username
	TagName    string           // Release tag, release events only
	Body       string           // Release notes, release events only
	ReceivedAt time.Time        // Time when the event was received
}

// IsSupportedEvent checks if the event should start a release run
func (e *WebhookEvent) IsSupportedEvent() bool {
	if e.Type != EventTypeRelease {
		return false
	}
	// GitHub sends both "published" and "released" for one release
	return e.Action == "released"
}

// ReleaseFromTag builds a Release from the event when the tag carries prefix.
// The second return value is false when the tag does not match.
func (e *WebhookEvent) ReleaseFromTag(prefix string) (Release, bool) {
	version, ok := strings.CutPrefix(e.TagName, prefix)
	if !ok || version == "" {
		return Release{}, false
	}
	return Release{
		Version:   version,
		Changelog: e.Body,
	}, true
}
