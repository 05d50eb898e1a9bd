package connector

import (
	"encoding/json"

	"enrichsync/internal/install"
)

// Notification channels the connector subscribes to.
const (
	ChannelUserUpdate    = "user:update"
	ChannelAccountUpdate = "account:update"
)

// NotificationRequest is one delivery from the CRM notifier. Messages are
// decoded according to Channel.
type NotificationRequest struct {
	NotificationID string          `json:"notification_id,omitempty"`
	Channel        string          `json:"channel" binding:"required"`
	Messages       json.RawMessage `json:"messages"`
}

type FlowControl struct {
	Type string `json:"type"`
	Size int    `json:"size,omitempty"`
	In   int    `json:"in,omitempty"`
}

type NotificationResponse struct {
	FlowControl FlowControl `json:"flow_control"`
}

// InstallRequest is the body of PUT /installs/:id.
type InstallRequest struct {
	Secret       string                  `json:"secret" binding:"required"`
	Organization string                  `json:"organization" binding:"required"`
	Settings     install.PrivateSettings `json:"private_settings"`
}
