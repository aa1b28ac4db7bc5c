package response

import "license-server/internal/notify"

type HealthResponse struct {
	Status          string `json:"status"`
	PendingRequests int    `json:"pendingRequests"`
}

type InfoResponse struct {
	Status    string   `json:"status"`
	Service   string   `json:"service"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

type NotificationResponse struct {
	Message    string `json:"message"`
	MessageID  string `json:"messageId"`
	ActionType any    `json:"action_type"`
	EntityType any    `json:"entity_type"`
	EntityID   any    `json:"entity_id"`
	UserInfo   any    `json:"user_info"`
	Timestamp  any    `json:"timestamp"`
}

type DeadLettersResponse struct {
	DeadLetters []notify.DeadLetter `json:"deadLetters"`
	Pending     int                 `json:"pending"`
}
