package request

// SendNotificationRequest relays an arbitrary HTML email. The metadata fields
// are echoed back untouched.
type SendNotificationRequest struct {
	To         string `json:"to" validate:"required,email"`
	Subject    string `json:"subject" validate:"required"`
	HTML       string `json:"html" validate:"required"`
	ActionType any    `json:"action_type,omitempty"`
	EntityType any    `json:"entity_type,omitempty"`
	EntityID   any    `json:"entity_id,omitempty"`
	UserInfo   any    `json:"user_info,omitempty"`
	Timestamp  any    `json:"timestamp,omitempty"`
}
