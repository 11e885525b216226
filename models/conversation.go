package models

import "time"

// Controller identifies who may respond next in a conversation.
type Controller string

const (
	ControllerAssistant Controller = "assistant"
	ControllerHuman     Controller = "human"
	ControllerEscalated Controller = "escalated"
)

// ConversationOwnership is the per (tenant, end-user) control record. It is
// the single source of truth for whether the assistant may respond.
type ConversationOwnership struct {
	Controller       Controller `json:"controller"`
	OperatorName     string     `json:"operator_name,omitempty"`
	Since            time.Time  `json:"since,omitempty"`
	EscalationReason string     `json:"escalation_reason,omitempty"`
}

// Message is one entry in the conversation log.
type Message struct {
	Role     string `json:"role"` // "user" or "assistant"
	Content  string `json:"content"`
	Human    bool   `json:"human,omitempty"`    // sent by an operator, not the model
	Operator string `json:"operator,omitempty"` // operator name when Human
}
