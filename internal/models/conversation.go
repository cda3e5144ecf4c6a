package models

import "time"

// Turn is one prompt and reply exchange with the assistant.
type Turn struct {
	UserMessage    string    `json:"userMessage"`
	AssistantReply string    `json:"assistantReply"`
	Timestamp      time.Time `json:"timestamp"`
}

// Conversation holds a user's assistant transcript. There is one per user.
type Conversation struct {
	Base
	UserID  string         `gorm:"type:uuid;not null;uniqueIndex" json:"userId"`
	Turns   []Turn         `gorm:"type:jsonb;serializer:json;not null" json:"turns"`
	Context map[string]any `gorm:"type:jsonb;serializer:json" json:"context"`
}

// AppendTurn adds a turn at the end of the transcript.
func (c *Conversation) AppendTurn(prompt, reply string, at time.Time) {
	c.Turns = append(c.Turns, Turn{UserMessage: prompt, AssistantReply: reply, Timestamp: at})
}
