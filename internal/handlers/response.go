package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"flux/internal/pagination"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// PageEnvelope wraps a paginated listing.
type PageEnvelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Content    interface{}     `json:"content"`
	Pagination pagination.Meta `json:"pagination"`
	Timestamp  time.Time       `json:"timestamp"`
}

// TextEnvelope wraps an assistant reply.
type TextEnvelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data, Timestamp: time.Now().UTC()})
}

func respondPage[T any](c *gin.Context, status int, message string, page *pagination.Page[T]) {
	content := page.Content
	if content == nil {
		content = []T{}
	}
	c.JSON(status, PageEnvelope{
		Success:    true,
		Message:    message,
		Content:    content,
		Pagination: page.Pagination,
		Timestamp:  time.Now().UTC(),
	})
}

func respondText(c *gin.Context, status int, message, text string) {
	c.JSON(status, TextEnvelope{Success: true, Message: message, Text: text, Timestamp: time.Now().UTC()})
}
