// Package llm connects the assistant to a generative model. Requests and
// responses use the Google GenAI SDK types; Client lets tests swap the model.
package llm

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// Conversation roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Client generates model content.
type Client interface {
	GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Unavailable is a Client that fails every call with Err. It stands in for the
// model when the API key is missing.
type Unavailable struct {
	Err error
}

// GenerateContent implements Client.
func (u Unavailable) GenerateContent(context.Context, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, u.Err
}

// TextContent builds a single-part text message.
func TextContent(role, text string) *genai.Content {
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: text}}}
}

// FunctionResponseContent builds the message answering a set of function calls.
func FunctionResponseContent(responses ...*genai.FunctionResponse) *genai.Content {
	parts := make([]*genai.Part, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, &genai.Part{FunctionResponse: r})
	}
	return &genai.Content{Role: RoleUser, Parts: parts}
}

// Top returns the first candidate's content, or nil when there is none.
func Top(resp *genai.GenerateContentResponse) *genai.Content {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	return resp.Candidates[0].Content
}

// Text joins the text parts of the first candidate, skipping thoughts.
func Text(resp *genai.GenerateContentResponse) string {
	top := Top(resp)
	if top == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range top.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// FunctionCalls returns the function calls requested by the first candidate.
func FunctionCalls(resp *genai.GenerateContentResponse) []*genai.FunctionCall {
	top := Top(resp)
	if top == nil {
		return nil
	}
	var calls []*genai.FunctionCall
	for _, part := range top.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}
