package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flux/internal/logger"
	"flux/internal/middleware"
	"flux/internal/services"
)

// AssistantHandler exposes the finance assistant.
type AssistantHandler struct {
	assistantService services.AssistantServicer
}

// NewAssistantHandler creates a new AssistantHandler
func NewAssistantHandler(assistantService services.AssistantServicer) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// AskRequest is a prompt for the assistant.
type AskRequest struct {
	Prompt string `json:"prompt" binding:"required,max=4000"`
}

// PartialReply is the data of a 504 returned after a ledger function already ran.
type PartialReply struct {
	Text string `json:"text"`
}

// Ask sends a prompt to the assistant. When the follow-up call times out the
// 504 envelope carries the partial reply, which is also stored in the history.
// @Summary     Ask the assistant
// @Tags        assistant
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AskRequest true "Prompt"
// @Success     200 {object} TextEnvelope
// @Failure     400 {object} middleware.ErrorEnvelope
// @Failure     502 {object} middleware.ErrorEnvelope
// @Failure     504 {object} middleware.ErrorEnvelope{data=PartialReply}
// @Router      /assistant [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	reply, err := h.assistantService.Ask(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		if reply != nil && reply.Text != "" {
			logger.Named("assistant").Warnw("returning error after partial reply", "user_id", userID, "error", err)
			middleware.WriteErrorWithData(c, err, PartialReply{Text: reply.Text})
			return
		}
		respondWithError(c, err)
		return
	}
	respondText(c, http.StatusOK, "Response generated successfully", reply.Text)
}

// History returns the caller's conversation.
// @Summary     Assistant history
// @Tags        assistant
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope{data=models.Conversation}
// @Failure     404 {object} middleware.ErrorEnvelope
// @Router      /assistant/history [get]
func (h *AssistantHandler) History(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	conversation, err := h.assistantService.History(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Conversation retrieved successfully", conversation)
}

// ClearHistory deletes the caller's conversation.
// @Summary     Clear assistant history
// @Tags        assistant
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} Envelope
// @Router      /assistant/history [delete]
func (h *AssistantHandler) ClearHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.assistantService.ClearHistory(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "Conversation cleared successfully", nil)
}
