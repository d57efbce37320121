package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

type ChatHandler struct {
	assistant ports.Assistant
}

func NewChatHandler(assistant ports.Assistant) *ChatHandler {
	return &ChatHandler{assistant: assistant}
}

// Chat handles POST /chat.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reply, err := h.assistant.Reply(c.Request().Context(), req.toDomain())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reply)
}
