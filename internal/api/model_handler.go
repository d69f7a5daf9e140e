package api

import (
	"net/http"

	"lumen-chat/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ModelHandler lists the models available on the inference backend
type ModelHandler struct {
	chat *service.ChatService
}

func NewModelHandler(chat *service.ChatService) *ModelHandler {
	return &ModelHandler{chat: chat}
}

func (h *ModelHandler) List(c *gin.Context) {
	names, err := h.chat.ListModels(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": names})
}
