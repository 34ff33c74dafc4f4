package handlers

import (
	"net/http"

	"github.com/Dias221467/Language_Exchange/internal/services"
)

type ChatHandler struct {
	Service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{Service: service}
}

// GetStreamTokenHandler handles GET /chat/token.
func (h *ChatHandler) GetStreamTokenHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.Service.Token(userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
