package api

import (
	"encoding/json"
	"net/http"

	"github.com/avclabs/faxdesk/internal/api/respond"
	"github.com/avclabs/faxdesk/internal/api/validate"
	"github.com/avclabs/faxdesk/internal/services"
)

// MailHandler forwards composed messages to the outbound mail service.
type MailHandler struct {
	svc *services.MailService
}

func NewMailHandler(svc *services.MailService) *MailHandler { return &MailHandler{svc: svc} }

// SendMail POST /emails/send
func (h *MailHandler) SendMail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.SendMail(req.To, req.Subject); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := h.svc.Send(r.Context(), req.To, req.Subject, req.Body); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
