package api

import (
	"encoding/json"
	"net/http"

	"github.com/avclabs/faxdesk/internal/api/respond"
	"github.com/avclabs/faxdesk/internal/services"
)

// UploadHandler hands out presigned upload URLs.
type UploadHandler struct {
	svc *services.UploadService
}

func NewUploadHandler(svc *services.UploadService) *UploadHandler { return &UploadHandler{svc: svc} }

// PresignUpload POST /uploads/presigned-url
func (h *UploadHandler) PresignUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	key, url, err := h.svc.PresignUpload(r.Context(), req.FileName)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"key": key, "uploadUrl": url})
}
