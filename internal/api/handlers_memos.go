package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avclabs/faxdesk/internal/api/respond"
	"github.com/avclabs/faxdesk/internal/api/validate"
	"github.com/avclabs/faxdesk/internal/services"
)

// MemoHandler is a thin HTTP transport over MemoService.
type MemoHandler struct {
	svc *services.MemoService
}

func NewMemoHandler(svc *services.MemoService) *MemoHandler { return &MemoHandler{svc: svc} }

type memoRequest struct {
	Text string `json:"text"`
	Page *int   `json:"page,omitempty"`
}

// ListMemos GET /documents/{id}/memos
func (h *MemoHandler) ListMemos(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	memos, err := h.svc.List(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memos": memos, "count": len(memos)})
}

// CreateMemo POST /documents/{id}/memos
//
// Blank text is a cleanup request: deleted memos are compacted and no
// memo is created, answered with 204.
func (h *MemoHandler) CreateMemo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Page(req.Page); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	memo, err := h.svc.Create(r.Context(), id, req.Text, req.Page)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if memo == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, memo)
}

// UpdateMemo PUT /documents/{id}/memos/{memoId}
func (h *MemoHandler) UpdateMemo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req memoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.Page(req.Page); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	memo, err := h.svc.Update(r.Context(), vars["id"], vars["memoId"], req.Text, req.Page)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	if memo == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respond.WriteJSON(w, http.StatusOK, memo)
}

// DeleteMemo DELETE /documents/{id}/memos/{memoId}
func (h *MemoHandler) DeleteMemo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.Delete(r.Context(), vars["id"], vars["memoId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
