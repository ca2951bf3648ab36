package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/avclabs/faxdesk/internal/api/respond"
	"github.com/avclabs/faxdesk/internal/model"
	"github.com/avclabs/faxdesk/internal/services"
)

// DocumentHandler is a thin HTTP transport over DocumentService.
type DocumentHandler struct {
	svc *services.DocumentService
}

func NewDocumentHandler(svc *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// documentDetail is the detail-view payload: the record plus a presigned
// download URL, null when the artifact cannot be presigned.
type documentDetail struct {
	*model.Document
	FileURL *string `json:"fileUrl"`
}

// ListDocuments GET /documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := model.ListDocumentsRequest{
		Type:     q.Get("type"),
		Tag:      q.Get("tag"),
		Folder:   q.Get("folder"),
		Category: q.Get("category"),
	}
	if req.Type != "" && req.Type != string(model.DocumentTypeFax) && req.Type != string(model.DocumentTypeEmail) {
		respond.WriteBadRequest(w, "type must be fax or email")
		return
	}
	switch q.Get("sort") {
	case "":
	case "receivedAt":
		req.SortByReceived = true
	default:
		respond.WriteBadRequest(w, "sort must be receivedAt")
		return
	}

	docs, err := h.svc.List(r.Context(), req)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

// GetDocument GET /documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, fileURL, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, documentDetail{Document: doc, FileURL: fileURL})
}

// UpdateLabels PATCH /documents/{id}/tags
func (h *DocumentHandler) UpdateLabels(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var upd model.LabelUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	doc, err := h.svc.UpdateLabels(r.Context(), id, upd)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, doc)
}

// classifyResponse is the updated record plus the raw classifier output.
type classifyResponse struct {
	*model.Document
	Classification *model.Classification `json:"classification"`
	Message        string                `json:"message"`
}

// Classify POST /documents/{id}/classify
//
// Runs the classifier inline: 400 when the document has no text to
// classify, 500 with the record unmutated when the classifier fails.
func (h *DocumentHandler) Classify(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, cls, err := h.svc.Classify(r.Context(), id)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, classifyResponse{
		Document:       doc,
		Classification: cls,
		Message:        "classification completed",
	})
}
