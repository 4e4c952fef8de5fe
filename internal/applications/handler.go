package applications

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"fellowship-backend/internal/documents"
	"fellowship-backend/internal/shared/server/respond"
)

const maxUploadBytes = 20 << 20

// Handler wires HTTP handlers to the application service.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches the applicant-facing routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.submit)
	rg.GET("/applications/:id", h.get)
	rg.POST("/applications/:id/documents", h.uploadDocument)
	rg.POST("/applications/:id/submit-documents", h.finalize)
	rg.GET("/applications/:id/funding-info", h.getFundingInfo)
	rg.POST("/applications/:id/funding-info", h.submitFundingInfo)
	rg.GET("/files/*key", h.serveFile)
}

// RegisterAdminRoutes attaches the review dashboard routes. The group is
// expected to already be gated to admin callers.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/applications", h.list)
	rg.GET("/applications/stats", h.stats)
	rg.GET("/applications/monthly", h.monthly)
	rg.GET("/applications/filters", h.filters)
	rg.GET("/applications/:id", h.adminGet)
	rg.PATCH("/applications/:id/status", h.setStatus)
	rg.POST("/applications/:id/request-funding-info", h.requestFundingInfo)
	rg.PATCH("/applications/:id/star", h.star)
	rg.DELETE("/applications/:id", h.delete)
	rg.DELETE("/applications/:id/documents/:type", h.deleteDocument)
	rg.GET("/applications/:id/documents/:type/preview", h.previewDocument)
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	contentType := c.ContentType()
	isMultipart := strings.HasPrefix(contentType, "multipart/form-data")

	var bindErr error
	if isMultipart {
		bindErr = c.ShouldBind(&req)
	} else {
		bindErr = c.ShouldBindJSON(&req)
	}
	if bindErr != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid application payload", bindErr.Error())
		return
	}

	in, err := req.toInput()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "dateOfBirth must be YYYY-MM-DD", nil)
		return
	}

	var app Application
	if isMultipart {
		if fh, err := c.FormFile("cv"); err == nil && fh != nil {
			if fh.Size > maxUploadBytes {
				respond.Error(c, http.StatusBadRequest, "file_too_large", "cv exceeds the upload limit", nil)
				return
			}
			f, err := fh.Open()
			if err != nil {
				respond.Error(c, http.StatusBadRequest, "validation_error", "could not read cv upload", nil)
				return
			}
			defer f.Close()
			app, err = h.Svc.Submit(c.Request.Context(), in, fh.Filename, f)
			if err != nil {
				respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit application", nil)
				return
			}
			c.Set("applicationId", app.ID)
			respond.Created(c, toApplicationResponse(app))
			return
		}
	}

	app, err = h.Svc.Submit(c.Request.Context(), in, "", nil)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to submit application", nil)
		return
	}
	c.Set("applicationId", app.ID)
	respond.Created(c, toApplicationResponse(app))
}

// get serves the public document-submission page: status plus which slots are
// already filled, without the full applicant profile.
func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	details, err := h.Svc.GetWithDocuments(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load application", nil)
		return
	}
	c.Set("applicationId", id)

	uploaded := make([]documents.Type, 0, len(details.Documents))
	for _, t := range documents.AllTypes {
		if details.Documents[t] != "" {
			uploaded = append(uploaded, t)
		}
	}
	respond.OK(c, gin.H{
		"id":                   details.Application.ID,
		"firstName":            details.Application.FirstName,
		"status":               details.Application.Status,
		"uploadedTypes":        uploaded,
		"missingRequired":      documents.MissingRequired(details.Documents),
		"allRequiredSubmitted": details.AllRequired,
	})
}

func (h *Handler) uploadDocument(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	docType := documents.Type(c.PostForm("type"))
	fh, err := c.FormFile("file")
	if err != nil || fh == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}
	if fh.Size > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "file_too_large", "file exceeds the upload limit", nil)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read upload", nil)
		return
	}
	defer f.Close()

	result, err := h.Svc.UploadDocument(c.Request.Context(), id, docType, fh.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDocumentType):
			respond.Error(c, http.StatusBadRequest, "invalid_document_type", "unknown document type", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrWrongStatus):
			respond.Error(c, http.StatusConflict, "wrong_status", "application is not accepting documents", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store document", nil)
		}
		return
	}

	if result.ReceivedNow {
		c.Set("statusTransition", StatusApproved+"->"+StatusReceived)
	}
	respond.OK(c, result)
}

func (h *Handler) finalize(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	app, err := h.Svc.FinalizeSubmission(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrWrongStatus):
			respond.Error(c, http.StatusConflict, "wrong_status", "application is not awaiting documents", nil)
		case errors.Is(err, ErrDocumentsIncomplete):
			respond.Error(c, http.StatusBadRequest, "documents_incomplete", "required documents are incomplete", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to finalize submission", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"id":     app.ID,
		"status": app.Status,
	})
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{
		Status:      c.Query("status"),
		Search:      c.Query("search"),
		ProjectArea: c.Query("projectArea"),
		Nationality: c.Query("nationality"),
		SortBy:      c.Query("sortBy"),
		SortOrder:   c.Query("sortOrder"),
	}
	if v := c.Query("starred"); v != "" {
		starred := v == "true" || v == "1"
		f.Starred = &starred
	}
	if v := c.Query("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.Page = parsed
		}
	}
	if v := c.Query("perPage"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			f.PerPage = parsed
		}
	}

	page, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list applications", nil)
		return
	}
	respond.OK(c, page)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute stats", nil)
		return
	}
	respond.OK(c, stats)
}

func (h *Handler) monthly(c *gin.Context) {
	year := 0
	if v := c.Query("year"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			year = parsed
		}
	}
	counts, err := h.Svc.Monthly(c.Request.Context(), year)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to compute monthly counts", nil)
		return
	}
	respond.OK(c, gin.H{"months": counts})
}

func (h *Handler) adminGet(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	details, err := h.Svc.GetWithDocuments(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load application", nil)
		return
	}
	respond.OK(c, details)
}

func (h *Handler) setStatus(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status is required", nil)
		return
	}

	app, err := h.Svc.SetStatus(c.Request.Context(), id, req.Status, req.RejectionReason, req.CustomEmailContent)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			respond.Error(c, http.StatusBadRequest, "invalid_status", "invalid status value", nil)
		case errors.Is(err, ErrRejectionReasonRequired):
			respond.Error(c, http.StatusBadRequest, "rejection_reason_required", "rejection requires a reason or custom email content", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrWrongStatus):
			respond.Error(c, http.StatusConflict, "wrong_status", "transition not allowed from the current status", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update status", nil)
		}
		return
	}

	c.Set("statusTransition", "->"+app.Status)
	respond.OK(c, toApplicationResponse(app))
}

func (h *Handler) star(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	var req starRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "starred flag is required", nil)
		return
	}

	app, err := h.Svc.Star(c.Request.Context(), id, req.Starred)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update star", nil)
		return
	}
	respond.OK(c, toApplicationResponse(app))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete application", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) deleteDocument(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	err := h.Svc.DeleteDocument(c.Request.Context(), id, documents.Type(c.Param("type")))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDocumentType):
			respond.Error(c, http.StatusBadRequest, "invalid_document_type", "unknown document type", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrNoDocument):
			respond.Error(c, http.StatusNotFound, "not_found", "no document uploaded for this type", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		}
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) requestFundingInfo(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	// Empty bodies are fine; everything in the payload is optional.
	var req requestFundingInfoRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid funding request payload", nil)
			return
		}
	}
	includeLink := true
	if req.IncludeLink != nil {
		includeLink = *req.IncludeLink
	}

	app, err := h.Svc.RequestFundingInfo(c.Request.Context(), id, req.CustomMessage, includeLink, req.CustomLink)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrFundingAlreadySubmitted):
			respond.Error(c, http.StatusBadRequest, "funding_already_submitted", "funding information has already been submitted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to send funding information request", nil)
		}
		return
	}

	respond.OK(c, gin.H{
		"id":                   app.ID,
		"fundingInfoRequested": app.FundingInfoRequested,
	})
}

// getFundingInfo serves the applicant-facing funding form: just enough to
// render the page, gated the same way as submission.
func (h *Handler) getFundingInfo(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	app, err := h.Svc.GetForFundingInfo(c.Request.Context(), id)
	if err != nil {
		h.respondFundingError(c, err)
		return
	}

	respond.OK(c, gin.H{
		"id":                   app.ID,
		"firstName":            app.FirstName,
		"fundingInfoRequested": app.FundingInfoRequested,
		"fundingInfoSubmitted": app.FundingInfoSubmitted,
	})
}

func (h *Handler) submitFundingInfo(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	var req fundingInfoRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid funding information payload", nil)
		return
	}

	in := SubmitFundingInfoInput{
		EstimatedBudget:    req.EstimatedBudget,
		FundingSources:     req.FundingSources,
		FundingSecured:     req.FundingSecured,
		SustainabilityPlan: req.SustainabilityPlan,
	}

	for field, target := range map[string]**FundingFile{
		"fundingProof": &in.Proof,
		"fundingPlan":  &in.Plan,
	} {
		fh, err := c.FormFile(field)
		if err != nil || fh == nil {
			continue
		}
		if fh.Size > maxUploadBytes {
			respond.Error(c, http.StatusBadRequest, "file_too_large", field+" exceeds the upload limit", nil)
			return
		}
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "could not read "+field+" upload", nil)
			return
		}
		defer f.Close()
		*target = &FundingFile{Name: fh.Filename, Body: f}
	}

	app, err := h.Svc.SubmitFundingInfo(c.Request.Context(), id, in)
	if err != nil {
		h.respondFundingError(c, err)
		return
	}

	respond.OK(c, gin.H{
		"id":                   app.ID,
		"fundingInfoSubmitted": app.FundingInfoSubmitted,
		"submittedAt":          app.FundingInfoSubmittedAt,
	})
}

func (h *Handler) respondFundingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
	case errors.Is(err, ErrFundingAlreadySubmitted):
		respond.Error(c, http.StatusBadRequest, "funding_already_submitted", "funding information has already been submitted", nil)
	case errors.Is(err, ErrFundingNotRequested):
		respond.Error(c, http.StatusForbidden, "funding_not_requested", "funding information has not been requested for this application", nil)
	case errors.Is(err, ErrInvalidFundingInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process funding information", nil)
	}
}

func (h *Handler) filters(c *gin.Context) {
	options, err := h.Svc.Filters(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load filter values", nil)
		return
	}
	respond.OK(c, options)
}

// serveFile streams a locally stored object. The URLs handed out for local
// storage point here; S3-backed deployments hand out presigned URLs instead.
func (h *Handler) serveFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}

	f, err := h.Svc.Store.Open(c.Request.Context(), key)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
		return
	}
	defer f.Close()

	name := path.Base(key)
	c.Header("Content-Disposition", `inline; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	c.DataFromReader(http.StatusOK, -1, mimeForKey(key), f, nil)
}

func (h *Handler) previewDocument(c *gin.Context) {
	id := c.Param("id")
	c.Set("applicationId", id)

	text, err := h.Svc.PreviewDocument(c.Request.Context(), id, documents.Type(c.Param("type")))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDocumentType):
			respond.Error(c, http.StatusBadRequest, "invalid_document_type", "unknown document type", nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "application not found", nil)
		case errors.Is(err, ErrNoDocument):
			respond.Error(c, http.StatusNotFound, "not_found", "no document uploaded for this type", nil)
		default:
			respond.Error(c, http.StatusUnprocessableEntity, "preview_failed", "could not extract text from the document", nil)
		}
		return
	}
	respond.OK(c, gin.H{"text": text})
}
