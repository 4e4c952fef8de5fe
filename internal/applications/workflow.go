package applications

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fellowship-backend/internal/documents"
	"fellowship-backend/internal/extract"
	"fellowship-backend/internal/shared/telemetry"
)

// allowedTransitions is the admin-settable status graph. received is reached
// only through document submission, never set directly.
var allowedTransitions = map[string][]string{
	StatusPending:  {StatusReviewed, StatusApproved, StatusRejected},
	StatusReviewed: {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
	StatusReceived: {},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus applies an admin decision and sends the matching notification.
// Emails are best-effort; the persisted transition stands even if they fail.
func (s *Service) SetStatus(ctx context.Context, id, status, rejectionReason, customEmailContent string) (Application, error) {
	if !ValidSettableStatus(status) {
		return Application{}, ErrInvalidStatus
	}

	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !transitionAllowed(app.Status, status) {
		return Application{}, ErrWrongStatus
	}

	reason := strings.TrimSpace(rejectionReason)
	custom := strings.TrimSpace(customEmailContent)
	if status == StatusRejected && reason == "" && custom == "" {
		return Application{}, ErrRejectionReasonRequired
	}
	if status != StatusRejected {
		// rejection_reason only ever describes the rejected state.
		reason = ""
	}

	if err := s.Repo.UpdateStatus(ctx, id, status, reason); err != nil {
		return Application{}, err
	}

	updated, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}

	switch status {
	case StatusApproved:
		if err := s.Docs.Create(ctx, documents.Record{
			ID:            uuid.NewString(),
			ApplicationID: id,
			URLs:          map[documents.Type]string{},
		}); err != nil {
			telemetry.Warn("applications.docs_record_failed", map[string]any{"error": err.Error(), "application_id": id})
		}
		submissionURL := s.AppBaseURL + "/documents/" + id
		if err := s.Mail.SendApprovalWithDocumentsRequest(ctx, updated.Email, updated.FullName(), submissionURL); err != nil {
			telemetry.Warn("applications.approval_mail_failed", map[string]any{"error": err.Error(), "application_id": id})
		}
	case StatusRejected:
		if err := s.Mail.SendRejection(ctx, updated.Email, updated.FullName(), reason, custom); err != nil {
			telemetry.Warn("applications.rejection_mail_failed", map[string]any{"error": err.Error(), "application_id": id})
		}
	default:
		if err := s.Mail.SendStatusNotification(ctx, updated.Email, updated.FullName(), status); err != nil {
			telemetry.Warn("applications.status_mail_failed", map[string]any{"error": err.Error(), "application_id": id})
		}
	}

	telemetry.Info("applications.status_changed", map[string]any{
		"application_id": id,
		"from":           app.Status,
		"to":             status,
	})
	return updated, nil
}

// UploadResult reports one stored document and the resulting completeness.
type UploadResult struct {
	Type                 documents.Type `json:"type"`
	URL                  string         `json:"url"`
	AllRequiredSubmitted bool           `json:"allRequiredSubmitted"`
	ReceivedNow          bool           `json:"receivedNow"`
}

// UploadDocument stores one file for an approved or received application and
// transitions approved applications to received once the required set is
// complete.
func (s *Service) UploadDocument(ctx context.Context, id string, docType documents.Type, fileName string, file io.Reader) (UploadResult, error) {
	if !documents.ValidType(docType) {
		return UploadResult{}, ErrInvalidDocumentType
	}

	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return UploadResult{}, err
	}
	if app.Status != StatusApproved && app.Status != StatusReceived {
		return UploadResult{}, ErrWrongStatus
	}

	key, _, _, err := s.Store.Save(ctx, string(docType), fileName, file)
	if err != nil {
		return UploadResult{}, err
	}

	if err := s.Docs.Create(ctx, documents.Record{
		ID:            uuid.NewString(),
		ApplicationID: id,
		URLs:          map[documents.Type]string{docType: key},
	}); err != nil {
		return UploadResult{}, err
	}

	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return UploadResult{}, err
	}
	merged := documents.Merge(records)
	complete := documents.RequiredComplete(merged)

	url, err := s.Store.URL(ctx, key)
	if err != nil {
		return UploadResult{}, err
	}

	result := UploadResult{
		Type:                 docType,
		URL:                  url,
		AllRequiredSubmitted: complete,
	}

	if complete && app.Status == StatusApproved {
		if err := s.markReceived(ctx, app); err != nil {
			return UploadResult{}, err
		}
		result.ReceivedNow = true
	}
	return result, nil
}

// FinalizeSubmission recomputes completeness on demand. Incomplete sets fail
// loudly; an already-received application is a no-op.
func (s *Service) FinalizeSubmission(ctx context.Context, id string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.Status == StatusReceived {
		return app, nil
	}
	if app.Status != StatusApproved {
		return Application{}, ErrWrongStatus
	}

	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !documents.RequiredComplete(documents.Merge(records)) {
		return Application{}, ErrDocumentsIncomplete
	}

	if err := s.markReceived(ctx, app); err != nil {
		return Application{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) markReceived(ctx context.Context, app Application) error {
	if err := s.Repo.UpdateStatus(ctx, app.ID, StatusReceived, ""); err != nil {
		return err
	}
	if err := s.Mail.SendStatusNotification(ctx, app.Email, app.FullName(), StatusReceived); err != nil {
		telemetry.Warn("applications.received_mail_failed", map[string]any{"error": err.Error(), "application_id": app.ID})
	}
	telemetry.Info("applications.status_changed", map[string]any{
		"application_id": app.ID,
		"from":           app.Status,
		"to":             StatusReceived,
	})
	return nil
}

// DeleteDocument clears one slot and best-effort removes the stored file.
func (s *Service) DeleteDocument(ctx context.Context, id string, docType documents.Type) error {
	if !documents.ValidType(docType) {
		return ErrInvalidDocumentType
	}
	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		return err
	}

	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return err
	}
	key := documents.Merge(records)[docType]
	if key == "" {
		return ErrNoDocument
	}

	if err := s.Docs.ClearType(ctx, id, docType); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("applications.file_delete_failed", map[string]any{
			"error":          err.Error(),
			"application_id": id,
			"storage_key":    key,
		})
	}
	return nil
}

// PreviewDocument extracts plain text from a stored PDF or DOCX document so
// reviewers can read it inline.
func (s *Service) PreviewDocument(ctx context.Context, id string, docType documents.Type) (string, error) {
	if !documents.ValidType(docType) {
		return "", ErrInvalidDocumentType
	}
	if _, err := s.Repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return "", err
	}
	key := documents.Merge(records)[docType]
	if key == "" {
		return "", ErrNoDocument
	}

	return extract.PreviewText(ctx, s.Store, key, mimeForKey(key), filepath.Base(key))
}

func mimeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
