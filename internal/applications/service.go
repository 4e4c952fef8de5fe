package applications

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"fellowship-backend/internal/documents"
	"fellowship-backend/internal/mailer"
	"fellowship-backend/internal/shared/storage/object"
	"fellowship-backend/internal/shared/telemetry"
)

type Service struct {
	Repo       Repo
	Docs       documents.Repo
	Store      object.ObjectStore
	Mail       mailer.Mailer
	AppBaseURL string
}

func NewService(repo Repo, docs documents.Repo, store object.ObjectStore, mail mailer.Mailer, appBaseURL string) *Service {
	return &Service{
		Repo:       repo,
		Docs:       docs,
		Store:      store,
		Mail:       mail,
		AppBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

// SubmitInput is the public application form.
type SubmitInput struct {
	FirstName           string
	LastName            string
	Email               string
	Phone               string
	DateOfBirth         *time.Time
	Gender              string
	Nationality         string
	CountryOfResidence  string
	Address             string
	EducationLevel      string
	ProjectArea         string
	ProjectSummary      string
	ProfessionalContext string
	Workplace           string
	Position            string
	Motivation          string
}

// Submit creates a pending application, optionally storing an attached CV,
// and emails an acknowledgment. The email is best-effort.
func (s *Service) Submit(ctx context.Context, in SubmitInput, cvFileName string, cv io.Reader) (Application, error) {
	firstName := strings.TrimSpace(in.FirstName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if firstName == "" || email == "" {
		return Application{}, errors.New("first name and email are required")
	}

	app := Application{
		ID:                  uuid.NewString(),
		FirstName:           firstName,
		LastName:            strings.TrimSpace(in.LastName),
		Email:               email,
		Phone:               strings.TrimSpace(in.Phone),
		DateOfBirth:         in.DateOfBirth,
		Gender:              in.Gender,
		Nationality:         in.Nationality,
		CountryOfResidence:  in.CountryOfResidence,
		Address:             in.Address,
		EducationLevel:      in.EducationLevel,
		ProjectArea:         in.ProjectArea,
		ProjectSummary:      in.ProjectSummary,
		ProfessionalContext: in.ProfessionalContext,
		Workplace:           in.Workplace,
		Position:            in.Position,
		Motivation:          in.Motivation,
		Status:              StatusPending,
	}

	if cv != nil && cvFileName != "" {
		key, _, _, err := s.Store.Save(ctx, "cv", cvFileName, cv)
		if err != nil {
			return Application{}, err
		}
		app.CVKey = key
	}

	if err := s.Repo.Create(ctx, app); err != nil {
		return Application{}, err
	}

	created, err := s.Repo.GetByID(ctx, app.ID)
	if err != nil {
		return Application{}, err
	}

	if err := s.Mail.SendAcknowledgment(ctx, created.Email, created.FullName()); err != nil {
		telemetry.Warn("applications.ack_mail_failed", map[string]any{"error": err.Error(), "application_id": created.ID})
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Application, error) {
	return s.Repo.GetByID(ctx, id)
}

// Details joins an application with its merged document view. Documents maps
// each uploaded type to a retrievable URL, not the raw storage key.
type Details struct {
	Application     Application               `json:"application"`
	Documents       map[documents.Type]string `json:"documents"`
	CVURL           string                    `json:"cvUrl,omitempty"`
	FundingProofURL string                    `json:"fundingProofUrl,omitempty"`
	FundingPlanURL  string                    `json:"fundingPlanUrl,omitempty"`
	AllRequired     bool                      `json:"allRequiredSubmitted"`
}

func (s *Service) GetWithDocuments(ctx context.Context, id string) (Details, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Details{}, err
	}
	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return Details{}, err
	}
	merged := documents.Merge(records)

	urls := make(map[documents.Type]string, len(merged))
	for t, key := range merged {
		url, err := s.Store.URL(ctx, key)
		if err != nil {
			return Details{}, err
		}
		urls[t] = url
	}

	details := Details{
		Application: app,
		Documents:   urls,
		AllRequired: documents.RequiredComplete(merged),
	}
	if details.CVURL, err = s.optionalURL(ctx, app.CVKey); err != nil {
		return Details{}, err
	}
	if details.FundingProofURL, err = s.optionalURL(ctx, app.FundingProofKey); err != nil {
		return Details{}, err
	}
	if details.FundingPlanURL, err = s.optionalURL(ctx, app.FundingPlanKey); err != nil {
		return Details{}, err
	}
	return details, nil
}

func (s *Service) optionalURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	return s.Store.URL(ctx, key)
}

// Page is one page of the admin list view.
type Page struct {
	Items      []Application `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
}

func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	f.Normalize()
	items, total, err := s.Repo.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	totalPages := (total + f.PerPage - 1) / f.PerPage
	if totalPages < 1 {
		totalPages = 1
	}
	return Page{
		Items:      items,
		Total:      total,
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.Repo.CountByStatus(ctx)
}

func (s *Service) Monthly(ctx context.Context, year int) ([]MonthlyCount, error) {
	if year <= 0 {
		year = time.Now().UTC().Year()
	}
	return s.Repo.CountMonthly(ctx, year)
}

func (s *Service) Star(ctx context.Context, id string, starred bool) (Application, error) {
	if err := s.Repo.SetStarred(ctx, id, starred); err != nil {
		return Application{}, err
	}
	return s.Repo.GetByID(ctx, id)
}

// Delete removes the application, its document rows, and best-effort the
// stored files behind them.
func (s *Service) Delete(ctx context.Context, id string) error {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	records, err := s.Docs.ListByApplication(ctx, id)
	if err != nil {
		return err
	}
	merged := documents.Merge(records)

	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	// The DB cascades document rows; the in-memory repo needs the explicit call.
	if err := s.Docs.DeleteByApplication(ctx, id); err != nil {
		telemetry.Warn("applications.docs_delete_failed", map[string]any{"error": err.Error(), "application_id": id})
	}

	keys := make([]string, 0, len(merged)+1)
	for _, key := range merged {
		keys = append(keys, key)
	}
	if app.CVKey != "" {
		keys = append(keys, app.CVKey)
	}
	for _, key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("applications.file_delete_failed", map[string]any{
				"error":          err.Error(),
				"application_id": id,
				"storage_key":    key,
			})
		}
	}
	return nil
}
