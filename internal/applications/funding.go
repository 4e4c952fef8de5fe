package applications

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"fellowship-backend/internal/shared/telemetry"
)

var fundingFileExts = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// RequestFundingInfo emails the applicant a funding-information request and
// marks the application as awaiting that submission. The email goes out
// first; if it fails the flag stays unset so the admin can retry.
func (s *Service) RequestFundingInfo(ctx context.Context, id, customMessage string, includeLink bool, customLink string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.FundingInfoSubmitted {
		return Application{}, ErrFundingAlreadySubmitted
	}

	formURL := ""
	if includeLink {
		formURL = strings.TrimSpace(customLink)
		if formURL == "" {
			formURL = s.AppBaseURL + "/funding-info/" + id
		}
	}

	if err := s.Mail.SendFundingInfoRequest(ctx, app.Email, app.FullName(), formURL, customMessage); err != nil {
		return Application{}, fmt.Errorf("send funding info request: %w", err)
	}

	if err := s.Repo.MarkFundingInfoRequested(ctx, id); err != nil {
		return Application{}, err
	}

	telemetry.Info("applications.funding_info_requested", map[string]any{"application_id": id})
	return s.Repo.GetByID(ctx, id)
}

// GetForFundingInfo loads an application for the applicant-facing funding
// form, enforcing the request/submit gates.
func (s *Service) GetForFundingInfo(ctx context.Context, id string) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.FundingInfoSubmitted {
		return Application{}, ErrFundingAlreadySubmitted
	}
	if !app.FundingInfoRequested {
		return Application{}, ErrFundingNotRequested
	}
	return app, nil
}

// FundingFile is one attachment on the funding submission.
type FundingFile struct {
	Name string
	Body io.Reader
}

// SubmitFundingInfoInput is the applicant's funding form.
type SubmitFundingInfoInput struct {
	EstimatedBudget    string
	FundingSources     string
	FundingSecured     string
	SustainabilityPlan string
	Proof              *FundingFile
	Plan               *FundingFile
}

func (in SubmitFundingInfoInput) validate() error {
	if strings.TrimSpace(in.EstimatedBudget) == "" {
		return fmt.Errorf("%w: estimatedBudget is required", ErrInvalidFundingInput)
	}
	if strings.TrimSpace(in.FundingSources) == "" {
		return fmt.Errorf("%w: fundingSources is required", ErrInvalidFundingInput)
	}
	if in.FundingSecured != FundingSecured && in.FundingSecured != FundingNotSecured {
		return fmt.Errorf("%w: fundingSecured must be %q or %q", ErrInvalidFundingInput, FundingSecured, FundingNotSecured)
	}
	if strings.TrimSpace(in.SustainabilityPlan) == "" {
		return fmt.Errorf("%w: sustainabilityPlan is required", ErrInvalidFundingInput)
	}
	if in.FundingSecured == FundingSecured && in.Proof == nil {
		return fmt.Errorf("%w: fundingProof file is required when funding is secured", ErrInvalidFundingInput)
	}
	if in.FundingSecured == FundingNotSecured && in.Plan == nil {
		return fmt.Errorf("%w: fundingPlan file is required when funding is not secured", ErrInvalidFundingInput)
	}
	return nil
}

// SubmitFundingInfo stores the applicant's funding details and attachments
// and marks the application as submitted. Only one of proof or plan is
// stored, matching the declared funding status.
func (s *Service) SubmitFundingInfo(ctx context.Context, id string, in SubmitFundingInfoInput) (Application, error) {
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if app.FundingInfoSubmitted {
		return Application{}, ErrFundingAlreadySubmitted
	}
	if !app.FundingInfoRequested {
		return Application{}, ErrFundingNotRequested
	}
	if err := in.validate(); err != nil {
		return Application{}, err
	}

	info := FundingInfo{
		EstimatedBudget:    strings.TrimSpace(in.EstimatedBudget),
		FundingSources:     strings.TrimSpace(in.FundingSources),
		FundingSecured:     in.FundingSecured,
		SustainabilityPlan: strings.TrimSpace(in.SustainabilityPlan),
		SubmittedAt:        time.Now().UTC(),
	}

	if in.FundingSecured == FundingSecured {
		key, err := s.saveFundingFile(ctx, "funding-proof", in.Proof)
		if err != nil {
			return Application{}, err
		}
		info.ProofKey = key
	} else {
		key, err := s.saveFundingFile(ctx, "funding-plan", in.Plan)
		if err != nil {
			return Application{}, err
		}
		info.PlanKey = key
	}

	if err := s.Repo.SaveFundingInfo(ctx, id, info); err != nil {
		return Application{}, err
	}

	telemetry.Info("applications.funding_info_submitted", map[string]any{"application_id": id})
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) saveFundingFile(ctx context.Context, category string, file *FundingFile) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Name))
	if !fundingFileExts[ext] {
		return "", fmt.Errorf("%w: only .pdf, .doc and .docx attachments are accepted", ErrInvalidFundingInput)
	}
	key, _, _, err := s.Store.Save(ctx, category, file.Name, file.Body)
	if err != nil {
		return "", err
	}
	return key, nil
}

// Filters returns the distinct values behind the admin list filters.
func (s *Service) Filters(ctx context.Context) (FilterOptions, error) {
	return s.Repo.DistinctFilterValues(ctx)
}
