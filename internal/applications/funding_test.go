package applications

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func submitValidFundingInfo(t *testing.T, svc *Service, id string) Application {
	t.Helper()
	app, err := svc.SubmitFundingInfo(context.Background(), id, SubmitFundingInfoInput{
		EstimatedBudget:    "25000 EUR",
		FundingSources:     "Regional health grant",
		FundingSecured:     FundingSecured,
		SustainabilityPlan: "Ministry takes over after year one",
		Proof:              &FundingFile{Name: "grant-letter.pdf", Body: strings.NewReader("%PDF-1.4")},
	})
	if err != nil {
		t.Fatalf("submit funding info: %v", err)
	}
	return app
}

func TestRequestFundingInfoEmailsDefaultLink(t *testing.T) {
	svc, _, mail := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)

	updated, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, "")
	if err != nil {
		t.Fatalf("request funding info: %v", err)
	}
	if !updated.FundingInfoRequested {
		t.Fatalf("expected fundingInfoRequested to be set")
	}
	if len(mail.fundingURLs) != 1 || mail.fundingURLs[0] != "http://localhost:3000/funding-info/"+app.ID {
		t.Fatalf("unexpected form URL: %v", mail.fundingURLs)
	}
}

func TestRequestFundingInfoCustomLinkAndMessage(t *testing.T) {
	svc, _, mail := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)

	if _, err := svc.RequestFundingInfo(context.Background(), app.ID,
		"Please detail your co-funding.", true, "https://forms.example.org/f1"); err != nil {
		t.Fatalf("request funding info: %v", err)
	}
	if mail.fundingURLs[0] != "https://forms.example.org/f1" {
		t.Fatalf("custom link should win, got %q", mail.fundingURLs[0])
	}
	if mail.fundingMsgs[0] != "Please detail your co-funding." {
		t.Fatalf("custom message should reach the mailer, got %q", mail.fundingMsgs[0])
	}

	// includeLink=false sends no URL at all.
	app2, err := svc.Submit(context.Background(), SubmitInput{FirstName: "Bob", Email: "bob@example.com"}, "", nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.RequestFundingInfo(context.Background(), app2.ID, "", false, ""); err != nil {
		t.Fatalf("request funding info: %v", err)
	}
	if mail.fundingURLs[1] != "" {
		t.Fatalf("expected empty form URL, got %q", mail.fundingURLs[1])
	}
}

func TestRequestFundingInfoMailFailureLeavesFlagUnset(t *testing.T) {
	svc, _, mail := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)
	mail.fundingErr = errors.New("smtp down")

	if _, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, ""); err == nil {
		t.Fatalf("expected error when the mail fails")
	}

	got, err := svc.Get(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FundingInfoRequested {
		t.Fatalf("flag must stay unset when the request mail fails")
	}
}

func TestFundingInfoGates(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)

	// Not requested yet.
	if _, err := svc.GetForFundingInfo(context.Background(), app.ID); !errors.Is(err, ErrFundingNotRequested) {
		t.Fatalf("expected ErrFundingNotRequested, got %v", err)
	}
	if _, err := svc.SubmitFundingInfo(context.Background(), app.ID, SubmitFundingInfoInput{}); !errors.Is(err, ErrFundingNotRequested) {
		t.Fatalf("expected ErrFundingNotRequested on submit, got %v", err)
	}

	if _, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, ""); err != nil {
		t.Fatalf("request funding info: %v", err)
	}
	if _, err := svc.GetForFundingInfo(context.Background(), app.ID); err != nil {
		t.Fatalf("get for funding info: %v", err)
	}

	submitValidFundingInfo(t, svc, app.ID)

	// Everything is once-only after submission.
	if _, err := svc.GetForFundingInfo(context.Background(), app.ID); !errors.Is(err, ErrFundingAlreadySubmitted) {
		t.Fatalf("expected ErrFundingAlreadySubmitted, got %v", err)
	}
	if _, err := svc.SubmitFundingInfo(context.Background(), app.ID, SubmitFundingInfoInput{}); !errors.Is(err, ErrFundingAlreadySubmitted) {
		t.Fatalf("expected ErrFundingAlreadySubmitted on resubmit, got %v", err)
	}
	if _, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, ""); !errors.Is(err, ErrFundingAlreadySubmitted) {
		t.Fatalf("expected ErrFundingAlreadySubmitted on re-request, got %v", err)
	}

	if _, err := svc.GetForFundingInfo(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitFundingInfoValidation(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)
	if _, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, ""); err != nil {
		t.Fatalf("request funding info: %v", err)
	}

	base := SubmitFundingInfoInput{
		EstimatedBudget:    "1000 EUR",
		FundingSources:     "Donations",
		FundingSecured:     FundingNotSecured,
		SustainabilityPlan: "Membership fees",
		Plan:               &FundingFile{Name: "plan.docx", Body: strings.NewReader("x")},
	}

	for name, mutate := range map[string]func(*SubmitFundingInfoInput){
		"missing budget":         func(in *SubmitFundingInfoInput) { in.EstimatedBudget = " " },
		"missing sources":        func(in *SubmitFundingInfoInput) { in.FundingSources = "" },
		"bad secured value":      func(in *SubmitFundingInfoInput) { in.FundingSecured = "maybe" },
		"missing sustainability": func(in *SubmitFundingInfoInput) { in.SustainabilityPlan = "" },
		"missing plan file":      func(in *SubmitFundingInfoInput) { in.Plan = nil },
		"bad extension":          func(in *SubmitFundingInfoInput) { in.Plan.Name = "plan.exe" },
	} {
		in := base
		plan := *base.Plan
		in.Plan = &plan
		mutate(&in)
		if _, err := svc.SubmitFundingInfo(context.Background(), app.ID, in); !errors.Is(err, ErrInvalidFundingInput) {
			t.Fatalf("%s: expected ErrInvalidFundingInput, got %v", name, err)
		}
	}

	// Secured funding without proof fails even with a plan attached.
	in := base
	in.FundingSecured = FundingSecured
	if _, err := svc.SubmitFundingInfo(context.Background(), app.ID, in); !errors.Is(err, ErrInvalidFundingInput) {
		t.Fatalf("expected ErrInvalidFundingInput without proof, got %v", err)
	}
}

func TestSubmitFundingInfoStoresProof(t *testing.T) {
	svc, store, _ := newWorkflowFixture(t)
	app := submitTestApplication(t, svc)
	if _, err := svc.RequestFundingInfo(context.Background(), app.ID, "", true, ""); err != nil {
		t.Fatalf("request funding info: %v", err)
	}

	updated := submitValidFundingInfo(t, svc, app.ID)
	if !updated.FundingInfoSubmitted || updated.FundingInfoSubmittedAt == nil {
		t.Fatalf("expected submitted flag and timestamp, got %+v", updated)
	}
	if updated.EstimatedBudget != "25000 EUR" || updated.FundingSecured != FundingSecured {
		t.Fatalf("funding fields not persisted: %+v", updated)
	}
	if updated.FundingProofKey == "" || updated.FundingPlanKey != "" {
		t.Fatalf("expected only a proof key, got proof=%q plan=%q", updated.FundingProofKey, updated.FundingPlanKey)
	}
	if _, ok := store.saved[updated.FundingProofKey]; !ok {
		t.Fatalf("proof file not stored under %q", updated.FundingProofKey)
	}

	details, err := svc.GetWithDocuments(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.FundingProofURL != "/api/v1/files/"+updated.FundingProofKey {
		t.Fatalf("expected proof URL, got %q", details.FundingProofURL)
	}
}

func TestFiltersCollectDistinctValues(t *testing.T) {
	svc, _, _ := newWorkflowFixture(t)

	for _, in := range []SubmitInput{
		{FirstName: "Ada", Email: "ada@example.com", Nationality: "Kenyan", CountryOfResidence: "Kenya", ProjectArea: "Public Health"},
		{FirstName: "Bob", Email: "bob@example.com", Nationality: "Kenyan", CountryOfResidence: "Uganda", ProjectArea: "Education"},
	} {
		if _, err := svc.Submit(context.Background(), in, "", nil); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	opts, err := svc.Filters(context.Background())
	if err != nil {
		t.Fatalf("filters: %v", err)
	}
	if len(opts.Nationalities) != 1 || opts.Nationalities[0] != "Kenyan" {
		t.Fatalf("expected deduplicated nationalities, got %v", opts.Nationalities)
	}
	if len(opts.Countries) != 2 || len(opts.ProjectAreas) != 2 {
		t.Fatalf("unexpected filter values: %+v", opts)
	}
}
