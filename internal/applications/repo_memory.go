package applications

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{apps: make(map[string]Application)}
}

func (r *MemoryRepo) Create(ctx context.Context, app Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	app.Status = StatusPending
	app.SubmittedAt = now
	app.UpdatedAt = now
	r.apps[app.ID] = app
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Application, error) {
	if err := ctx.Err(); err != nil {
		return Application{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return Application{}, ErrNotFound
	}
	return app, nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Application, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	f.Normalize()

	r.mu.RLock()
	matched := []Application{}
	for _, app := range r.apps {
		if matches(app, f) {
			matched = append(matched, app)
		}
	}
	r.mu.RUnlock()

	sortApplications(matched, f.SortBy, f.SortOrder)

	total := len(matched)
	start := (f.Page - 1) * f.PerPage
	if start >= total {
		return []Application{}, total, nil
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id, status, rejectionReason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Status = status
	app.RejectionReason = rejectionReason
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

func (r *MemoryRepo) SetStarred(ctx context.Context, id string, starred bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.Starred = starred
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

func (r *MemoryRepo) MarkFundingInfoRequested(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.FundingInfoRequested = true
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

func (r *MemoryRepo) SaveFundingInfo(ctx context.Context, id string, info FundingInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return ErrNotFound
	}
	app.EstimatedBudget = info.EstimatedBudget
	app.FundingSources = info.FundingSources
	app.FundingSecured = info.FundingSecured
	app.SustainabilityPlan = info.SustainabilityPlan
	app.FundingProofKey = info.ProofKey
	app.FundingPlanKey = info.PlanKey
	app.FundingInfoSubmitted = true
	at := info.SubmittedAt
	app.FundingInfoSubmittedAt = &at
	app.UpdatedAt = time.Now().UTC()
	r.apps[id] = app
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[id]; !ok {
		return ErrNotFound
	}
	delete(r.apps, id)
	return nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var s Stats
	for _, app := range r.apps {
		s.Total++
		switch app.Status {
		case StatusPending:
			s.Pending++
		case StatusReviewed:
			s.Reviewed++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusReceived:
			s.Received++
		}
		if app.Starred {
			s.Starred++
		}
	}
	return s, nil
}

func (r *MemoryRepo) CountMonthly(ctx context.Context, year int) ([]MonthlyCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int)
	for _, app := range r.apps {
		if app.SubmittedAt.Year() != year {
			continue
		}
		counts[fmt.Sprintf("%04d-%02d", year, app.SubmittedAt.Month())]++
	}
	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)
	out := make([]MonthlyCount, 0, len(months))
	for _, m := range months {
		out = append(out, MonthlyCount{Month: m, Count: counts[m]})
	}
	return out, nil
}

func (r *MemoryRepo) DistinctFilterValues(ctx context.Context) (FilterOptions, error) {
	if err := ctx.Err(); err != nil {
		return FilterOptions{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	collect := func(pick func(Application) string) []string {
		seen := make(map[string]struct{})
		for _, app := range r.apps {
			if v := pick(app); v != "" {
				seen[v] = struct{}{}
			}
		}
		out := make([]string, 0, len(seen))
		for v := range seen {
			out = append(out, v)
		}
		sort.Strings(out)
		return out
	}

	return FilterOptions{
		Countries:            collect(func(a Application) string { return a.CountryOfResidence }),
		Nationalities:        collect(func(a Application) string { return a.Nationality }),
		EducationLevels:      collect(func(a Application) string { return a.EducationLevel }),
		ProjectAreas:         collect(func(a Application) string { return a.ProjectArea }),
		ProfessionalContexts: collect(func(a Application) string { return a.ProfessionalContext }),
	}, nil
}

func matches(app Application, f Filter) bool {
	if f.Status != "" && app.Status != f.Status {
		return false
	}
	if f.ProjectArea != "" && app.ProjectArea != f.ProjectArea {
		return false
	}
	if f.Nationality != "" && app.Nationality != f.Nationality {
		return false
	}
	if f.Starred != nil && app.Starred != *f.Starred {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(app.FirstName + " " + app.LastName + " " + app.Email)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func sortApplications(apps []Application, sortBy, sortOrder string) {
	less := func(a, b Application) bool {
		switch sortBy {
		case "firstName":
			return a.FirstName < b.FirstName
		case "status":
			return a.Status < b.Status
		case "updatedAt":
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.SubmittedAt.Before(b.SubmittedAt)
		}
	}
	sort.SliceStable(apps, func(i, j int) bool {
		if sortOrder == "asc" {
			return less(apps[i], apps[j])
		}
		return less(apps[j], apps[i])
	})
}
