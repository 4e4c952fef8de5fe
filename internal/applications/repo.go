package applications

import "context"

// Filter narrows the admin list view.
type Filter struct {
	Status      string
	Search      string
	ProjectArea string
	Nationality string
	Starred     *bool
	Page        int
	PerPage     int
	SortBy      string
	SortOrder   string
}

// Normalize clamps pagination and whitelists sort inputs.
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 100 {
		f.PerPage = 20
	}
	switch f.SortBy {
	case "submittedAt", "firstName", "status", "updatedAt":
	default:
		f.SortBy = "submittedAt"
	}
	switch f.SortOrder {
	case "asc", "desc":
	default:
		f.SortOrder = "desc"
	}
}

type Repo interface {
	Create(ctx context.Context, app Application) error
	GetByID(ctx context.Context, id string) (Application, error)
	List(ctx context.Context, f Filter) ([]Application, int, error)
	UpdateStatus(ctx context.Context, id, status, rejectionReason string) error
	SetStarred(ctx context.Context, id string, starred bool) error
	MarkFundingInfoRequested(ctx context.Context, id string) error
	SaveFundingInfo(ctx context.Context, id string, info FundingInfo) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (Stats, error)
	CountMonthly(ctx context.Context, year int) ([]MonthlyCount, error)
	DistinctFilterValues(ctx context.Context) (FilterOptions, error)
}
