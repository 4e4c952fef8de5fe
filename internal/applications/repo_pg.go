package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

const applicationColumns = `
id, first_name, last_name, email, phone, date_of_birth, gender, nationality,
country_of_residence, address, education_level, project_area, project_summary,
professional_context, workplace, position, motivation, cv_key, status,
rejection_reason, starred, funding_info_requested, funding_info_submitted,
funding_info_submitted_at, estimated_budget, funding_sources, funding_secured,
sustainability_plan, funding_proof_key, funding_plan_key,
submitted_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, app Application) error {
	const query = `
INSERT INTO applications (
  id, first_name, last_name, email, phone, date_of_birth, gender, nationality,
  country_of_residence, address, education_level, project_area, project_summary,
  professional_context, workplace, position, motivation, cv_key, status,
  starred, submitted_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		app.ID,
		app.FirstName,
		nullable(app.LastName),
		app.Email,
		nullable(app.Phone),
		app.DateOfBirth,
		nullable(app.Gender),
		nullable(app.Nationality),
		nullable(app.CountryOfResidence),
		nullable(app.Address),
		nullable(app.EducationLevel),
		nullable(app.ProjectArea),
		nullable(app.ProjectSummary),
		nullable(app.ProfessionalContext),
		nullable(app.Workplace),
		nullable(app.Position),
		nullable(app.Motivation),
		nullable(app.CVKey),
		StatusPending,
		app.Starred,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1 LIMIT 1`
	app, err := scanApplication(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrNotFound
		}
		return Application{}, err
	}
	return app, nil
}

func (r *PGRepo) List(ctx context.Context, f Filter) ([]Application, int, error) {
	f.Normalize()

	where, args := buildWhere(f)

	countQuery := `SELECT count(*) FROM applications` + where
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT %s FROM applications%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		applicationColumns, where, sortColumn(f.SortBy), strings.ToUpper(f.SortOrder),
		len(args)+1, len(args)+2,
	)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, app)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id, status, rejectionReason string) error {
	const query = `
UPDATE applications SET
  status = $2,
  rejection_reason = $3,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, status, nullable(rejectionReason))
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SetStarred(ctx context.Context, id string, starred bool) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE applications SET starred = $2, updated_at = now() WHERE id = $1`, id, starred)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) MarkFundingInfoRequested(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE applications SET funding_info_requested = TRUE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) SaveFundingInfo(ctx context.Context, id string, info FundingInfo) error {
	const query = `
UPDATE applications SET
  estimated_budget = $2,
  funding_sources = $3,
  funding_secured = $4,
  sustainability_plan = $5,
  funding_proof_key = $6,
  funding_plan_key = $7,
  funding_info_submitted = TRUE,
  funding_info_submitted_at = $8,
  updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		id,
		info.EstimatedBudget,
		info.FundingSources,
		info.FundingSecured,
		info.SustainabilityPlan,
		nullable(info.ProofKey),
		nullable(info.PlanKey),
		info.SubmittedAt,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) CountByStatus(ctx context.Context) (Stats, error) {
	const query = `
SELECT
  count(*),
  count(*) FILTER (WHERE status = 'pending'),
  count(*) FILTER (WHERE status = 'reviewed'),
  count(*) FILTER (WHERE status = 'approved'),
  count(*) FILTER (WHERE status = 'rejected'),
  count(*) FILTER (WHERE status = 'received'),
  count(*) FILTER (WHERE starred)
FROM applications`
	var s Stats
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&s.Total, &s.Pending, &s.Reviewed, &s.Approved, &s.Rejected, &s.Received, &s.Starred,
	)
	return s, err
}

func (r *PGRepo) CountMonthly(ctx context.Context, year int) ([]MonthlyCount, error) {
	const query = `
SELECT to_char(date_trunc('month', submitted_at), 'YYYY-MM') AS month, count(*)
FROM applications
WHERE date_part('year', submitted_at) = $1
GROUP BY 1
ORDER BY 1`
	rows, err := r.DB.QueryContext(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MonthlyCount{}
	for rows.Next() {
		var mc MonthlyCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func (r *PGRepo) DistinctFilterValues(ctx context.Context) (FilterOptions, error) {
	var opts FilterOptions
	for _, target := range []struct {
		column string
		dest   *[]string
	}{
		{"country_of_residence", &opts.Countries},
		{"nationality", &opts.Nationalities},
		{"education_level", &opts.EducationLevels},
		{"project_area", &opts.ProjectAreas},
		{"professional_context", &opts.ProfessionalContexts},
	} {
		// column names come from the fixed list above, never from input
		query := fmt.Sprintf(
			`SELECT DISTINCT %s FROM applications WHERE %s IS NOT NULL AND %s <> '' ORDER BY %s`,
			target.column, target.column, target.column, target.column)
		values, err := queryStrings(ctx, r.DB, query)
		if err != nil {
			return FilterOptions{}, err
		}
		*target.dest = values
	}
	return opts, nil
}

func queryStrings(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func buildWhere(f Filter) (string, []any) {
	var clauses []string
	var args []any

	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		args = append(args, pattern)
		n := len(args)
		clauses = append(clauses, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}
	if f.ProjectArea != "" {
		add("project_area = $%d", f.ProjectArea)
	}
	if f.Nationality != "" {
		add("nationality = $%d", f.Nationality)
	}
	if f.Starred != nil {
		add("starred = $%d", *f.Starred)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func sortColumn(sortBy string) string {
	switch sortBy {
	case "firstName":
		return "first_name"
	case "status":
		return "status"
	case "updatedAt":
		return "updated_at"
	default:
		return "submitted_at"
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (Application, error) {
	var app Application
	var lastName, phone, gender, nationality, countryOfResidence sql.NullString
	var address, educationLevel, projectArea, projectSummary sql.NullString
	var professionalContext, workplace, position, motivation sql.NullString
	var cvKey, rejectionReason sql.NullString
	var estimatedBudget, fundingSources, fundingSecured sql.NullString
	var sustainabilityPlan, fundingProofKey, fundingPlanKey sql.NullString
	var dateOfBirth, fundingInfoSubmittedAt, updatedAt sql.NullTime

	err := row.Scan(
		&app.ID,
		&app.FirstName,
		&lastName,
		&app.Email,
		&phone,
		&dateOfBirth,
		&gender,
		&nationality,
		&countryOfResidence,
		&address,
		&educationLevel,
		&projectArea,
		&projectSummary,
		&professionalContext,
		&workplace,
		&position,
		&motivation,
		&cvKey,
		&app.Status,
		&rejectionReason,
		&app.Starred,
		&app.FundingInfoRequested,
		&app.FundingInfoSubmitted,
		&fundingInfoSubmittedAt,
		&estimatedBudget,
		&fundingSources,
		&fundingSecured,
		&sustainabilityPlan,
		&fundingProofKey,
		&fundingPlanKey,
		&app.SubmittedAt,
		&updatedAt,
	)
	if err != nil {
		return Application{}, err
	}

	app.LastName = lastName.String
	app.Phone = phone.String
	app.Gender = gender.String
	app.Nationality = nationality.String
	app.CountryOfResidence = countryOfResidence.String
	app.Address = address.String
	app.EducationLevel = educationLevel.String
	app.ProjectArea = projectArea.String
	app.ProjectSummary = projectSummary.String
	app.ProfessionalContext = professionalContext.String
	app.Workplace = workplace.String
	app.Position = position.String
	app.Motivation = motivation.String
	app.CVKey = cvKey.String
	app.RejectionReason = rejectionReason.String
	app.EstimatedBudget = estimatedBudget.String
	app.FundingSources = fundingSources.String
	app.FundingSecured = fundingSecured.String
	app.SustainabilityPlan = sustainabilityPlan.String
	app.FundingProofKey = fundingProofKey.String
	app.FundingPlanKey = fundingPlanKey.String
	if fundingInfoSubmittedAt.Valid {
		at := fundingInfoSubmittedAt.Time
		app.FundingInfoSubmittedAt = &at
	}
	if dateOfBirth.Valid {
		dob := dateOfBirth.Time
		app.DateOfBirth = &dob
	}
	if updatedAt.Valid {
		app.UpdatedAt = updatedAt.Time
	} else {
		app.UpdatedAt = time.Now().UTC()
	}
	return app, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
