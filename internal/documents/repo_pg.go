package documents

import (
	"context"
	"database/sql"
	"fmt"
)

type PGRepo struct {
	DB *sql.DB
}

// columnFor maps a slot to its column. Types are validated before reaching
// the repo, so an unknown slot is a programming error.
func columnFor(t Type) (string, error) {
	switch t {
	case TypeIdentityDocument:
		return "identity_document", nil
	case TypeDegreeCertifications:
		return "degree_certifications", nil
	case TypeReferenceOne:
		return "reference_one", nil
	case TypeReferenceTwo:
		return "reference_two", nil
	case TypeFullProjectProposal:
		return "full_project_proposal", nil
	case TypeFundingPlan:
		return "funding_plan", nil
	case TypeRiskMitigation:
		return "risk_mitigation", nil
	case TypeAchievements:
		return "achievements", nil
	case TypeLanguageProficiency:
		return "language_proficiency", nil
	}
	return "", fmt.Errorf("unknown document type: %s", t)
}

func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO additional_documents (
  id, application_id,
  identity_document, degree_certifications, reference_one, reference_two,
  full_project_proposal, funding_plan, risk_mitigation, achievements,
  language_proficiency, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`
	_, err := r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.ApplicationID,
		nullableURL(rec.URLs[TypeIdentityDocument]),
		nullableURL(rec.URLs[TypeDegreeCertifications]),
		nullableURL(rec.URLs[TypeReferenceOne]),
		nullableURL(rec.URLs[TypeReferenceTwo]),
		nullableURL(rec.URLs[TypeFullProjectProposal]),
		nullableURL(rec.URLs[TypeFundingPlan]),
		nullableURL(rec.URLs[TypeRiskMitigation]),
		nullableURL(rec.URLs[TypeAchievements]),
		nullableURL(rec.URLs[TypeLanguageProficiency]),
	)
	return err
}

func (r *PGRepo) ListByApplication(ctx context.Context, applicationID string) ([]Record, error) {
	const query = `
SELECT id, application_id,
  identity_document, degree_certifications, reference_one, reference_two,
  full_project_proposal, funding_plan, risk_mitigation, achievements,
  language_proficiency, created_at
FROM additional_documents
WHERE application_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		urls := make([]sql.NullString, len(AllTypes))
		dest := []any{&rec.ID, &rec.ApplicationID}
		for i := range urls {
			dest = append(dest, &urls[i])
		}
		dest = append(dest, &rec.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec.URLs = make(map[Type]string)
		for i, t := range AllTypes {
			if urls[i].Valid && urls[i].String != "" {
				rec.URLs[t] = urls[i].String
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) ClearType(ctx context.Context, applicationID string, t Type) error {
	column, err := columnFor(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE additional_documents SET %s = NULL WHERE application_id = $1`, column)
	_, err = r.DB.ExecContext(ctx, query, applicationID)
	return err
}

func (r *PGRepo) DeleteByApplication(ctx context.Context, applicationID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM additional_documents WHERE application_id = $1`, applicationID)
	return err
}

func nullableURL(value string) any {
	if value == "" {
		return nil
	}
	return value
}
