package documents

import "context"

type Repo interface {
	// Create appends a new record for the application.
	Create(ctx context.Context, rec Record) error
	// ListByApplication returns records oldest first.
	ListByApplication(ctx context.Context, applicationID string) ([]Record, error)
	// ClearType blanks a slot across every record of the application.
	ClearType(ctx context.Context, applicationID string, t Type) error
	// DeleteByApplication removes all records for the application.
	DeleteByApplication(ctx context.Context, applicationID string) error
}
