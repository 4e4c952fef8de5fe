package documents

import "time"

// Type identifies one of the upload slots an approved applicant fills in.
type Type string

const (
	TypeIdentityDocument     Type = "identityDocument"
	TypeDegreeCertifications Type = "degreeCertifications"
	TypeReferenceOne         Type = "referenceOne"
	TypeReferenceTwo         Type = "referenceTwo"
	TypeFullProjectProposal  Type = "fullProjectProposal"
	TypeFundingPlan          Type = "fundingPlan"
	TypeRiskMitigation       Type = "riskMitigation"
	TypeAchievements         Type = "achievements"
	TypeLanguageProficiency  Type = "languageProficiency"
)

// AllTypes lists every accepted document slot.
var AllTypes = []Type{
	TypeIdentityDocument,
	TypeDegreeCertifications,
	TypeReferenceOne,
	TypeReferenceTwo,
	TypeFullProjectProposal,
	TypeFundingPlan,
	TypeRiskMitigation,
	TypeAchievements,
	TypeLanguageProficiency,
}

// RequiredTypes are the slots that must all be present before an application
// counts as complete.
var RequiredTypes = []Type{
	TypeIdentityDocument,
	TypeDegreeCertifications,
	TypeReferenceOne,
	TypeReferenceTwo,
	TypeFullProjectProposal,
}

// ValidType reports whether t names a known document slot.
func ValidType(t Type) bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Required reports whether t belongs to the required set.
func Required(t Type) bool {
	for _, req := range RequiredTypes {
		if t == req {
			return true
		}
	}
	return false
}

// Record is one row of uploads for an application. Each upload appends a new
// record carrying only the slot it filled; the full picture is the merge of
// all records.
type Record struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"applicationId"`
	URLs          map[Type]string `json:"urls"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Merge folds a history of records into the latest URL per slot. Later
// records win; empty values never overwrite earlier ones.
func Merge(records []Record) map[Type]string {
	merged := make(map[Type]string)
	for _, rec := range records {
		for t, url := range rec.URLs {
			if url != "" {
				merged[t] = url
			}
		}
	}
	return merged
}

// RequiredComplete reports whether every required slot is filled in the
// merged view.
func RequiredComplete(merged map[Type]string) bool {
	for _, req := range RequiredTypes {
		if merged[req] == "" {
			return false
		}
	}
	return true
}

// MissingRequired lists the required slots not yet filled.
func MissingRequired(merged map[Type]string) []Type {
	var missing []Type
	for _, req := range RequiredTypes {
		if merged[req] == "" {
			missing = append(missing, req)
		}
	}
	return missing
}
