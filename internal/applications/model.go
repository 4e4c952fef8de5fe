package applications

import "time"

// Application statuses. pending and reviewed are pre-decision; approved moves
// to received once the required documents are in; rejected and received are
// terminal.
const (
	StatusPending  = "pending"
	StatusReviewed = "reviewed"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusReceived = "received"
)

// SettableStatuses are the values an admin may assign directly. received is
// reached only through document submission.
var SettableStatuses = []string{StatusPending, StatusReviewed, StatusApproved, StatusRejected}

func ValidSettableStatus(status string) bool {
	for _, s := range SettableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Application struct {
	ID                  string     `json:"id"`
	FirstName           string     `json:"firstName"`
	LastName            string     `json:"lastName,omitempty"`
	Email               string     `json:"email"`
	Phone               string     `json:"phone,omitempty"`
	DateOfBirth         *time.Time `json:"dateOfBirth,omitempty"`
	Gender              string     `json:"gender,omitempty"`
	Nationality         string     `json:"nationality,omitempty"`
	CountryOfResidence  string     `json:"countryOfResidence,omitempty"`
	Address             string     `json:"address,omitempty"`
	EducationLevel      string     `json:"educationLevel,omitempty"`
	ProjectArea         string     `json:"projectArea,omitempty"`
	ProjectSummary      string     `json:"projectSummary,omitempty"`
	ProfessionalContext string     `json:"professionalContext,omitempty"`
	Workplace           string     `json:"workplace,omitempty"`
	Position            string     `json:"position,omitempty"`
	Motivation          string     `json:"motivation,omitempty"`
	CVKey               string     `json:"-"`
	Status              string     `json:"status"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	Starred             bool       `json:"starred"`

	FundingInfoRequested   bool       `json:"fundingInfoRequested"`
	FundingInfoSubmitted   bool       `json:"fundingInfoSubmitted"`
	FundingInfoSubmittedAt *time.Time `json:"fundingInfoSubmittedAt,omitempty"`
	EstimatedBudget        string     `json:"estimatedBudget,omitempty"`
	FundingSources         string     `json:"fundingSources,omitempty"`
	FundingSecured         string     `json:"fundingSecured,omitempty"`
	SustainabilityPlan     string     `json:"sustainabilityPlan,omitempty"`
	FundingProofKey        string     `json:"-"`
	FundingPlanKey         string     `json:"-"`

	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FullName joins the name parts for email salutations.
func (a Application) FullName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	return a.FirstName + " " + a.LastName
}

// Funding secured states for the funding-info form.
const (
	FundingSecured    = "secured"
	FundingNotSecured = "not_secured"
)

// FundingInfo is the applicant's funding submission.
type FundingInfo struct {
	EstimatedBudget    string
	FundingSources     string
	FundingSecured     string
	SustainabilityPlan string
	ProofKey           string
	PlanKey            string
	SubmittedAt        time.Time
}

// FilterOptions are the distinct values behind the admin list filters.
type FilterOptions struct {
	Countries            []string `json:"countries"`
	Nationalities        []string `json:"nationalities"`
	EducationLevels      []string `json:"educationLevels"`
	ProjectAreas         []string `json:"projectAreas"`
	ProfessionalContexts []string `json:"professionalContexts"`
}

// MonthlyCount is one month's submission total.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// Stats summarizes the pipeline for the admin dashboard.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Reviewed int `json:"reviewed"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Received int `json:"received"`
	Starred  int `json:"starred"`
}
