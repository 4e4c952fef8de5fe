package applications

import (
	"time"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	FirstName           string `json:"firstName" form:"firstName" binding:"required"`
	LastName            string `json:"lastName" form:"lastName"`
	Email               string `json:"email" form:"email" binding:"required,email"`
	Phone               string `json:"phone" form:"phone"`
	DateOfBirth         string `json:"dateOfBirth" form:"dateOfBirth"`
	Gender              string `json:"gender" form:"gender"`
	Nationality         string `json:"nationality" form:"nationality"`
	CountryOfResidence  string `json:"countryOfResidence" form:"countryOfResidence"`
	Address             string `json:"address" form:"address"`
	EducationLevel      string `json:"educationLevel" form:"educationLevel"`
	ProjectArea         string `json:"projectArea" form:"projectArea"`
	ProjectSummary      string `json:"projectSummary" form:"projectSummary"`
	ProfessionalContext string `json:"professionalContext" form:"professionalContext"`
	Workplace           string `json:"workplace" form:"workplace"`
	Position            string `json:"position" form:"position"`
	Motivation          string `json:"motivation" form:"motivation"`
}

func (r submitRequest) toInput() (SubmitInput, error) {
	in := SubmitInput{
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Email:               r.Email,
		Phone:               r.Phone,
		Gender:              r.Gender,
		Nationality:         r.Nationality,
		CountryOfResidence:  r.CountryOfResidence,
		Address:             r.Address,
		EducationLevel:      r.EducationLevel,
		ProjectArea:         r.ProjectArea,
		ProjectSummary:      r.ProjectSummary,
		ProfessionalContext: r.ProfessionalContext,
		Workplace:           r.Workplace,
		Position:            r.Position,
		Motivation:          r.Motivation,
	}
	if r.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", r.DateOfBirth)
		if err != nil {
			return SubmitInput{}, err
		}
		in.DateOfBirth = &dob
	}
	return in, nil
}

type statusRequest struct {
	Status             string `json:"status" binding:"required"`
	RejectionReason    string `json:"rejectionReason"`
	CustomEmailContent string `json:"customEmailContent"`
}

type starRequest struct {
	Starred bool `json:"starred"`
}

type requestFundingInfoRequest struct {
	CustomMessage string `json:"customMessage"`
	IncludeLink   *bool  `json:"includeLink"`
	CustomLink    string `json:"customLink"`
}

type fundingInfoRequest struct {
	EstimatedBudget    string `form:"estimatedBudget"`
	FundingSources     string `form:"fundingSources"`
	FundingSecured     string `form:"fundingSecured"`
	SustainabilityPlan string `form:"sustainabilityPlan"`
}

func toApplicationResponse(app Application) gin.H {
	resp := gin.H{
		"id":          app.ID,
		"firstName":   app.FirstName,
		"lastName":    app.LastName,
		"email":       app.Email,
		"status":      app.Status,
		"starred":     app.Starred,
		"submittedAt": app.SubmittedAt,
		"updatedAt":   app.UpdatedAt,
	}
	if app.RejectionReason != "" {
		resp["rejectionReason"] = app.RejectionReason
	}
	return resp
}
