package applications

import "errors"

var (
	ErrNotFound                = errors.New("application not found")
	ErrInvalidStatus           = errors.New("invalid status value")
	ErrRejectionReasonRequired = errors.New("rejection requires a reason or custom email content")
	ErrInvalidDocumentType     = errors.New("invalid document type")
	ErrWrongStatus             = errors.New("application is not accepting documents")
	ErrDocumentsIncomplete     = errors.New("required documents are incomplete")
	ErrNoDocument              = errors.New("no document uploaded for this type")
	ErrFundingAlreadySubmitted = errors.New("funding information has already been submitted")
	ErrFundingNotRequested     = errors.New("funding information request not found")
	ErrInvalidFundingInput     = errors.New("invalid funding information")
)
