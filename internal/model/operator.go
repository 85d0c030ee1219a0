package model

import (
	"io"
	"time"
)

type DocumentType string

const (
	DocumentBIR           DocumentType = "bir"
	DocumentCertification DocumentType = "certification"
)

// RequiredDocuments lists the documents every dive operator signs up with, in upload order.
var RequiredDocuments = []DocumentType{DocumentBIR, DocumentCertification}

const (
	// MaxDocumentSize is the largest verification document accepted, in bytes.
	MaxDocumentSize int64 = 5 * 1024 * 1024

	// SignupFormOverhead covers the text fields and multipart framing of a signup form.
	SignupFormOverhead int64 = 1024 * 1024

	// MinSignupBodySize fits both required documents at their maximum size.
	MinSignupBodySize = 2*MaxDocumentSize + SignupFormOverhead
)

// FormField is the multipart field the document is uploaded under.
func (t DocumentType) FormField() string {
	return string(t) + "_document"
}

// VerificationState is the triple the verification transitions always write together.
type VerificationState struct {
	Status          VerificationStatus `json:"verification_status"`
	VerifiedAt      *time.Time         `json:"verified_at"`
	RejectionReason *string            `json:"rejection_reason"`
}

func PendingVerification() VerificationState {
	return VerificationState{Status: VerificationPending}
}

type DiveOperatorProfile struct {
	UserID       string            `json:"user_id"`
	Verification VerificationState `json:"verification"`
	Documents    []Document        `json:"documents"`
}

type Document struct {
	ID               string       `json:"id"`
	UserID           string       `json:"-"`
	DocType          DocumentType `json:"doc_type"`
	OriginalFilename string       `json:"original_filename"`
	StoredKey        string       `json:"-"`
	FileSize         int64        `json:"file_size"`
	MimeType         string       `json:"mime_type"`
	UploadedAt       time.Time    `json:"uploaded_at"`
}

// DocumentUpload is an uploaded file as received at the request boundary.
type DocumentUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ValidatedDocument is the metadata the document validator accepted.
type ValidatedDocument struct {
	DocType          DocumentType
	OriginalFilename string
	Extension        string
	MimeType         string
	Size             int64
}

// VerificationTransition computes the next verification state from the current, locked user.
type VerificationTransition func(current User) (VerificationState, error)
