package service

import (
	"fmt"
	"strings"

	"go-dive-auth/internal/model"
	"go-dive-auth/internal/util"
	"go-dive-auth/pkg/apierror"
)

// MaxDocumentSize is the largest verification document accepted, in bytes.
const MaxDocumentSize = model.MaxDocumentSize

// DocumentValidator checks uploaded verification documents. It never reads
// the content and has no side effects.
type DocumentValidator struct {
	maxSize int64
}

func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{maxSize: MaxDocumentSize}
}

func (v *DocumentValidator) Validate(upload *model.DocumentUpload, docType model.DocumentType) (model.ValidatedDocument, error) {
	field := docType.FormField()

	if upload == nil || upload.Content == nil || strings.TrimSpace(upload.Filename) == "" {
		return model.ValidatedDocument{}, apierror.Validation(apierror.ReasonMissingDocument,
			fmt.Sprintf("%s is required for dive operator registration", field))
	}

	extension := util.FileExtension(upload.Filename)
	mimeType, ok := util.DocumentMIMEForExtension(extension)
	if !ok {
		return model.ValidatedDocument{}, invalidFileType(field, upload.Filename)
	}
	// A specific declared type must agree with the extension.
	if !util.IsGenericMIME(upload.ContentType) && !util.DeclaredMIMEMatches(upload.ContentType, mimeType) {
		return model.ValidatedDocument{}, invalidFileType(field, upload.ContentType)
	}

	if upload.Size <= 0 {
		return model.ValidatedDocument{}, apierror.Validation(apierror.ReasonMissingDocument,
			fmt.Sprintf("%s is empty", field))
	}
	if upload.Size > v.maxSize {
		return model.ValidatedDocument{}, apierror.Validation(apierror.ReasonFileTooLarge,
			fmt.Sprintf("%s is too large. Maximum size is %d MB", field, v.maxSize/(1024*1024)))
	}

	original, err := util.SanitizeFilename(upload.Filename)
	if err != nil {
		return model.ValidatedDocument{}, invalidFileType(field, upload.Filename)
	}

	return model.ValidatedDocument{
		DocType:          docType,
		OriginalFilename: original,
		Extension:        extension,
		MimeType:         mimeType,
		Size:             upload.Size,
	}, nil
}

func invalidFileType(field string, got string) error {
	allowed := strings.ToUpper(strings.Join(util.AllowedDocumentExtensions(), ", "))
	return apierror.Validation(apierror.ReasonInvalidFileType,
		fmt.Sprintf("%s has an invalid file type. Allowed: %s", field, allowed)).WithDetails(got)
}
