package handler

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	"go-dive-auth/internal/middleware"
	"go-dive-auth/internal/model"
	"go-dive-auth/internal/service"
	"go-dive-auth/pkg/apierror"
)

const (
	multipartMemory = 8 << 20

	regularSignupMessage  = "Account created successfully"
	operatorSignupMessage = "Dive operator account created. Your documents are under review. " +
		"You will be notified once your account is approved."
	logoutMessage = "Logged out successfully. Please discard your tokens."
)

type AuthHandler struct {
	service       *service.AuthService
	maxUploadSize int64
}

func NewAuthHandler(service *service.AuthService, maxUploadSize int64) *AuthHandler {
	return &AuthHandler{service: service, maxUploadSize: maxUploadSize}
}

// Signup accepts JSON for regular accounts and multipart/form-data for dive
// operators, whose form carries the bir_document and certification_document files.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var (
		req     model.SignupRequest
		uploads map[model.DocumentType]*model.DocumentUpload
	)

	if isMultipart(r) {
		form, err := h.parseSignupForm(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		defer form.close()
		req, uploads = form.request, form.uploads
	} else if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	payload, err := h.service.Signup(r.Context(), req, uploads)
	if err != nil {
		writeError(w, err)
		return
	}

	message := regularSignupMessage
	if payload.User.Role == model.RoleDiveOperator {
		message = operatorSignupMessage
	}

	writeSuccess(w, http.StatusCreated, message, payload, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Login successful", result, nil)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var payload model.RefreshRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Token refreshed successfully", tokens, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized(apierror.ReasonMissingOrMalformed, "Authentication required"))
		return
	}

	user, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", model.UserEnvelope{User: user.View()}, nil)
}

// Logout has no server-side effect; tokens stay valid until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, logoutMessage, nil, nil)
}

type signupForm struct {
	request model.SignupRequest
	uploads map[model.DocumentType]*model.DocumentUpload
	files   []multipart.File
	form    *multipart.Form
}

func (f *signupForm) close() {
	for _, file := range f.files {
		_ = file.Close()
	}
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

func (h *AuthHandler) parseSignupForm(w http.ResponseWriter, r *http.Request) (*signupForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apierror.Validation(apierror.ReasonFileTooLarge,
				fmt.Sprintf("Request body too large. Maximum size is %d MB", h.maxUploadSize/(1024*1024)))
		}
		return nil, apierror.Validation(apierror.ReasonInvalidBody, "Invalid multipart form")
	}

	form := &signupForm{
		request: model.SignupRequest{
			FirstName:      r.FormValue("first_name"),
			LastName:       r.FormValue("last_name"),
			Email:          r.FormValue("email"),
			Password:       r.FormValue("password"),
			IsDiveOperator: model.FlexBool(model.ParseFlag(r.FormValue("is_dive_operator"))),
		},
		uploads: make(map[model.DocumentType]*model.DocumentUpload, len(model.RequiredDocuments)),
		form:    r.MultipartForm,
	}

	for _, docType := range model.RequiredDocuments {
		file, header, err := r.FormFile(docType.FormField())
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			form.close()
			return nil, apierror.Validation(apierror.ReasonInvalidBody, "Invalid multipart form").WithDetails(docType.FormField())
		}

		form.files = append(form.files, file)
		form.uploads[docType] = &model.DocumentUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	return form, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
