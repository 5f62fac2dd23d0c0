package handler

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"

	"go-video-backend/internal/media"
	"go-video-backend/internal/middleware"
	"go-video-backend/internal/model"
	"go-video-backend/internal/service"
	"go-video-backend/pkg/apierror"
)

const (
	avatarField     = "avatar"
	coverImageField = "coverImage"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Register accepts either a JSON body or a multipart form. The form carries
// a required avatar and an optional cover image.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var (
		payload model.RegisterRequest
		err     error
	)
	if isMultipart(r) {
		payload, err = readRegisterForm(w, r)
	} else {
		err = decodeJSON(r, &payload, false)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.UpdateAccountRequest
	if err := decodeJSON(r, &payload, false); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.UpdateAccountDetails(r.Context(), claims.UserID(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, avatarField, h.service.UpdateAvatar)
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, coverImageField, h.service.UpdateCoverImage)
}

type imageUpdater func(ctx context.Context, userID string, file model.UploadedFile) (model.UserView, error)

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string, update imageUpdater) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	file, err := readUpload(w, r, field)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := update(r.Context(), claims.UserID(), file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func readUpload(w http.ResponseWriter, r *http.Request, field string) (model.UploadedFile, error) {
	if err := parseMultipart(w, r, 1); err != nil {
		return model.UploadedFile{}, apierror.Validation(err.Error(), field)
	}
	defer r.MultipartForm.RemoveAll()

	file, found, err := formImage(r, field)
	if err != nil {
		return model.UploadedFile{}, err
	}
	if !found {
		return model.UploadedFile{}, apierror.Validation(field+" file is required", field)
	}
	return file, nil
}

func readRegisterForm(w http.ResponseWriter, r *http.Request) (model.RegisterRequest, error) {
	if err := parseMultipart(w, r, 2); err != nil {
		return model.RegisterRequest{}, apierror.Validation(err.Error(), "")
	}
	defer r.MultipartForm.RemoveAll()

	req := model.RegisterRequest{
		FullName: formValue(r, "full_name", "fullName"),
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	avatar, found, err := formImage(r, avatarField)
	if err != nil {
		return model.RegisterRequest{}, err
	}
	if !found {
		return model.RegisterRequest{}, apierror.Validation(avatarField+" file is required", avatarField)
	}
	req.Avatar = &avatar

	cover, found, err := formImage(r, coverImageField)
	if err != nil {
		return model.RegisterRequest{}, err
	}
	if found {
		req.CoverImage = &cover
	}

	return req, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart caps the body at the given number of images plus form
// overhead.
func parseMultipart(w http.ResponseWriter, r *http.Request, files int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, files*media.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(media.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return media.ErrFileTooLarge
		}
		return errors.New("invalid multipart form")
	}
	return nil
}

func formImage(r *http.Request, field string) (model.UploadedFile, bool, error) {
	part, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return model.UploadedFile{}, false, nil
	}
	if err != nil {
		return model.UploadedFile{}, false, apierror.Validation("invalid "+field+" file", field)
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, media.MaxImageSize+1))
	if err != nil {
		return model.UploadedFile{}, false, apierror.Validation("failed to read uploaded file", field)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return model.UploadedFile{Filename: header.Filename, ContentType: contentType, Data: data}, true, nil
}

func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.FormValue(name); v != "" {
			return v
		}
	}
	return ""
}
