package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"companion-backend/internal/dto"
	"companion-backend/internal/middleware"
	"companion-backend/internal/models"
	"companion-backend/internal/storage"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

const (
	avatarField = "avatar"
	// room for the multipart framing around the file itself
	multipartOverhead = 1 << 20
)

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, q dto.UserListQuery) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *dto.UpdateProfileRequest) (*models.User, error)
	UpdateNotifications(ctx context.Context, id uuid.UUID, req *dto.UpdateNotificationsRequest) (*models.User, error)
	UpdatePrivacy(ctx context.Context, id uuid.UUID, req *dto.UpdatePrivacyRequest) (*models.User, error)
	UpdateRoleStatus(ctx context.Context, id uuid.UUID, req *dto.UpdateRoleRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	SetAvatar(ctx context.Context, id uuid.UUID, contentType string, data io.Reader) (*models.User, error)
	Avatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, *storage.Object, error)
}

type UserHandler struct {
	service        UserService
	errs           *ErrorWriter
	avatarMaxBytes int64
}

func NewUserHandler(service UserService, errs *ErrorWriter, avatarMaxBytes int64) *UserHandler {
	return &UserHandler{service: service, errs: errs, avatarMaxBytes: avatarMaxBytes}
}

// target is the user a request acts on: the {id} path value when the route
// has one, the caller otherwise.
func target(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if r.PathValue("id") != "" {
		return pathID(w, r, "id")
	}
	id, ok := middleware.SubjectIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Not authenticated")
		return uuid.Nil, false
	}
	return id, true
}

// load returns the policy-cached subject when it is the target, and reads
// the user otherwise.
func (h *UserHandler) load(r *http.Request, id uuid.UUID) (*models.User, error) {
	if user := middleware.SubjectFromContext(r.Context()); user != nil && user.ID == id {
		return user, nil
	}
	return h.service.GetByID(r.Context(), id)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	user, err := h.load(r, id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user, "")
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q, err := dto.ParseUserListQuery(r.URL.Query())
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	users, err := h.service.List(r.Context(), q)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	response.Success(w, users, "")
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), id, &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user, "Profile updated successfully")
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	user, err := h.load(r, id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user.NotificationSettings, "")
}

func (h *UserHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	var req dto.UpdateNotificationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateNotifications(r.Context(), id, &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user.NotificationSettings, "Notification settings updated successfully")
}

func (h *UserHandler) GetPrivacy(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	user, err := h.load(r, id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user.PrivacySettings, "")
}

func (h *UserHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	var req dto.UpdatePrivacyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdatePrivacy(r.Context(), id, &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user.PrivacySettings, "Privacy settings updated successfully")
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.UpdateRoleStatus(r.Context(), id, &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user, "User updated successfully")
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, map[string]uuid.UUID{"id": id}, "User deleted successfully")
}

// UploadAvatar takes the image in the "avatar" multipart field. The type is
// sniffed from the content; the client's Content-Type is not trusted.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.avatarMaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.avatarMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "Avatar is too large")
			return
		}
		response.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Missing avatar file")
		return
	}
	defer file.Close()

	if header.Size > h.avatarMaxBytes {
		response.Error(w, http.StatusRequestEntityTooLarge, "Avatar is too large")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		response.Error(w, http.StatusBadRequest, "Avatar file is empty")
		return
	}
	contentType := http.DetectContentType(head[:n])
	if !avatarTypes[contentType] {
		response.Error(w, http.StatusUnsupportedMediaType, "Avatar must be a JPEG, PNG, GIF or WebP image")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.errs.Write(w, r, err)
		return
	}

	user, err := h.service.SetAvatar(r.Context(), id, contentType, file)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, user, "Avatar uploaded successfully")
}

func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := target(w, r)
	if !ok {
		return
	}

	body, obj, err := h.service.Avatar(r.Context(), id)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if obj.Hash != "" {
		w.Header().Set("ETag", `"`+obj.Hash+`"`)
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.errs.Aborted(r, "avatar stream interrupted", err)
	}
}
