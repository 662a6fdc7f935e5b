package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"companion-backend/internal/auth"
	"companion-backend/internal/dto"
	"companion-backend/internal/middleware"
	"companion-backend/internal/models"
	"companion-backend/utils/response"

	"github.com/google/uuid"
)

type AuthService interface {
	RegisterUser(ctx context.Context, req *dto.RegisterUserRequest) (*models.User, error)
	LoginUser(ctx context.Context, req *dto.LoginUserRequest) (*models.User, *auth.TokenPair, error)
	RefreshToken(ctx context.Context, token string) (*auth.TokenPair, error)
	VerifyToken(token string) (uuid.UUID, error)
}

type AuthHandler struct {
	service AuthService
	errs    *ErrorWriter
}

func NewAuthHandler(service AuthService, errs *ErrorWriter) *AuthHandler {
	return &AuthHandler{service: service, errs: errs}
}

func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.RegisterUser(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Created(w, user, "User registered successfully")
}

func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, tokens, err := h.service.LoginUser(r.Context(), &req)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, dto.LoginResponse{User: user, TokenPair: tokens}, "User logged in successfully")
}

// VerifyToken checks the token in the body, or failing that the one in the
// request headers.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req dto.VerifyTokenRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = middleware.ExtractToken(r)
	}

	id, err := h.service.VerifyToken(token)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, dto.VerifyTokenResponse{Valid: true, UserID: id}, "Token is valid")
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	response.Success(w, tokens, "Token refreshed successfully")
}
