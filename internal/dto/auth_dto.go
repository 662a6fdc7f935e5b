package dto

import (
	"strings"

	"companion-backend/internal/auth"
	"companion-backend/internal/models"

	"github.com/google/uuid"
)

type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUserRequest accepts either email or username. Identifier is the
// generic form used by clients that do not know which one the user typed.
type LoginUserRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	Password   string `json:"password"`
}

func (r *LoginUserRequest) LoginIdentifier() string {
	for _, v := range []string{r.Identifier, r.Email, r.Username} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LoginResponse struct {
	User *models.User `json:"user"`
	*auth.TokenPair
}

type VerifyTokenResponse struct {
	Valid  bool      `json:"valid"`
	UserID uuid.UUID `json:"user_id"`
}
