// Package auth contiene los DTOs de sign-in, MFA, OAuth y password.
package auth

import "time"

// SignInRequest: con name presente el request es un alta.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	MFAToken string `json:"mfaToken,omitempty"`
}

type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	AvatarURL     string `json:"avatar_url,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// SessionResponse es la respuesta de un login completo.
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// ChallengeResponse reemplaza a SessionResponse cuando falta el segundo factor (OAuth).
type ChallengeResponse struct {
	MFARequired    bool      `json:"mfa_required"`
	ChallengeToken string    `json:"challenge_token"`
	Provider       string    `json:"provider"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type ChallengeRequest struct {
	ChallengeToken string `json:"challengeToken"`
	Token          string `json:"token"`
}

type MFASetupRequest struct {
	UserID string `json:"userId"`
}

type MFASetupResponse struct {
	Secret      string   `json:"secret"`
	BackupCodes []string `json:"backupCodes"`
	OTPAuthURL  string   `json:"otpauthUrl"`
}

type MFAEnableRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type MFADisableRequest struct {
	UserID string `json:"userId,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type SettingsResponse struct {
	MFAEnabled bool `json:"mfaEnabled"`
}

type AccountSetupRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	AvatarURL         string `json:"avatarUrl,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
