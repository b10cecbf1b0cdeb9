package http

// RegisterRequest carries the public registration payload. frontBaseUrl
// is the caller-supplied prefix of the emailed verification link.
type RegisterRequest struct {
	Email        string `json:"email" example:"user@example.com"`
	Password     string `json:"password" example:"s3cret-pass"`
	FirstName    string `json:"firstName" example:"Ada"`
	LastName     string `json:"lastName" example:"Lovelace"`
	Country      string `json:"country" example:"UK"`
	Image        string `json:"image" example:"https://cdn.example.com/avatar.png"`
	FrontBaseURL string `json:"frontBaseUrl" example:"https://app.example.com/verify"`
}

// UpdateUserRequest carries a partial profile update. Absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Country   *string `json:"country,omitempty"`
	Image     *string `json:"image,omitempty"`
}

// LoginRequest carries credential login fields.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
}

// PasswordResetRequest asks for a reset code to be mailed.
type PasswordResetRequest struct {
	Email        string `json:"email" example:"user@example.com"`
	FrontBaseURL string `json:"frontBaseUrl" example:"https://app.example.com/reset"`
}

// PasswordResetConfirmRequest carries the new password for a reset code.
type PasswordResetConfirmRequest struct {
	Password string `json:"password" example:"new-s3cret"`
}

// MessageResponse is a generic message payload.
type MessageResponse struct {
	Message string `json:"message" example:"Invalid code"`
}
