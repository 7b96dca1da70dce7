package handler

import "github.com/classmates/content-api/internal/core/domain"

type signInRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

type createUserRequest struct {
	Username string      `json:"username" validate:"required,min=3,max=64,username"`
	FullName string      `json:"fullName" validate:"max=128"`
	Password string      `json:"password" validate:"required,min=4,max=128"`
	Role     domain.Role `json:"role" validate:"omitempty,role"`
	IsActive *bool       `json:"isActive"`
	Image    string      `json:"image"`
	ImageURL string      `json:"imageUrl"`
}

type updateUserRequest struct {
	Username *string      `json:"username" validate:"omitempty,min=3,max=64,username"`
	FullName *string      `json:"fullName" validate:"omitempty,max=128"`
	Password *string      `json:"password" validate:"omitempty,min=4,max=128"`
	Role     *domain.Role `json:"role" validate:"omitempty,role"`
	IsActive *bool        `json:"isActive"`
}

// changePasswordRequest accepts either field name; newPassword wins.
type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
	Password    string `json:"password"`
}

func (r changePasswordRequest) value() string {
	if r.NewPassword != "" {
		return r.NewPassword
	}
	return r.Password
}

type statusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type deleteFileRequest struct {
	FileURL string `json:"fileUrl" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type videoResponse struct {
	URL string `json:"url"`
}
