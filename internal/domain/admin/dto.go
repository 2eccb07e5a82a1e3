package admin

import (
	"time"

	"github.com/google/uuid"

	"github.com/infinito/infinito-api/internal/domain/user"
)

// UpdateRoleRequest changes a profile role
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,profile_role"`
}

// AdjustCreditsRequest grants credits to a user
type AdjustCreditsRequest struct {
	Amount      *int64 `json:"amount" validate:"required,gte=1,lte=1000000"`
	Reason      string `json:"reason" validate:"required,min=3,max=500"`
	ReferenceID string `json:"referenceId" validate:"max=128"`
}

// RefundRequest returns credits charged for a generation
type RefundRequest struct {
	Amount      *int64 `json:"amount" validate:"required,gte=1"`
	ReferenceID string `json:"referenceId" validate:"required,max=128"`
	Description string `json:"description" validate:"max=500"`
}

// UserResponse is a profile as admins see it
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName"`
	Role      user.Role `json:"role"`
	Credits   int64     `json:"credits"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserResponseFromProfile converts a profile
func UserResponseFromProfile(p *user.Profile) UserResponse {
	return UserResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.DisplayName(),
		Role:      p.Role,
		Credits:   p.Credits,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// UserListResponse wraps the user listing
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

// BalanceChangeResponse reports the outcome of a grant or refund
type BalanceChangeResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Amount      int64     `json:"amount"`
	NewBalance  int64     `json:"newBalance"`
	ReferenceID string    `json:"referenceId"`
	Replayed    bool      `json:"replayed"`
}
