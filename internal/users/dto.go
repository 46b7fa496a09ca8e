package users

import (
	"strings"

	"github.com/google/uuid"
	"github.com/urbancart/urbancart-backend/pkg/db/models"
)

// Profile is the transport shape that omits credentials.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	City        *string   `json:"city"`
	State       *string   `json:"state"`
	Address     *string   `json:"address"`
	Phone       *string   `json:"phone"`
	IsSeller    bool      `json:"is_seller"`
	IsSuperuser bool      `json:"is_superuser"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
}

// ToModel converts the DTO to a persistence model, normalising the email.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     strings.TrimSpace(d.Username),
		Email:        NormalizeEmail(d.Email),
		PasswordHash: d.PasswordHash,
		FirstName:    strings.TrimSpace(d.FirstName),
		LastName:     strings.TrimSpace(d.LastName),
	}
}

// ProfilePatch is a partial profile update; nil fields are left untouched.
type ProfilePatch struct {
	Username  *string `json:"username" validate:"omitempty,min=1,max=150"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	State     *string `json:"state" validate:"omitempty,max=100"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=15"`
}

func (p ProfilePatch) columns() map[string]any {
	out := map[string]any{}
	set := func(col string, v *string, normalize func(string) string) {
		if v != nil {
			out[col] = normalize(*v)
		}
	}
	set("username", p.Username, strings.TrimSpace)
	set("email", p.Email, NormalizeEmail)
	set("first_name", p.FirstName, strings.TrimSpace)
	set("last_name", p.LastName, strings.TrimSpace)
	set("city", p.City, strings.TrimSpace)
	set("state", p.State, strings.TrimSpace)
	set("address", p.Address, strings.TrimSpace)
	set("phone", p.Phone, strings.TrimSpace)
	return out
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func FromModel(u *models.User) *Profile {
	if u == nil {
		return nil
	}
	return &Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		City:        u.City,
		State:       u.State,
		Address:     u.Address,
		Phone:       u.Phone,
		IsSeller:    u.IsSeller,
		IsSuperuser: u.IsSuperuser,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
	}
}
