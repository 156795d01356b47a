package model

import (
	"slices"
	"time"
)

const (
	RoleGuest = "guest"
	RoleHost  = "host"
	RoleAdmin = "admin"
)

type Profile struct {
	Company     string `json:"company" bson:"company" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty" validate:"omitempty,max=20"`
	Position    string `json:"position,omitempty" bson:"position,omitempty" validate:"omitempty,max=100"`
	LinkedInURL string `json:"linkedInUrl,omitempty" bson:"linkedInUrl,omitempty" validate:"omitempty,url"`
}

type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	FirstName string    `json:"firstName" bson:"firstName" validate:"required,min=1,max=50"`
	LastName  string    `json:"lastName" bson:"lastName" validate:"required,min=1,max=50"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Password  string    `json:"-" bson:"password" validate:"required"`
	Roles     []string  `json:"roles" bson:"roles" validate:"required,min=1,dive,oneof=guest host admin"`
	Profile   Profile   `json:"profile" bson:"profile"`
	// References to spots created by the user (as host), bookings made by
	// the user (as guest) and favorited spots.
	CreatedSpots []string  `json:"createdSpots" bson:"createdSpots"`
	Bookings     []string  `json:"bookings" bson:"bookings"`
	Favorites    []string  `json:"favorites" bson:"favorites"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt" validate:"omitempty"`
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

type RegisterRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=50"`
	LastName  string  `json:"lastName" validate:"required,min=1,max=50"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	Roles     []string `json:"roles" validate:"omitempty,dive,oneof=guest host admin"`
	Profile   Profile `json:"profile"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ToggleFavoriteRequest struct {
	SpotID string `json:"spotId" validate:"required,mongodb"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User      *User     `json:"user,omitempty"`
	AuthToken string    `json:"authToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}
