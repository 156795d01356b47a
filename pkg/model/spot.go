package model

import "time"

const (
	SpotTypeSpot   = "spot"
	SpotTypeRoom   = "room"
	SpotTypeOffice = "office"

	SpotStatusActive   = "active"
	SpotStatusInactive = "inactive"
)

// Amenities lists every amenity a spot may advertise.
var Amenities = []string{
	"Wifi",
	"Parking",
	"Coffee",
	"Lift",
	"Phonebox",
	"Meeting Room",
	"Kitchen",
}

type Location struct {
	City    string `json:"city" bson:"city" validate:"required,min=1,max=100"`
	Address string `json:"address" bson:"address" validate:"required,min=1,max=200"`
}

type Spot struct {
	ID          string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title       string   `json:"title" bson:"title" validate:"required,min=2,max=100"`
	Description string   `json:"description" bson:"description" validate:"required,min=2,max=2000"`
	Type        string   `json:"type" bson:"type" validate:"required,oneof=spot room office"`
	DeskCount   int      `json:"deskCount,omitempty" bson:"deskCount,omitempty" validate:"omitempty,min=1,max=500"`
	Location    Location `json:"location" bson:"location"`
	Amenities   []string `json:"amenities" bson:"amenities" validate:"omitempty,dive,oneof=Wifi Parking Coffee Lift Phonebox 'Meeting Room' Kitchen"`
	Price       float64  `json:"price" bson:"price" validate:"required,gt=0"`
	Images      []string `json:"images" bson:"images" validate:"required,min=1,dive,url"`
	Status      string   `json:"status" bson:"status" validate:"required,oneof=active inactive"`
	// BlockedDates holds the committed intervals of every active booking.
	// Invariant: no two entries overlap. Only the booking flow writes here.
	BlockedDates []DateRange `json:"blockedDates" bson:"blockedDates"`
	Bookings     []string    `json:"bookings" bson:"bookings"`
	CreatedBy    string      `json:"createdBy" bson:"createdBy" validate:"required,mongodb"`
	CreatedAt    time.Time   `json:"createdAt" bson:"createdAt" validate:"omitempty"`
	UpdatedAt    time.Time   `json:"updatedAt,omitempty" bson:"updatedAt,omitempty" validate:"omitempty"`
}

// RequiresDeskCount reports whether the spot type makes deskCount mandatory.
func (s *Spot) RequiresDeskCount() bool {
	return s.Type == SpotTypeRoom || s.Type == SpotTypeOffice
}

type SpotUpdate struct {
	Title       string    `json:"title,omitempty" validate:"omitempty,min=2,max=100"`
	Description string    `json:"description,omitempty" validate:"omitempty,min=2,max=2000"`
	Type        string    `json:"type,omitempty" validate:"omitempty,oneof=spot room office"`
	DeskCount   *int      `json:"deskCount,omitempty" validate:"omitempty,min=1,max=500"`
	Location    *Location `json:"location,omitempty"`
	Amenities   *[]string `json:"amenities,omitempty" validate:"omitempty,dive,oneof=Wifi Parking Coffee Lift Phonebox 'Meeting Room' Kitchen"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Images      *[]string `json:"images,omitempty" validate:"omitempty,min=1,dive,url"`
	Status      string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

type SpotFilter struct {
	Type string
	City string
}

// SpotDetails is the joined read model for a single spot: the spot itself,
// its owner and the full booking documents behind the id references.
type SpotDetails struct {
	Spot     *Spot      `json:"spot"`
	Owner    *User      `json:"owner,omitempty"`
	Bookings []*Booking `json:"bookings"`
}
