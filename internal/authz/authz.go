// Package authz holds the ownership rules gating spot and booking access.
package authz

import "github.com/nathidaum/spots-backend/pkg/model"

// CanAccessBooking reports whether the caller may view or cancel a booking.
// The booking's creator and the owner of the booked spot are both allowed,
// and the same rule applies to reads and cancellations.
func CanAccessBooking(booking *model.Booking, spotOwner, callerID string) bool {
	if callerID == "" {
		return false
	}
	return booking.UserID == callerID || spotOwner == callerID
}

// CanModifySpot reports whether the caller may update or delete a spot.
func CanModifySpot(spot *model.Spot, callerID string) bool {
	return callerID != "" && spot.CreatedBy == callerID
}

// IsAdmin reports whether the user's role set grants the admin override.
func IsAdmin(user *model.User) bool {
	return user != nil && user.HasRole(model.RoleAdmin)
}
