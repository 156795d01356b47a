package validator

import (
	"testing"

	"github.com/nathidaum/spots-backend/pkg/logger"
	"github.com/nathidaum/spots-backend/pkg/model"
)

func newTestValidator() *SpotValidator {
	return NewSpotValidator(logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"}))
}

func validSpot() *model.Spot {
	return &model.Spot{
		Title:       "Sunny loft desk",
		Description: "Bright corner desk with a view",
		Type:        model.SpotTypeSpot,
		Location: model.Location{
			City:    "Berlin",
			Address: "Example Str. 1",
		},
		Amenities: []string{"Wifi", "Meeting Room"},
		Price:     25,
		Images:    []string{"https://example.com/img.jpg"},
		Status:    model.SpotStatusActive,
		CreatedBy: "507f1f77bcf86cd799439011",
	}
}

func TestValidateSpotOK(t *testing.T) {
	v := newTestValidator()
	if err := v.Validate(validSpot()); err != nil {
		t.Errorf("valid spot rejected: %v", err)
	}
}

func TestValidateSpotFieldErrors(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name   string
		mutate func(s *model.Spot)
	}{
		{"short title", func(s *model.Spot) { s.Title = "x" }},
		{"unknown type", func(s *model.Spot) { s.Type = "garage" }},
		{"missing city", func(s *model.Spot) { s.Location.City = "" }},
		{"unknown amenity", func(s *model.Spot) { s.Amenities = []string{"Sauna"} }},
		{"zero price", func(s *model.Spot) { s.Price = 0 }},
		{"no images", func(s *model.Spot) { s.Images = nil }},
		{"bad image url", func(s *model.Spot) { s.Images = []string{"not a url"} }},
		{"unknown status", func(s *model.Spot) { s.Status = "archived" }},
		{"missing creator", func(s *model.Spot) { s.CreatedBy = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spot := validSpot()
			tt.mutate(spot)
			if err := v.Validate(spot); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateSpotDeskCountRule(t *testing.T) {
	v := newTestValidator()

	for _, typ := range []string{model.SpotTypeRoom, model.SpotTypeOffice} {
		spot := validSpot()
		spot.Type = typ
		if err := v.Validate(spot); err == nil {
			t.Errorf("type %q without deskCount accepted", typ)
		}

		spot.DeskCount = 4
		if err := v.Validate(spot); err != nil {
			t.Errorf("type %q with deskCount rejected: %v", typ, err)
		}
	}

	// Single desks carry no desk count.
	spot := validSpot()
	spot.Type = model.SpotTypeSpot
	if err := v.Validate(spot); err != nil {
		t.Errorf("type spot without deskCount rejected: %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()

	if err := v.ValidateUpdate(&model.SpotUpdate{Title: "New title"}); err != nil {
		t.Errorf("valid update rejected: %v", err)
	}

	if err := v.ValidateUpdate(&model.SpotUpdate{Type: "garage"}); err == nil {
		t.Error("bad type accepted")
	}

	if err := v.ValidateUpdate(&model.SpotUpdate{Location: &model.Location{City: "Berlin"}}); err == nil {
		t.Error("location without address accepted")
	}

	badPrice := -1.0
	if err := v.ValidateUpdate(&model.SpotUpdate{Price: &badPrice}); err == nil {
		t.Error("negative price accepted")
	}
}
