package models

import (
	"encoding/json"
	"errors"
)

// Location is a GeoJSON Point plus postal details. Coordinates are optional;
// a report without them never matches a radius query.
type Location struct {
	Lng              *float64 `gorm:"column:lng"`
	Lat              *float64 `gorm:"column:lat"`
	FormattedAddress string   `gorm:"size:255"`
	City             string   `gorm:"size:100;index"`
	State            string   `gorm:"size:100;index"`
	Zipcode          string   `gorm:"size:20"`
}

type geoJSONLocation struct {
	Type             string    `json:"type,omitempty"`
	Coordinates      []float64 `json:"coordinates,omitempty"`
	FormattedAddress string    `json:"formattedAddress,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	Zipcode          string    `json:"zipcode,omitempty"`
}

var ErrInvalidLocation = errors.New("location coordinates must be [lng, lat]")

func (l Location) HasPoint() bool {
	return l.Lng != nil && l.Lat != nil
}

// Point returns the coordinates as (lng, lat). Callers check HasPoint first.
func (l Location) Point() (float64, float64) {
	return *l.Lng, *l.Lat
}

func (l Location) MarshalJSON() ([]byte, error) {
	out := geoJSONLocation{
		FormattedAddress: l.FormattedAddress,
		City:             l.City,
		State:            l.State,
		Zipcode:          l.Zipcode,
	}
	if l.HasPoint() {
		out.Type = "Point"
		out.Coordinates = []float64{*l.Lng, *l.Lat}
	}
	return json.Marshal(out)
}

// UnmarshalJSON also accepts the object encoded as a JSON string, which is
// what multipart form clients send.
func (l *Location) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err == nil {
		if raw == "" {
			*l = Location{}
			return nil
		}
		b = []byte(raw)
	}

	var in geoJSONLocation
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	loc := Location{
		FormattedAddress: in.FormattedAddress,
		City:             in.City,
		State:            in.State,
		Zipcode:          in.Zipcode,
	}
	switch len(in.Coordinates) {
	case 0:
	case 2:
		lng, lat := in.Coordinates[0], in.Coordinates[1]
		loc.Lng, loc.Lat = &lng, &lat
	default:
		return ErrInvalidLocation
	}
	*l = loc
	return nil
}

// UnmarshalText decodes the JSON object sent as a single form field.
func (l *Location) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*l = Location{}
		return nil
	}
	return l.UnmarshalJSON(b)
}
