package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NormalizeSpot validates a raw feed record and converts it into a Spot with
// an offset-bearing spot time. Errors wrap ErrInvalidSpot.
func NormalizeSpot(rec FeedRecord) (Spot, error) {
	if err := validate.Struct(rec); err != nil {
		return Spot{}, fmt.Errorf("%w: %s", ErrInvalidSpot, describeValidation(err))
	}

	ft, err := ParseFeedTime(rec.SpotTime)
	if err != nil {
		return Spot{}, fmt.Errorf("spot %d: %w", *rec.SpotID, err)
	}

	return Spot{
		ID:        *rec.SpotID,
		Activator: strings.ToUpper(strings.TrimSpace(rec.Activator)),
		Frequency: float64(*rec.Frequency),
		Mode:      Mode(strings.ToUpper(strings.TrimSpace(rec.Mode))),
		Location:  Region(strings.ToUpper(strings.TrimSpace(rec.LocationDesc))),
		Reference: strings.TrimSpace(rec.Reference),
		ParkName:  deref(rec.ParkName),
		SiteName:  strings.TrimSpace(rec.Name),
		SpotTime:  ft.Normalize(),
		Spotter:   rec.Spotter,
		Comments:  deref(rec.Comments),
		Source:    rec.Source,
		Geo:       Geo{Lat: *rec.Latitude, Lon: *rec.Longitude},
		Grid4:     rec.Grid4,
		Grid6:     rec.Grid6,
		Count:     rec.Count,
		Expire:    rec.Expire,
	}, nil
}

// NormalizeSpots normalizes a whole feed, stopping at the first bad record.
func NormalizeSpots(recs []FeedRecord) ([]Spot, error) {
	spots := make([]Spot, 0, len(recs))
	for i, rec := range recs {
		s, err := NormalizeSpot(rec)
		if err != nil {
			return nil, fmt.Errorf("feed record %d: %w", i, err)
		}
		spots = append(spots, s)
	}
	return spots, nil
}

// describeValidation flattens validator errors into "field: tag" pairs.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
