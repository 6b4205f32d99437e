package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidSpot is returned when a feed record is missing required fields or
// carries values that cannot be parsed.
var ErrInvalidSpot = errors.New("invalid spot")

// FeedRecord is one element of the POTA activator feed, decoded as-is.
// Pointer fields distinguish "absent" from a zero value for validation.
type FeedRecord struct {
	SpotID       *int64      `json:"spotId" validate:"required"`
	Activator    string      `json:"activator" validate:"required"`
	Frequency    *FeedNumber `json:"frequency" validate:"required,gt=0"`
	Mode         string      `json:"mode" validate:"required"`
	Reference    string      `json:"reference" validate:"required"`
	ParkName     *string     `json:"parkName"`
	SpotTime     string      `json:"spotTime" validate:"required"`
	Spotter      string      `json:"spotter"`
	Comments     *string     `json:"comments"`
	Source       string      `json:"source"`
	Name         string      `json:"name"`
	LocationDesc string      `json:"locationDesc" validate:"required"`
	Grid4        string      `json:"grid4"`
	Grid6        string      `json:"grid6"`
	Latitude     *float64    `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude    *float64    `json:"longitude" validate:"required,min=-180,max=180"`
	Count        int         `json:"count"`
	Expire       int         `json:"expire"` // seconds until POTA drops the spot
}

// FeedNumber decodes a JSON number that the feed may also send as a string.
type FeedNumber float64

func (n *FeedNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(data)), 64)
	if err != nil {
		return fmt.Errorf("parse feed number %q: %w", data, err)
	}
	*n = FeedNumber(v)
	return nil
}

// DecodeFeedRecord decodes one element of the feed array. A field that
// cannot be decoded makes the record invalid; the error wraps ErrInvalidSpot.
func DecodeFeedRecord(raw json.RawMessage) (FeedRecord, error) {
	var rec FeedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return FeedRecord{}, fmt.Errorf("%w: %v", ErrInvalidSpot, err)
	}
	return rec, nil
}

// DecodeFeedRecords decodes each element separately, stopping at the first
// record that cannot be decoded.
func DecodeFeedRecords(raws []json.RawMessage) ([]FeedRecord, error) {
	recs := make([]FeedRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := DecodeFeedRecord(raw)
		if err != nil {
			return nil, fmt.Errorf("feed record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Spot is a validated, normalized activator sighting. SpotTime always carries
// an explicit location.
type Spot struct {
	ID        int64     `json:"id"`
	Activator string    `json:"activator"`
	Frequency float64   `json:"frequency_khz"`
	Mode      Mode      `json:"mode"`
	Location  Region    `json:"location"`
	Reference string    `json:"reference"`
	ParkName  string    `json:"park_name,omitempty"`
	SiteName  string    `json:"site_name"`
	SpotTime  time.Time `json:"spot_time"`
	Spotter   string    `json:"spotter"`
	Comments  string    `json:"comments,omitempty"`
	Source    string    `json:"source"`
	Geo       Geo       `json:"geo"`
	Grid4     string    `json:"grid4"`
	Grid6     string    `json:"grid6"`
	Count     int       `json:"count"`
	Expire    int       `json:"expire"`
}

// EnrichedSpot is a selected spot plus its operator identity and band.
type EnrichedSpot struct {
	Spot
	Identity Identity `json:"identity"`
	Band     Band     `json:"band"`
}
