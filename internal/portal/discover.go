package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/rs/zerolog"
)

// ErrBadLocation is returned when the portal rejects the search location.
var ErrBadLocation = errors.New("location search rejected, check postcode and coordinates")

type Location struct {
	Postcode  int
	Latitude  float64
	Longitude float64
}

// Discoverer finds the offices near a location. The portal answers the
// search by storing the office list in a hidden field of the next page.
type Discoverer struct {
	Transport Transport
	Extractor TokenExtractor
	Log       zerolog.Logger
}

func (d *Discoverer) Discover(ctx context.Context, s Session, loc Location) ([]booking.Office, error) {
	d.Log.Info().Int("postcode", loc.Postcode).Msg("sending location search request")
	body, err := d.Transport.PostForm(ctx, pathLocationSearch, map[string]string{
		"VerificationToken": s.Token,
		"postcode":          strconv.Itoa(loc.Postcode),
		"latitude":          strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		"longitude":         strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internaltypes.ErrSessionInvalid, err)
	}
	var res booking.QueryResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", internaltypes.ErrSessionInvalid, err)
	}
	logPortalErrors(d.Log, res.Errors)

	switch res.Response {
	case booking.ResponseOK:
	case booking.ResponseNoBookings:
		return nil, ErrBadLocation
	default:
		return nil, fmt.Errorf("%w: response code %d", internaltypes.ErrSessionInvalid, res.Response)
	}

	d.Log.Info().Msg("getting Appointment/AppointmentSearch to retrieve offices")
	page, err := d.Transport.Get(ctx, pathOfficeSearch)
	if err != nil {
		return nil, err
	}
	return ParseOffices(page, d.extractor())
}

// ParseOffices reads the office list out of the hidden Offices field.
func ParseOffices(page []byte, ex TokenExtractor) ([]booking.Office, error) {
	raw, _ := ex.Extract(page, markerOffices)
	if raw == "" {
		return nil, fmt.Errorf("no office data in response: %w", internaltypes.ErrNotFound)
	}
	var offices []booking.Office
	if err := json.Unmarshal([]byte(raw), &offices); err != nil {
		return nil, fmt.Errorf("parse office json: %w", err)
	}
	return offices, nil
}

func (d *Discoverer) extractor() TokenExtractor {
	if d.Extractor != nil {
		return d.Extractor
	}
	return FirstOf{DOMExtractor{}, LineScanner{}}
}
