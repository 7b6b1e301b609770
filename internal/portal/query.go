package portal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/rs/zerolog"
)

type Status int

const (
	StatusSessionInvalid Status = iota
	StatusAppointments
	StatusNoBookings
)

func (s Status) String() string {
	switch s {
	case StatusAppointments:
		return "appointments"
	case StatusNoBookings:
		return "no_bookings"
	default:
		return "session_invalid"
	}
}

// Outcome is the classified result of one office query.
type Outcome struct {
	Status Status
	// Code is the raw response code, 0 when the body could not be read.
	Code int
	booking.Evaluation
}

// Poller queries one office at a time with the current session.
type Poller struct {
	Transport Transport
	Location  *time.Location
	Log       zerolog.Logger
}

// QueryOffice posts an appointment search for office and evaluates the
// returned slots against w. A non-nil error always comes with
// StatusSessionInvalid, including when a date or slot time in an otherwise
// successful response cannot be parsed.
func (p *Poller) QueryOffice(ctx context.Context, s Session, office booking.Office, w booking.AlertWindow) (Outcome, error) {
	log := p.Log.With().Str("office", office.ShortName).Logger()

	log.Info().Msg("sending appointment times request")
	body, err := p.Transport.PostForm(ctx, pathAppointmentQry, map[string]string{
		"VerificationToken": s.Token,
		"startDate":         w.MinDate.Format("2006-01-02"),
		"officeId":          strconv.Itoa(office.ID),
	})
	if err != nil {
		return Outcome{Status: StatusSessionInvalid}, fmt.Errorf("%w: %v", internaltypes.ErrSessionInvalid, err)
	}

	var res booking.QueryResult
	if err := json.Unmarshal(body, &res); err != nil {
		return Outcome{Status: StatusSessionInvalid}, fmt.Errorf("%w: decode response: %v", internaltypes.ErrSessionInvalid, err)
	}
	logPortalErrors(log, res.Errors)

	out := Outcome{Code: res.Response, Status: Classify(res.Response)}
	switch out.Status {
	case StatusNoBookings:
		log.Info().Msg("no bookings found for the specified times")
		return out, nil
	case StatusSessionInvalid:
		return out, fmt.Errorf("%w: response code %d", internaltypes.ErrSessionInvalid, res.Response)
	}

	out.Evaluation = booking.Evaluate(res.Data, w, p.Location)
	if len(out.Skipped) > 0 {
		for _, err := range out.Skipped {
			log.Error().Err(err).Msg("undecodable booking entry")
		}
		// a body we cannot read is treated like an expired session
		out.Status = StatusSessionInvalid
		return out, fmt.Errorf("%w: %w", internaltypes.ErrSessionInvalid, errors.Join(out.Skipped...))
	}
	return out, nil
}

// Classify maps an appointment query response code onto a Status.
func Classify(code int) Status {
	switch code {
	case booking.ResponseOK:
		return StatusAppointments
	case booking.ResponseNoBookings:
		return StatusNoBookings
	default:
		return StatusSessionInvalid
	}
}
