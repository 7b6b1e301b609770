package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/rs/zerolog"
)

// Authenticator runs the portal handshake once per call:
// details page -> identity POST -> appointments page -> consent POSTs.
// Retrying is the caller's job.
type Authenticator struct {
	Transport     Transport
	Extractor     TokenExtractor
	LicenseNumber string
	LastName      string
	Log           zerolog.Logger

	Now func() time.Time
}

func (a *Authenticator) Authenticate(ctx context.Context) (Session, error) {
	ex := a.extractor()

	a.Log.Info().Msg("getting Manage/Details to retrieve TtyghsS")
	page, err := a.Transport.Get(ctx, pathDetails)
	if err != nil {
		// the identity POST is often still accepted without it
		a.Log.Warn().Err(err).Msg("details page request failed")
	}
	ttyghss, dup := ex.Extract(page, markerTtyghss)
	if dup {
		a.Log.Warn().Msg("duplicate TtyghsS on details page, using the first")
	}
	if ttyghss == "" {
		a.Log.Warn().Msg("TtyghsS is empty, verification will likely fail")
	} else {
		a.Log.Info().Bool("success", true).Str("ttyghss", ttyghss).Msg("extracted TtyghsS")
	}

	a.Log.Info().Msg("sending details")
	body, err := a.Transport.PostForm(ctx, pathDetails, map[string]string{
		"VerificationToken": placeholderToken,
		"clientId":          a.LicenseNumber,
		"familyNameOne":     a.LastName,
		markerTtyghss:       ttyghss,
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", internaltypes.ErrVerificationFailed, err)
	}
	var vr booking.VerifyResponse
	if err := json.Unmarshal(body, &vr); err != nil {
		return Session{}, fmt.Errorf("%w: decode response: %v", internaltypes.ErrVerificationFailed, err)
	}
	logPortalErrors(a.Log, vr.Errors)
	if vr.Response != booking.ResponseOK {
		return Session{}, fmt.Errorf("%w: response code %d", internaltypes.ErrVerificationFailed, vr.Response)
	}

	a.Log.Info().Msg("getting Manage/Appointments to retrieve verification token")
	page, err = a.Transport.Get(ctx, pathAppointments)
	if err != nil {
		a.Log.Error().Err(err).Msg("appointments page request failed")
	}
	token, _ := ex.Extract(page, markerVerification)
	if token == "" {
		a.Log.Error().Msg("verification token is empty, queries will likely fail")
	} else {
		a.Log.Info().Bool("success", true).Str("token", token).Msg("extracted verification token")
	}

	// Appointment search stays locked until both of these are posted.
	// Their bodies carry nothing we use and a failure only shows up later
	// as a session-invalid query, so they are logged and not fatal.
	if _, err := a.Transport.PostForm(ctx, pathChangeAppt, map[string]string{
		"VerificationToken": token,
		"appointmentNumber": placeholderAppointment,
	}); err != nil {
		a.Log.Warn().Err(err).Msg("change appointment consent failed")
	}
	if _, err := a.Transport.PostForm(ctx, pathTerms, map[string]string{
		"VerificationTokenForm": token,
		"blank":                 "True",
		"Submit":                "Continue",
	}); err != nil {
		a.Log.Warn().Err(err).Msg("terms and conditions acceptance failed")
	}

	return Session{Token: token, IssuedAt: a.now()}, nil
}

func (a *Authenticator) extractor() TokenExtractor {
	if a.Extractor != nil {
		return a.Extractor
	}
	return LineScanner{DigitsOnly: true}
}

func (a *Authenticator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func logPortalErrors(log zerolog.Logger, errs []booking.PortalError) {
	for _, e := range errs {
		log.Error().Str("property", e.PropertyName).Msgf("portal error: %s", e.Message)
	}
}
