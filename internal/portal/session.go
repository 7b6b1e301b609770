package portal

import "time"

const (
	pathDetails        = "/bookings/Manage/Details"
	pathAppointments   = "/bookings/Manage/Appointments"
	pathChangeAppt     = "/bookings/Manage/ChangeAppointment"
	pathTerms          = "/bookings/Transfer/TermsAndConditions"
	pathAppointmentQry = "/bookings/Appointment/GetAppointmentTimes"
	pathLocationSearch = "/bookings/Appointment/LocationSearch"
	pathOfficeSearch   = "/bookings/Appointment/AppointmentSearch"

	markerTtyghss      = "TtyghsS"
	markerVerification = "VerificationToken"
	markerOffices      = "Offices"

	// placeholder sent before the real verification token is known
	placeholderToken = "0"
	// consent call wants an appointment number; any well-formed one works
	placeholderAppointment = "167048747"
)

// Session is the credential a successful handshake yields. Once a query
// reports the session invalid the token must not be used again.
type Session struct {
	Token    string
	IssuedAt time.Time
}

func (s Session) Valid() bool { return !s.IssuedAt.IsZero() }
