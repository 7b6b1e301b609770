package booking

import "strings"

// Office is a testing location as the portal describes it. Field names
// follow the portal's JSON so the hidden Offices field decodes directly.
type Office struct {
	ID        int     `json:"Id"`
	Name      string  `json:"Name"`
	ShortName string  `json:"ShortName"`
	Address   string  `json:"Address"`
	Suburb    string  `json:"Suburb"`
	State     string  `json:"State"`
	Postcode  int     `json:"Postcode"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// Key is the case-insensitive lookup key for the office.
func (o Office) Key() string {
	return strings.ToLower(strings.TrimSpace(o.ShortName))
}

type PortalError struct {
	Message      string `json:"Message"`
	PropertyName string `json:"PropertyName"`
}

// VerifyResponse is the body returned by the identity verification POST.
type VerifyResponse struct {
	Response int           `json:"Response"`
	Errors   []PortalError `json:"Errors"`
}

// QueryResult is the body returned by appointment and location searches.
type QueryResult struct {
	Response int           `json:"Response"`
	Data     []BookingDate `json:"Data"`
	Errors   []PortalError `json:"Errors"`
}

type BookingDate struct {
	Slots               []BookingSlot `json:"Slots"`
	Date                string        `json:"Date"`
	DateDisplay         string        `json:"DateDisplay"`
	IsInitialSearchDate bool          `json:"IsInitialSearchDate"`
}

type BookingSlot struct {
	DisplayDate   string `json:"DisplayDate"`
	DisplayTime   string `json:"DisplayTime"`
	SlotDate      string `json:"SlotDate"`
	DateFormatted string `json:"DateFormatted"`
}

// Known response codes.
const (
	ResponseOK         = 1
	ResponseNoBookings = 2
	ResponseExpired    = 3
)
