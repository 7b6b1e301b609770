package portal

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/stretchr/testify/require"
)

var carlton = booking.Office{ID: 12, ShortName: "Carlton", Name: "Carlton CSC"}

func testWindow() booking.AlertWindow {
	return booking.AlertWindow{
		MinDate:   time.Date(2022, 4, 20, 0, 0, 0, 0, time.UTC),
		MaxDate:   time.Date(2022, 5, 15, 0, 0, 0, 0, time.UTC),
		MinTime:   9*time.Hour + 15*time.Minute,
		MaxTime:   15 * time.Hour,
		Exclusive: true,
	}
}

func newPoller(tr Transport) *Poller {
	return &Poller{Transport: tr, Location: time.UTC, Log: quietLog()}
}

func TestQueryOfficeRequest(t *testing.T) {
	tr := newFakeTransport().on("POST", pathAppointmentQry, `{"Response":2,"Data":[],"Errors":[]}`)

	_, err := newPoller(tr).QueryOffice(context.Background(), Session{Token: "424242"}, carlton, testWindow())
	require.NoError(t, err)

	reqs := tr.posts(pathAppointmentQry)
	require.Len(t, reqs, 1)
	require.Equal(t, map[string]string{
		"VerificationToken": "424242",
		"startDate":         "2022-04-20",
		"officeId":          "12",
	}, reqs[0].Form)
}

func TestQueryOfficeNoBookings(t *testing.T) {
	tr := newFakeTransport().on("POST", pathAppointmentQry, `{"Response":2,"Data":null,"Errors":[{"Message":"No appointments"}]}`)

	out, err := newPoller(tr).QueryOffice(context.Background(), Session{Token: "1"}, carlton, testWindow())
	require.NoError(t, err)
	require.Equal(t, StatusNoBookings, out.Status)
	require.Equal(t, 2, out.Code)
	require.Empty(t, out.Viable())
	require.False(t, out.AlertWorthy())
}

func TestQueryOfficeSessionInvalid(t *testing.T) {
	cases := map[string]*fakeTransport{
		"expired":   newFakeTransport().on("POST", pathAppointmentQry, `{"Response":3}`),
		"unknown":   newFakeTransport().on("POST", pathAppointmentQry, `{"Response":7}`),
		"not json":  newFakeTransport().on("POST", pathAppointmentQry, `<html>login</html>`),
		"transport": newFakeTransport().fail("POST", pathAppointmentQry, errors.New("timeout")),
	}
	for name, tr := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := newPoller(tr).QueryOffice(context.Background(), Session{Token: "1"}, carlton, testWindow())
			require.ErrorIs(t, err, internaltypes.ErrSessionInvalid)
			require.Equal(t, StatusSessionInvalid, out.Status)
		})
	}
}

func TestQueryOfficeViable(t *testing.T) {
	day := time.Date(2022, 4, 28, 0, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"Response":1,"Errors":[],"Data":[
		{"Date":"/Date(%d)/","DateDisplay":"Thu 28 Apr","Slots":[
			{"DisplayTime":"8:30 AM","DisplayDate":"Thursday, 28 April 2022"},
			{"DisplayTime":"12:00 PM","DisplayDate":"Thursday, 28 April 2022"}
		]}
	]}`, day.UnixMilli())
	tr := newFakeTransport().on("POST", pathAppointmentQry, body)

	out, err := newPoller(tr).QueryOffice(context.Background(), Session{Token: "1"}, carlton, testWindow())
	require.NoError(t, err)
	require.Equal(t, StatusAppointments, out.Status)
	require.True(t, out.AlertWorthy())
	require.Equal(t, 2, out.TotalSlots)
	v := out.Viable()
	require.Len(t, v, 1)
	require.Equal(t, "VIABLE: 8:30 AM on Thursday, 28 April 2022", v[0].String())
}

func TestClassify(t *testing.T) {
	require.Equal(t, StatusAppointments, Classify(1))
	require.Equal(t, StatusNoBookings, Classify(2))
	require.Equal(t, StatusSessionInvalid, Classify(3))
	require.Equal(t, StatusSessionInvalid, Classify(0))
	require.Equal(t, "session_invalid", StatusSessionInvalid.String())
}

func TestQueryOfficeUndecodableEntries(t *testing.T) {
	cases := map[string]string{
		"bad date": `{"Response":1,"Data":[
			{"Date":"garbage!","DateDisplay":"Thu 28 Apr","Slots":[{"DisplayTime":"8:30 AM","DisplayDate":"Thursday, 28 April 2022"}]}
		]}`,
		"bad time": fmt.Sprintf(`{"Response":1,"Data":[
			{"Date":"/Date(%d)/","DateDisplay":"Thu 28 Apr","Slots":[{"DisplayTime":"25:99 XM","DisplayDate":"Thursday, 28 April 2022"}]}
		]}`, time.Date(2022, 4, 28, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			tr := newFakeTransport().on("POST", pathAppointmentQry, body)

			out, err := newPoller(tr).QueryOffice(context.Background(), Session{Token: "1"}, carlton, testWindow())
			require.ErrorIs(t, err, internaltypes.ErrSessionInvalid)
			require.Equal(t, StatusSessionInvalid, out.Status)
			require.Equal(t, 1, out.Code)
			require.Len(t, out.Skipped, 1)
		})
	}
}
