package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/example/vicroadsq/internal/portal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var errNope = errors.New("nope")

type fakeAuth struct {
	results []error
	calls   int
}

func (f *fakeAuth) Authenticate(ctx context.Context) (portal.Session, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.results) {
		err = f.results[i]
	} else if len(f.results) > 0 {
		err = f.results[len(f.results)-1]
	}
	if err != nil {
		return portal.Session{}, err
	}
	return portal.Session{Token: "tok", IssuedAt: time.Now()}, nil
}

type fakePoller struct {
	outcomes []portal.Outcome
	visited  []string
}

func (f *fakePoller) QueryOffice(ctx context.Context, s portal.Session, office booking.Office, w booking.AlertWindow) (portal.Outcome, error) {
	f.visited = append(f.visited, office.ShortName)
	i := len(f.visited) - 1
	if i >= len(f.outcomes) {
		i = len(f.outcomes) - 1
	}
	out := f.outcomes[i]
	if out.Status == portal.StatusSessionInvalid {
		return out, internaltypes.ErrSessionInvalid
	}
	return out, nil
}

// fakeSleeper records delays and cancels the run after stopAfter sleeps.
type fakeSleeper struct {
	slept     []time.Duration
	stopAfter int
	cancel    context.CancelFunc
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	if f.stopAfter > 0 && len(f.slept) >= f.stopAfter {
		f.cancel()
		return ctx.Err()
	}
	return nil
}

type fakeAlerter struct {
	mu        sync.Mutex
	warns     int
	successes int
}

func (f *fakeAlerter) Warn(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warns++
}

func (f *fakeAlerter) Success(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes++
}

type fakeSightings struct {
	recorded map[string]int
}

func (f *fakeSightings) Record(ctx context.Context, office booking.Office, found []booking.Viable) error {
	if f.recorded == nil {
		f.recorded = map[string]int{}
	}
	f.recorded[office.ShortName] += len(found)
	return nil
}

var testOffices = []booking.Office{
	{ID: 1, ShortName: "Carlton"},
	{ID: 2, ShortName: "Sunshine"},
	{ID: 3, ShortName: "Kew"},
}

const (
	queryDelay = 30 * time.Second
	retryDelay = 5 * time.Second
)

func newController(auth Authenticator, poller Poller, sl *fakeSleeper, al *fakeAlerter) *Controller {
	return &Controller{
		Auth:        auth,
		Poller:      poller,
		Offices:     testOffices,
		Sleeper:     sl,
		Alerter:     al,
		Log:         zerolog.New(io.Discard),
		QueryDelay:  queryDelay,
		RetryDelay:  retryDelay,
		MaxAttempts: 3,
	}
}

func viableOutcome() portal.Outcome {
	day := time.Date(2022, 4, 28, 0, 0, 0, 0, time.UTC)
	return portal.Outcome{
		Status: portal.StatusAppointments,
		Code:   1,
		Evaluation: booking.Evaluation{
			TotalSlots: 1,
			Matches: []booking.DateMatch{{
				Date:   day,
				Viable: []booking.Viable{{Date: day, DisplayTime: "8:30 AM", DisplayDate: "Thursday, 28 April 2022"}},
			}},
		},
	}
}

func TestRunAbortsAfterMaxAuthFailures(t *testing.T) {
	auth := &fakeAuth{results: []error{errNope}}
	sl := &fakeSleeper{}
	al := &fakeAlerter{}
	c := newController(auth, &fakePoller{}, sl, al)

	err := c.Run(context.Background())
	require.ErrorIs(t, err, internaltypes.ErrRetriesExhausted)
	require.Equal(t, 3, auth.calls)
	require.Equal(t, []time.Duration{retryDelay, retryDelay}, sl.slept)
	require.Equal(t, 1, al.warns)
	require.Equal(t, 0, al.successes)
	require.Equal(t, "ABORTED", c.State())
}

func TestRunNoBookingsDoesNotCountAsFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := &fakeAuth{results: []error{nil}}
	poller := &fakePoller{outcomes: []portal.Outcome{{Status: portal.StatusNoBookings, Code: 2}}}
	sl := &fakeSleeper{stopAfter: 7, cancel: cancel}
	al := &fakeAlerter{}
	c := newController(auth, poller, sl, al)

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, auth.calls)
	require.Equal(t, []string{"Carlton", "Sunshine", "Kew", "Carlton", "Sunshine", "Kew", "Carlton"}, poller.visited)
	for _, d := range sl.slept {
		require.Equal(t, queryDelay, d)
	}
	require.Equal(t, 0, c.Snapshot().Attempts)
	require.Equal(t, 0, al.warns)
}

func TestRunSessionInvalidReauthenticates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := &fakeAuth{results: []error{nil}}
	poller := &fakePoller{outcomes: []portal.Outcome{
		{Status: portal.StatusNoBookings, Code: 2},
		{Status: portal.StatusSessionInvalid, Code: 3},
		{Status: portal.StatusNoBookings, Code: 2},
	}}
	sl := &fakeSleeper{stopAfter: 3, cancel: cancel}
	c := newController(auth, poller, sl, &fakeAlerter{})

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 2, auth.calls)
	// Kew is abandoned; the new session starts over at the first office.
	require.Equal(t, []string{"Carlton", "Sunshine", "Carlton"}, poller.visited)
	require.Equal(t, []time.Duration{queryDelay, retryDelay, queryDelay}, sl.slept)
	require.Equal(t, 2, c.Snapshot().Sessions)
}

func TestRunSuccessResetsAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := &fakeAuth{results: []error{errNope, nil}}
	poller := &fakePoller{outcomes: []portal.Outcome{{Status: portal.StatusSessionInvalid}}}
	// auth retry sleep, then the session-invalid retry sleep
	sl := &fakeSleeper{stopAfter: 2, cancel: cancel}
	c := newController(auth, poller, sl, &fakeAlerter{})

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, c.Snapshot().Attempts)
}

func TestRunSessionInvalidExhausts(t *testing.T) {
	auth := &fakeAuth{results: []error{nil, errNope}}
	poller := &fakePoller{outcomes: []portal.Outcome{{Status: portal.StatusSessionInvalid, Code: 3}}}
	sl := &fakeSleeper{}
	al := &fakeAlerter{}
	c := newController(auth, poller, sl, al)

	err := c.Run(context.Background())
	require.ErrorIs(t, err, internaltypes.ErrRetriesExhausted)
	require.Equal(t, 3, auth.calls)
	require.Len(t, poller.visited, 1)
	require.Equal(t, []time.Duration{retryDelay, retryDelay}, sl.slept)
	require.Equal(t, 1, al.warns)
}

func TestRunViableAlertsAndRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := &fakeAuth{results: []error{nil}}
	poller := &fakePoller{outcomes: []portal.Outcome{viableOutcome()}}
	sl := &fakeSleeper{stopAfter: 1, cancel: cancel}
	al := &fakeAlerter{}
	rec := &fakeSightings{}
	c := newController(auth, poller, sl, al)
	c.Sightings = rec
	c.PrintSummaries = true

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, al.successes)
	require.Equal(t, map[string]int{"Carlton": 1}, rec.recorded)

	snap := c.Snapshot()
	require.Equal(t, []string{"VIABLE: 8:30 AM on Thursday, 28 April 2022"}, snap.LastViable)
	require.Equal(t, "Carlton", snap.Office)
	require.Equal(t, 1, snap.Queries)
}

func TestRunNoOffices(t *testing.T) {
	c := newController(&fakeAuth{}, &fakePoller{}, &fakeSleeper{}, &fakeAlerter{})
	c.Offices = nil
	require.ErrorIs(t, c.Run(context.Background()), internaltypes.ErrNoOffices)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	auth := &fakeAuth{results: []error{nil}}
	c := newController(auth, &fakePoller{}, &fakeSleeper{}, &fakeAlerter{})
	require.ErrorIs(t, c.Run(ctx), context.Canceled)
	require.Equal(t, 0, auth.calls)
}

func TestRetryState(t *testing.T) {
	r := RetryState{Max: 2}
	require.False(t, r.Fail())
	require.True(t, r.Fail())
	r.Reset()
	require.Equal(t, 0, r.Attempts)

	zero := RetryState{}
	require.True(t, zero.Fail())
}

func TestTimerSleeper(t *testing.T) {
	require.NoError(t, TimerSleeper{}.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, TimerSleeper{}.Sleep(ctx, time.Hour), context.Canceled)
}

type emptySessionAuth struct{ calls int }

func (a *emptySessionAuth) Authenticate(ctx context.Context) (portal.Session, error) {
	a.calls++
	return portal.Session{}, nil
}

func TestRunNeverPollsWithoutSession(t *testing.T) {
	auth := &emptySessionAuth{}
	poller := &fakePoller{}
	sl := &fakeSleeper{}
	al := &fakeAlerter{}
	c := newController(auth, poller, sl, al)

	err := c.Run(context.Background())
	require.ErrorIs(t, err, internaltypes.ErrRetriesExhausted)
	require.Equal(t, 3, auth.calls)
	require.Empty(t, poller.visited)
	require.Equal(t, 1, al.warns)
}
