package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/vicroadsq/internal/domain/booking"
	"github.com/example/vicroadsq/internal/internaltypes"
	"github.com/example/vicroadsq/internal/metrics"
	"github.com/example/vicroadsq/internal/portal"
	"github.com/rs/zerolog"
)

type State int

const (
	StateAuthenticating State = iota
	StatePolling
	StateEscalateWarning
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "AUTHENTICATING"
	case StatePolling:
		return "POLLING"
	case StateEscalateWarning:
		return "ESCALATE_WARNING"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Authenticator interface {
	Authenticate(ctx context.Context) (portal.Session, error)
}

type Poller interface {
	QueryOffice(ctx context.Context, s portal.Session, office booking.Office, w booking.AlertWindow) (portal.Outcome, error)
}

type Alerter interface {
	Warn(ctx context.Context)
	Success(ctx context.Context)
}

// SightingRecorder stores the viable slots found at an office.
type SightingRecorder interface {
	Record(ctx context.Context, office booking.Office, found []booking.Viable) error
}

// RetryState counts consecutive failures since the last success.
type RetryState struct {
	Attempts int
	Max      int
}

// Fail records a failure and reports whether the budget is spent.
func (r *RetryState) Fail() bool {
	r.Attempts++
	return r.Exhausted()
}

func (r *RetryState) Exhausted() bool {
	limit := r.Max
	if limit < 1 {
		limit = 1
	}
	return r.Attempts >= limit
}

func (r *RetryState) Reset() { r.Attempts = 0 }

// Snapshot is a copy of the controller's progress, safe to read from other
// goroutines.
type Snapshot struct {
	State       string    `json:"state"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	Office      string    `json:"office,omitempty"`
	Sessions    int       `json:"sessions"`
	Queries     int       `json:"queries"`
	LastQueryAt time.Time `json:"last_query_at"`
	LastViable  []string  `json:"last_viable,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// Controller drives the authenticate/poll loop over a fixed office list
// until the retry budget is spent or ctx is cancelled.
type Controller struct {
	Auth      Authenticator
	Poller    Poller
	Offices   []booking.Office
	Window    booking.AlertWindow
	Sleeper   Sleeper
	Alerter   Alerter
	Sightings SightingRecorder
	Metrics   *metrics.PollMetrics
	Log       zerolog.Logger

	QueryDelay     time.Duration
	RetryDelay     time.Duration
	MaxAttempts    int
	PrintSummaries bool

	mu   sync.Mutex
	snap Snapshot
}

// Run returns ErrRetriesExhausted once MaxAttempts consecutive failures have
// happened, after sounding the warning alert exactly once.
func (c *Controller) Run(ctx context.Context) error {
	if len(c.Offices) == 0 {
		return internaltypes.ErrNoOffices
	}

	retry := RetryState{Max: c.MaxAttempts}
	state := StateAuthenticating
	var sess portal.Session
	next := 0

	c.update(func(s *Snapshot) {
		s.StartedAt = time.Now()
		s.MaxAttempts = c.MaxAttempts
	})

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.update(func(s *Snapshot) { s.State = state.String() })
		c.setAttempts(retry.Attempts)

		switch state {
		case StateAuthenticating:
			s, err := c.Auth.Authenticate(ctx)
			if err == nil && !s.Valid() {
				err = fmt.Errorf("%w: authenticator returned no session", internaltypes.ErrVerificationFailed)
			}
			c.Metrics.ObserveAuth(err == nil)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				exhausted := retry.Fail()
				c.setAttempts(retry.Attempts)
				c.Log.Error().Err(err).Int("attempt", retry.Attempts).Int("max", c.MaxAttempts).Msg("authentication failed")
				if exhausted {
					state = StateEscalateWarning
					continue
				}
				c.Log.Info().Dur("delay", c.RetryDelay).Msgf("retrying verification (attempt %d/%d)", retry.Attempts, c.MaxAttempts)
				if err := c.sleep(ctx, c.RetryDelay); err != nil {
					return err
				}
				continue
			}
			c.Log.Info().Bool("success", true).Msg("verified")
			retry.Reset()
			sess = s
			next = 0
			state = StatePolling
			c.update(func(s *Snapshot) { s.Sessions++ })

		case StatePolling:
			if !sess.Valid() {
				state = StateAuthenticating
				continue
			}
			office := c.Offices[next]
			start := time.Now()
			out, err := c.Poller.QueryOffice(ctx, sess, office, c.Window)
			c.Metrics.ObserveQuery(office.Key(), out.Status.String(), time.Since(start).Seconds())
			c.update(func(s *Snapshot) {
				s.Office = office.ShortName
				s.Queries++
				s.LastQueryAt = time.Now()
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sess = portal.Session{}
				exhausted := retry.Fail()
				c.setAttempts(retry.Attempts)
				c.Log.Error().Err(err).Str("office", office.ShortName).
					Msgf("invalid response, resetting (attempt %d/%d)", retry.Attempts, c.MaxAttempts)
				if exhausted {
					state = StateEscalateWarning
					continue
				}
				if err := c.sleep(ctx, c.RetryDelay); err != nil {
					return err
				}
				state = StateAuthenticating
				continue
			}

			retry.Reset()
			c.report(ctx, office, out)
			next = (next + 1) % len(c.Offices)
			if err := c.sleep(ctx, c.QueryDelay); err != nil {
				return err
			}

		case StateEscalateWarning:
			c.Log.Error().Int("attempts", retry.Attempts).Msg("maximum retry attempts reached, giving up")
			c.Alerter.Warn(ctx)
			state = StateAborted

		case StateAborted:
			return fmt.Errorf("%w after %d attempts", internaltypes.ErrRetriesExhausted, retry.Attempts)
		}
	}
}

func (c *Controller) report(ctx context.Context, office booking.Office, out portal.Outcome) {
	log := c.Log.With().Str("office", office.ShortName).Logger()

	var lines []string
	for _, m := range out.Matches {
		log.Info().Bool("success", true).
			Msgf("found %d viable appointment(s) for %s on %s", len(m.Viable), office.ShortName, m.Date.Format("Monday, 2 January 2006"))
		for _, v := range m.Viable {
			log.Info().Msg(v.String())
			lines = append(lines, v.String())
		}
	}

	if c.PrintSummaries && out.Status == portal.StatusAppointments {
		log.Info().Msg("-------- RESPONSE SUMMARY BELOW --------")
		for _, s := range out.Summary {
			log.Info().Msg(s)
		}
		log.Info().Msg("-------- RESPONSE SUMMARY ENDED --------")
	}

	if !out.AlertWorthy() {
		if out.Status == portal.StatusAppointments {
			log.Info().Msgf("no viable appointments found (out of %d)", out.TotalSlots)
		}
		return
	}

	c.Metrics.ObserveViable(office.Key(), len(lines))
	c.update(func(s *Snapshot) { s.LastViable = lines })
	if c.Sightings != nil {
		if err := c.Sightings.Record(ctx, office, out.Viable()); err != nil {
			log.Warn().Err(err).Msg("recording sightings failed")
		}
	}
	c.Alerter.Success(ctx)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleeper == nil {
		return TimerSleeper{}.Sleep(ctx, d)
	}
	return c.Sleeper.Sleep(ctx, d)
}

func (c *Controller) setAttempts(n int) {
	c.update(func(s *Snapshot) { s.Attempts = n })
	c.Metrics.SetAttempts(n)
}

func (c *Controller) update(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.snap)
}

// Snapshot returns a copy of the current progress.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.LastViable = append([]string(nil), c.snap.LastViable...)
	if s.State == "" {
		s.State = StateAuthenticating.String()
	}
	return s
}

func (c *Controller) State() string { return c.Snapshot().State }
