package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/vicroadsq/internal/metrics"
	"github.com/rs/zerolog"
)

// Uptime reports how long the process has been running. It shares no state
// with the Controller.
type Uptime struct {
	Start    time.Time
	Interval time.Duration
	Metrics  *metrics.PollMetrics
	Log      zerolog.Logger

	now func() time.Time
}

func (u *Uptime) Run(ctx context.Context) error {
	if u.Start.IsZero() {
		u.Start = u.clock()
	}
	interval := u.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			u.tick()
		}
	}
}

func (u *Uptime) tick() {
	d := u.clock().Sub(u.Start)
	u.Metrics.SetUptime(d.Seconds())
	u.Log.Debug().Str("uptime", FormatUptime(d)).Msg("uptime")
}

func (u *Uptime) clock() time.Time {
	if u.now != nil {
		return u.now()
	}
	return time.Now()
}

// FormatUptime renders d as hours:mm:ss with unbounded hours.
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, (s/60)%60, s%60)
}
