package alert

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BeepInfo describes an alert pattern: Repeats groups of Burst beeps.
// Terminals cannot vary pitch or length, so Frequency and DurationMs only
// set the pause a beep occupies.
type BeepInfo struct {
	Repeats       int `yaml:"repeats" validate:"gte=0"`
	Frequency     int `yaml:"frequency" validate:"gte=0"`
	DurationMs    int `yaml:"duration_ms" validate:"gte=0"`
	Burst         int `yaml:"burst" validate:"gte=0"`
	RepeatDelayMs int `yaml:"repeat_delay_ms" validate:"gte=0"`
	BurstDelayMs  int `yaml:"burst_delay_ms" validate:"gte=0"`
}

var (
	DefaultAlert   = BeepInfo{Repeats: 5, Frequency: 2500, DurationMs: 75, Burst: 3, RepeatDelayMs: 500, BurstDelayMs: 0}
	DefaultWarning = BeepInfo{Repeats: 5, Frequency: 250, DurationMs: 600, Burst: 1, RepeatDelayMs: 100, BurstDelayMs: 0}
)

// Total is how long the pattern takes to play.
func (b BeepInfo) Total() time.Duration {
	per := time.Duration(b.Burst) * time.Duration(b.DurationMs+b.BurstDelayMs) * time.Millisecond
	return time.Duration(b.Repeats) * (per + time.Duration(b.RepeatDelayMs)*time.Millisecond)
}

// Bell plays BeepInfo patterns by writing BEL to a terminal.
type Bell struct {
	Out     io.Writer
	Alert   BeepInfo
	Warning BeepInfo
	Log     zerolog.Logger

	mu    sync.Mutex
	sleep func(ctx context.Context, d time.Duration) bool
}

func (b *Bell) Success(ctx context.Context) {
	b.Log.Info().Bool("success", true).Msg("playing alert tone")
	b.Play(ctx, b.Alert)
}

func (b *Bell) Warn(ctx context.Context) {
	b.Log.Warn().Msg("playing warning tone")
	b.Play(ctx, b.Warning)
}

// Play blocks until the pattern finishes or ctx is cancelled.
func (b *Bell) Play(ctx context.Context, info BeepInfo) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 0; i < info.Repeats; i++ {
		for j := 0; j < info.Burst; j++ {
			if _, err := io.WriteString(b.Out, "\a"); err != nil {
				b.Log.Warn().Err(err).Msg("bell write failed")
				return
			}
			if !b.wait(ctx, time.Duration(info.DurationMs+info.BurstDelayMs)*time.Millisecond) {
				return
			}
		}
		if !b.wait(ctx, time.Duration(info.RepeatDelayMs)*time.Millisecond) {
			return
		}
	}
}

func (b *Bell) wait(ctx context.Context, d time.Duration) bool {
	if b.sleep != nil {
		return b.sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
