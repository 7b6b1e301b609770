package alert

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestBell(out *bytes.Buffer, waits *[]time.Duration) *Bell {
	return &Bell{
		Out:     out,
		Alert:   DefaultAlert,
		Warning: DefaultWarning,
		Log:     zerolog.Nop(),
		sleep: func(ctx context.Context, d time.Duration) bool {
			*waits = append(*waits, d)
			return ctx.Err() == nil
		},
	}
}

func TestBellAlertPattern(t *testing.T) {
	var out bytes.Buffer
	var waits []time.Duration
	b := newTestBell(&out, &waits)

	b.Success(context.Background())
	require.Equal(t, strings.Repeat("\a", 15), out.String())
	require.Len(t, waits, 5*3+5)
	require.Equal(t, 75*time.Millisecond, waits[0])
	require.Equal(t, 500*time.Millisecond, waits[3])
}

func TestBellWarningPattern(t *testing.T) {
	var out bytes.Buffer
	var waits []time.Duration
	b := newTestBell(&out, &waits)

	b.Warn(context.Background())
	require.Equal(t, strings.Repeat("\a", 5), out.String())
	require.Equal(t, 600*time.Millisecond, waits[0])
	require.Equal(t, 100*time.Millisecond, waits[1])
}

func TestBellStopsOnCancel(t *testing.T) {
	var out bytes.Buffer
	var waits []time.Duration
	b := newTestBell(&out, &waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Play(ctx, DefaultAlert)
	require.Equal(t, "\a", out.String())
}

func TestBeepInfoTotal(t *testing.T) {
	require.Equal(t, 5*(3*75+500)*time.Millisecond, DefaultAlert.Total())
	require.Equal(t, 5*(600+100)*time.Millisecond, DefaultWarning.Total())
	require.Equal(t, time.Duration(0), BeepInfo{}.Total())
}
