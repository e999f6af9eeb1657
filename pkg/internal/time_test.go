package internal_test

import (
	"testing"
	"time"

	"github.com/mtldev514/retro-portfolio-maker-sub000/pkg/internal"
	"github.com/stretchr/testify/require"
)

func TestFixedClockFormats(t *testing.T) {
	t.Parallel()
	clock := internal.NewFixedClock(time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC))

	require.Equal(t, "2025-03-09", internal.Today(clock))
	require.Equal(t, "20250309-140507", internal.Stamp(clock))
	require.Equal(t, "2025-03-09T14:05:07Z", internal.ISO8601(clock))
}

func TestClockOrReal(t *testing.T) {
	t.Parallel()
	require.IsType(t, internal.RealClock{}, internal.ClockOrReal(nil))
	require.Len(t, internal.Today(nil), len("2006-01-02"))
}
