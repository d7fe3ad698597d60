package throttle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{},
		{TotalNPerSec: 1, TotalBurst: 1},
		{TotalNPerSec: 5, TotalBurst: 1, EachKeyNPerSec: 1, EachKeyBurst: 1},
	} {
		_, err := New(cfg)
		require.Error(t, err)
	}
}

func TestAllow(t *testing.T) {
	t.Parallel()

	th, err := New(Config{
		TotalNPerSec: 1, TotalBurst: 5,
		EachKeyNPerSec: 1, EachKeyBurst: 2,
	})
	require.NoError(t, err)

	require.True(t, th.Allow("a"))
	require.True(t, th.Allow("a"))
	require.False(t, th.Allow("a"), "per key burst exhausted")

	require.True(t, th.Allow("b"))
	require.True(t, th.Allow("b"))
	// the global budget of 5 has one token left after a, a, b, b
	require.True(t, th.Allow("c"))
	require.False(t, th.Allow("d"), "global burst exhausted")
}
