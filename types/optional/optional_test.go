package optional_test

import (
	"testing"

	"github.com/ndncomm/ndn-go/types/optional"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	v := optional.None[int]()
	require.False(t, v.IsSet())
	require.Equal(t, 7, v.GetOr(7))

	v.Set(3)
	require.True(t, v.IsSet())
	require.Equal(t, 3, v.GetOr(7))
	require.Equal(t, 3, v.Unwrap())

	got, ok := v.Get()
	require.True(t, ok)
	require.Equal(t, 3, got)

	v.Unset()
	require.False(t, v.IsSet())
	require.Panics(t, func() { v.Unwrap() })

	w := optional.CastInt[int, uint64](optional.Some(5))
	require.Equal(t, uint64(5), w.Unwrap())
	require.False(t, optional.CastInt[int, uint64](optional.None[int]()).IsSet())
}
