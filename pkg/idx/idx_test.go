package idx_test

import (
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/tokentrust/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNew_RoundTripsThroughParse(t *testing.T) {
	id := idx.New()
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(" " + id.String() + " ")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(in)
		require.ErrorIs(t, err, idx.ErrInvalid, "input %q", in)
	}
}

func TestNew_SortsInCreationOrder(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = idx.New().String()
	}
	require.True(t, sort.StringsAreSorted(ids))

	a := idx.NewAt(time.Unix(1, 0).UTC())
	b := idx.NewAt(time.Unix(2, 0).UTC())
	require.Less(t, a.String(), b.String())
}

func TestTime(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, tm, idx.NewAt(tm).Time(), time.Millisecond)
	require.True(t, idx.Zero.Time().IsZero())
}
