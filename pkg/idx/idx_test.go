package idx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewProducesDistinctSortedIDs(t *testing.T) {
	t.Parallel()

	const n = 1000
	seen := make(map[ID]struct{}, n)

	var prev ID
	for range n {
		id := New()
		require.NotEmpty(t, id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}

		if prev != Zero {
			require.Less(t, prev.String(), id.String())
		}
		prev = id
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("round trips a generated id", func(t *testing.T) {
		id := New()
		parsed, err := Parse(id.String())
		require.NoError(t, err)
		require.Equal(t, id, parsed)
	})

	t.Run("rejects empty and malformed input", func(t *testing.T) {
		for _, bad := range []string{"", "  ", "not-a-ulid", "01BX5ZZKBKACTAV9WEVGEMMVR"} {
			_, err := Parse(bad)
			require.ErrorIs(t, err, ErrInvalid)
		}
	})
}

func TestTimeComponent(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	id := NewAt(at)
	require.WithinDuration(t, at, id.Time(), time.Millisecond)
}
