package pkg

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpill(t *testing.T) {
	t.Run("NewTempSpill", func(t *testing.T) {
		spill, err := NewTempSpill[int]("spilltest")
		require.NoError(t, err)
		require.NotNil(t, spill)

		defer func() {
			require.NoError(t, spill.Close())
			require.NoError(t, os.Remove(spill.Path()))
		}()

		require.Contains(t, spill.Path(), "spilltest")
		require.Equal(t, uint64(0), spill.Len())
	})

	t.Run("Append and Range round trip", func(t *testing.T) {
		spill, err := NewTempSpill[string]("spilltest")
		require.NoError(t, err)

		defer func() {
			require.NoError(t, spill.Close())
			require.NoError(t, os.Remove(spill.Path()))
		}()

		require.NoError(t, spill.Append("first"))
		require.NoError(t, spill.Append("second"))
		require.Equal(t, uint64(2), spill.Len())

		var got []string

		err = spill.Range(func(_ uint64, item string) error {
			got = append(got, item)
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, []string{"first", "second"}, got)
	})

	t.Run("Range stops on callback error", func(t *testing.T) {
		spill, err := NewTempSpill[int]("spilltest")
		require.NoError(t, err)

		defer func() {
			require.NoError(t, spill.Close())
			require.NoError(t, os.Remove(spill.Path()))
		}()

		require.NoError(t, spill.Append(1))
		require.NoError(t, spill.Append(2))

		sentinel := errors.New("stop")
		calls := 0

		err = spill.Range(func(_ uint64, _ int) error {
			calls++
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 1, calls)
	})

	t.Run("structs survive the round trip", func(t *testing.T) {
		type record struct {
			Path    string
			Changed bool
		}

		spill, err := NewTempSpill[record]("spilltest")
		require.NoError(t, err)

		defer func() {
			require.NoError(t, spill.Close())
			require.NoError(t, os.Remove(spill.Path()))
		}()

		require.NoError(t, spill.Append(record{Path: "a.go", Changed: true}))

		err = spill.Range(func(_ uint64, r record) error {
			require.Equal(t, "a.go", r.Path)
			require.True(t, r.Changed)

			return nil
		})
		require.NoError(t, err)
	})
}
