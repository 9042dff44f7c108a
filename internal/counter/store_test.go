package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// testStore runs the behaviour every backend has to share.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get missing record", func(t *testing.T) {
		s := newStore(t)
		n, err := s.Get(ctx, "never-written")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)
	})

	t.Run("sequential increments", func(t *testing.T) {
		s := newStore(t)
		for i := int64(1); i <= 5; i++ {
			n, err := s.Increment(ctx, "views", CountField)
			require.NoError(t, err)
			assert.Equal(t, i, n)
		}
		n, err := s.Get(ctx, "views")
		require.NoError(t, err)
		assert.Equal(t, int64(5), n)
	})

	t.Run("concurrent increments", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Increment(ctx, "views", CountField)
		require.NoError(t, err)

		const k = 40
		var eg errgroup.Group
		for i := 0; i < k; i++ {
			eg.Go(func() error {
				_, err := s.Increment(ctx, "views", CountField)
				return err
			})
		}
		require.NoError(t, eg.Wait())

		n, err := s.Get(ctx, "views")
		require.NoError(t, err)
		assert.Equal(t, int64(1+k), n)
	})

	t.Run("fields are independent", func(t *testing.T) {
		s := newStore(t)
		n, err := s.Increment(ctx, "downloads", "total")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.Increment(ctx, "views", "unique")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = s.Get(ctx, "views")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		n, err = s.Increment(ctx, "downloads", "total")
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("get does not create", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "fresh")
		require.NoError(t, err)
		n, err := s.Increment(ctx, "fresh", CountField)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("rejects empty arguments", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = s.Increment(ctx, "views", "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = s.Increment(ctx, "", CountField)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
