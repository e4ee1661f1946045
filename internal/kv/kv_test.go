package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFile(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   fileStore,
		"redis":  NewRedis(client, "test:"),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "kirshify_mock_user")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "kirshify_mock_user", []byte(`{"id":"1"}`)))
			got, err := s.Get(ctx, "kirshify_mock_user")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"1"}`, string(got))

			require.NoError(t, s.Set(ctx, "kirshify_mock_user", []byte(`{"id":"2"}`)))
			got, err = s.Get(ctx, "kirshify_mock_user")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"2"}`, string(got))

			require.NoError(t, s.Delete(ctx, "kirshify_mock_user"))
			_, err = s.Get(ctx, "kirshify_mock_user")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting a missing key is not an error
			assert.NoError(t, s.Delete(ctx, "kirshify_mock_user"))
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "kirshify_mock_users_v1", []byte(`[]`)))

	second, err := NewFile(dir)
	require.NoError(t, err)
	got, err := second.Get(ctx, "kirshify_mock_users_v1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", ".."} {
		assert.Error(t, f.Set(context.Background(), key, []byte("x")), key)
	}
}
