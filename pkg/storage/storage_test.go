package storage

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/borshkit/pkg/registry"
)

func openTestStore(t *testing.T) *PayloadStore {
	t.Helper()

	reg, err := registry.Default()
	require.NoError(t, err)

	s, err := Open(t.TempDir(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func joinQuizPayload(t *testing.T) []byte {
	t.Helper()
	b, err := hex.DecodeString("00e1f505000000001027000000000000")
	require.NoError(t, err)
	return b
}

func TestPayloadStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	s.now = func() time.Time { return created }

	payload := joinQuizPayload(t)
	id, err := s.Put(ctx, registry.JoinQuiz, payload)
	require.NoError(t, err)
	assert.Equal(t, created.Unix(), id.Time().Unix())

	entry, err := s.Get(ctx, registry.JoinQuiz, id)
	require.NoError(t, err)
	assert.Equal(t, id, entry.ID)
	assert.Equal(t, registry.JoinQuiz, entry.Schema)
	assert.Equal(t, payload, entry.Payload)
	assert.True(t, created.Equal(entry.CreatedAt))
}

func TestPayloadStore_EmptyPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, "empty", nil)
	require.NoError(t, err)

	entry, err := s.Get(ctx, "empty", id)
	require.NoError(t, err)
	assert.Empty(t, entry.Payload)
}

func TestPayloadStore_FrameLayout(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Unix(0, 1) }

	id, err := s.Put(ctx, registry.JoinQuiz, []byte{0xAB})
	require.NoError(t, err)

	raw, closer, err := s.db.Get(key(registry.JoinQuiz, id))
	require.NoError(t, err)
	defer closer.Close()

	// crc32("\xab") = 0x930695ed, size 1, created_at 1, then the payload.
	assert.Equal(t, "ed950693"+"01000000"+"0100000000000000"+"ab", hex.EncodeToString(raw))
}

func TestPayloadStore_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, registry.JoinQuiz, ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.Delete(ctx, registry.JoinQuiz, ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayloadStore_SchemaScopesKeys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, registry.JoinQuiz, joinQuizPayload(t))
	require.NoError(t, err)

	_, err = s.Get(ctx, registry.ScoreEntry, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayloadStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, registry.JoinQuiz, joinQuizPayload(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, registry.JoinQuiz, id))

	_, err = s.Get(ctx, registry.JoinQuiz, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPayloadStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var want []ksuid.KSUID
	for i := range 3 {
		s.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		id, err := s.Put(ctx, "quiz", joinQuizPayload(t))
		require.NoError(t, err)
		want = append(want, id)
	}

	// A schema whose name extends the prefix must not leak into the listing.
	_, err := s.Put(ctx, "quiz/extra", []byte{1})
	require.NoError(t, err)
	_, err = s.Put(ctx, "quiz_other", []byte{1})
	require.NoError(t, err)

	ids, err := s.List(ctx, "quiz")
	require.NoError(t, err)
	assert.Equal(t, want, ids)

	ids, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPayloadStore_DetectsCorruption(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"flipped payload bit", func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b }},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-1] }},
		{"extra payload byte", func(b []byte) []byte { return append(b, 0) }},
		{"truncated header", func(b []byte) []byte { return b[:10] }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := openTestStore(t)
			ctx := context.Background()

			id, err := s.Put(ctx, registry.JoinQuiz, joinQuizPayload(t))
			require.NoError(t, err)

			k := key(registry.JoinQuiz, id)
			raw, closer, err := s.db.Get(k)
			require.NoError(t, err)
			frame := append([]byte(nil), raw...)
			require.NoError(t, closer.Close())

			require.NoError(t, s.db.Set(k, tc.mutate(frame), pebble.Sync))

			_, err = s.Get(ctx, registry.JoinQuiz, id)
			assert.ErrorIs(t, err, ErrCorruptPayload)
		})
	}
}

func TestPayloadStore_CanceledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, registry.JoinQuiz, joinQuizPayload(t))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Get(ctx, registry.JoinQuiz, ksuid.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen_RequiresHeaderSchema(t *testing.T) {
	reg, err := registry.New()
	require.NoError(t, err)

	_, err = Open(t.TempDir(), reg)
	assert.ErrorIs(t, err, registry.ErrUnknownSchema)
}

func TestUpperBound(t *testing.T) {
	assert.Equal(t, []byte("quiz0"), upperBound([]byte("quiz/")))
	assert.Equal(t, []byte{0x02}, upperBound([]byte{0x01, 0xff}))
	assert.Nil(t, upperBound([]byte{0xff, 0xff}))
}
