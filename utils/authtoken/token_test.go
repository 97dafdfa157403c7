package authtoken

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Verify(t *testing.T) {
	t.Parallel()

	m := NewManager("test-secret", "http://localhost:3000")

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		id := uuid.Must(uuid.NewV7())
		token, err := m.Sign(id, time.Hour)
		require.NoError(t, err)

		got, err := m.Verify(token)
		if assert.NoError(t, err) {
			assert.Equal(t, id, got)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		token, err := m.Sign(uuid.Must(uuid.NewV7()), -time.Minute)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		other := NewManager("other-secret", "http://localhost:3000")
		token, err := other.Sign(uuid.Must(uuid.NewV7()), time.Hour)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		t.Parallel()

		other := NewManager("test-secret", "http://evil.example.com")
		token, err := other.Sign(uuid.Must(uuid.NewV7()), time.Hour)
		require.NoError(t, err)

		_, err = m.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := m.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
