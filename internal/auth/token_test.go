package auth

import (
	"errors"
	"testing"
	"time"

	"nf-quiz-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	acc := domain.Account{ID: "stu-1", Email: "ana@example.com", Role: domain.RoleStudent}

	raw, expires, err := tokens.Issue(acc)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.AccountID)
	assert.Equal(t, domain.RoleStudent, claims.Role)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	acc := domain.Account{ID: "lec-1", Role: domain.RoleLecturer}

	raw, _, err := NewTokens("secret", time.Hour).Issue(acc)
	require.NoError(t, err)
	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired := NewTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, _, err = expired.Issue(acc)
	require.NoError(t, err)
	_, err = NewTokens("secret", time.Minute).Parse(raw)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = NewTokens("secret", time.Minute).Parse("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "S3cret!"))
}
