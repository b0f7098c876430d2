package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLogin_ThenLogout(t *testing.T) {
	sut, _, _ := setupService(t)
	ctx := context.Background()

	session, err := sut.Login(ctx, shopper, "a@b.com", "a")
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", session.Email)
	assert.Equal(t, "a", session.Name)
	assert.True(t, sut.IsLoggedIn(ctx, shopper))

	require.NoError(t, sut.Logout(ctx, shopper))
	assert.False(t, sut.IsLoggedIn(ctx, shopper))
	assert.Nil(t, sut.CurrentUser(ctx, shopper))
}

func TestLogout_WithoutLogin(t *testing.T) {
	sut, _, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, sut.Logout(ctx, shopper))
	assert.False(t, sut.IsLoggedIn(ctx, shopper))
}

func TestLogin_RecordsTimestampAndOverwrites(t *testing.T) {
	sut, _, _ := setupService(t)
	ctx := context.Background()
	sut.now = fixedClock(time.Date(2026, 10, 18, 9, 30, 0, 0, time.FixedZone("CEST", 2*60*60)))

	_, err := sut.Login(ctx, shopper, "first@test.com", "first")
	require.NoError(t, err)
	_, err = sut.Login(ctx, shopper, "test@test.com", "test")
	require.NoError(t, err)

	user := sut.CurrentUser(ctx, shopper)
	require.NotNil(t, user)
	assert.Equal(t, "test@test.com", user.Email)
	assert.Equal(t, "2026-10-18T07:30:00.000Z", user.LoggedInAt)
}

func TestCurrentUser_MalformedSession(t *testing.T) {
	sut, store, _ := setupService(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, sessionKey(shopper), []byte(`null`)))
	assert.False(t, sut.IsLoggedIn(ctx, shopper))

	require.NoError(t, store.Set(ctx, sessionKey(shopper), []byte(`{broken`)))
	assert.False(t, sut.IsLoggedIn(ctx, shopper))
}

func TestLogin_StorageError(t *testing.T) {
	sut := NewCartService(failingStore{err: fmt.Errorf("database error")}, &mockNotifier{}, zaptest.NewLogger(t))

	session, err := sut.Login(context.Background(), shopper, "a@b.com", "a")
	require.ErrorContains(t, err, "database error")
	assert.Nil(t, session)
}

func TestSessionDoesNotTouchCart(t *testing.T) {
	sut, _, _ := setupService(t)
	ctx := context.Background()
	require.NoError(t, sut.AddToCart(ctx, shopper, hub, 2))

	_, err := sut.Login(ctx, shopper, "a@b.com", "a")
	require.NoError(t, err)
	require.NoError(t, sut.Logout(ctx, shopper))

	assert.Equal(t, 2, sut.CartCount(ctx, shopper))
}
