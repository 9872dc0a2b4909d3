package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokankara/giftstore/internal/models"
	"github.com/Lokankara/giftstore/internal/store"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	return NewManager(st, nil)
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNewManager_StartsFromPersistedState(t *testing.T) {
	t.Parallel()

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)

	user := models.NewGuest()
	user.Username = "alice"
	user.State = models.LoggedIn
	require.NoError(t, st.WriteUser(user))

	m := NewManager(st, nil)
	state, ok := m.State.Last()
	require.True(t, ok)
	assert.Equal(t, models.LoggedIn, state)
	assert.True(t, m.IsLoggedIn())
}

func TestNewManager_FreshStoreIsGuest(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	state, ok := m.State.Last()
	require.True(t, ok)
	assert.Equal(t, models.Guest, state)
	assert.False(t, m.IsLoggedIn())
}

func TestLogin_TransitionsAndRekeysPartition(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	require.NoError(t, m.Store.WriteCertificates([]models.Certificate{{ID: "guest-1"}}))

	var states []models.LoginState
	m.State.Subscribe(func(s models.LoginState) { states = append(states, s) })

	var current *models.User
	m.Current.Subscribe(func(u *models.User) { current = u })

	user := models.NewGuest()
	user.Username = "alice"
	require.NoError(t, m.Login(user))

	assert.Equal(t, []models.LoginState{models.Guest, models.LoggedIn}, states)
	require.NotNil(t, current)
	assert.Equal(t, "alice", current.Username)
	assert.Equal(t, "alice_certificates", m.Store.CertificatesKey())

	// the guest partition is not visible from alice's scope
	assert.Empty(t, m.Store.ReadCertificates())
}

func TestLogout_ClearsCurrentAndPersistsState(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	user := models.NewGuest()
	user.Username = "alice"
	require.NoError(t, m.Login(user))

	var current *models.User = &user
	m.Current.Subscribe(func(u *models.User) { current = u })

	require.NoError(t, m.Logout(m.User()))
	assert.Nil(t, current)
	assert.Equal(t, models.LoggedOut, m.User().State)
	assert.False(t, m.IsLoggedIn())
}

func TestFail_BroadcastsWithoutPersisting(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	m.Fail(models.NewGuest())

	state, _ := m.State.Last()
	assert.Equal(t, models.LoginFailed, state)
	assert.Equal(t, models.Guest, m.User().State)
}

func TestSave_NeverPersistsClearPassword(t *testing.T) {
	t.Parallel()

	m := newTestManager(t)
	user := models.NewGuest()
	user.Username = "alice"
	user.Password = "hunter2"
	require.NoError(t, m.Save(user))

	stored := m.User()
	assert.Empty(t, stored.Password)
	require.NotEmpty(t, stored.PasswordHash)
	assert.True(t, VerifyPassword(stored, "hunter2"))
	assert.False(t, VerifyPassword(stored, "wrong"))
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()

	fresh := models.NewGuest()
	fresh.AccessToken = signedToken(t, now.Add(time.Hour))
	assert.False(t, Expired(fresh, now))

	stale := models.NewGuest()
	stale.AccessToken = signedToken(t, now.Add(-time.Hour))
	assert.True(t, Expired(stale, now))

	missing := models.NewGuest()
	assert.True(t, Expired(missing, now))

	garbage := models.NewGuest()
	garbage.AccessToken = "not-a-jwt"
	assert.True(t, Expired(garbage, now))
}
