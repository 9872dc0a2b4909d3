// Package session tracks the login state machine and the persisted active
// user. Persisting a user re-keys the certificate partition (see store), so a
// login or logout boundary switches the visible certificate collection.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lokankara/giftstore/internal/models"
	"github.com/Lokankara/giftstore/internal/pubsub"
	"github.com/Lokankara/giftstore/internal/store"
)

type Manager struct {
	Store *store.Store
	Log   *slog.Logger

	// State replays the current login state to late subscribers; Current
	// carries the active user, nil after logout.
	State   *pubsub.Broadcaster[models.LoginState]
	Current *pubsub.Broadcaster[*models.User]
}

func NewManager(st *store.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		Store:   st,
		Log:     log,
		State:   pubsub.NewWith(models.LoggedOut),
		Current: pubsub.New[*models.User](),
	}
	// pick the state up from the previous session
	m.State.Publish(st.ReadUser().State)
	return m
}

// User re-reads the persisted record; a missing record is a guest.
func (m *Manager) User() models.User {
	return m.Store.ReadUser()
}

func (m *Manager) Username() string {
	return m.User().Username
}

func (m *Manager) IsLoggedIn() bool {
	return m.User().State == models.LoggedIn
}

// Login marks the user logged in, broadcasts it as the current user, and
// persists it, which switches the certificate partition to their namespace.
func (m *Manager) Login(user models.User) error {
	user.State = models.LoggedIn
	if err := m.Save(user); err != nil {
		return err
	}
	m.State.Publish(user.State)
	m.Current.Publish(&user)
	m.Log.Info("user logged in", "username", user.Username)
	return nil
}

// Logout clears the current user, marks the record logged out and persists
// it. The record stays around so the partition can be revisited on the next
// login.
func (m *Manager) Logout(user models.User) error {
	user.State = models.LoggedOut
	if err := m.Save(user); err != nil {
		return err
	}
	m.Current.Publish(nil)
	m.State.Publish(user.State)
	m.Log.Info("user logged out", "username", user.Username)
	return nil
}

// Fail records an authentication failure without touching the stored user.
func (m *Manager) Fail(user models.User) {
	m.State.Publish(models.LoginFailed)
	m.Log.Warn("login failed", "username", user.Username)
}

// Save persists the user. The submitted password never reaches the store: it
// is folded into a bcrypt hash and cleared before the write.
func (m *Manager) Save(user models.User) error {
	if user.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
		user.Password = ""
	}
	if err := m.Store.WriteUser(user); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// VerifyPassword checks a submitted password against the persisted hash.
func VerifyPassword(user models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// Expired reports whether the user's access token has passed its expiry. The
// token is inspected without signature verification; the backend remains the
// authority. A missing or unreadable token counts as expired.
func Expired(user models.User, now time.Time) bool {
	if user.AccessToken == "" {
		return true
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(user.AccessToken, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
