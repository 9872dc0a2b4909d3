package models

import (
	"math"
	"time"
)

// Tag is a plain label attached to a certificate. Tags are referenced by id
// and never duplicated inside one certificate's tag set.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Certificate is a purchasable gift-certificate record. Favorite and Checkout
// are independent local flags: a certificate can be both favorited and in the
// cart. Count is the cart quantity and only carries meaning while Checkout is
// set.
type Certificate struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription"`
	Company          string    `json:"company"`
	Price            float64   `json:"price"`
	Duration         int       `json:"duration"`
	CreateDate       time.Time `json:"createDate"`
	LastUpdate       time.Time `json:"lastUpdate"`
	Favorite         bool      `json:"favorite"`
	Checkout         bool      `json:"checkout"`
	Path             string    `json:"path"`
	Tags             []Tag     `json:"tags"`
	Count            int       `json:"count"`
}

// NewCertificate returns the default record handed out for unknown ids.
func NewCertificate() Certificate {
	return Certificate{Tags: []Tag{}, Count: 1}
}

// HasTag reports whether the certificate carries a tag with the exact name.
func (c Certificate) HasTag(name string) bool {
	for _, tag := range c.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}

// Category is a denormalized tag with a preview image used for browsing; it is
// cached under its own key and is not the same shape as Tag.
type Category struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
	URL  string `json:"url"`
}

// Criteria narrows a certificate listing. Zero value matches everything.
type Criteria struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// LoginState is the user session state machine.
type LoginState int

const (
	Guest LoginState = iota
	LoggedOut
	LoggedIn
	LoginFailed
)

func (s LoginState) String() string {
	switch s {
	case Guest:
		return "GUEST"
	case LoggedOut:
		return "LOGGED_OUT"
	case LoggedIn:
		return "LOGGED_IN"
	case LoginFailed:
		return "LOGIN_FAILED"
	}
	return "UNKNOWN"
}

// User is the active account record. Password travels only during login
// submission and is never persisted in clear; PasswordHash is what survives a
// save. Certificates is a transient list used while composing an order.
type User struct {
	ID           int           `json:"id"`
	Username     string        `json:"username"`
	Password     string        `json:"password,omitempty"`
	PasswordHash string        `json:"password_hash,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiredAt    string        `json:"expired_at"`
	Certificates []Certificate `json:"certificates"`
	State        LoginState    `json:"state"`
	Invoices     []Invoice     `json:"invoices"`
	Bonuses      float64       `json:"bonuses"`
}

// GuestUsername is the namespace used before anyone logs in.
const GuestUsername = "user"

// NewGuest builds the default anonymous user created at first access.
func NewGuest() User {
	return User{
		ID:           0,
		Username:     GuestUsername,
		State:        Guest,
		Certificates: []Certificate{},
		Invoices:     []Invoice{},
		Bonuses:      0.8,
	}
}

// Invoice records one successful checkout: which certificates were bought, in
// what quantities, and the total cost at the time of purchase.
type Invoice struct {
	ID             string    `json:"id"`
	Cost           float64   `json:"cost"`
	OrderDate      time.Time `json:"orderDate"`
	CertificateIDs []string  `json:"certificateIds"`
	Counters       []int     `json:"counters"`
}

// CertificateDraft is the body of a create-certificate submission. Duration is
// the number of days until the chosen expiry date.
type CertificateDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Duration    int     `json:"duration"`
	Tags        []Tag   `json:"tags"`
	Path        string  `json:"path"`
}

// DurationUntil converts an expiry date into whole days from now, rounding up.
// A certificate must last at least one day.
func DurationUntil(expiry time.Time, now time.Time) int {
	d := expiry.Sub(now)
	if d < 0 {
		d = -d
	}
	days := int(math.Ceil(d.Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days
}
