// Package orders drives checkout: it composes the order from the checked-out
// certificates, submits it, and on success resets the cart state, appends the
// invoice to the user's history and persists the user.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Lokankara/giftstore/internal/cache"
	"github.com/Lokankara/giftstore/internal/events"
	"github.com/Lokankara/giftstore/internal/models"
	"github.com/Lokankara/giftstore/internal/progress"
	"github.com/Lokankara/giftstore/internal/session"
	"github.com/Lokankara/giftstore/internal/status"
)

// ErrValidation marks a checkout blocked before any network call.
var ErrValidation = errors.New("validation")

// Placer is the slice of the gateway checkout needs.
type Placer interface {
	PlaceOrder(ctx context.Context, user models.User, ids []string, counters []int) (int, error)
}

type Service struct {
	Users    *session.Manager
	Cache    *cache.Cache
	Gateway  Placer
	Progress *progress.Indicator
	Events   *events.Sink
	Log      *slog.Logger
}

// Send submits the current cart. The returned message is what the UI shows
// regardless of outcome; err reports whether the order went through.
func (s *Service) Send(ctx context.Context) (status.Message, error) {
	user := s.Users.User()
	user.Certificates = s.Cache.Checkouts()
	if len(user.Certificates) == 0 {
		return status.ForStatus(status.BadRequestOrder), fmt.Errorf("empty cart: %w", ErrValidation)
	}

	ids := make([]string, len(user.Certificates))
	counters := make([]int, len(user.Certificates))
	total := 0.0
	for i, cert := range user.Certificates {
		ids[i] = cert.ID
		counters[i] = cert.Count
		total += cert.Price * float64(cert.Count)
	}

	s.Progress.Toggle()
	code, err := s.Gateway.PlaceOrder(ctx, user, ids, counters)
	s.Progress.Set(false)

	if err != nil && code == 0 {
		// transport failure, no status to map
		return status.ForStatus(status.InternalServerError), fmt.Errorf("send order: %w", err)
	}
	if code != http.StatusCreated {
		s.log().Warn("order rejected", "username", user.Username, "status", code)
		return status.ForText(code, "Failed to send orders by "+user.Username), err
	}

	for _, cert := range user.Certificates {
		cert.Count = 1
		cert.Checkout = false
		if err := s.Cache.UpdateOne(cert); err != nil {
			s.log().Error("cart reset failed", "id", cert.ID, "error", err)
		}
	}

	invoice := models.Invoice{
		ID:             uuid.NewString(),
		Cost:           total,
		OrderDate:      time.Now().UTC(),
		CertificateIDs: ids,
		Counters:       counters,
	}
	user.Invoices = append(user.Invoices, invoice)
	user.Certificates = []models.Certificate{}
	if err := s.Users.Save(user); err != nil {
		return status.ForStatus(status.InternalServerError), err
	}

	s.Events.Publish(ctx, "order_created", map[string]any{
		"username": user.Username,
		"invoice":  invoice.ID,
		"cost":     total,
	})
	s.log().Info("order created", "username", user.Username, "invoice", invoice.ID, "cost", total)
	return status.ForText(status.CreatedOrder, user.Username), nil
}

// Invoices returns the persisted order history.
func (s *Service) Invoices() []models.Invoice {
	return s.Users.User().Invoices
}

func (s *Service) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
