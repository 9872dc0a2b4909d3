// Package cache is the single authority for which certificates the active
// user currently knows about and in what state. It reconciles freshly fetched
// pages with the persisted collection, maintains the derived cart and favorite
// counters, and exposes them as reactive streams.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Lokankara/giftstore/internal/events"
	"github.com/Lokankara/giftstore/internal/models"
	"github.com/Lokankara/giftstore/internal/progress"
	"github.com/Lokankara/giftstore/internal/pubsub"
	"github.com/Lokankara/giftstore/internal/store"
)

// PageSize is the fixed size of one remote listing page.
const PageSize = 25

// tagSearchSize matches the size the web client requested on tag search.
const tagSearchSize = 100

// Loader is the slice of the remote gateway the cache needs.
type Loader interface {
	FetchPage(ctx context.Context, page int) ([]models.Certificate, error)
	FetchByTag(ctx context.Context, size int, name string) ([]models.Certificate, error)
}

type Cache struct {
	Store    *store.Store
	Loader   Loader
	Progress *progress.Indicator
	Events   *events.Sink
	Log      *slog.Logger

	// CartCount and FavoriteCount hold their last value for late
	// subscribers and emit only from UpdateOne's success path.
	CartCount     *pubsub.Broadcaster[int]
	FavoriteCount *pubsub.Broadcaster[int]

	// loading is a weak debounce against duplicate load requests, not a
	// lock. Two overlapping fetches can still merge against each other.
	loading bool
}

func New(st *store.Store, loader Loader, prog *progress.Indicator, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		Store:         st,
		Loader:        loader,
		Progress:      prog,
		Log:           log,
		CartCount:     pubsub.New[int](),
		FavoriteCount: pubsub.New[int](),
	}
}

// Merge concatenates existing then incoming, keeps the first occurrence per
// id, and sorts by creation date, newest first. Scanning existing first means
// an already-cached certificate wins over a refetched duplicate, so remote
// field changes do not reach the cache until the entry is evicted.
func Merge(existing, incoming []models.Certificate) []models.Certificate {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]models.Certificate, 0, len(existing)+len(incoming))
	for _, cert := range append(append([]models.Certificate{}, existing...), incoming...) {
		if _, ok := seen[cert.ID]; ok {
			continue
		}
		seen[cert.ID] = struct{}{}
		merged = append(merged, cert)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreateDate.After(merged[j].CreateDate)
	})
	return merged
}

// Filter narrows certificates by criteria: the name term matches name OR
// description case-insensitively, the tag term matches exact tag name
// membership, and both must hold. Empty criteria matches everything.
func Filter(certs []models.Certificate, criteria models.Criteria) []models.Certificate {
	name := strings.ToLower(criteria.Name)
	out := make([]models.Certificate, 0, len(certs))
	for _, cert := range certs {
		textMatch := name == "" ||
			strings.Contains(strings.ToLower(cert.Name), name) ||
			strings.Contains(strings.ToLower(cert.Description), name)
		tagMatch := criteria.Tag == "" || cert.HasTag(criteria.Tag)
		if textMatch && tagMatch {
			out = append(out, cert)
		}
	}
	return out
}

// Certificates re-reads the active partition from the persistent store.
func (c *Cache) Certificates() []models.Certificate {
	return c.Store.ReadCertificates()
}

// Size reports how many certificates the active partition holds.
func (c *Cache) Size() int {
	return len(c.Certificates())
}

// Save merges incoming records into the stored collection and persists the
// result. Counters are not emitted here; only UpdateOne emits.
func (c *Cache) Save(incoming []models.Certificate) error {
	merged := Merge(c.Certificates(), incoming)
	if err := c.Store.WriteCertificates(merged); err != nil {
		return fmt.Errorf("save certificates: %w", err)
	}
	return nil
}

// LoadMore fetches the next page and merges it in. The page index is derived
// from the stored size, floor(size/25), rather than a tracked cursor, so a
// load that has not yet grown the store past a page boundary re-requests the
// same page. A load already in flight makes this call a no-op.
func (c *Cache) LoadMore(ctx context.Context) error {
	if c.loading {
		return nil
	}
	c.loading = true
	c.Progress.Toggle()
	defer func() {
		c.loading = false
		c.Progress.Set(false)
	}()

	page := 0
	if size := c.Size(); size != 0 {
		page = size / PageSize
	}

	certs, err := c.Loader.FetchPage(ctx, page)
	if err != nil {
		return fmt.Errorf("load page %d: %w", page, err)
	}
	if err := c.Save(certs); err != nil {
		return err
	}
	c.Log.Info("certificates loaded", "page", page, "fetched", len(certs), "total", c.Size())
	return nil
}

// FindByTagName fetches certificates for one tag, merges them in, and returns
// the stored collection narrowed to that tag.
func (c *Cache) FindByTagName(ctx context.Context, name string) ([]models.Certificate, error) {
	certs, err := c.Loader.FetchByTag(ctx, tagSearchSize, name)
	if err != nil {
		return nil, fmt.Errorf("find by tag %q: %w", name, err)
	}
	if err := c.Save(certs); err != nil {
		return nil, err
	}
	return Filter(c.Certificates(), models.Criteria{Tag: name}), nil
}

// Search narrows the stored collection without touching the network.
func (c *Cache) Search(criteria models.Criteria) []models.Certificate {
	return Filter(c.Certificates(), criteria)
}

// GetByID returns the stored certificate, or a default record when the id is
// unknown. It never fails.
func (c *Cache) GetByID(id string) models.Certificate {
	for _, cert := range c.Certificates() {
		if cert.ID == id {
			return cert
		}
	}
	return models.NewCertificate()
}

// UpdateOne replaces the stored certificate with the same id. An unknown id is
// a silent no-op. After a successful replace both counters are recomputed and
// emitted: cart count as the sum of Count over checked-out entries, favorite
// count as the number of favorited entries.
func (c *Cache) UpdateOne(updated models.Certificate) error {
	certs := c.Certificates()
	index := -1
	for i, cert := range certs {
		if cert.ID == updated.ID {
			index = i
			break
		}
	}
	if index == -1 {
		return nil
	}

	certs[index] = updated
	if err := c.Store.WriteCertificates(certs); err != nil {
		return fmt.Errorf("update certificate %q: %w", updated.ID, err)
	}

	cartCount := 0
	favoriteCount := 0
	for _, cert := range certs {
		if cert.Checkout {
			cartCount += cert.Count
		}
		if cert.Favorite {
			favoriteCount++
		}
	}
	c.CartCount.Publish(cartCount)
	c.FavoriteCount.Publish(favoriteCount)

	c.Events.Publish(context.Background(), "certificate_updated", map[string]any{
		"id":            updated.ID,
		"checkout":      updated.Checkout,
		"favorite":      updated.Favorite,
		"cartCount":     cartCount,
		"favoriteCount": favoriteCount,
	})
	return nil
}

// ToggleCart flips the certificate's checkout flag, resetting the quantity to
// one, and stores the result.
func (c *Cache) ToggleCart(cert models.Certificate) error {
	cert.Checkout = !cert.Checkout
	cert.Count = 1
	return c.UpdateOne(cert)
}

// ToggleFavorite flips the certificate's favorite flag and stores the result.
func (c *Cache) ToggleFavorite(cert models.Certificate) error {
	cert.Favorite = !cert.Favorite
	return c.UpdateOne(cert)
}

// Favorites returns the favorited slice of the stored collection.
func (c *Cache) Favorites() []models.Certificate {
	out := make([]models.Certificate, 0)
	for _, cert := range c.Certificates() {
		if cert.Favorite {
			out = append(out, cert)
		}
	}
	return out
}

// Checkouts returns the certificates currently in the cart.
func (c *Cache) Checkouts() []models.Certificate {
	out := make([]models.Certificate, 0)
	for _, cert := range c.Certificates() {
		if cert.Checkout {
			out = append(out, cert)
		}
	}
	return out
}

// CountByTag reports how many stored certificates carry the tag.
func (c *Cache) CountByTag(name string) int {
	count := 0
	for _, cert := range c.Certificates() {
		if cert.HasTag(name) {
			count++
		}
	}
	return count
}
