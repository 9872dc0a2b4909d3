package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lokankara/giftstore/internal/apitest"
	"github.com/Lokankara/giftstore/internal/cache"
	"github.com/Lokankara/giftstore/internal/gateway"
	"github.com/Lokankara/giftstore/internal/models"
	"github.com/Lokankara/giftstore/internal/orders"
	"github.com/Lokankara/giftstore/internal/progress"
	"github.com/Lokankara/giftstore/internal/session"
	"github.com/Lokankara/giftstore/internal/store"
)

type env struct {
	API      *apitest.Server
	Store    *store.Store
	Gateway  *gateway.Gateway
	Cache    *cache.Cache
	Users    *session.Manager
	Checkout *orders.Service
}

func newEnv(t *testing.T) *env {
	t.Helper()

	api := apitest.NewServer()
	t.Cleanup(api.Close)

	st, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)

	ind := progress.New()
	gw := gateway.New(api.URL(), "https://source.example", st, nil)
	users := session.NewManager(st, nil)
	certs := cache.New(st, gw, ind, nil)

	return &env{
		API:     api,
		Store:   st,
		Gateway: gw,
		Cache:   certs,
		Users:   users,
		Checkout: &orders.Service{
			Users:    users,
			Cache:    certs,
			Gateway:  gw,
			Progress: ind,
		},
	}
}

func TestBrowseSession_PagesAccumulateWithoutDuplicates(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(30, "spa", "food")
	ctx := context.Background()

	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.Equal(t, 25, e.Cache.Size())

	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.Equal(t, 30, e.Cache.Size())

	// a third load re-requests the last partial page and merges to the same set
	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.Equal(t, 30, e.Cache.Size())

	certs := e.Cache.Certificates()
	for i := 1; i < len(certs); i++ {
		assert.False(t, certs[i-1].CreateDate.Before(certs[i].CreateDate))
	}
}

func TestBrowseSession_LocalFlagsSurviveRefetch(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(5)
	ctx := context.Background()

	require.NoError(t, e.Cache.LoadMore(ctx))
	first := e.Cache.Certificates()[0]
	require.NoError(t, e.Cache.ToggleFavorite(first))

	// refetching the same page must not clear the local favorite flag
	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.True(t, e.Cache.GetByID(first.ID).Favorite)
}

func TestLoginSwitchesCertificatePartition(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(3)
	ctx := context.Background()

	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.Equal(t, 3, e.Cache.Size())

	guest := e.Users.User()
	guest.Username = "alice"
	guest.Password = "pw"
	account, err := e.Gateway.Login(ctx, guest)
	require.NoError(t, err)
	require.NoError(t, e.Users.Login(account))

	// alice's partition starts empty and fills independently of the guest's
	assert.Equal(t, 0, e.Cache.Size())
	require.NoError(t, e.Cache.LoadMore(ctx))
	assert.Equal(t, 3, e.Cache.Size())

	require.NoError(t, e.Users.Logout(e.Users.User()))
	assert.Equal(t, "alice_certificates", e.Store.CertificatesKey())
}

func TestFullCheckoutFlow(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(4)
	ctx := context.Background()

	guest := e.Users.User()
	guest.Username = "alice"
	guest.Password = "pw"
	account, err := e.Gateway.Login(ctx, guest)
	require.NoError(t, err)
	require.NoError(t, e.Users.Login(account))

	require.NoError(t, e.Cache.LoadMore(ctx))
	listed := e.Cache.Certificates()
	require.NoError(t, e.Cache.ToggleCart(listed[0]))
	require.NoError(t, e.Cache.ToggleCart(listed[1]))

	msg, err := e.Checkout.Send(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg.Name, "alice")
	assert.Equal(t, "green", msg.Color)

	require.Len(t, e.API.Orders, 1)
	assert.Equal(t, "alice", e.API.Orders[0].Username)
	assert.Equal(t, "Bearer access-alice", e.API.Orders[0].Authorization)

	assert.Empty(t, e.Cache.Checkouts())
	require.Len(t, e.Users.User().Invoices, 1)
}

func TestCheckoutRejection_SurfacesMessageWithoutMutation(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(2)
	e.API.OrderStatus = http.StatusUnauthorized
	ctx := context.Background()

	require.NoError(t, e.Cache.LoadMore(ctx))
	require.NoError(t, e.Cache.ToggleCart(e.Cache.Certificates()[0]))

	msg, err := e.Checkout.Send(ctx)
	require.Error(t, err)
	assert.Equal(t, "red", msg.Color)
	assert.Len(t, e.Cache.Checkouts(), 1)
	assert.Empty(t, e.Users.User().Invoices)
}

func TestTagBrowsing(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.API.Seed(10, "spa", "food")
	ctx := context.Background()

	categories, err := e.Gateway.FetchTags(ctx, cache.PageSize)
	require.NoError(t, err)
	require.NoError(t, e.Store.WriteCategories(categories))
	assert.Len(t, e.Store.ReadCategories(), 2)

	found, err := e.Cache.FindByTagName(ctx, "spa")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	for _, cert := range found {
		assert.True(t, cert.HasTag("spa"))
	}
	assert.Equal(t, 5, e.Cache.CountByTag("spa"))
	assert.Len(t, e.Cache.Search(models.Criteria{Tag: "spa"}), 5)
}
