package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lokankara/giftstore/internal/cache"
	"github.com/Lokankara/giftstore/internal/config"
	"github.com/Lokankara/giftstore/internal/events"
	"github.com/Lokankara/giftstore/internal/exchange"
	"github.com/Lokankara/giftstore/internal/gateway"
	"github.com/Lokankara/giftstore/internal/logging"
	"github.com/Lokankara/giftstore/internal/orders"
	"github.com/Lokankara/giftstore/internal/progress"
	"github.com/Lokankara/giftstore/internal/scroll"
	"github.com/Lokankara/giftstore/internal/session"
	"github.com/Lokankara/giftstore/internal/store"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL).With("service", "storefront")
	slog.SetDefault(logger)

	st, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store open: %v", err)
	}

	var sink *events.Sink
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		sink = events.NewSink(brokers, cfg.KAFKA_TOPIC, logger)
		defer sink.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	ind := progress.New()
	gw := gateway.New(cfg.BASE_URL, cfg.SRC_URL, st, logger)
	users := session.NewManager(st, logger)
	certs := cache.New(st, gw, ind, logger)
	certs.Events = sink
	checkout := &orders.Service{
		Users:    users,
		Cache:    certs,
		Gateway:  gw,
		Progress: ind,
		Events:   sink,
		Log:      logger,
	}
	position := scroll.NewTracker(st)
	rates := exchange.NewService(cfg.NBU_URL)

	certs.CartCount.Subscribe(func(n int) {
		logger.Info("cart count changed", "count", n)
	})
	certs.FavoriteCount.Subscribe(func(n int) {
		logger.Info("favorite count changed", "count", n)
	})

	if err := run(ctx, logger, users, certs, gw, checkout, position, rates); err != nil {
		logger.Error("session ended with error", "error", err)
		os.Exit(1)
	}
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.UsePostgres() {
		return store.OpenPostgres(cfg.DB_HOST, cfg.DB_PORT, cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_NAME)
	}
	return store.OpenSQLite(cfg.STORE_PATH)
}

// run replays a typical browser session: restore position, load the catalog
// and categories, optionally log in, put something in the cart and check out.
func run(
	ctx context.Context,
	logger *slog.Logger,
	users *session.Manager,
	certs *cache.Cache,
	gw *gateway.Gateway,
	checkout *orders.Service,
	position *scroll.Tracker,
	rates *exchange.Service,
) error {
	if offset, ok := position.Restore(); ok {
		logger.Info("scroll position restored", "offset", offset)
	}

	if board, err := rates.Fetch(ctx); err != nil {
		logger.Warn("exchange rates unavailable", "error", err)
	} else {
		logger.Info("exchange rates loaded", "currencies", len(board))
	}

	if err := certs.LoadMore(ctx); err != nil {
		return err
	}
	logger.Info("catalog ready", "certificates", certs.Size())

	categories, err := gw.FetchTags(ctx, cache.PageSize)
	if err != nil {
		logger.Warn("categories unavailable", "error", err)
	} else if err := certs.Store.WriteCategories(categories); err != nil {
		logger.Warn("categories not cached", "error", err)
	}

	if username, password := os.Getenv("SHOP_USERNAME"), os.Getenv("SHOP_PASSWORD"); username != "" {
		guest := users.User()
		guest.Username = username
		guest.Password = password
		account, err := gw.Login(ctx, guest)
		if err != nil {
			users.Fail(guest)
			logger.Warn("login rejected", "username", username, "error", err)
		} else if err := users.Login(account); err != nil {
			return err
		}
	}

	listed := certs.Certificates()
	if len(listed) == 0 {
		logger.Info("empty catalog, nothing to do")
		return nil
	}

	if err := certs.ToggleCart(listed[0]); err != nil {
		return err
	}
	if session.Expired(users.User(), time.Now().UTC()) {
		logger.Info("session expired, checkout will be rejected without a fresh login")
	}

	msg, err := checkout.Send(ctx)
	logger.Info("checkout finished", "message", msg.Name, "color", msg.Color)
	if err != nil {
		logger.Warn("order not placed", "error", err)
	}

	return position.Save(0)
}
