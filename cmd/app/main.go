package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/thrift-market/internal/auth"
	"github.com/wichananm65/thrift-market/internal/cart"
	"github.com/wichananm65/thrift-market/internal/category"
	"github.com/wichananm65/thrift-market/internal/checkout"
	"github.com/wichananm65/thrift-market/internal/config"
	"github.com/wichananm65/thrift-market/internal/database"
	"github.com/wichananm65/thrift-market/internal/httpx"
	"github.com/wichananm65/thrift-market/internal/lock"
	"github.com/wichananm65/thrift-market/internal/logger"
	"github.com/wichananm65/thrift-market/internal/order"
	"github.com/wichananm65/thrift-market/internal/product"
	"go.uber.org/zap"
)

// stores holds the repositories of one backend together with the committer
// that can write across them.
type stores struct {
	categories category.Repository
	products   product.Repository
	carts      cart.Repository
	orders     order.Repository
	committer  checkout.Committer
	close      func() error
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	}()

	locker, closeLocker := newLocker(cfg, log)
	defer closeLocker()

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(log)})
	httpx.Setup(app, log)

	categoryService := category.NewService(st.categories)
	categoryHandler := category.NewHandler(categoryService, log)
	productService := product.NewService(st.products, product.WithCategories(categoryService))
	productHandler := product.NewHandler(productService, log)
	cartHandler := cart.NewHandler(cart.NewService(st.carts, productService, log), log)
	orderHandler := order.NewHandler(order.NewService(st.orders, productService, log), log)
	engine := checkout.NewEngine(st.carts, productService, st.committer, locker, checkout.Options{
		MaxConcurrent: cfg.CheckoutMaxConcurrent,
		CommitTimeout: cfg.DBTimeout,
		Logger:        log,
	})
	checkoutHandler := checkout.NewHandler(engine, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return httpx.OK(c, fiber.StatusOK, "ok", fiber.Map{"store": cfg.Store})
	})
	categoryHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(auth.Middleware(cfg.JWTSecret, log))

	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	// checkout owns POST /api/v1/orders, the order handler the rest of /api/v1/orders
	checkoutHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("store", cfg.Store))
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on restart")
		carts := cart.NewInMemoryRepository()
		orders := order.NewInMemoryRepository()
		return &stores{
			categories: category.NewInMemoryRepository(category.Defaults),
			products:   product.NewInMemoryRepository(nil),
			carts:      carts,
			orders:     orders,
			committer:  checkout.NewMemoryCommitter(orders, carts),
			close:      func() error { return nil },
		}, nil

	case config.StorePostgres:
		openCtx, cancel := context.WithTimeout(ctx, cfg.DBTimeout)
		defer cancel()
		db, err := database.Open(openCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(openCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		if err := category.NewPostgresRepository(db).Seed(openCtx, category.Defaults); err != nil {
			db.Close()
			return nil, err
		}
		return postgresStores(db), nil
	}
	return nil, errors.New("unknown STORE " + cfg.Store)
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		categories: category.NewPostgresRepository(db),
		products:   product.NewPostgresRepository(db),
		carts:      cart.NewPostgresRepository(db),
		orders:     order.NewPostgresRepository(db),
		committer:  checkout.NewPostgresCommitter(db),
		close:      db.Close,
	}
}

// newLocker shares checkout locks through Redis when REDIS_ADDR is set, so
// several instances can serve one database.
func newLocker(cfg config.Config, log *zap.Logger) (lock.Locker, func()) {
	if cfg.RedisAddr == "" {
		return lock.NewKeyed(), func() {}
	}
	client := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	log.Info("using redis checkout locks", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedis(client, cfg.LockTTL, log), func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis", zap.Error(err))
		}
	}
}
