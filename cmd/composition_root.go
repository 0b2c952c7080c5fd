package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	httpapi "partner/internal/adapters/in/http"
	"partner/internal/adapters/out/devicefeed"
	"partner/internal/adapters/out/kafkapub"
	"partner/internal/adapters/out/memstore"
	"partner/internal/adapters/out/osrm"
	"partner/internal/adapters/out/postgres"
	"partner/internal/adapters/out/redisstore"
	"partner/internal/adapters/out/simulated"
	"partner/internal/adapters/out/walletapi"
	"partner/internal/core/application/alert"
	"partner/internal/core/application/engine"
	"partner/internal/core/application/presence"
	"partner/internal/core/application/tracking"
	"partner/internal/core/application/usecases/commands"
	"partner/internal/core/application/usecases/queries"
	"partner/internal/core/ports"
	"partner/internal/jobs"
	"partner/internal/pkg/eventbus"

	"github.com/labstack/echo/v4"
	gommonlog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	offerPickupRadius = 2_000
	offerDropRadius   = 6_000
)

// CompositionRoot owns every long-lived component of the partner client and the
// order in which they start and stop.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB      *gorm.DB
	uowFactory  *postgres.GormUnitOfWorkFactory
	redisClient *redis.Client
	kafka       *kafkapub.Publisher

	bus      *eventbus.Bus
	store    ports.StateStore
	feed     *devicefeed.Feed
	hub      *httpapi.Hub
	presence *presence.Sync
	alert    *alert.Manager
	tracker  *tracking.Tracker
	engine   *engine.Engine
	jobs     *jobs.JobManager
	router   *echo.Echo
}

// NewCompositionRoot connects to the configured backends and wires the components.
// Postgres, Redis and Kafka are optional.
func NewCompositionRoot(ctx context.Context, cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:    cfg,
		logger: logger,
		bus:    eventbus.New(eventbus.DefaultBuffer, logger),
		feed:   devicefeed.New(),
		hub:    httpapi.NewHub(logger),
	}

	if err := c.connect(ctx); err != nil {
		c.Close()
		return nil, err
	}

	routes, err := osrm.NewClient(cfg.OSRMEndpoint, cfg.RouteTimeout)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("osrm client: %w", err)
	}
	walletClient, err := walletapi.NewClient(cfg.WalletURL, cfg.WalletToken, cfg.WalletTimeout)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("wallet client: %w", err)
	}

	c.presence = presence.NewSync(c.store, c.bus, logger)
	c.alert = alert.NewManager(simulated.NewAlertPlayer(cfg.AlertClip, logger), cfg.AlertGap, logger)

	trackerDeps := tracking.Deps{
		Geolocation: c.feed,
		Store:       c.store,
		Presence:    c.presence,
		Marker:      c.hub,
		Events:      c.bus,
	}
	if c.kafka != nil {
		trackerDeps.Publisher = c.kafka
	}
	c.tracker = tracking.NewTracker(tracking.DefaultConfig(), trackerDeps, logger)

	engineDeps := engine.Deps{
		Presence: c.presence,
		Alert:    c.alert,
		Routes:   routes,
		Store:    c.store,
		Events:   c.bus,
		Location: c.tracker,
	}
	if c.uowFactory != nil {
		engineDeps.Recorder = c.CreateRecordDeliveryCommandHandler()
	}
	c.engine = engine.New(cfg.EngineConfig(), engineDeps, logger)

	earnings := c.CreateGetEarningsSummaryQueryHandler(walletClient)

	jobDeps := jobs.Deps{
		Location: c.tracker,
		Presence: c.presence,
		Marker:   c.tracker,
		Earnings: earnings,
		Events:   c.bus,
	}
	if cfg.DemoOffers {
		jobDeps.Offers = c.CreateGenerateOfferCommandHandler(
			simulated.NewOfferSource(offerPickupRadius, offerDropRadius, uint64(time.Now().UnixNano())),
		)
	}
	c.jobs = jobs.NewJobManager(cfg.Schedules, jobDeps, logger)

	serverDeps := httpapi.Deps{
		Lifecycle: c.engine,
		Feed:      c.feed,
		Location:  c.tracker,
		Presence:  c.presence,
		Reject:    commands.NewRejectOfferCommandHandler(c.engine),
		Rating:    commands.NewSubmitRatingCommandHandler(c.engine),
		Toggle:    commands.NewTogglePresenceCommandHandler(c.presence),
		Earnings:  earnings,
		Hub:       c.hub,
	}
	if c.gormDB != nil {
		deliveries := queries.NewGetRecentDeliveriesQueryHandler(c.gormDB)
		serverDeps.Deliveries = &deliveries
	}
	c.router = httpapi.NewRouter(httpapi.NewServer(serverDeps), httpapi.Observe(logger))
	c.router.Logger.SetLevel(gommonlog.WARN)

	return c, nil
}

func (c *CompositionRoot) connect(ctx context.Context) error {
	if dsn := c.cfg.DSN(); dsn != "" {
		db, err := postgres.Open(dsn)
		if err != nil {
			return err
		}
		c.gormDB = db
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)
	}

	if c.cfg.RedisAddr != "" {
		client, err := redisstore.Connect(ctx, c.cfg.RedisAddr, c.cfg.RedisPassword, c.cfg.RedisDB)
		if err != nil {
			return err
		}
		c.redisClient = client
		store, err := redisstore.New(client, c.cfg.RedisChannel, c.logger)
		if err != nil {
			return err
		}
		c.store = store
	} else {
		c.logger.Warn("REDIS_ADDR is not set, client state is kept in memory")
		c.store = memstore.New()
	}

	if len(c.cfg.KafkaBrokers) > 0 {
		p, err := kafkapub.NewPublisher(c.cfg.KafkaBrokers, c.cfg.KafkaLocationTopic, c.cfg.PartnerID)
		if err != nil {
			return fmt.Errorf("kafka publisher: %w", err)
		}
		c.kafka = p
	}
	return nil
}

func (c *CompositionRoot) CreateRecordDeliveryCommandHandler() commands.RecordDeliveryCommandHandler {
	var f commands.DeliveryUoWFactory = FuncDeliveryUoWFactory(func() commands.DeliveryUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRecordDeliveryCommandHandler(f)
}

func (c *CompositionRoot) CreateGenerateOfferCommandHandler(source ports.OfferSource) commands.GenerateOfferCommandHandler {
	return commands.NewGenerateOfferCommandHandler(source, c.engine, c.presence)
}

// CreateGetEarningsSummaryQueryHandler reads trips from the delivery history when a
// database is configured.
func (c *CompositionRoot) CreateGetEarningsSummaryQueryHandler(
	walletClient ports.WalletClient,
) queries.GetEarningsSummaryQueryHandler {
	var history queries.DeliveryHistory
	if c.uowFactory != nil {
		history = c.uowFactory.Create().DeliveryRepository()
	}
	return queries.NewGetEarningsSummaryQueryHandler(walletClient, history, c.logger)
}

// Run starts every component and blocks until ctx is done or one of them fails,
// then shuts the HTTP server down and waits for the background loops.
func (c *CompositionRoot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	failed := make(chan error, 8)
	goFn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				failed <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	events, unsubscribeHub := c.bus.Subscribe()
	defer unsubscribeHub()
	goFn("hub", func(ctx context.Context) error {
		c.hub.Run(ctx, events)
		return nil
	})

	presenceChanges, unsubscribePresence := c.presence.Subscribe()
	defer unsubscribePresence()
	goFn("tracker presence", func(ctx context.Context) error {
		c.tracker.FollowPresence(ctx, presenceChanges)
		return nil
	})
	goFn("presence sync", c.presence.Run)

	samples, unsubscribeSamples := c.tracker.Subscribe()
	defer unsubscribeSamples()
	goFn("engine location", func(ctx context.Context) error {
		c.engine.FollowLocation(ctx, samples)
		return nil
	})
	goFn("engine", c.engine.Run)

	if err := c.startTracking(ctx); err != nil {
		cancel()
		wg.Wait()
		return err
	}
	defer c.tracker.Stop()

	if err := c.jobs.StartAll(); err != nil {
		cancel()
		wg.Wait()
		return err
	}
	defer c.jobs.StopAll()

	wg.Add(1)
	go func() {
		defer wg.Done()
		addr := ":" + c.cfg.HTTPPort
		c.logger.Info("http server listening", "addr", addr)
		if err := c.router.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-failed:
		c.logger.Error("component failed", "error", runErr)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := c.router.Shutdown(shutdownCtx); err != nil {
		c.logger.Warn("http shutdown", "error", err)
	}

	cancel()
	wg.Wait()
	return runErr
}

// startTracking loads the persisted presence before the one-shot fix is taken, so an
// online partner's first sample already counts as online.
func (c *CompositionRoot) startTracking(ctx context.Context) error {
	if _, err := c.presence.Resync(ctx); err != nil {
		c.logger.Warn("presence sync before tracking failed", "error", err)
	}
	if err := c.tracker.Start(ctx); err != nil {
		return fmt.Errorf("start tracker: %w", err)
	}
	return nil
}

// Close releases the backend connections. It is safe after a failed construction.
func (c *CompositionRoot) Close() {
	if c.hub != nil {
		c.hub.Close()
	}
	if c.kafka != nil {
		if err := c.kafka.Close(); err != nil {
			c.logger.Warn("close kafka writer", "error", err)
		}
	}
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			c.logger.Warn("close redis client", "error", err)
		}
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

type FuncDeliveryUoWFactory func() commands.DeliveryUoW

func (f FuncDeliveryUoWFactory) Create() commands.DeliveryUoW {
	return f()
}
