package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tourbook/internal/app/commands"
	cancellationapp "tourbook/internal/app/handlers/cancellation"
	feetierapp "tourbook/internal/app/handlers/feetier"
	"tourbook/internal/app/middleware"
	appoutbox "tourbook/internal/app/outbox"
	"tourbook/internal/app/queries"
	"tourbook/internal/app/uow"
	"tourbook/internal/domain/booking"
	"tourbook/internal/domain/feetier"
	"tourbook/internal/domain/tour"
	kafkabroker "tourbook/internal/infra/broker/kafka"
	"tourbook/internal/infra/config"
	mongodb "tourbook/internal/infra/db/mongo"
	ginserver "tourbook/internal/infra/http/gin"
	"tourbook/internal/infra/obs"
	infraoutbox "tourbook/internal/infra/outbox"
	"tourbook/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if cfg.StorageMode == "memory" {
		if err := app.loadFixtures(ctx, cfg.TourFixtures, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", cfg.TourFixtures)
		}
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	ready    func() error
	repos    struct {
		tours    *memory.TourRepository
		bookings *memory.BookingRepository
		feeTiers *memory.FeeTierRepository
	}
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var (
		app        application
		uowFactory uow.UoWFactory
		eventSink  appoutbox.Outbox
		cleanups   []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, fmt.Errorf("connect mongo: %w", err)
		}
		uowFactory = mongodb.Factory{
			DB:               client.DB,
			BookingRepo:      mongodb.NewBookingRepository(client.DB),
			TourRepo:         mongodb.NewTourRepository(client.DB),
			FeeTierRepo:      mongodb.NewFeeTierRepository(client.DB),
			CancellationRepo: mongodb.NewCancellationRepository(client.DB),
		}
		store := infraoutbox.NewStore(client.DB)
		eventSink = store
		app.ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers)
			if err != nil {
				return application{}, cleanup, fmt.Errorf("connect kafka: %w", err)
			}
			cleanups = append(cleanups, func() {
				if err := producer.Close(); err != nil {
					logger.Error("kafka producer close failed", "error", err)
				}
			})
			baseBackoff := 1 * time.Second
			if len(cfg.RetryBackoff) > 0 {
				baseBackoff = cfg.RetryBackoff[0]
			}
			worker := infraoutbox.NewWorker(store, producer, logger, cfg.OutboxPollInterval, baseBackoff, cfg.KafkaTopicPrefix)
			go worker.Run(ctx)
		} else {
			logger.Warn("KAFKA_BROKERS not set, domain events stay in the outbox")
		}
	default:
		tourRepo := memory.NewTourRepository()
		bookingRepo := memory.NewBookingRepository()
		feeTierRepo := memory.NewFeeTierRepository()
		uowFactory = memory.Factory{
			BookingRepo:      bookingRepo,
			TourRepo:         tourRepo,
			FeeTierRepo:      feeTierRepo,
			CancellationRepo: memory.NewCancellationRepository(),
		}
		eventSink = memory.NewOutbox()
		app.ready = func() error { return nil }
		app.repos.tours = tourRepo
		app.repos.bookings = bookingRepo
		app.repos.feeTiers = feeTierRepo
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, cancellationapp.RaiseCancellationCommand{}.Key(), &cancellationapp.RaiseCancellationHandler{
		UoWFactory: uowFactory,
		Outbox:     eventSink,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, cancellationapp.ApproveCancellationCommand{}.Key(), &cancellationapp.ApproveCancellationHandler{
		UoWFactory: uowFactory,
		Outbox:     eventSink,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, cancellationapp.RejectCancellationCommand{}.Key(), &cancellationapp.RejectCancellationHandler{
		UoWFactory: uowFactory,
		Outbox:     eventSink,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, feetierapp.UpsertScheduleCommand{}.Key(), &feetierapp.UpsertScheduleHandler{
		UoWFactory: uowFactory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, cancellationapp.ListPendingQuery{}.Key(), &cancellationapp.ListPendingHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, feetierapp.GetScheduleQuery{}.Key(), &feetierapp.GetScheduleHandler{
		UoWFactory: uowFactory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Transaction(uowFactory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app.handlers = ginserver.Handlers{
		Cancellation: ginserver.CancellationHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		FeeTier: ginserver.FeeTierHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
	}
	return app, cleanup, nil
}

// loadFixtures seeds the in-memory store so the service is usable without a
// database: tours, bookings and a fee-tier schedule from one JSON file.
func (a application) loadFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	if err := a.seedDefaultSchedule(ctx); err != nil {
		return err
	}
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fx fixtureFile
	if err := json.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	for _, tf := range fx.Tours {
		t := tf.toTour()
		if err := a.repos.tours.Save(ctx, t); err != nil {
			logger.Error("cannot store fixture tour", "tour_id", tf.ID, "error", err)
			continue
		}
		logger.Info("tour fixture imported", "tour_id", t.ID)
	}
	for _, bf := range fx.Bookings {
		b := bf.toBooking()
		if err := a.repos.bookings.Save(ctx, b); err != nil {
			logger.Error("cannot store fixture booking", "booking_id", bf.ID, "error", err)
			continue
		}
		logger.Info("booking fixture imported", "booking_id", b.ID)
	}
	return nil
}

func (a application) seedDefaultSchedule(ctx context.Context) error {
	if _, err := a.repos.feeTiers.Get(ctx); err == nil {
		return nil
	}
	days := func(v int) *int { return &v }
	table := []feetier.Tier{
		{FromDays: 46, ToDays: days(60), Percent: 25},
		{FromDays: 31, ToDays: days(45), Percent: 50},
		{FromDays: 16, ToDays: days(30), Percent: 75},
		{FromDays: 0, ToDays: days(15), Percent: 100},
	}
	return a.repos.feeTiers.Upsert(ctx, &feetier.Schedule{
		ID:          feetier.ScheduleID,
		AdvancePaid: table,
		FullyPaid:   table,
		UpdatedAt:   time.Now().UTC(),
	})
}

type fixtureFile struct {
	Tours    []tourFixture    `json:"tours"`
	Bookings []bookingFixture `json:"bookings"`
}

type tourFixture struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Pricing  pricingFixture   `json:"pricing"`
	Variants []variantFixture `json:"variants"`
}

type variantFixture struct {
	Name    string         `json:"name"`
	Pricing pricingFixture `json:"pricing"`
}

type pricingFixture struct {
	Double            float64        `json:"double"`
	Triple            float64        `json:"triple"`
	ChildWithBerth    float64        `json:"child_with_berth"`
	ChildWithoutBerth float64        `json:"child_without_berth"`
	AdultAdvance      float64        `json:"adult_advance"`
	ChildAdvance      float64        `json:"child_advance"`
	Addons            []addonFixture `json:"addons"`
	LastBookingDate   time.Time      `json:"last_booking_date"`
}

type addonFixture struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func (f pricingFixture) toPricing() tour.Pricing {
	p := tour.Pricing{
		Sharing: tour.SharingPrices{
			Double:            f.Double,
			Triple:            f.Triple,
			ChildWithBerth:    f.ChildWithBerth,
			ChildWithoutBerth: f.ChildWithoutBerth,
		},
		Advance: tour.AdvanceAmounts{
			Adult: f.AdultAdvance,
			Child: f.ChildAdvance,
		},
		LastBookingDate: f.LastBookingDate,
	}
	for _, a := range f.Addons {
		p.Addons = append(p.Addons, tour.Addon{Name: a.Name, Price: a.Price})
	}
	return p
}

func (f tourFixture) toTour() *tour.Tour {
	t := &tour.Tour{
		ID:      tour.TourID(f.ID),
		Name:    f.Name,
		Pricing: f.Pricing.toPricing(),
	}
	for _, v := range f.Variants {
		t.Variants = append(t.Variants, tour.Variant{Name: v.Name, Pricing: v.Pricing.toPricing()})
	}
	return t
}

type bookingFixture struct {
	ID         string             `json:"id"`
	TourID     string             `json:"tour_id"`
	Travellers []travellerFixture `json:"travellers"`
	Payment    paymentFixture     `json:"payment"`
}

type travellerFixture struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Age          int            `json:"age"`
	Sharing      string         `json:"sharing"`
	VariantIndex *int           `json:"variant_index"`
	Addon        string         `json:"addon"`
	CustomAddons []addonFixture `json:"custom_addons"`
}

type paymentFixture struct {
	AdvanceAmount   float64 `json:"advance_amount"`
	AdvancePaid     bool    `json:"advance_paid"`
	AdvanceVerified bool    `json:"advance_verified"`
	BalanceAmount   float64 `json:"balance_amount"`
	BalancePaid     bool    `json:"balance_paid"`
	BalanceVerified bool    `json:"balance_verified"`
}

func (f bookingFixture) toBooking() *booking.Booking {
	now := time.Now().UTC()
	b := &booking.Booking{
		ID:     booking.BookingID(f.ID),
		TourID: tour.TourID(f.TourID),
		Payment: booking.Payment{
			Advance: booking.PaymentLeg{Amount: f.Payment.AdvanceAmount, Paid: f.Payment.AdvancePaid, Verified: f.Payment.AdvanceVerified},
			Balance: booking.PaymentLeg{Amount: f.Payment.BalanceAmount, Paid: f.Payment.BalancePaid, Verified: f.Payment.BalanceVerified},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, tf := range f.Travellers {
		variant := tour.MainPackage
		if tf.VariantIndex != nil {
			variant = *tf.VariantIndex
		}
		tr := booking.Traveller{
			ID:           tf.ID,
			Name:         tf.Name,
			Age:          tf.Age,
			Sharing:      booking.SharingType(tf.Sharing),
			VariantIndex: variant,
			Addon:        tf.Addon,
		}
		for _, ca := range tf.CustomAddons {
			tr.CustomAddons = append(tr.CustomAddons, booking.CustomAddon{Name: ca.Name, Price: ca.Price})
		}
		b.Travellers = append(b.Travellers, tr)
	}
	return b
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
