// Command forecast-collector runs the historical-weather collection
// pipeline: a one-shot or periodic collection run, and optionally the
// read-API HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	httpapi "github.com/forecastlabs/weather-collector/internal/api/http"
	"github.com/forecastlabs/weather-collector/internal/catalog"
	"github.com/forecastlabs/weather-collector/internal/collector"
	"github.com/forecastlabs/weather-collector/internal/config"
	"github.com/forecastlabs/weather-collector/internal/httpcore"
	"github.com/forecastlabs/weather-collector/internal/provider"
	"github.com/forecastlabs/weather-collector/internal/scheduler"
	"github.com/forecastlabs/weather-collector/internal/store"
	"github.com/forecastlabs/weather-collector/internal/weather"
)

const (
	exitOK          = 0
	exitConfigError = 1
	exitIOError     = 2
	exitInterrupted = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	initial := flag.Bool("initial", false, "trigger a full collection run")
	interval := flag.Duration("interval", 0, "re-run collection on this cadence instead of exiting after one run")
	serve := flag.Bool("serve", false, "also start the read-API HTTP server")
	flag.Parse()

	log := logrus.WithField("component", "forecast-collector")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.DB.ConnectionString, log)
	if err != nil {
		log.WithError(err).Error("failed to open database")
		return exitConfigError
	}

	if !*initial && *interval == 0 && !*serve {
		log.Info("skipping gather: no --initial, --interval, or --serve given")
		return exitOK
	}

	httpClient := httpcore.NewSharedClient(30 * time.Second)

	if err := bootstrapCatalog(ctx, cfg, httpClient, db, log); err != nil {
		log.WithError(err).Error("city catalog bootstrap failed")
		return exitIOError
	}

	providers := buildProviders(cfg, httpClient, log)
	if len(providers) == 0 {
		log.Warn("no providers configured; collection runs will do nothing")
	}

	resolver := store.NewCityResolver(db)

	runOnce := func(ctx context.Context) error {
		return runCollection(ctx, cfg, providers, db, log)
	}

	var sched *scheduler.Scheduler
	if *interval > 0 {
		sched = scheduler.New(runOnce, *interval, log)
		if err := sched.Start(ctx); err != nil {
			log.WithError(err).Error("failed to start scheduler")
			return exitIOError
		}
		defer sched.Stop()
	} else if *initial {
		if err := runOnce(ctx); err != nil {
			log.WithError(err).Error("collection run failed")
		}
	}

	if *serve {
		if code := serveAPI(ctx, cfg, db, resolver, log); code != exitOK {
			return code
		}
	} else if *interval > 0 {
		<-ctx.Done()
	}

	if ctx.Err() != nil {
		return exitInterrupted
	}
	return exitOK
}

func bootstrapCatalog(ctx context.Context, cfg *config.Config, httpClient *http.Client, db *store.Store, log *logrus.Entry) error {
	loader := catalog.New(httpClient, "./.cache/cities/cities.csv", cfg.Collector.MinPopulation, log)
	rows, err := loader.FetchCitiesList(ctx)
	if err != nil {
		return err
	}
	inserted, err := loader.Populate(ctx, db.DB, rows)
	if err != nil {
		return err
	}
	log.WithField("inserted", inserted).Info("city catalog bootstrap complete")
	return nil
}

func buildProviders(cfg *config.Config, sharedClient *http.Client, log *logrus.Entry) []weather.Provider {
	var providers []weather.Provider

	if cfg.DataSources.OpenMeteo != nil {
		client := httpcore.New("https://archive-api.open-meteo.com/v1", sharedClient, log.WithField("provider", "open_meteo"))
		providers = append(providers, provider.NewOpenMeteo(client))
	} else {
		log.Warn("skipping open_meteo provider: not configured")
	}

	if key, err := config.RequireAPIKey("weatherbit", cfg.DataSources.WeatherBit); err == nil {
		client := httpcore.New("https://api.weatherbit.io/v2.0", sharedClient, log.WithField("provider", "weatherbit"))
		providers = append(providers, provider.NewWeatherBit(client, key))
	} else {
		log.WithError(err).Warn("skipping weatherbit provider")
	}

	if cfg.DataSources.Meteostat != nil {
		client := httpcore.New("https://bulk.meteostat.net/v2", sharedClient, log.WithField("provider", "meteostat"))
		m, err := provider.NewMeteostat(client, "./.cache/meteostat/stations/list-lite.json")
		if err != nil {
			log.WithError(err).Warn("skipping meteostat provider")
		} else {
			providers = append(providers, m)
		}
	} else {
		log.Warn("skipping meteostat provider: not configured")
	}

	if key, err := config.RequireAPIKey("world_weather_online", cfg.DataSources.WorldWeatherOnline); err == nil {
		client := httpcore.New("https://api.worldweatheronline.com/premium/v1", sharedClient, log.WithField("provider", "world_weather_online"))
		providers = append(providers, provider.NewWorldWeatherOnline(client, key))
	} else {
		log.WithError(err).Warn("skipping world_weather_online provider")
	}

	if key, err := config.RequireAPIKey("visual_crossing", cfg.DataSources.VisualCrossing); err == nil {
		client := httpcore.New("https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services", sharedClient, log.WithField("provider", "visual_crossing"))
		providers = append(providers, provider.NewVisualCrossing(client, key, cfg.Collector.ChunkSizeDays))
	} else {
		log.WithError(err).Warn("skipping visual_crossing provider")
	}

	if key, err := config.RequireAPIKey("openweathermap", cfg.DataSources.OpenWeatherMap); err == nil {
		client := httpcore.New("https://history.openweathermap.org/data/2.5", sharedClient, log.WithField("provider", "openweathermap"))
		providers = append(providers, provider.NewOpenWeatherMap(client, key))
	} else {
		log.WithError(err).Warn("skipping openweathermap provider")
	}

	if key, err := config.RequireAPIKey("tomorrow", cfg.DataSources.Tomorrow); err == nil {
		client := httpcore.New("https://api.tomorrow.io/v4", sharedClient, log.WithField("provider", "tomorrow"))
		providers = append(providers, provider.NewTomorrow(client, key))
	} else {
		log.WithError(err).Warn("skipping tomorrow provider")
	}

	return providers
}

func runCollection(ctx context.Context, cfg *config.Config, providers []weather.Provider, db *store.Store, log *logrus.Entry) error {
	start, err := cfg.Collector.Start()
	if err != nil {
		return err
	}
	end, err := cfg.Collector.End()
	if err != nil {
		return err
	}

	orch := &collector.Orchestrator{
		Providers:                 providers,
		Store:                     db,
		Start:                     start,
		End:                       end,
		ConcurrentSessionsAllowed: cfg.Collector.ConcurrentSessionsAllowed,
		Log:                       log,
	}

	defer orch.Teardown(ctx)
	if err := orch.Setup(ctx); err != nil {
		return err
	}

	cities, err := db.CitiesByPopulationDesc(ctx)
	if err != nil {
		return err
	}

	summary := orch.Run(ctx, cities)
	log.WithField("succeeded", summary.Succeeded).
		WithField("skipped", summary.Skipped).
		WithField("inserted", summary.Inserted).
		Info("collection run complete")
	return nil
}

func serveAPI(ctx context.Context, cfg *config.Config, db *store.Store, resolver *store.CityResolver, log *logrus.Entry) int {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	httpapi.RegisterRoutes(app, db, resolver)

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("read API server failed")
			return exitIOError
		}
		return exitOK
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
		return exitOK
	}
}
