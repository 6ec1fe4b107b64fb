package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fakhrymubarak/weather-now/internal/config"
	"github.com/fakhrymubarak/weather-now/internal/geolocation"
	"github.com/fakhrymubarak/weather-now/internal/handler"
	"github.com/fakhrymubarak/weather-now/internal/model"
	"github.com/fakhrymubarak/weather-now/internal/redis"
	"github.com/fakhrymubarak/weather-now/internal/repository"
	"github.com/fakhrymubarak/weather-now/internal/service"
	"github.com/fakhrymubarak/weather-now/internal/tracing"
	"github.com/spf13/pflag"
)

var errConflictingFlags = errors.New("use one of --city, --lat/--lon or --here")

type options struct {
	city      string
	citySet   bool
	latitude  float64
	longitude float64
	coords    bool
	here      bool
}

// oneShot reports whether a single lookup was requested instead of the HTTP server.
func (o options) oneShot() bool {
	return o.citySet || o.coords || o.here
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("weather-now", pflag.ContinueOnError)
	fs.StringVar(&opts.city, "city", "", "look up the weather for a city name")
	fs.Float64Var(&opts.latitude, "lat", 0, "latitude in decimal degrees (requires --lon)")
	fs.Float64Var(&opts.longitude, "lon", 0, "longitude in decimal degrees (requires --lat)")
	fs.BoolVar(&opts.here, "here", false, "look up the weather at this host's approximate location")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	latSet, lonSet := fs.Changed("lat"), fs.Changed("lon")
	if latSet != lonSet {
		return options{}, errors.New("--lat and --lon must be given together")
	}
	opts.coords = latSet
	opts.citySet = fs.Changed("city")

	selected := 0
	for _, on := range []bool{opts.citySet, opts.coords, opts.here} {
		if on {
			selected++
		}
	}
	if selected > 1 {
		return options{}, errConflictingFlags
	}
	return opts, nil
}

func runOnce(ctx context.Context, resolver *service.WeatherResolver, opts options, w io.Writer) error {
	var (
		obs *model.WeatherObservation
		err error
	)
	switch {
	case opts.here:
		obs, err = resolver.ResolveByCurrentLocation(ctx)
	case opts.coords:
		obs, err = resolver.ResolveByQuery(ctx, model.CoordinatesQuery(opts.latitude, opts.longitude))
	default:
		obs, err = resolver.ResolveByQuery(ctx, model.CityQuery(opts.city))
	}
	if err != nil {
		return err
	}
	printObservation(w, obs, config.GetOpenWeatherIconUrl())
	return nil
}

func printObservation(w io.Writer, obs *model.WeatherObservation, iconTemplate string) {
	fmt.Fprintln(w, obs.LocationName)
	fmt.Fprintf(w, "%s °C\n", strconv.FormatFloat(obs.TemperatureCelsius, 'f', -1, 64))
	fmt.Fprintf(w, "Humidity: %d%%\n", obs.HumidityPercent)
	fmt.Fprintf(w, "Wind Speed: %s km/h\n", strconv.FormatFloat(obs.WindSpeedKph, 'f', 2, 64))
	fmt.Fprintln(w, obs.IconURLFrom(iconTemplate))
}

func newServer(h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + config.GetServerPort(),
		Handler:           h,
		ReadHeaderTimeout: config.GetServerTimeoutDuration("read_header_timeout", 15*time.Second),
		ReadTimeout:       config.GetServerTimeoutDuration("read_timeout", 15*time.Second),
		WriteTimeout:      config.GetServerTimeoutDuration("write_timeout", 10*time.Second),
		IdleTimeout:       config.GetServerTimeoutDuration("idle_timeout", 30*time.Second),
	}
}

func serve(ctx context.Context) error {
	logger := config.GetLogger()

	shutdownTracing, err := tracing.InitProvider(ctx, config.GetOtelServiceName(), config.GetOtelCollectorEndpoint())
	if err != nil {
		logger.Warnw("Tracing disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Warnw("Error flushing traces", "error", err)
			}
		}()
	}

	if err := redis.Ping(ctx); err != nil {
		logger.Warnw("Redis unreachable, device endpoints will fail until it recovers", "addr", config.GetRedisAddr(), "error", err)
	}

	h := handler.NewWeatherHandler(repository.NewWeatherRepository(), geolocation.NewRegistry(redis.GetClient()))
	srv := newServer(handler.NewRouter(h, logger))

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting weather server", "port", config.GetServerPort())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down weather server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	logger := config.GetLogger()
	defer func() { _ = logger.Sync() }()

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.oneShot() {
		resolver := service.NewWeatherResolver(repository.NewWeatherRepository(), geolocation.NewIPLookupProvider())
		if err := runOnce(ctx, resolver, opts, os.Stdout); err != nil {
			logger.Debugw("Lookup failed", "error", err)
			var re *service.ResolutionError
			if errors.As(err, &re) {
				fmt.Fprintln(os.Stderr, re.UserMessage())
			} else {
				fmt.Fprintln(os.Stderr, err)
			}
			stop()
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx); err != nil {
		logger.Errorw("Server error", "error", err)
		stop()
		os.Exit(1)
	}
}
