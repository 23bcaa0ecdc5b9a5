package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"supmap-playback/internal/api"
	"supmap-playback/internal/config"
	"supmap-playback/internal/gis/routing"
	"supmap-playback/internal/kv"
	"supmap-playback/internal/locations"
	"supmap-playback/internal/playback"
	"supmap-playback/internal/routes"
	"supmap-playback/internal/subscriber"
	"supmap-playback/internal/ws"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conf, err := config.New()
	if err != nil {
		return err
	}

	var loggerOpts slog.HandlerOptions
	if conf.Env == config.EnvDev {
		loggerOpts = slog.HandlerOptions{Level: slog.LevelDebug}
	}

	jsonHandler := slog.NewJSONHandler(os.Stdout, &loggerOpts)
	logger := slog.New(jsonHandler)

	var redisClient *redis.Client
	if conf.NeedsRedis() {
		redisClient = redis.NewClient(&redis.Options{Addr: net.JoinHostPort(conf.RedisHost, conf.RedisPort)})
		defer redisClient.Close()
	}

	backend, closeBackend, err := openBackend(ctx, conf, redisClient)
	if err != nil {
		return err
	}
	defer closeBackend()

	store := locations.NewStore(backend,
		locations.WithKey(conf.LocationsKey),
		locations.WithStrictCoordinates(conf.LocationsStrictCoordinates),
		locations.WithLogger(logger),
	)

	// The route document is fetched once; a failure ends the session.
	route, err := routing.Fetch(ctx, conf.PathSource, routing.ClientOptions{Timeout: conf.PathFetchTimeout})
	if err != nil {
		return fmt.Errorf("fetching route from %q: %w", conf.PathSource, err)
	}

	wsManager := ws.NewManager(ctx, logger)
	player := playback.NewPlayer(
		playback.NewEngine(playback.WithStep(conf.PlaybackStep)),
		wsManager,
		playback.WithFrameInterval(conf.PlaybackFrameInterval),
		playback.WithLogger(logger),
	)
	wsManager.SetController(player)

	go wsManager.Start()
	go player.Run(ctx)

	if _, err := player.Load(ctx, route); err != nil {
		return fmt.Errorf("loading route: %w", err)
	}

	if conf.PlaybackCommandsChannel != "" {
		sub := subscriber.NewSubscriber(logger, redisClient, conf.PlaybackCommandsChannel, player)
		go func() {
			if err := sub.Start(ctx); err != nil {
				logger.Error("subscriber stopped with error", "error", err)
			}
		}()
	}

	server := api.NewServer(conf, logger, wsManager, player, store, routes.NewRegistry())
	if err := server.Start(ctx); err != nil {
		return err
	}

	return nil
}

func openBackend(ctx context.Context, conf *config.Config, redisClient *redis.Client) (kv.Store, func(), error) {
	switch conf.StoreBackend {
	case config.StorePostgres:
		pool, err := kv.OpenPostgres(ctx, conf.PostgresURL)
		if err != nil {
			return nil, nil, err
		}
		store := kv.NewPostgres(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	case config.StoreMemory:
		return kv.NewMemory(), func() {}, nil
	default:
		return kv.NewRedis(redisClient, ""), func() {}, nil
	}
}
