package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

// RunApp - runs the application until ctx is canceled or a server fails.
func RunApp(ctx context.Context, logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wsServer := websocket.New(logger, conf.Session.SendBuffer)
	broadcasters := []usecase.Broadcaster{wsServer}

	var restOpts []rest.Option

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshotRepo := repository.NewSnapshotRepository(redisStorage, conf.Redis.ChannelPrefix, conf.Redis.SnapshotTTL)
		mirror := usecase.NewSnapshotMirror(logger, snapshotRepo)
		go mirror.Run(ctx)

		broadcasters = append(broadcasters, mirror)
		restOpts = append(restOpts, rest.WithMirror(mirror))
		log.Info("Mirroring snapshots to redis", "addr", conf.Redis.GetRedisAddr())
	}

	coordinator := usecase.NewSessionCoordinator(
		logger,
		repository.NewSessionRepository(nil),
		broadcasters,
		usecase.WithMaxNameLength(conf.Session.MaxNameLength),
	)
	wsServer.SetCoordinator(coordinator)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, coordinator, restOpts...).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
