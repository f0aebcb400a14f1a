package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"IslandWar/internal/account/app"
	accountdomain "IslandWar/internal/account/domain"
	"IslandWar/internal/account/infra/repo"
	"IslandWar/internal/alliance"
	"IslandWar/internal/city"
	"IslandWar/internal/movement"
	"IslandWar/internal/player"
	"IslandWar/internal/report"
	"IslandWar/internal/shared/cache"
	"IslandWar/internal/shared/gameconfig/building"
	"IslandWar/internal/shared/gameconfig/hero"
	"IslandWar/internal/shared/gameconfig/research"
	"IslandWar/internal/shared/gameconfig/unit"
	"IslandWar/internal/shared/gameconfig/village"
	"IslandWar/internal/shared/infrastructure/db"
	sharedmongo "IslandWar/internal/shared/infrastructure/mongo"
	"IslandWar/internal/shared/logs"
	"IslandWar/internal/shared/security"
	"IslandWar/internal/shared/serverconfig"
	"IslandWar/internal/shared/utils"
	"IslandWar/internal/store"
	transporthttp "IslandWar/internal/transport/http"
	"IslandWar/internal/transport/ws"
	"IslandWar/internal/world"
)

func main() {
	serverconfig.Load()
	if err := logs.Init("game", serverconfig.Conf.Log); err != nil {
		panic(err)
	}
	logs.Info("conf", zap.Any("conf", serverconfig.Conf))

	unit.Load()
	hero.Load()
	building.Load()
	research.Load()
	village.Load()

	gormDB, err := db.Open(serverconfig.Conf.MySQL)
	if err != nil {
		logs.Fatal("open mysql failed", zap.Error(err))
	}
	if err = gormDB.AutoMigrate(&accountdomain.Account{}, &accountdomain.LoginHistory{}); err != nil {
		logs.Fatal("migrate account tables failed", zap.Error(err))
	}

	mongoClient, err := sharedmongo.Open(serverconfig.Conf.MongoDB, logs.Logger())
	if err != nil {
		logs.Fatal("open mongodb failed", zap.Error(err))
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	st := store.NewMongo(mongoClient, serverconfig.Conf.MongoDB.Database)

	game := serverconfig.Conf.Game
	worldID := game.WorldID
	if worldID == "" {
		worldID = "w1"
	}

	if err = world.SeedIfEmpty(context.Background(), st, worldID, world.DefaultSeedSpec()); err != nil {
		logs.Fatal("seed world failed", zap.Error(err))
	}

	allianceCache := cache.New(seconds(game.AllianceCacheTTLS, 30))
	rankingCache := cache.New(seconds(game.RankingCacheTTLS, 60))

	hub := ws.NewHub()
	alliances := alliance.NewService(st, allianceCache)
	cities := city.NewService(st, alliances, hub, worldID)
	movements := movement.NewService(st, movement.ServiceConfig{
		WorldID:      worldID,
		CancelWindow: seconds(game.CancelWindowS, 600),
	})
	dispatcher := movement.NewDispatcher(st, alliances, hub, movement.DispatcherConfig{
		WorldID:          worldID,
		BatchLimit:       game.MovementBatchLimit,
		FoundingDuration: seconds(game.FoundingDurationS, 4*3600),
	})
	reports := report.NewService(st, worldID)
	players := player.NewService(st, rankingCache, worldID)
	enroller := world.NewEnroller(st, worldID)
	accounts := app.NewService(
		repo.NewAccountRepo(gormDB),
		repo.NewLoginHistoryRepo(gormDB),
		enroller,
		security.HashPassword,
		utils.RandSeq,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Run(ctx, seconds(game.MovementPollS, 1))
	go cities.RunTicker(ctx, seconds(game.CityTickS, 60))
	go sweep(ctx, allianceCache, rankingCache)

	engine := gin.New()
	srv := transporthttp.NewServer(
		fmt.Sprintf("%s:%d", serverconfig.Conf.HTTPServer.Host, serverconfig.Conf.HTTPServer.Port),
		engine,
	)
	transporthttp.NewHandler(accounts, cities, movements, reports, players).RegisterRoutes(srv.Group())
	ws.NewHandler(hub, reports).Register(srv.Group())

	errCh := make(chan error, 1)
	go func() {
		logs.Info("game server listening",
			zap.String("host", serverconfig.Conf.HTTPServer.Host),
			zap.Int("port", serverconfig.Conf.HTTPServer.Port),
		)
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logs.Info("shutdown signal received")
	case err = <-errCh:
		logs.Error("http server stopped", zap.Error(err))
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = srv.Shutdown(shutCtx); err != nil {
		logs.Error("shutdown http server failed", zap.Error(err))
	}
	logs.Info("game server exited")
}

func seconds(n int, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func sweep(ctx context.Context, caches ...*cache.Cache) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, c := range caches {
				c.Sweep()
			}
		}
	}
}
