package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "nftmarket/docs"
	"nftmarket/pkg/auth"
	"nftmarket/pkg/config"
	"nftmarket/pkg/db"
	"nftmarket/pkg/events"
	"nftmarket/pkg/logger"
	"nftmarket/pkg/market"
	"nftmarket/pkg/notify"
	"nftmarket/pkg/registry"
	"nftmarket/pkg/units"
)

// @title           NFT Market API
// @version         1.0
// @description     Marketplace engine for ERC-721 assets: list, buy and delist with a listing fee and atomic settlement

// @BasePath  /

// @schemes   http https

func main() {
	config.Init(logger.New)
	cfg := config.Get()
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to open market storage")
	}
	defer closeStore()

	registries := market.Registries{}
	var token *registry.Token
	if cfg.DevRegistry.Enabled {
		tokenAddr, err := parseAddress("DEV_REGISTRY_ADDRESS", cfg.DevRegistry.Address)
		if err != nil {
			zap.L().With(zap.Error(err)).Fatal("Invalid configuration")
		}
		token = registry.NewToken(tokenAddr, cfg.DevRegistry.Name, cfg.DevRegistry.Symbol)
		registries[tokenAddr] = token
		zap.L().With(zap.String("address", tokenAddr.Hex()), zap.String("name", token.Name())).Info("Dev registry enabled")
	}

	hub := events.NewHub()
	defer hub.Close()
	opts := []market.Option{market.WithPublisher(hub)}

	if cfg.Nats.URL != "" {
		natsPublisher, err := events.ConnectNATS(cfg.Nats.URL, cfg.Nats.SubjectPrefix)
		if err != nil {
			zap.L().With(zap.Error(err)).Fatal("Failed to connect to NATS")
		}
		defer natsPublisher.Close()
		opts = append(opts, market.WithPublisher(natsPublisher))
	}

	if cfg.SendGrid.APIKey != "" && cfg.SendGrid.NotifyEmail != "" {
		notifier := notify.NewSaleNotifier(notify.NewEmailService(cfg.SendGrid), cfg.SendGrid.NotifyEmail)
		defer notifier.Close()
		opts = append(opts, market.WithPublisher(notifier))
		zap.L().With(zap.String("to", cfg.SendGrid.NotifyEmail)).Info("Sale notifications enabled")
	}

	engine, err := newEngine(ctx, cfg.Market, store, registries, opts...)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to initialize market")
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.Config{
		AllowOrigins:     cfg.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", auth.CallerHeader, auth.AdminTokenHeader},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.Cors.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsCfg))

	market.NewMarketHandler(engine, auth.RequireAdmin(cfg.Market.AdminTokenHash)).RegisterRoutes(router)
	if token != nil {
		registry.NewRegistryHandler(token).RegisterRoutes(router)
	}
	events.NewHandler(hub).RegisterRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if err := cfg.TLS.Validate(cfg.Env); err != nil {
		zap.L().With(zap.Error(err)).Fatal("TLS settings invalid")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ListenPort(),
		Handler: router,
	}
	if cfg.TLS.Enabled {
		tlsCfg, err := serverTLSConfig(cfg.Env, cfg.TLS)
		if err != nil {
			zap.L().With(zap.Error(err)).Fatal("TLS setup error")
		}
		srv.TLSConfig = tlsCfg
	}

	go func() {
		zap.L().With(zap.String("addr", srv.Addr), zap.Bool("tls", cfg.TLS.Enabled)).Info("Server listening")
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().With(zap.Error(err)).Fatal("Listen failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().With(zap.Error(err)).Error("Server forced to shutdown")
	}

	zap.L().Info("Server exiting")
}

// openStore uses Postgres when DATABASE_URL is set and process memory
// otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (market.Store, func(), error) {
	if cfg.URL == "" {
		zap.L().Warn("DATABASE_URL not set, market state lives in memory only")
		return market.NewMemoryStore(), func() {}, nil
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return market.NewPostgresStore(pool), pool.Close, nil
}

func newEngine(ctx context.Context, cfg config.MarketConfig, store market.Store, registries market.Registries, opts ...market.Option) (*market.Engine, error) {
	address, err := parseAddress("MARKET_ADDRESS", cfg.Address)
	if err != nil {
		return nil, err
	}
	owner, err := parseAddress("MARKET_OWNER", cfg.Owner)
	if err != nil {
		return nil, err
	}
	fee, err := units.ParseEther(cfg.ListingFee)
	if err != nil {
		return nil, fmt.Errorf("LISTING_FEE: %w", err)
	}

	engine := market.NewEngine(store, registries, address, opts...)
	if err := engine.Initialize(ctx, owner, fee, cfg.LogicVersion); err != nil {
		return nil, err
	}
	if cfg.AdminTokenHash == "" {
		zap.L().Warn("ADMIN_TOKEN_HASH not set, owner operated routes are disabled")
	}
	return engine, nil
}

func parseAddress(name, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", name, raw)
	}
	return common.HexToAddress(raw), nil
}
