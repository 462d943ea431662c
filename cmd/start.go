package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"netsync/core/loader"
	"netsync/core/logger"
	"netsync/core/middleware/auth"
	"netsync/core/middleware/rayid"
	"netsync/feature/devicesync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "netsync/docs/swagger"
)

// @title netsync API
// @version 1.0
// @description Reconciles collected network device state with the system of record.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the netsync server",
	Long:  `Starts the HTTP server serving the sync API and metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		// 1. Configuration and logger
		a, err := newApp(configPath)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.close()
		logg := a.log
		zap.ReplaceGlobals(logg)

		// 2. System of record
		if err := a.openStore(ctx); err != nil {
			logg.Fatal("Failed to open system of record", zap.Error(err))
		}

		// 3. Snapshot bucket (optional)
		if err := a.openStorage(ctx); err != nil {
			logg.Warn("Optional storage unavailable; sync API disabled", zap.Error(err))
		}

		// 4. Report events (optional)
		if err := a.openEvents(); err != nil {
			logg.Warn("Optional event publisher unavailable", zap.Error(err))
		}

		syncer, err := a.syncer()
		if err != nil {
			logg.Fatal("Failed to load sync profile", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(devicesync.NewFeature(a.source(), syncer, logg, a.cfg.Server.RequestTimeout()))

		// RayID first so every log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(a.metrics.Handler()))

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey, Skip: []string{"/metrics"}}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", a.cfg.Server.Port))
			if err := app.Listen(a.cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
