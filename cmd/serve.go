package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-circulation/core/config"
	"library-circulation/core/database"
	"library-circulation/core/loader"
	"library-circulation/core/logger"
	"library-circulation/core/middleware/auth"
	"library-circulation/core/middleware/rayid"
	"library-circulation/core/notify"
	"library-circulation/feature/circulation"
	"library-circulation/feature/circulation/models"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the circulation service",
	Long: `Starts the circulation lifecycle engine: database migration, a startup
consistency repair, the background expiry sweeper and the admin HTTP server.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required: the engine owns its state)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}
		if err := db.AutoMigrate(models.All()...); err != nil {
			logg.Fatal("Database migration failed", zap.Error(err))
		}
		logg.Info("Connected to database", zap.String("driver", cfg.Database.Driver))

		// 4. Notification dispatcher (fire-and-forget, post-commit)
		dispatcher := notify.NewDispatcher(cfg.Notify, logg, notify.NewLogNotifier(logg))

		// 5. Circulation feature
		feature := circulation.NewFeature(db, logg, cfg.Policy, dispatcher)

		// Repair any copy state orphaned by a previous crash before serving.
		if _, err := feature.Service().Reconcile(cmd.Context()); err != nil {
			logg.Error("Startup reconciliation failed", zap.Error(err))
		}

		// 6. Background expiry sweeper
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sweeper := circulation.NewSweeper(
			feature.Service(),
			time.Duration(cfg.Sweep.IntervalSeconds)*time.Second,
			logg,
		)
		go sweeper.Run(ctx)

		// 7. Admin HTTP server
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

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

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		mgr := loader.NewManager()
		mgr.Register(feature)
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 8. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
		dispatcher.Close()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
