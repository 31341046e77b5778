package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"records-manager/core/loader"
	"records-manager/core/middleware/auth"
	"records-manager/core/middleware/rayid"
	"records-manager/core/middleware/requestlog"

	"records-manager/feature/academic"
	"records-manager/feature/integrity"
	"records-manager/feature/research"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "records-manager/docs/swagger"
)

// @title Records Manager API
// @version 1.0
// @description Reconciles and synchronizes graduate-school records with Scopus, backups and spreadsheets.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the records manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.close()
		zap.ReplaceGlobals(a.logger)

		server, err := newServer(a)
		if err != nil {
			a.logger.Fatal("Failed to load features", zap.Error(err))
		}

		addr := a.cfg.Server.ListenAddr()
		go func() {
			a.logger.Info("Starting server",
				zap.String("addr", addr),
				zap.Bool("archive", a.archive != nil),
				zap.Bool("redis", a.redis != nil),
			)
			if err := server.Listen(addr); err != nil {
				a.logger.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		<-ctx.Done()
		a.logger.Info("Shutting down server...")
		_ = server.Shutdown()
	},
}

// newServer builds the Fiber app: ray id and request logging first, then the
// public Swagger UI, then the API key guard in front of every feature route.
func newServer(a *app) (*fiber.App, error) {
	server := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             a.cfg.Server.BodyLimit(),
	})

	server.Use(rayid.New(), requestlog.New(a.logger))
	server.Get("/swagger/*", swagger.HandlerDefault)
	server.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

	mgr := loader.NewManager(a.logger)
	mgr.Register(research.NewFeature(a.research, a.cfg.Server))
	mgr.Register(academic.NewFeature(a.academic, a.cfg.Server))
	mgr.Register(integrity.NewFeature(a.client, a.cfg.Storage.Bucket, a.logger, a.db, a.docs, integrity.DefaultDuplicateTTL))
	if err := mgr.LoadAll(server); err != nil {
		return nil, err
	}
	return server, nil
}

func init() {
	RootCmd.AddCommand(startCmd)
}
