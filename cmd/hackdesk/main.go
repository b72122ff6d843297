package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/hackdesk/hackdesk/internal/api"
	"github.com/hackdesk/hackdesk/internal/config"
	"github.com/hackdesk/hackdesk/internal/core"
	"github.com/hackdesk/hackdesk/internal/db"
	"github.com/hackdesk/hackdesk/internal/migrations"
	"github.com/hackdesk/hackdesk/internal/pkg/logs"
)

var testCtx, testCancel = context.WithCancel(context.Background())

func resolveFile(files ...string) (string, error) {
	for _, file := range files {
		if len(file) == 0 {
			continue
		}
		if _, err := os.Stat(file); err == nil {
			return file, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", os.ErrNotExist
}

// getConfig reads config with filename from '--config' flag.
func getConfig(cmd *cobra.Command) (config.Config, error) {
	flagFilename, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	envFilename := os.Getenv("HACKDESK_CONFIG")
	resolved, err := resolveFile(flagFilename, envFilename)
	if err != nil {
		return config.Config{}, err
	}
	return config.LoadFromFile(resolved)
}

func isServerError(err error) bool {
	return err != nil && err != http.ErrServerClosed
}

func newServer(logger *logs.Logger) *echo.Echo {
	srv := echo.New()
	srv.Logger = logger
	srv.HideBanner, srv.HidePort = true, true
	srv.Pre(middleware.RemoveTrailingSlash())
	srv.Use(middleware.Recover(), middleware.Gzip())
	return srv
}

// serverMain starts API server.
//
// Simply speaking this function does following things:
//  1. Setup Core instance (with all stores and managers).
//  2. Setup Echo server instance.
//  3. Register API View to Echo server.
//  4. Start background daemons.
func serverMain(cmd *cobra.Command, _ []string) {
	cfg, err := getConfig(cmd)
	if err != nil {
		panic(err)
	}
	if cfg.Server == nil {
		panic("section 'server' should be configured")
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		panic(err)
	}
	if err := c.SetupAllStores(); err != nil {
		panic(err)
	}
	if err := c.Start(); err != nil {
		panic(err)
	}
	defer c.Stop()
	v := api.NewView(c)
	var waiter sync.WaitGroup
	defer waiter.Wait()
	ctx, cancel := signal.NotifyContext(
		testCtx, os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()
	srv := newServer(c.Logger())
	v.Register(srv.Group("/api"))
	v.StartDaemons()
	waiter.Add(1)
	go func() {
		defer waiter.Done()
		defer cancel()
		if err := srv.Start(cfg.Server.Address()); isServerError(err) {
			c.Logger().Error(err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(
			context.Background(), time.Minute,
		)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			c.Logger().Error(err)
		}
	}()
	select {
	case <-ctx.Done():
	case <-c.Context().Done():
	}
}

func migrateMain(cmd *cobra.Command, args []string) {
	withData, err := cmd.Flags().GetBool("with-data")
	if err != nil {
		panic(err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		panic(err)
	}
	from, err := cmd.Flags().GetString("from")
	if err != nil {
		panic(err)
	}
	cfg, err := getConfig(cmd)
	if err != nil {
		panic(err)
	}
	c, err := core.NewCore(cfg)
	if err != nil {
		panic(err)
	}
	if err := c.SetupAllStores(); err != nil {
		panic(err)
	}
	var options []db.MigrateOption
	if len(from) > 0 {
		options = append(options, db.WithFromMigration(from))
		withData = false
	}
	if len(args) > 0 {
		if !force {
			panic("Trying to apply dangerous migration without '--force'")
		}
		options = append(options, db.WithMigration(args[0]))
		withData = args[0] == "zero"
	}
	if err := db.ApplyMigrations(
		context.Background(), c.DB, "hackdesk", migrations.Schema,
		options...,
	); err != nil {
		panic(err)
	}
	if withData {
		if err := db.ApplyMigrations(
			context.Background(), c.DB, "hackdesk_data", migrations.Data,
			options...,
		); err != nil {
			panic(err)
		}
	}
}

func versionMain(cmd *cobra.Command, _ []string) {
	println("hackdesk version:", config.Version)
}

func main() {
	rootCmd := cobra.Command{Use: os.Args[0]}
	rootCmd.PersistentFlags().String("config", "config.json", "")
	rootCmd.AddCommand(&cobra.Command{
		Use:   "server",
		Run:   serverMain,
		Short: "Starts API server",
	})
	migrateCmd := cobra.Command{
		Use:   "migrate",
		Run:   migrateMain,
		Short: "Applies migrations to database",
	}
	migrateCmd.Flags().Bool("with-data", false, "Enable data migrations")
	migrateCmd.Flags().Bool("force", false, "Force dangerous migration")
	migrateCmd.Flags().String("from", "", "Repeat migrations from specified name")
	rootCmd.AddCommand(&migrateCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Run:   versionMain,
		Short: "Prints information about version",
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
