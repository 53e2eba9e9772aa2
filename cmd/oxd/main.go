// Package main is the AppSuite middleware daemon: the AJAX login and folder
// endpoints plus the background session maintenance.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/open-xchange/appsuite-middleware-sub008/internal/api"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/auth"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/config"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/database"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/folder"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/login"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/repository"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/services/scheduler"
	"github.com/open-xchange/appsuite-middleware-sub008/internal/session"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "oxd",
		Short: "AppSuite middleware daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("oxd 1.0.0")
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()
	database.SetDB(db, cfg.Database.Driver)
	database.RegisterPoolMetrics(db)

	sessions := repository.NewSessionRepository(db)
	maxAge := time.Duration(cfg.Session.MaxAge) * time.Second

	var store session.Store
	if cfg.Redis.Enabled {
		store = session.NewRedisStore(cfg.Redis, maxAge)
	} else {
		store = session.NewSQLStore(sessions)
	}

	dbProvider := auth.NewDatabaseProvider(db)
	providers := []auth.Provider{dbProvider}
	if cfg.Auth.LDAP.Enabled {
		providers = append(providers, auth.NewLDAPProvider(cfg.Auth.LDAP))
	}
	authenticator := auth.NewAuthenticator(providers...)

	orch := login.NewOrchestrator(store, authenticator, dbProvider, config.Get)

	accounts := repository.NewMailAccountRepository(db)
	aggregator := folder.NewAggregator(
		accounts,
		folder.NewMessagingRegistry(),
		folder.ConfigUnifiedEnablement{Conf: config.Get},
		folder.DefaultAccessProvider(cfg),
		int64(cfg.Mail.FanoutWorkers),
	)

	maintenance := scheduler.New(sessions, config.Get)
	if err := maintenance.Start(); err != nil {
		return err
	}
	defer maintenance.Stop()

	r := gin.Default()
	api.Register(r,
		api.NewLoginHandler(orch, config.Get),
		api.NewFolderHandler(aggregator, orch, config.Get),
		cfg.Server.LoginRatePerHour,
	)

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("oxd: listening on %s", cfg.Server.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("oxd: received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
