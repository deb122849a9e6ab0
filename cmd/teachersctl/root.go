package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/teachers-admin/internal/client"
	"github.com/noah-isme/teachers-admin/internal/repository"
	"github.com/noah-isme/teachers-admin/internal/service"
	"github.com/noah-isme/teachers-admin/pkg/config"
	"github.com/noah-isme/teachers-admin/pkg/logger"
)

// cliApp holds the services every command drives.
type cliApp struct {
	cfg      *config.Config
	logger   *zap.Logger
	teachers *service.TeacherService
	lookups  *service.LookupService
	auth     *service.AuthService
}

var (
	verbose bool
	app     *cliApp
)

// buildApp is replaced in tests.
var buildApp = func(verbose bool) (*cliApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.NewCLI(cfg, verbose)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return newCLIApp(cfg, logr)
}

func newCLIApp(cfg *config.Config, logr *zap.Logger) (*cliApp, error) {
	backend, err := client.New(cfg.Upstream, client.WithLogger(logr.Named("upstream")))
	if err != nil {
		return nil, err
	}
	// One-shot commands gain nothing from a shared cache.
	cache := service.NewCacheService(repository.NewMemoryCacheRepository(), nil, cfg.Cache.TeachersTTL, logr, false)
	return &cliApp{
		cfg:      cfg,
		logger:   logr,
		teachers: service.NewTeacherService(backend, cache, cfg.Cache.TeachersTTL, logr),
		lookups:  service.NewLookupService(backend, cache, cfg.Cache.LookupsTTL, logr),
		auth:     service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret}, logr),
	}, nil
}

var rootCmd = &cobra.Command{
	Use:           "teachersctl",
	Short:         "Operate the teachers directory from the terminal",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app != nil {
			return nil
		}
		built, err := buildApp(verbose)
		if err != nil {
			return err
		}
		app = built
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log upstream calls")
}
