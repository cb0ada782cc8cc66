package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kontor/config"
	"kontor/internal/api"
	"kontor/internal/auth"
	"kontor/internal/db"
	"kontor/internal/health"
	"kontor/internal/logs"
	"kontor/internal/middleware"
	"kontor/internal/models"
	"kontor/internal/repo"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type App struct {
	cfg        *config.Config
	db         *gorm.DB
	Router     *mux.Router
	httpServer *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) Initialize(cfg *config.Config) {
	a.cfg = cfg

	/* 1) Логи */
	logs.Init(logs.Options{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		File:   a.cfg.Logging.File,
	})

	/* 2) DB */
	d, err := db.Open(a.cfg.Database.Driver, a.cfg.DatabaseDSN(), a.cfg.Database.MaxOpenConns)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	a.db = d

	if err := a.db.AutoMigrate(&models.User{},
		&models.Status{},
		&models.TimeEntry{}); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	us := repo.NewUserStore(a.db)
	ss := repo.NewStatusStore(a.db)
	es := repo.NewEntryStore(a.db)

	/* 3) Первичные данные: справочник статусов и первый администратор */
	ctx := context.Background()
	if err := ss.SeedDefaults(ctx); err != nil {
		log.Fatalf("status seed failed: %v", err)
	}
	if err := a.bootstrapAdmin(ctx, us); err != nil {
		log.Fatalf("admin bootstrap failed: %v", err)
	}

	issuer := auth.NewIssuer(a.cfg.Auth.JWTSecret, a.cfg.Auth.TokenTTL)
	editPerm := auth.NewEditPermission(a.cfg.Permissions.TimeEditorRoles)

	/* 4) Router + middleware */
	a.Router = mux.NewRouter().StrictSlash(true)
	a.Router.Use(
		middleware.RequestID,
		middleware.Recoverer,
		middleware.LoggerMW,
	)

	/* 5) Health */
	health.RegisterRoutes(a.Router, a.db) // /healthz, /readyz

	/* 6) API */
	h := api.NewHandler(us, ss, es, issuer, editPerm)
	api.RegisterRoutes(a.Router, h, issuer)

	/* (необязательно) вывести известные маршруты в лог при старте */
	_ = a.Router.Walk(func(rt *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, _ := rt.GetPathTemplate()
		methods, _ := rt.GetMethods()
		if len(methods) == 0 {
			methods = []string{"ANY"}
		}
		log.Printf("route: %-6v %s", methods, path)
		return nil
	})
}

// bootstrapAdmin создаёт первого суперадмина в пустой базе: создание
// пользователей доступно только администраторам, без этого вход в пустую
// систему невозможен.
func (a *App) bootstrapAdmin(ctx context.Context, us *repo.UserStore) error {
	n, err := us.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	username := a.cfg.Auth.BootstrapUsername
	password := a.cfg.Auth.BootstrapPassword
	if username == "" || password == "" {
		logs.Logger.Warn("users table is empty and no bootstrap admin configured")
		return nil
	}
	id, err := us.Create(ctx, repo.CreateUserInput{
		Username: username,
		Password: password,
		RoleID:   models.RoleSuperadmin,
	})
	if err != nil {
		return err
	}
	logs.Logger.Infof("bootstrap admin created: id=%d username=%s", id, username)
	return nil
}

func (a *App) Run() error {
	if a.Router == nil || a.cfg == nil {
		return fmt.Errorf("server not initialized")
	}

	bind := net.JoinHostPort(a.cfg.Server.Address, a.cfg.Server.HTTPPort)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigs
		logs.Logger.Infof("shutdown signal: %s", s)
		a.cancel()
	}()

	// Жёсткие таймауты — это важно для production
	a.httpServer = &http.Server{
		Addr:              bind,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logs.Logger.Infof("HTTP listening on %s", bind)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logs.Logger.Fatalf("http server error: %v", err)
		}
	}()

	<-a.ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logs.Logger.Errorf("http shutdown: %v", err)
	}
	return nil
}
