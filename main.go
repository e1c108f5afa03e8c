package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitwise74/web-starter/app"
	"bitwise74/web-starter/config"
	"bitwise74/web-starter/internal/service"

	"github.com/gin-gonic/gin"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := config.MakeLogger(); err != nil {
		panic(err)
	}

	err = run()
	if err != nil {
		zap.L().Error("Exiting", zap.Error(err))
	}

	zap.L().Sync()

	if err != nil {
		os.Exit(1)
	}
}

// run serves until a signal arrives. Everything it acquires is released
// before it returns
func run() error {
	if v.GetString("app.log_level") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := app.New()
	if err != nil {
		return fmt.Errorf("failed to build app, %w", err)
	}
	defer a.Close()

	if v.GetBool("seed") {
		if err := service.Seed(context.Background(), a.Deps.Auth); err != nil {
			return fmt.Errorf("failed to seed database, %w", err)
		}
		return nil
	}

	if err := a.StartJobs(); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", a.Server.Addr), zap.String("baseURL", v.GetString("auth.base_url")))
		errc <- a.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server stopped, %w", err)
		}
		return nil
	case sig := <-quit:
		zap.L().Info("Shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.Shutdown(ctx); err != nil {
		zap.L().Error("Failed to shut down gracefully", zap.Error(err))
	}

	return nil
}
