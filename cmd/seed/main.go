package main

import (
	"context"
	"fmt"
	"time"

	"github.com/usiug6/auth-service/internal/adapters/db/postgres"
	"github.com/usiug6/auth-service/internal/app/auth/password"
	"github.com/usiug6/auth-service/internal/app/seed"
	"github.com/usiug6/auth-service/internal/infra/config"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"github.com/usiug6/auth-service/internal/infra/migrate"
	"go.uber.org/zap"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}
	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	db, err := gorm.Open(gormpg.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := postgres.NewPostgresUserRepo(db)
	results, err := seed.Run(ctx, users, password.New(cfg.PasswordPepper, nil), seed.DemoAccounts, zapLog)
	if err != nil {
		zapLog.Fatal("seed accounts", zap.Error(err))
	}

	for _, r := range results {
		if r.Created {
			fmt.Printf("created %s\n", r.Email)
		} else {
			fmt.Printf("exists  %s\n", r.Email)
		}
	}
	fmt.Println("Demo credentials:")
	for _, acc := range seed.DemoAccounts {
		fmt.Printf("  %s / %s\n", acc.Email, acc.Password)
	}
}
