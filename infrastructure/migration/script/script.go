package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/database/postgres"
	"github.com/vfg2006/meta-insights-proxy/internal/config"
	"github.com/vfg2006/meta-insights-proxy/pkg/log"
)

type step struct {
	Name      string
	Statement string
}

// steps são idempotentes para que o script possa rodar em todo deploy
var steps = []step{
	{
		Name: "criar tabela users",
		Statement: `CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		Name:      "adicionar coluna email",
		Statement: `ALTER TABLE users ADD COLUMN IF NOT EXISTS email TEXT`,
	},
	{
		Name:      "criar índice de expiração do token Meta",
		Statement: `CREATE INDEX IF NOT EXISTS idx_users_meta_token_expires_at ON users ((metadata->>'meta_token_expires_at')) WHERE metadata ? 'meta_access_token'`,
	},
}

func setupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetOutput(os.Stdout)
	log.L.Info("Iniciando script de migração...")
}

func applySteps(ctx context.Context, tx *sql.Tx, steps []step) error {
	for i, s := range steps {
		startTime := time.Now()

		if _, err := tx.ExecContext(ctx, s.Statement); err != nil {
			return fmt.Errorf("passo [%d/%d] %s: %w", i+1, len(steps), s.Name, err)
		}

		log.L.WithField("duration_ms", time.Since(startTime).Milliseconds()).
			Infof("Passo [%d/%d] concluído: %s", i+1, len(steps), s.Name)
	}

	return nil
}

func main() {
	setupLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		log.L.Fatalf("ERRO ao carregar configuração: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.L.Fatalf("ERRO ao conectar ao banco de dados: %v", err)
	}
	defer conn.Close()

	startTime := time.Now()
	err = conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		return applySteps(ctx, tx, steps)
	})
	if err != nil {
		log.L.Fatalf("ERRO na migração, transação revertida: %v", err)
	}

	log.L.Infof("Migração concluída em %v", time.Since(startTime))
}
