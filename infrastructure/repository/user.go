package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/database/postgres"
	"github.com/vfg2006/meta-insights-proxy/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const usersTable = "users"

//go:generate mockgen -source=user.go -destination=mocks/user_mock.go -package=mocks
type UserRepository interface {
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	UpdateUserMetadata(ctx context.Context, userID string, patch map[string]any) error
	ListUsersWithExpiringMetaToken(ctx context.Context, before time.Time) ([]*domain.User, error)
}

type userRepository struct {
	conn *postgres.Connection
}

func NewUserRepository(conn *postgres.Connection) UserRepository {
	return &userRepository{
		conn: conn,
	}
}

// GetUserByID devolve nil quando o usuário ainda não tem registro
func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query, args, err := squirrel.
		Select("id", "email", "metadata", "created_at", "updated_at").
		From(usersTable).
		Where(squirrel.Eq{"id": userID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir consulta: %w", err)
	}

	user, err := scanUser(r.conn.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar usuário: %w", err)
	}

	return user, nil
}

// UpdateUserMetadata mescla o patch no jsonb existente (última escrita vence por chave)
func (r *userRepository) UpdateUserMetadata(ctx context.Context, userID string, patch map[string]any) error {
	encoded, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("erro ao serializar metadata: %w", err)
	}

	query, args, err := squirrel.
		Insert(usersTable).
		Columns("id", "metadata").
		Values(userID, string(encoded)).
		Suffix("ON CONFLICT (id) DO UPDATE SET metadata = " + usersTable + ".metadata || EXCLUDED.metadata, updated_at = NOW()").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir consulta: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("erro ao atualizar metadata do usuário: %w", err)
	}

	return nil
}

// ListUsersWithExpiringMetaToken busca usuários conectados ao Meta cujo token expira antes de `before`
func (r *userRepository) ListUsersWithExpiringMetaToken(ctx context.Context, before time.Time) ([]*domain.User, error) {
	query, args, err := squirrel.
		Select("id", "email", "metadata", "created_at", "updated_at").
		From(usersTable).
		Where(squirrel.Expr("metadata->>'meta_access_token' IS NOT NULL")).
		Where(squirrel.Expr("(metadata->>'meta_token_expires_at')::timestamptz < ?", before)).
		OrderBy("id ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir consulta: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao consultar tokens a expirar: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao processar resultado: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante iteração: %w", err)
	}

	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		user     domain.User
		email    sql.NullString
		metadata []byte
	)

	if err := row.Scan(&user.ID, &email, &metadata, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	user.Email = email.String

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &user.Metadata); err != nil {
			return nil, fmt.Errorf("metadata inválida para o usuário %s: %w", user.ID, err)
		}
	}

	return &user, nil
}
