package sqlite

import (
	"context"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
)

type directoryRepo struct {
	q querier
}

func (r *directoryRepo) GetByUsername(ctx context.Context, username string) (domain.DirectoryUser, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, username, display_name, created_at
		FROM directory_users
		WHERE username = ?`, username)

	var u domain.DirectoryUser
	if err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt); err != nil {
		return domain.DirectoryUser{}, mapNotFound(err)
	}
	return u, nil
}

func (r *directoryRepo) Create(ctx context.Context, u domain.DirectoryUser) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO directory_users (id, username, display_name, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}
