package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
)

type bansRepo struct {
	q querier
}

func (r *bansRepo) Create(ctx context.Context, b domain.Ban) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO bans (id, kind, subject, status, ban_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		string(b.Kind),
		b.Subject,
		string(b.Status),
		mapOptionalTime(b.BanUntil),
		b.CreatedAt.UTC(),
		b.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *bansRepo) FindActive(ctx context.Context, kind domain.BanKind, subject string) (domain.Ban, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, kind, subject, status, ban_until, created_at, updated_at
		FROM bans
		WHERE kind = ? AND subject = ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		string(kind), subject, string(domain.BanStatusActive))

	var (
		b        domain.Ban
		k        string
		status   string
		banUntil sql.NullTime
	)
	err := row.Scan(&b.ID, &k, &b.Subject, &status, &banUntil, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Ban{}, mapNotFound(err)
	}

	b.Kind = domain.BanKind(k)
	b.Status = domain.BanStatus(status)
	b.BanUntil = mapNullTimePtr(banUntil)
	return b, nil
}

// SweepLapsed flips every active ban whose window has passed. Reads may race
// this write; a lapsed ban survives at most one access before flipping.
func (r *bansRepo) SweepLapsed(ctx context.Context, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE bans
		SET status = ?, updated_at = ?
		WHERE status = ?
		  AND ban_until IS NOT NULL
		  AND ban_until < ?`,
		string(domain.BanStatusExpired),
		now.UTC(),
		string(domain.BanStatusActive),
		now.UTC(),
	)
	return err
}

func (r *bansRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM bans
		WHERE status = ? AND updated_at < ?`,
		string(domain.BanStatusExpired),
		cutoff.UTC(),
	)
	return err
}
