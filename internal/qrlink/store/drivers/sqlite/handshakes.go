package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lanternauth/qrlink/internal/qrlink/domain"
	"github.com/lanternauth/qrlink/internal/qrlink/store"
)

type handshakesRepo struct {
	q querier
}

const handshakeColumns = `id, state, origin_ip, device_fingerprint, bound_user_id,
	confirmation_source, token, token_expires_at, created_at, expires_at`

func (r *handshakesRepo) Create(ctx context.Context, h domain.Handshake) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO handshakes (`+handshakeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		string(h.State),
		h.OriginIP,
		h.DeviceFingerprint,
		mapOptionalString(h.BoundUserID),
		h.ConfirmationSource,
		mapOptionalString(h.Token),
		mapOptionalTime(h.TokenExpiresAt),
		h.CreatedAt.UTC(),
		h.ExpiresAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *handshakesRepo) Get(ctx context.Context, id string) (domain.Handshake, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+handshakeColumns+`
		FROM handshakes
		WHERE id = ?`, id)

	return scanHandshake(row)
}

// TransitionState is the guarded update every state change goes through.
// The WHERE clause on the current state makes the database the arbiter for
// racing writers: exactly one caller observes a row change.
func (r *handshakesRepo) TransitionState(ctx context.Context, id string, from []domain.State, to domain.State) error {
	placeholders, args := stateGuard(from)
	args = append([]any{string(to), id}, args...)

	res, err := r.q.ExecContext(ctx, `
		UPDATE handshakes
		SET state = ?
		WHERE id = ? AND state IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}

	return r.explainZeroRows(ctx, res, id)
}

// CompleteSuccess binds user, source, and token in the same guarded update
// that flips the state, so a losing confirm can never leave partial writes.
func (r *handshakesRepo) CompleteSuccess(ctx context.Context, id string, from []domain.State, userID, source, token string, tokenExpiresAt time.Time) error {
	placeholders, guardArgs := stateGuard(from)
	args := []any{string(domain.StateSuccess), userID, source, token, tokenExpiresAt.UTC(), id}
	args = append(args, guardArgs...)

	res, err := r.q.ExecContext(ctx, `
		UPDATE handshakes
		SET state = ?,
		    bound_user_id = ?,
		    confirmation_source = ?,
		    token = ?,
		    token_expires_at = ?
		WHERE id = ? AND state IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}

	return r.explainZeroRows(ctx, res, id)
}

// MarkExpired flips a non-terminal handshake past its deadline to expired.
// Idempotent: losing the race to another reader is not an error.
func (r *handshakesRepo) MarkExpired(ctx context.Context, id string, now time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE handshakes
		SET state = ?
		WHERE id = ?
		  AND expires_at < ?
		  AND state NOT IN (?, ?, ?)`,
		string(domain.StateExpired),
		id,
		now.UTC(),
		string(domain.StateSuccess),
		string(domain.StateRejected),
		string(domain.StateExpired),
	)
	return err
}

func (r *handshakesRepo) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM handshakes
		WHERE expires_at < ?
		  AND state IN (?, ?, ?)`,
		cutoff.UTC(),
		string(domain.StateSuccess),
		string(domain.StateRejected),
		string(domain.StateExpired),
	)
	return err
}

// explainZeroRows distinguishes a lost race (row exists in another state)
// from a missing row after a guarded update touched nothing.
func (r *handshakesRepo) explainZeroRows(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var state string
	err = r.q.QueryRowContext(ctx, `SELECT state FROM handshakes WHERE id = ?`, id).Scan(&state)
	if err != nil {
		return mapNotFound(err)
	}
	return store.ErrStaleState
}

func stateGuard(from []domain.State) (string, []any) {
	placeholders := make([]string, len(from))
	args := make([]any, len(from))
	for i, s := range from {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	return strings.Join(placeholders, ", "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandshake(row rowScanner) (domain.Handshake, error) {
	var (
		h           domain.Handshake
		state       string
		boundUserID sql.NullString
		token       sql.NullString
		tokenExp    sql.NullTime
	)

	err := row.Scan(
		&h.ID,
		&state,
		&h.OriginIP,
		&h.DeviceFingerprint,
		&boundUserID,
		&h.ConfirmationSource,
		&token,
		&tokenExp,
		&h.CreatedAt,
		&h.ExpiresAt,
	)
	if err != nil {
		return domain.Handshake{}, mapNotFound(err)
	}

	h.State = domain.State(state)
	h.BoundUserID = mapNullStringPtr(boundUserID)
	h.Token = mapNullStringPtr(token)
	h.TokenExpiresAt = mapNullTimePtr(tokenExp)
	return h, nil
}
