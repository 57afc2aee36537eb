package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodshelf/recs-gateway/internal/domain"
)

// TicketStore owns access ticket persistence. All quota mutation goes
// through AtomicConsume; no caller caches a ticket's counters across
// requests.
type TicketStore interface {
	// Find returns the ticket for key, treating expired tickets as absent.
	Find(ctx context.Context, key string) (*domain.AccessTicket, error)
	// AtomicConsume increments used[category] by one iff the ticket is
	// active, unexpired and has quota left, all in a single atomic step.
	// It returns the post-increment ticket, or ErrNoMatch if any
	// precondition failed.
	AtomicConsume(ctx context.Context, key string, category domain.Category) (*domain.AccessTicket, error)
	// Create inserts a new ticket, failing with ErrDuplicateKey when the
	// key is already taken.
	Create(ctx context.Context, ticket *domain.AccessTicket) error
	// UpdateStatus is the administrative block/reactivate switch.
	UpdateStatus(ctx context.Context, key string, status domain.TicketStatus) error
	// DeleteExpired physically removes tickets past their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}

type pgTicketStore struct {
	pool *pgxpool.Pool
}

// NewPgTicketStore instantiates the postgres-backed store.
func NewPgTicketStore(pool *pgxpool.Pool) TicketStore {
	return &pgTicketStore{pool: pool}
}

func (s *pgTicketStore) Find(ctx context.Context, key string) (*domain.AccessTicket, error) {
	const query = `
        SELECT t.key, t.status, t.created_at, t.expires_at, g.category, g.cap, g.used
        FROM access_tickets t
        LEFT JOIN access_grants g ON g.ticket_key = t.key
        WHERE t.key = $1 AND t.expires_at > now()`

	rows, err := s.pool.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTicket(rows)
}

func (s *pgTicketStore) AtomicConsume(ctx context.Context, key string, category domain.Category) (*domain.AccessTicket, error) {
	// Single conditional update; the precondition re-check and the
	// increment happen in one statement so concurrent requests can never
	// oversell the quota.
	const query = `
        UPDATE access_grants g
        SET used = g.used + 1
        FROM access_tickets t
        WHERE g.ticket_key = $1 AND g.category = $2
          AND t.key = g.ticket_key
          AND t.status = 'active'
          AND t.expires_at > now()
          AND g.used < g.cap`

	cmd, err := s.pool.Exec(ctx, query, key, string(category))
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNoMatch
	}
	return s.Find(ctx, key)
}

func (s *pgTicketStore) Create(ctx context.Context, ticket *domain.AccessTicket) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertTicket = `
        INSERT INTO access_tickets (key, status, created_at, expires_at)
        VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insertTicket, ticket.Key, string(ticket.Status), ticket.CreatedAt, ticket.ExpiresAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return err
	}

	const insertGrant = `
        INSERT INTO access_grants (ticket_key, category, cap, used)
        VALUES ($1, $2, $3, $4)`
	for category, limit := range ticket.Limits {
		if _, err := tx.Exec(ctx, insertGrant, ticket.Key, string(category), limit, ticket.Used[category]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *pgTicketStore) UpdateStatus(ctx context.Context, key string, status domain.TicketStatus) error {
	const query = `
        UPDATE access_tickets SET status = $1
        WHERE key = $2 AND expires_at > now()`
	cmd, err := s.pool.Exec(ctx, query, string(status), key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (s *pgTicketStore) DeleteExpired(ctx context.Context) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM access_tickets WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanTicket(rows pgx.Rows) (*domain.AccessTicket, error) {
	var ticket *domain.AccessTicket
	for rows.Next() {
		var (
			key       string
			status    string
			createdAt time.Time
			expiresAt time.Time
			category  *string
			capCount  *int
			usedCount *int
		)
		if err := rows.Scan(&key, &status, &createdAt, &expiresAt, &category, &capCount, &usedCount); err != nil {
			return nil, err
		}
		if ticket == nil {
			ticket = &domain.AccessTicket{
				Key:       key,
				Status:    domain.TicketStatus(status),
				Limits:    map[domain.Category]int{},
				Used:      map[domain.Category]int{},
				CreatedAt: createdAt,
				ExpiresAt: expiresAt,
			}
		}
		if category != nil {
			ticket.Limits[domain.Category(*category)] = *capCount
			ticket.Used[domain.Category(*category)] = *usedCount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
