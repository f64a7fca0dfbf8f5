package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"hotel_service/internal/config"
	"hotel_service/internal/models"
	"hotel_service/internal/storage"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

type PostgresRepo struct {
	pool *pgxpool.Pool
}

// Connect создает подключение к базе данных и возвращает репозиторий.
func Connect(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.Connect"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// Migrate creates the reservations table and its unique email index.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) SaveReservation(ctx context.Context, res models.Reservation) (models.Reservation, error) {
	const op = "storage.postgres.SaveReservation"

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO reservations (customer_name, customer_email, room_type, checkin_date, checkout_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at;`,
		res.CustomerName,
		res.CustomerEmail,
		string(res.RoomType),
		res.CheckIn,
		res.CheckOut,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Reservation{}, fmt.Errorf("%s: %w", op, storage.ErrReservationExists)
		}

		return models.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// ReservationByEmail ищет бронь по точному совпадению email.
func (r *PostgresRepo) ReservationByEmail(ctx context.Context, email string) (models.Reservation, error) {
	const op = "storage.postgres.ReservationByEmail"

	var (
		res      models.Reservation
		roomType string
	)

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, customer_name, customer_email, room_type, checkin_date, checkout_date, created_at
		FROM reservations
		WHERE customer_email = $1`,
		email,
	).Scan(&res.ID, &res.CustomerName, &res.CustomerEmail, &roomType, &res.CheckIn, &res.CheckOut, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Reservation{}, fmt.Errorf("%s: %w", op, storage.ErrReservationNotFound)
		}

		return models.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	res.RoomType = models.RoomType(roomType)

	return res, nil
}

func (r *PostgresRepo) DeleteReservation(ctx context.Context, id int64) error {
	const op = "storage.postgres.DeleteReservation"

	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrReservationNotFound)
	}

	return nil
}

// Close закрывает соединение с базой данных.
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	return false
}

// dsn формирует конфигурацию базы данных.
func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
