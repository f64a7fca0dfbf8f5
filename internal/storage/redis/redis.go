package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hotel_service/internal/models"
	"hotel_service/internal/storage"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client   *redis.Client
	cacheTTL time.Duration
	flashTTL time.Duration
}

func New(ctx context.Context, address, password string, db int, cacheTTL, flashTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client:   rdb,
		cacheTTL: cacheTTL,
		flashTTL: flashTTL,
	}, nil
}

// Reservation returns the cached reservation for email or storage.ErrCacheMiss.
func (r *RedisRepo) Reservation(ctx context.Context, email string) (models.Reservation, error) {
	const op = "storage.redis.Reservation"

	val, err := r.client.Get(ctx, reservationKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Reservation{}, storage.ErrCacheMiss
	}
	if err != nil {
		return models.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	var res models.Reservation
	if err := json.Unmarshal(val, &res); err != nil {
		return models.Reservation{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *RedisRepo) SaveReservation(ctx context.Context, res models.Reservation) error {
	const op = "storage.redis.SaveReservation"

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.client.Set(ctx, reservationKey(res.CustomerEmail), data, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *RedisRepo) DeleteReservation(ctx context.Context, email string) error {
	const op = "storage.redis.DeleteReservation"

	if err := r.client.Del(ctx, reservationKey(email)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AddFlash appends a message to the session's pending flashes.
func (r *RedisRepo) AddFlash(ctx context.Context, sessionID string, flash models.Flash) error {
	const op = "storage.redis.AddFlash"

	data, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := flashKey(sessionID)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, r.flashTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PopFlashes returns and removes all pending flashes of the session.
func (r *RedisRepo) PopFlashes(ctx context.Context, sessionID string) ([]models.Flash, error) {
	const op = "storage.redis.PopFlashes"

	key := flashKey(sessionID)

	var lrange *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		lrange = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw := lrange.Val()
	flashes := make([]models.Flash, 0, len(raw))
	for _, item := range raw {
		var f models.Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		flashes = append(flashes, f)
	}

	return flashes, nil
}

// Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	r.client.Close()
}

func reservationKey(email string) string {
	return "reservation:email:" + email
}

func flashKey(sessionID string) string {
	return "flash:" + sessionID
}
