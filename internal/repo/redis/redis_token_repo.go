package redis

import (
	"context"
	"time"

	"github.com/mpetrenko/stockroom/internal/apperrors"
	"github.com/redis/go-redis/v9"
)

type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// token already expired, nothing left to revoke
		return nil
	}
	if err := r.client.Set(ctx, "revoked:"+jti, "1", ttl).Err(); err != nil {
		return apperrors.WrapStore(err, "Revoke")
	}
	return nil
}

func (r *RedisTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	count, err := r.client.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		return false, apperrors.WrapStore(err, "IsRevoked")
	}
	return count > 0, nil
}
