package otpstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeLua compares and counts attempts in one round trip.
// KEYS[1] = code key
// ARGV[1] = provided hash
// ARGV[2] = max attempts
var consumeLua = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'hash')
if not stored then
  return {err='not_found'}
end

if stored == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 1
end

local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if attempts >= tonumber(ARGV[2]) then
  redis.call('DEL', KEYS[1])
  return {err='attempts_exceeded'}
end
return {err='secret_mismatch'}
`)

// failLua counts a failed guess without comparing.
// KEYS[1] = code key
// ARGV[1] = max attempts
var failLua = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return {err='not_found'}
end

local attempts = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
if attempts >= tonumber(ARGV[1]) then
  redis.call('DEL', KEYS[1])
  return {err='attempts_exceeded'}
end
return {err='secret_mismatch'}
`)

type RedisStore struct {
	rdb redis.UniversalClient
}

func NewRedisStore(rdb redis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, key, codeHash string, ttl time.Duration) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, "hash", codeHash, "attempts", 0)
		p.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, key, codeHash string, maxAttempts int) error {
	return scriptErr(consumeLua.Run(ctx, s.rdb, []string{key}, codeHash, maxAttempts).Err())
}

func (s *RedisStore) Fail(ctx context.Context, key string, maxAttempts int) error {
	return scriptErr(failLua.Run(ctx, s.rdb, []string{key}, maxAttempts).Err())
}

// scriptErr maps the error replies of the Lua scripts to sentinels.
func scriptErr(err error) error {
	if err == nil {
		return nil
	}

	switch err.Error() {
	case "not_found":
		return ErrNotFound
	case "secret_mismatch":
		return ErrMismatch
	case "attempts_exceeded":
		return ErrAttemptsExceeded
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *RedisStore) Pending(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
