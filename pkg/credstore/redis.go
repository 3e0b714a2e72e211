package credstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps client state in Redis, for deployments where the
// SDK runs server-side (e.g. a storefront BFF) and several processes
// must share one customer session.
//
// Redis I/O failures degrade to absence on reads and are swallowed on
// writes, matching the best-effort contract of the other backends.
// Session-changed signals are process-local; cross-process consumers
// should poll or layer pub/sub on top.
type RedisStore struct {
	hub
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

// NewRedisStore creates a store using the given client. The prefix
// namespaces keys per customer session, e.g. "storefront:sess:<id>:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		hub:     newHub(),
		client:  client,
		prefix:  prefix,
		timeout: 3 * time.Second,
	}
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisStore) read(key string) []byte {
	ctx, cancel := r.ctx()
	defer cancel()
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		return nil
	}
	return raw
}

func (r *RedisStore) write(key string, data []byte) {
	ctx, cancel := r.ctx()
	defer cancel()
	if data == nil {
		_ = r.client.Del(ctx, r.prefix+key).Err()
		return
	}
	_ = r.client.Set(ctx, r.prefix+key, data, 0).Err()
}

func (r *RedisStore) ReadToken() string { return string(r.read(keyToken)) }

func (r *RedisStore) WriteToken(token string) {
	if token == "" {
		r.write(keyToken, nil)
	} else {
		r.write(keyToken, []byte(token))
	}
	r.emitSessionChanged()
}

func (r *RedisStore) ReadUser() *User { return decodeUser(r.read(keyUser)) }

func (r *RedisStore) WriteUser(u *User) { r.write(keyUser, encodeUser(u)) }

func (r *RedisStore) ReadGuestCart() []byte { return r.read(keyGuestCart) }

func (r *RedisStore) WriteGuestCart(data []byte) { r.write(keyGuestCart, data) }

func (r *RedisStore) ReadLikes() []byte { return r.read(keyLikes) }

func (r *RedisStore) WriteLikes(data []byte) { r.write(keyLikes, data) }

func (r *RedisStore) ClearAll() {
	ctx, cancel := r.ctx()
	defer cancel()
	_ = r.client.Del(ctx, r.prefix+keyToken, r.prefix+keyUser).Err()
	r.emitSessionChanged()
}
