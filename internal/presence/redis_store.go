package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/b4knamy/online-chat-backend/internal/domain"
)

// Redis key layout:
// available_users   SET<username>   - users free to log in
// online_count      STRING<int>     - global online counter
const (
	availableUsersKey = "available_users"
	onlineCountKey    = "online_count"
)

// reserveScript removes the username from the available set and increments
// the online counter only if the username was actually a member. Running as
// one script keeps set and counter consistent under concurrent logins.
var reserveScript = redis.NewScript(`
if redis.call("SREM", KEYS[1], ARGV[1]) == 1 then
	redis.call("INCR", KEYS[2])
	return 1
end
return 0
`)

// releaseScript returns the username to the available set and decrements the
// counter with a floor at zero. A username that is already available leaves
// both untouched.
var releaseScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 1 then
	local count = redis.call("DECR", KEYS[2])
	if count < 0 then
		redis.call("SET", KEYS[2], 0)
	end
end
return redis.call("GET", KEYS[2])
`)

type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redis and returns a presence store backed by it.
func NewRedisStore(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Seed(ctx context.Context, usernames []string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, availableUsersKey)
	if len(usernames) > 0 {
		members := make([]interface{}, len(usernames))
		for i, u := range usernames {
			members[i] = u
		}
		pipe.SAdd(ctx, availableUsersKey, members...)
	}
	pipe.Set(ctx, onlineCountKey, 0, 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Reserve(ctx context.Context, username string) (bool, error) {
	res, err := reserveScript.Run(ctx, s.client, []string{availableUsersKey, onlineCountKey}, username).Int()
	if err != nil {
		return false, fmt.Errorf("failed to reserve presence: %w", err)
	}
	return res == 1, nil
}

func (s *redisStore) Release(ctx context.Context, username string) error {
	if err := releaseScript.Run(ctx, s.client, []string{availableUsersKey, onlineCountKey}, username).Err(); err != nil {
		return fmt.Errorf("failed to release presence: %w", err)
	}
	return nil
}

func (s *redisStore) Snapshot(ctx context.Context) (domain.PresenceSnapshot, error) {
	pipe := s.client.TxPipeline()
	membersCmd := pipe.SMembers(ctx, availableUsersKey)
	countCmd := pipe.Get(ctx, onlineCountKey)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return domain.PresenceSnapshot{}, err
	}

	count, err := countCmd.Int64()
	if err != nil && err != redis.Nil {
		return domain.PresenceSnapshot{}, err
	}

	members := membersCmd.Val()
	if members == nil {
		members = []string{}
	}

	return domain.PresenceSnapshot{
		AvailableUsers: members,
		OnlineUsers:    count,
	}, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
