package credstore

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	tokenKeyPrefix  = "cred:token:"
	userKeyPrefix   = "cred:user:"
	emailKeyPrefix  = "cred:email:"
	surveyKeyPrefix = "cred:survey_done:"

	// pendingEmailTTL bounds the verification-email marker; a stale marker
	// only re-prompts the user, so a short window is fine.
	pendingEmailTTL = 24 * time.Hour

	// surveyMarkerTTL covers the replication-lag window between a verified
	// payment and the survey record becoming readable from the Survey API.
	surveyMarkerTTL = 24 * time.Hour
)

// RedisStore implements Store on top of a Redis connection.
type RedisStore struct {
	client *redis.Client
}

// ConnectRedis parses the URI, tunes the pool, and verifies connectivity.
func ConnectRedis(redisURI string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURI)
	if err != nil {
		return nil, err
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Connected to Redis")
	return &RedisStore{client: client}, nil
}

// Close shuts the underlying connection pool down.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, creds Credentials) error {
	if err := s.client.Set(ctx, tokenKeyPrefix+sessionID, creds.Token, CredentialTTL).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, userKeyPrefix+sessionID, creds.User, CredentialTTL).Err()
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (Credentials, error) {
	token, err := s.client.Get(ctx, tokenKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, err
	}

	user, err := s.client.Get(ctx, userKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		// Token without user record: treat the pair as absent so the
		// session layer never sees a half-authenticated state.
		return Credentials{}, ErrNotFound
	}
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Token: token, User: user}, nil
}

func (s *RedisStore) ReplaceUser(ctx context.Context, sessionID string, user []byte) error {
	ttl, err := s.client.TTL(ctx, tokenKeyPrefix+sessionID).Result()
	if err != nil || ttl <= 0 {
		ttl = CredentialTTL
	}
	return s.client.Set(ctx, userKeyPrefix+sessionID, user, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx,
		tokenKeyPrefix+sessionID,
		userKeyPrefix+sessionID,
		emailKeyPrefix+sessionID,
	).Err()
}

func (s *RedisStore) SetPendingEmail(ctx context.Context, sessionID, email string) error {
	return s.client.Set(ctx, emailKeyPrefix+sessionID, email, pendingEmailTTL).Err()
}

func (s *RedisStore) PendingEmail(ctx context.Context, sessionID string) (string, error) {
	email, err := s.client.Get(ctx, emailKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return email, err
}

func (s *RedisStore) MarkSurveyCompleted(ctx context.Context, userID string, payload []byte) error {
	return s.client.Set(ctx, surveyKeyPrefix+userID, payload, surveyMarkerTTL).Err()
}

func (s *RedisStore) SurveyCompleted(ctx context.Context, userID string) ([]byte, bool, error) {
	payload, err := s.client.Get(ctx, surveyKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return payload, true, nil
}
