package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FrozenOJuice/AquaMate/internal"
)

// ErrRedisUnavailable wraps Redis connectivity failures from the store.
var ErrRedisUnavailable = errors.New("session redis unavailable")

// Record and reverse-index entry die together. Returning existed lets
// callers distinguish an actual delete from stale-membership cleanup.
const deleteSessionScript = `
local existed = redis.call("EXISTS", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
if existed == 1 then
  redis.call("DEL", KEYS[1])
end
return existed
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// Store is the Redis-backed session store: token-keyed records plus a
// per-user set of live tokens for listing and bulk revocation.
type Store struct {
	redis   redis.UniversalClient
	prefix  string
	maxAge  time.Duration
	sliding bool
}

// NewStore creates a session [Store]. prefix namespaces the Redis keys,
// maxAge is the session TTL, sliding selects whether Resolve re-arms it.
func NewStore(redisClient redis.UniversalClient, prefix string, maxAge time.Duration, sliding bool) *Store {
	return &Store{
		redis:   redisClient,
		prefix:  prefix,
		maxAge:  maxAge,
		sliding: sliding,
	}
}

// MaxAge returns the configured session TTL (cookie Max-Age mirrors it).
func (s *Store) MaxAge() time.Duration {
	return s.maxAge
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + token
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Create mints a fresh opaque token and persists the record and its
// user-set membership in one transaction, both with the configured TTL.
func (s *Store) Create(ctx context.Context, userID, userAgent, ip string) (*Session, error) {
	token, err := internal.NewToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	sess := &Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: now,
		IssuedAt:  now,
		LastSeen:  now,
	}

	data, err := Encode(sess)
	if err != nil {
		return nil, err
	}

	userKey := s.userKey(userID)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(token), data, s.maxAge)
		pipe.SAdd(ctx, userKey, token)
		pipe.Expire(ctx, userKey, s.maxAge)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return sess, nil
}

// Resolve looks up a token, refreshes last_seen, and, with sliding
// expiration, re-arms the TTL to the max age. Missing, expired, and
// corrupt records all come back as redis.Nil; a corrupt record is deleted
// on the way out so it cannot linger.
func (s *Store) Resolve(ctx context.Context, token string) (*Session, error) {
	key := s.key(token)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
		}
		return nil, redis.Nil
	}
	sess.Token = token

	sess.LastSeen = time.Now().Unix()
	updated, err := Encode(sess)
	if err != nil {
		return nil, err
	}

	if s.sliding {
		_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.maxAge)
			pipe.Expire(ctx, s.userKey(sess.UserID), s.maxAge)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return sess, nil
	}

	// Fixed expiry: rewrite last_seen under the remaining lifetime.
	pttl, err := s.redis.PTTL(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if pttl <= 0 {
		return nil, redis.Nil
	}
	if err := s.redis.Set(ctx, key, updated, pttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return sess, nil
}

// List returns the live sessions for a user. Tokens in the user set whose
// records are gone or unreadable are pruned from the set (and, for
// unreadable records, deleted) rather than reported.
func (s *Store) List(ctx context.Context, userID string) ([]*Session, error) {
	userKey := s.userKey(userID)

	tokens, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(tokens) == 0 {
		return []*Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(tokens))
	for i, token := range tokens {
		cmds[i] = pipe.Get(ctx, s.key(token))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sessions := make([]*Session, 0, len(tokens))
	var stale []interface{}
	for i, cmd := range cmds {
		data, cmdErr := cmd.Bytes()
		if cmdErr != nil {
			if errors.Is(cmdErr, redis.Nil) {
				stale = append(stale, tokens[i])
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, cmdErr)
		}

		sess, decErr := Decode(data)
		if decErr != nil {
			if delErr := s.redis.Del(ctx, s.key(tokens[i])).Err(); delErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
			}
			stale = append(stale, tokens[i])
			continue
		}
		sess.Token = tokens[i]
		sessions = append(sessions, sess)
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return sessions, nil
}

// Revoke deletes a session regardless of owner. Unknown tokens are a
// no-op; unreadable records are deleted anyway but count as not found.
// Returns whether a live session was actually revoked.
func (s *Store) Revoke(ctx context.Context, token string) (bool, error) {
	key := s.key(token)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		// Owner unknown; the record itself still has to go. The stale
		// set entry gets cleaned by List or RevokeForUser.
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
		}
		return false, nil
	}

	if err := s.deleteSessionAndIndex(ctx, sess.UserID, token); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeForUser deletes a session only when userID owns it. A mismatched
// owner is a refusal with no mutation at all; a token with no backing
// record is opportunistically removed from the user's set. Returns whether
// a session was actually revoked.
func (s *Store) RevokeForUser(ctx context.Context, userID, token string) (bool, error) {
	key := s.key(token)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if sremErr := s.redis.SRem(ctx, s.userKey(userID), token).Err(); sremErr != nil {
				return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, sremErr)
			}
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		if delErr := s.redis.Del(ctx, key).Err(); delErr != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, delErr)
		}
		if sremErr := s.redis.SRem(ctx, s.userKey(userID), token).Err(); sremErr != nil {
			return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, sremErr)
		}
		return false, nil
	}

	if sess.UserID != userID {
		return false, nil
	}

	if err := s.deleteSessionAndIndex(ctx, userID, token); err != nil {
		return false, err
	}
	return true, nil
}

// RevokeAll deletes every session owned by userID and the set itself.
// A session created concurrently with the sweep can survive it (the set
// read and the deletes are separate steps); callers that need a hard
// fence order their own issuance after RevokeAll returns.
func (s *Store) RevokeAll(ctx context.Context, userID string) error {
	userKey := s.userKey(userID)

	tokens, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, s.key(token))
	}
	keys = append(keys, userKey)

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

func (s *Store) deleteSessionAndIndex(ctx context.Context, userID, token string) error {
	_, err := deleteSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(token), s.userKey(userID)},
		token,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
