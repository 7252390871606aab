// Package stores holds the Redis record stores for short-lived credential
// artifacts. Records are binary-encoded and rely on Redis TTLs for expiry.
package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetRecordVersionV1 = 1

var (
	// ErrResetNotFound covers tokens that are absent, expired, already
	// consumed, or undecodable. Callers must not distinguish these cases.
	ErrResetNotFound = errors.New("reset record not found")
	// ErrResetRedisUnavailable wraps Redis connectivity failures.
	ErrResetRedisUnavailable = errors.New("reset redis unavailable")
)

// PasswordResetRecord maps an issued reset token to the account it can
// reset. Write-once, read-once.
type PasswordResetRecord struct {
	UserID    string
	CreatedAt int64
}

// PasswordResetStore keeps single-use reset tokens in Redis. A token is
// the full Redis key suffix; the value is the encoded record with the
// token TTL applied at write time.
type PasswordResetStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewPasswordResetStore creates a store namespaced under prefix.
func NewPasswordResetStore(redisClient redis.UniversalClient, prefix string) *PasswordResetStore {
	if prefix == "" {
		prefix = "reset"
	}
	return &PasswordResetStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *PasswordResetStore) key(token string) string {
	return s.prefix + ":" + token
}

// Save persists the record under token with the given TTL.
func (s *PasswordResetStore) Save(ctx context.Context, token string, record *PasswordResetRecord, ttl time.Duration) error {
	encoded, err := encodePasswordResetRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}

	return nil
}

// Consume reads and destroys the record for token in one atomic GETDEL, so
// two concurrent consumers can never both observe a hit. A record that
// exists but fails to decode is reported as not found; GETDEL has already
// destroyed it, which is the correct end state for a corrupt token.
func (s *PasswordResetStore) Consume(ctx context.Context, token string) (*PasswordResetRecord, error) {
	data, err := s.redis.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrResetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}

	record, err := decodePasswordResetRecord(data)
	if err != nil {
		return nil, ErrResetNotFound
	}

	return record, nil
}

func encodePasswordResetRecord(record *PasswordResetRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(resetRecordVersionV1)

	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}

	if len(record.UserID) > 65535 {
		return nil, errors.New("reset record user id too long")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.UserID))); err != nil {
		return nil, err
	}
	buf.WriteString(record.UserID)

	return buf.Bytes(), nil
}

func decodePasswordResetRecord(data []byte) (*PasswordResetRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != resetRecordVersionV1 {
		return nil, errors.New("invalid reset record version")
	}

	record := &PasswordResetRecord{}

	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}

	var userIDLen uint16
	if err := binary.Read(reader, binary.BigEndian, &userIDLen); err != nil {
		return nil, err
	}

	userID := make([]byte, userIDLen)
	if _, err := io.ReadFull(reader, userID); err != nil {
		return nil, err
	}
	record.UserID = string(userID)

	return record, nil
}
