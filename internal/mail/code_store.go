package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeMismatch is returned when a verification code is wrong or expired.
var ErrCodeMismatch = errors.New("mail: verification code invalid or expired")

const codeTTL = 10 * time.Minute

// CodeStore keeps pending verification codes in redis with a fixed TTL.
type CodeStore struct {
	client *redis.Client
}

// NewCodeStore returns redis-backed store.
func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func (s *CodeStore) key(email string) string {
	return fmt.Sprintf("verify:code:%s", email)
}

// Save stores the code for the email, replacing any pending one.
func (s *CodeStore) Save(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, s.key(email), code, codeTTL).Err()
}

// Consume validates and deletes the code in one step so it is single-use.
func (s *CodeStore) Consume(ctx context.Context, email, code string) error {
	stored, err := s.client.GetDel(ctx, s.key(email)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCodeMismatch
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrCodeMismatch
	}
	return nil
}
