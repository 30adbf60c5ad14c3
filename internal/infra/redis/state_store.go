package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-marketplace/internal/domain"
	"telegram-marketplace/internal/domain/flow"
	"telegram-marketplace/internal/domain/ports/repository"
)

var _ repository.StateStore = (*StateStore)(nil)

// StateStore keeps flow state in Redis, one JSON blob per (kind, chat)
// key. Records carry no TTL: pending category approvals are reaped by
// the sweep job, everything else lives until the flow clears it.
type StateStore struct {
	client RedisClient
	log    *zerolog.Logger
}

func NewStateStore(client RedisClient, logger *zerolog.Logger) *StateStore {
	return &StateStore{client: client, log: logger}
}

func stateKey(kind flow.Kind, chatID string) string {
	return fmt.Sprintf("flow_state:%s:%s", kind, chatID)
}

func (s *StateStore) Get(ctx context.Context, kind flow.Kind, chatID string) (*flow.State, error) {
	if !flow.ValidKind(kind) || chatID == "" {
		s.log.Warn().Str("kind", string(kind)).Str("chat_id", chatID).Msg("state get with invalid key")
		return nil, nil
	}
	data, err := s.client.Get(ctx, stateKey(kind, chatID))
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var st flow.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		// A corrupt record would wedge the chat; drop it instead.
		s.log.Error().Err(err).Str("kind", string(kind)).Str("chat_id", chatID).Msg("corrupt flow state dropped")
		_ = s.client.Del(ctx, stateKey(kind, chatID))
		return nil, nil
	}
	return &st, nil
}

func (s *StateStore) Set(ctx context.Context, kind flow.Kind, chatID string, st *flow.State) error {
	if !flow.ValidKind(kind) || chatID == "" || st == nil {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(kind, chatID), data, 0)
}

func (s *StateStore) Clear(ctx context.Context, kind flow.Kind, chatID string) error {
	if !flow.ValidKind(kind) || chatID == "" {
		return nil
	}
	return s.client.Del(ctx, stateKey(kind, chatID))
}

func (s *StateStore) All(ctx context.Context, kind flow.Kind) (map[string]*flow.State, error) {
	if !flow.ValidKind(kind) {
		return nil, domain.ErrInvalidArgument
	}
	prefix := fmt.Sprintf("flow_state:%s:", kind)
	keys, err := s.client.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*flow.State, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key)
		if errors.Is(err, redis.Nil) {
			continue // deleted between scan and get
		}
		if err != nil {
			return nil, err
		}
		var st flow.State
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("corrupt flow state skipped")
			continue
		}
		out[strings.TrimPrefix(key, prefix)] = &st
	}
	return out, nil
}
