package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tradingaccounts/internal/domain"
)

// insertScript stores the entry if absent and indexes it as pending.
// Returns {1} when inserted, {0, existing} otherwise.
var insertScript = redis.NewScript(`
if redis.call('SETNX', KEYS[1], ARGV[1]) == 1 then
	if ARGV[3] == '1' then
		redis.call('ZADD', KEYS[2], ARGV[2], ARGV[4])
	end
	return {1}
end
return {0, redis.call('GET', KEYS[1])}
`)

// swapScript replaces the entry if its stored version equals ARGV[1].
// Returns 1 when swapped, 0 on version mismatch, -1 when the entry is missing.
var swapScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return -1
end
local decoded = cjson.decode(current)
if tonumber(decoded['version']) ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
if ARGV[4] == '1' then
	redis.call('ZADD', KEYS[2], ARGV[3], ARGV[5])
else
	redis.call('ZREM', KEYS[2], ARGV[5])
end
return 1
`)

type operationRecord struct {
	OperationName string          `json:"operationName"`
	ID            string          `json:"id"`
	Data          json.RawMessage `json:"data,omitempty"`
	State         string          `json:"state"`
	LastModified  time.Time       `json:"lastModified"`
	Version       int64           `json:"version"`
}

// OperationStore implements usecase.OperationStore using Redis. Each entry is one JSON string;
// non-terminal entries are also indexed in a sorted set scored by last modification time.
type OperationStore struct {
	client     *redis.Client
	prefix     string
	pendingKey string
}

// NewOperationStore creates a new OperationStore.
func NewOperationStore(client *redis.Client) *OperationStore {
	return &OperationStore{
		client:     client,
		prefix:     "operation:",
		pendingKey: "operation-pending",
	}
}

func (s *OperationStore) key(operationName, operationID string) string {
	return s.prefix + domain.OperationKey(operationName, operationID)
}

// Insert atomically stores info if the key does not exist.
func (s *OperationStore) Insert(ctx context.Context, info *domain.OperationExecutionInfo) (bool, *domain.OperationExecutionInfo, error) {
	raw, err := encodeOperation(info)
	if err != nil {
		return false, nil, err
	}

	res, err := insertScript.Run(ctx, s.client,
		[]string{s.key(info.OperationName, info.ID), s.pendingKey},
		raw, score(info.LastModified), pendingFlag(info.State), info.Key(),
	).Slice()
	if err != nil {
		return false, nil, fmt.Errorf("%w: insert %s: %v", domain.ErrStoreUnavailable, info.Key(), err)
	}

	if inserted, _ := res[0].(int64); inserted == 1 {
		return true, nil, nil
	}

	existingRaw, _ := res[1].(string)
	existing, err := decodeOperation([]byte(existingRaw))
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

// Get retrieves one ledger entry.
func (s *OperationStore) Get(ctx context.Context, operationName, operationID string) (*domain.OperationExecutionInfo, error) {
	raw, err := s.client.Get(ctx, s.key(operationName, operationID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrOperationNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %v", domain.ErrStoreUnavailable, domain.OperationKey(operationName, operationID), err)
	}

	return decodeOperation(raw)
}

// CompareAndSwap replaces the entry if its stored version equals expectedVersion.
func (s *OperationStore) CompareAndSwap(ctx context.Context, info *domain.OperationExecutionInfo, expectedVersion int64) (bool, error) {
	raw, err := encodeOperation(info)
	if err != nil {
		return false, err
	}

	res, err := swapScript.Run(ctx, s.client,
		[]string{s.key(info.OperationName, info.ID), s.pendingKey},
		expectedVersion, raw, score(info.LastModified), pendingFlag(info.State), info.Key(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: swap %s: %v", domain.ErrStoreUnavailable, info.Key(), err)
	}

	switch res {
	case 1:
		return true, nil
	case -1:
		return false, domain.ErrOperationNotFound
	default:
		return false, nil
	}
}

// ListStale lists non-terminal entries not modified since olderThan, oldest first.
func (s *OperationStore) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*domain.OperationExecutionInfo, error) {
	members, err := s.client.ZRangeByScore(ctx, s.pendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("(%d", olderThan.UnixMilli()),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = s.prefix + m
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	infos := make([]*domain.OperationExecutionInfo, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		info, err := decodeOperation([]byte(raw))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	return infos, nil
}

func encodeOperation(info *domain.OperationExecutionInfo) ([]byte, error) {
	return json.Marshal(operationRecord{
		OperationName: info.OperationName,
		ID:            info.ID,
		Data:          info.Data,
		State:         string(info.State),
		LastModified:  info.LastModified,
		Version:       info.Version,
	})
}

func decodeOperation(raw []byte) (*domain.OperationExecutionInfo, error) {
	var rec operationRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: ledger entry: %v", domain.ErrSchemaViolation, err)
	}

	return &domain.OperationExecutionInfo{
		OperationName: rec.OperationName,
		ID:            rec.ID,
		Data:          rec.Data,
		State:         domain.OperationState(rec.State),
		LastModified:  rec.LastModified,
		Version:       rec.Version,
	}, nil
}

func score(t time.Time) int64 {
	return t.UnixMilli()
}

func pendingFlag(state domain.OperationState) string {
	if state.IsTerminal() {
		return "0"
	}
	return "1"
}
