package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/field-placement-api/internal/dto"
)

const (
	pendingSelectionKeyPrefix = "selection:pending:"
	pendingSelectionIndexKey  = "selection:pending:index"
)

// SelectionRepository stores the transient pending selection per student.
// A pending selection exists only between select and confirm or cancel. The
// TTL bounds how long an unconfirmed choice can hold a seat; every pending
// entry is also tracked in a sorted set scored by its expiry so the sweep
// can release seats whose key lapsed.
type SelectionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(client *redis.Client, ttl time.Duration) *SelectionRepository {
	return &SelectionRepository{client: client, ttl: ttl}
}

func pendingSelectionKey(studentID string) string {
	return pendingSelectionKeyPrefix + studentID
}

func pendingSelectionMember(studentID, schoolID string) string {
	return studentID + "|" + schoolID
}

// SetPending records a pending selection for the student. Returns false when
// the student already has one; the existing entry is left untouched.
func (r *SelectionRepository) SetPending(ctx context.Context, studentID string, pending dto.PendingSelection) (bool, error) {
	payload, err := json.Marshal(pending)
	if err != nil {
		return false, fmt.Errorf("marshal pending selection: %w", err)
	}

	ok, err := r.client.SetNX(ctx, pendingSelectionKey(studentID), payload, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set pending selection: %w", err)
	}
	if !ok {
		return false, nil
	}

	member := redis.Z{
		Score:  float64(time.Now().Add(r.ttl).Unix()),
		Member: pendingSelectionMember(studentID, pending.SchoolID),
	}
	if err := r.client.ZAdd(ctx, pendingSelectionIndexKey, member).Err(); err != nil {
		// Without the index entry the sweep could never reclaim the seat,
		// so roll the key back and let the caller release the reservation.
		_ = r.client.Del(ctx, pendingSelectionKey(studentID))
		return false, fmt.Errorf("index pending selection: %w", err)
	}
	return true, nil
}

// GetPending returns the student's pending selection, or nil when none exists.
func (r *SelectionRepository) GetPending(ctx context.Context, studentID string) (*dto.PendingSelection, error) {
	raw, err := r.client.Get(ctx, pendingSelectionKey(studentID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("get pending selection: %w", err)
	}

	var pending dto.PendingSelection
	if err := json.Unmarshal(raw, &pending); err != nil {
		return nil, fmt.Errorf("unmarshal pending selection: %w", err)
	}
	return &pending, nil
}

// ClearPending removes the student's pending selection and its index entry.
// Returns whether an entry was actually removed.
func (r *SelectionRepository) ClearPending(ctx context.Context, studentID, schoolID string) (bool, error) {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, pendingSelectionKey(studentID))
	pipe.ZRem(ctx, pendingSelectionIndexKey, pendingSelectionMember(studentID, schoolID))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("clear pending selection: %w", err)
	}
	return del.Val() > 0, nil
}

// ExpiredPending lists pending selections whose hold lapsed at or before now.
func (r *SelectionRepository) ExpiredPending(ctx context.Context, now time.Time) ([]dto.ExpiredSelection, error) {
	members, err := r.client.ZRangeByScore(ctx, pendingSelectionIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("list expired selections: %w", err)
	}

	out := make([]dto.ExpiredSelection, 0, len(members))
	for _, member := range members {
		studentID, schoolID, ok := strings.Cut(member, "|")
		if !ok {
			continue
		}
		out = append(out, dto.ExpiredSelection{StudentID: studentID, SchoolID: schoolID})
	}
	return out, nil
}

// DropExpired claims one expired entry. Only the caller that actually removed
// the index member may release the seat, so concurrent sweeps never release
// the same reservation twice.
func (r *SelectionRepository) DropExpired(ctx context.Context, entry dto.ExpiredSelection) (bool, error) {
	removed, err := r.client.ZRem(ctx, pendingSelectionIndexKey, pendingSelectionMember(entry.StudentID, entry.SchoolID)).Result()
	if err != nil {
		return false, fmt.Errorf("drop expired selection: %w", err)
	}
	// The pending key shares the index entry's TTL and is already gone; it
	// is left alone here in case the student re-selected in the meantime.
	return removed > 0, nil
}
