package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/user/card-scraper/internal/entity"
	"github.com/user/card-scraper/internal/repository"
)

const (
	runHistoryKey   = "cardscraper:runs"
	runHistoryLimit = 50
)

// RunHistoryImpl keeps run summaries in a capped Redis list, newest at the head.
type RunHistoryImpl struct {
	client *redis.Client
}

var _ repository.RunHistory = (*RunHistoryImpl)(nil)

// NewRunHistory creates a new instance of RunHistoryImpl.
func NewRunHistory(client *redis.Client) *RunHistoryImpl {
	return &RunHistoryImpl{client: client}
}

// Push adds a summary to the head of the list and trims the tail.
func (r *RunHistoryImpl) Push(ctx context.Context, summary *entity.RunSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, runHistoryKey, raw)
		pipe.LTrim(ctx, runHistoryKey, 0, runHistoryLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record run summary: %w", err)
	}
	return nil
}

// Recent returns up to limit summaries, newest first.
func (r *RunHistoryImpl) Recent(ctx context.Context, limit int64) ([]*entity.RunSummary, error) {
	if limit <= 0 {
		return nil, nil
	}
	items, err := r.client.LRange(ctx, runHistoryKey, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	summaries := make([]*entity.RunSummary, 0, len(items))
	for _, item := range items {
		var s entity.RunSummary
		if err := json.Unmarshal([]byte(item), &s); err != nil {
			return nil, fmt.Errorf("corrupt run summary in history: %w", err)
		}
		summaries = append(summaries, &s)
	}
	return summaries, nil
}
