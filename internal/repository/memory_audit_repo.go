package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go-video-backend/internal/model"
)

type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

func (r *MemoryAuditRepository) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query = query.Normalize()
	userID := strings.TrimSpace(query.UserID)
	action := strings.TrimSpace(query.Action)

	r.mu.RLock()
	matched := make([]model.AuditEntry, 0, len(r.entries))
	for _, e := range r.entries {
		if userID != "" && e.UserID != userID {
			continue
		}
		if action != "" && !strings.EqualFold(e.Action, action) {
			continue
		}
		matched = append(matched, e)
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	meta := model.NewMeta(query.Page, query.Limit, len(matched))
	start := (query.Page - 1) * query.Limit
	if start >= len(matched) {
		return []model.AuditEntry{}, meta, nil
	}
	end := min(start+query.Limit, len(matched))
	return matched[start:end], meta, nil
}
