package authinfra

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SweepInterval 為背景清掃的預設週期。
const SweepInterval = time.Hour

type blacklistEntry struct {
	purgeAt time.Time
	reason  string
}

// Blacklist 為行程內的 token 撤銷名單，以 SHA-256 指紋為鍵。
// 所有方法皆為並行安全。
type Blacklist struct {
	mu        sync.RWMutex
	entries   map[string]blacklistEntry
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewBlacklist 建立空的撤銷名單，retention 為條目的最短保留時間。
func NewBlacklist(retention time.Duration, log *zap.Logger) *Blacklist {
	if log == nil {
		log = zap.NewNop()
	}
	return &Blacklist{
		entries:   make(map[string]blacklistEntry),
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

// Add 登記指紋。條目保留到 session 到期或最短保留期，取較晚者，
// 確保 token 在自然失效前都查得到。
func (b *Blacklist) Add(fingerprint string, sessionExpiry time.Time, reason string) {
	now := b.now()
	purgeAt := now.Add(b.retention)
	if sessionExpiry.After(purgeAt) {
		purgeAt = sessionExpiry
	}

	b.mu.Lock()
	b.entries[fingerprint] = blacklistEntry{purgeAt: purgeAt, reason: reason}
	b.mu.Unlock()

	b.log.Debug("token blacklisted",
		zap.String("reason", reason),
		zap.Time("purge_at", purgeAt),
	)
}

// Contains 查詢指紋是否在名單內。逾期條目順手刪除並回報不存在。
func (b *Blacklist) Contains(fingerprint string) bool {
	now := b.now()

	b.mu.RLock()
	e, ok := b.entries[fingerprint]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if !e.purgeAt.After(now) {
		b.mu.Lock()
		// 重新確認，期間可能已被其他 goroutine 更新。
		if e, ok = b.entries[fingerprint]; ok && !e.purgeAt.After(now) {
			delete(b.entries, fingerprint)
		}
		b.mu.Unlock()
		return false
	}
	return true
}

// Sweep 移除所有逾期條目，回傳移除數量。重複執行結果相同。
func (b *Blacklist) Sweep() int {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for fp, e := range b.entries {
		if !e.purgeAt.After(now) {
			delete(b.entries, fp)
			removed++
		}
	}
	return removed
}

// Stats 回傳名單統計。
type Stats struct {
	Total     int       `json:"total"`
	Expired   int       `json:"expirados"`
	Now       time.Time `json:"consultadoEn"`
	NextSweep time.Time `json:"proximaLimpieza"`
}

// Stats 統計目前條目數與其中已逾期待清者，並附上下次清掃時間
// （下一個整點清掃週期邊界）。
func (b *Blacklist) Stats() Stats {
	now := b.now()

	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Stats{
		Total:     len(b.entries),
		Now:       now,
		NextSweep: now.Truncate(SweepInterval).Add(SweepInterval),
	}
	for _, e := range b.entries {
		if !e.purgeAt.After(now) {
			s.Expired++
		}
	}
	return s
}

// StartSweeper 啟動背景清掃 goroutine，ctx 取消時停止。
// 清掃的任何異常只記錄不往外拋。
func (b *Blacklist) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = SweepInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				b.log.Info("blacklist sweeper stopped")
				return
			case <-ticker.C:
				b.sweepOnce()
			}
		}
	}()
}

func (b *Blacklist) sweepOnce() {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("blacklist sweep panicked", zap.Any("panic", r))
		}
	}()
	removed := b.Sweep()
	if removed > 0 {
		b.log.Info("blacklist sweep completed", zap.Int("removed", removed))
	}
}
