package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pinger はDBの疎通確認インターフェース。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitConfig は起動時のDB接続待ちの設定。
type WaitConfig struct {
	Attempts       int           // 試行回数（1以上）
	InitialBackoff time.Duration // 初回の待機時間
	MaxBackoff     time.Duration // 待機時間の上限
	PingTimeout    time.Duration // 1回のPingのタイムアウト
}

// DefaultWaitConfig は既定の接続待ち設定を返す。
// 1秒から倍々に待ち、最大8秒、6回まで試行する。
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		Attempts:       6,
		InitialBackoff: time.Second,
		MaxBackoff:     8 * time.Second,
		PingTimeout:    5 * time.Second,
	}
}

// CalculateBackoff は失敗回数に基づいて指数バックオフの待機時間を計算する。
// initialから2倍ずつ増加し、maxで頭打ちになる。
func CalculateBackoff(failures int, initial, max time.Duration) time.Duration {
	delay := initial
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > max {
			return max
		}
	}
	return delay
}

// WaitForDB はDBに接続できるまで指数バックオフでPingを繰り返す。
// コンテナ起動直後にDBの準備が整っていない場合に使う。
func WaitForDB(ctx context.Context, db Pinger, cfg WaitConfig) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.Attempts-1 {
			break
		}

		delay := CalculateBackoff(attempt, cfg.InitialBackoff, cfg.MaxBackoff)
		slog.Warn("database is not ready, retrying",
			slog.Int("attempt", attempt+1),
			slog.Duration("retry_in", delay),
			slog.String("error", lastErr.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("gave up waiting for database: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("failed to ping database after %d attempts: %w", cfg.Attempts, lastErr)
}
