package retry

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"
)

// Action はリトライループで取るべきアクションを表す
type Action int

const (
	Abort   Action = iota // 処理を中止
	Wait                  // 待機して再試行
	Execute               // 処理を実行
)

var (
	ErrAborted   = errors.New("retry aborted")
	ErrExhausted = errors.New("retry attempts exhausted")
)

// Config はリトライの設定を保持する
// Attempts が 0 以下の場合は無制限に再試行する
type Config struct {
	Attempts     int
	BaseInterval time.Duration
	MaxBackoff   time.Duration
}

// DefaultConfig はデフォルトのリトライ設定を返す
func DefaultConfig() Config {
	return Config{
		Attempts:     0,
		BaseInterval: 500 * time.Millisecond,
		MaxBackoff:   10 * time.Second,
	}
}

// Backoff は指数バックオフ + ジッターを計算する
func Backoff(attempt int, baseInterval, maxBackoff time.Duration) time.Duration {
	d := maxBackoff
	if attempt < 32 {
		if shifted := baseInterval << attempt; shifted > 0 && shifted < maxBackoff {
			d = shifted
		}
	}
	// +/-10% jitter
	return time.Duration(int64(d) * int64(9+rand.Intn(3)) / 10)
}

// ShouldRetry はエラーに基づいてリトライすべきか判定する
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Executor はリトライ可能な処理を実行するインターフェース
type Executor interface {
	// DetermineAction は次に取るべきアクションを決定する
	DetermineAction() Action
	// Execute は処理を実行し、成功またはリトライ不可の場合trueを返す
	Execute(ctx context.Context, attempt int) bool
}

// Run はExecutorを使用してリトライループを実行する
func Run(ctx context.Context, cfg Config, executor Executor) error {
	for i := 0; cfg.Attempts <= 0 || i < cfg.Attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch executor.DetermineAction() {
		case Abort:
			return ErrAborted
		case Wait:
			if err := sleep(ctx, Backoff(i, cfg.BaseInterval, cfg.MaxBackoff)); err != nil {
				return err
			}
			continue
		case Execute:
			if executor.Execute(ctx, i) {
				return nil
			}
		}
	}

	return ErrExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
