package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockTimeout 等待锁超时
var ErrLockTimeout = errors.New("timed out waiting for sleep day lock")

// DayLocker 睡眠日期粒度的互斥，包住 "读取当日记录 → 评估 → 追加"
// 去重账本按日期跨设备共享，因此锁不区分设备
type DayLocker interface {
	Lock(ctx context.Context, sleepDateMillis int64) (unlock func(), err error)
}

// Key 锁键
func Key(prefix string, sleepDateMillis int64) string {
	return fmt.Sprintf("%s%d", prefix, sleepDateMillis)
}

// releaseScript 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDayLock 基于 SET NX PX 的分布式锁，多实例部署时使用
type RedisDayLock struct {
	client       *redis.Client
	prefix       string
	ttl          time.Duration
	wait         time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewRedisDayLock 创建 Redis 锁
func NewRedisDayLock(client *redis.Client, prefix string, ttl, wait time.Duration, logger *zap.Logger) *RedisDayLock {
	return &RedisDayLock{
		client:       client,
		prefix:       prefix,
		ttl:          ttl,
		wait:         wait,
		pollInterval: 50 * time.Millisecond,
		logger:       logger,
	}
}

// Lock 获取锁，最多等待 wait；返回的 unlock 可重复调用
func (l *RedisDayLock) Lock(ctx context.Context, sleepDateMillis int64) (func(), error) {
	key := Key(l.prefix, sleepDateMillis)
	token := uuid.New().String()

	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 调用方的 ctx 可能已取消，释放锁使用独立超时
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Warn("Failed to release sleep day lock",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		})
	}, nil
}

// LocalDayLock 进程内互斥，单实例或无 Redis 时使用
type LocalDayLock struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// NewLocalDayLock 创建进程内锁
func NewLocalDayLock() *LocalDayLock {
	return &LocalDayLock{locks: make(map[string]*localEntry)}
}

// Lock 获取锁，ctx 取消时放弃等待
func (l *LocalDayLock) Lock(ctx context.Context, sleepDateMillis int64) (func(), error) {
	key := Key("", sleepDateMillis)

	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, e, true) })
	}, nil
}

func (l *LocalDayLock) release(key string, e *localEntry, held bool) {
	if held {
		<-e.ch
	}
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}
