package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"taskhub/internal/metrics"
)

// Handler 订阅者处理函数
type Handler func(ctx context.Context, e Event) error

// FailureHook 订阅者失败时回调，嵌套级联的失败只在最内层回调一次
type FailureHook func(ctx context.Context, e Event, subscriber string, err error)

type subscription struct {
	name    string
	handler Handler
}

// Bus 同步的进程内事件总线。
// 订阅者按注册顺序在发布者的 goroutine 中执行，某个订阅者失败不会阻止后续订阅者。
// 订阅者可以再次发布事件（级联），内层失败会并入外层的 CascadeError。
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Name][]subscription
	hooks       []FailureHook

	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewBus(logger *zap.Logger, m *metrics.Metrics) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subscribers: make(map[Name][]subscription),
		logger:      logger,
		metrics:     m,
	}
}

// Subscribe 注册订阅者，应在启动阶段完成
func (b *Bus) Subscribe(name Name, subscriber string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[name] = append(b.subscribers[name], subscription{name: subscriber, handler: handler})
}

// On 以强类型方式注册订阅者
func On[T Event](b *Bus, subscriber string, handler func(ctx context.Context, e T) error) {
	var zero T
	b.Subscribe(zero.Name(), subscriber, func(ctx context.Context, e Event) error {
		typed, ok := e.(T)
		if !ok {
			return fmt.Errorf("subscriber %s: unexpected event type %T", subscriber, e)
		}
		return handler(ctx, typed)
	})
}

// OnFailure 注册失败回调
func (b *Bus) OnFailure(hook FailureHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, hook)
}

// Subscribers 返回某事件的订阅者名称（按注册顺序）
func (b *Bus) Subscribers(name Name) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.subscribers[name]))
	for _, s := range b.subscribers[name] {
		names = append(names, s.name)
	}
	return names
}

// Publish 依次调用全部订阅者，全部成功返回 nil，否则返回 *CascadeError
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[e.Name()]...)
	hooks := append([]FailureHook(nil), b.hooks...)
	b.mu.RUnlock()

	b.metrics.EventPublished(string(e.Name()))

	if len(subs) == 0 {
		b.logger.Debug("事件无订阅者，已丢弃", zap.String("event", string(e.Name())))
		return nil
	}

	var failures []SubscriberFailure
	for _, s := range subs {
		err := b.dispatch(ctx, s, e)
		if err == nil {
			continue
		}

		failures = append(failures, SubscriberFailure{Subscriber: s.name, Err: err})

		var nested *CascadeError
		if errors.As(err, &nested) {
			continue
		}

		b.metrics.CascadeFailed(string(e.Name()), s.name)
		b.logger.Error("级联订阅者执行失败",
			zap.String("event", string(e.Name())),
			zap.String("subscriber", s.name),
			zap.String("subject", e.Subject()),
			zap.Error(err),
		)
		for _, hook := range hooks {
			hook(ctx, e, s.name, err)
		}
	}

	if len(failures) == 0 {
		return nil
	}
	return &CascadeError{Event: e.Name(), Subject: e.Subject(), Failures: failures}
}

func (b *Bus) dispatch(ctx context.Context, s subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %s panic: %v", s.name, r)
		}
	}()
	return s.handler(ctx, e)
}

// SubscriberFailure 单个订阅者的失败
type SubscriberFailure struct {
	Subscriber string
	Err        error
}

// CascadeError 一次发布中失败的订阅者集合
type CascadeError struct {
	Event    Name
	Subject  string
	Failures []SubscriberFailure
}

func (e *CascadeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Subscriber, f.Err))
	}
	return fmt.Sprintf("cascade %s(%s): %d subscriber(s) failed: %s", e.Event, e.Subject, len(e.Failures), strings.Join(parts, "; "))
}

func (e *CascadeError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

// IsCascadeError 判断错误链中是否包含级联失败
func IsCascadeError(err error) bool {
	var ce *CascadeError
	return errors.As(err, &ce)
}
