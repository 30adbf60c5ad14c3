//go:build !integration

package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

// fakeClient is an in-memory RedisClient for unit tests. Published
// messages are routed to matching pattern subscriptions.
type fakeClient struct {
	mu   sync.Mutex
	data map[string]string
	subs map[string]chan *goredis.Message // pattern -> channel
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		data: make(map[string]string),
		subs: make(map[string]chan *goredis.Message),
	}
}

func (f *fakeClient) Ping(context.Context) error { return nil }

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = valueString(value)
	return nil
}

func (f *fakeClient) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeClient) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, _ := strconv.ParseInt(f.data[key], 10, 64)
	n++
	f.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeClient) Expire(context.Context, string, time.Duration) error { return nil }

func (f *fakeClient) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeClient) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeClient) Publish(_ context.Context, channel string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, ch := range f.subs {
		if strings.HasPrefix(channel, strings.TrimSuffix(pattern, "*")) {
			ch <- &goredis.Message{Channel: channel, Payload: valueString(payload)}
		}
	}
	return nil
}

func (f *fakeClient) Subscribe(ctx context.Context, channels ...string) <-chan *goredis.Message {
	ch := make(chan *goredis.Message, 16)
	f.mu.Lock()
	f.subs[channels[0]] = ch
	f.mu.Unlock()
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs, channels[0])
		f.mu.Unlock()
		close(ch)
	}()
	return ch
}

func (f *fakeClient) Close() error { return nil }

func valueString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
