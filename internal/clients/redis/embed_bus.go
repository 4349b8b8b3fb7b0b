package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/geocatalog-backend/internal/jobs/embed"
	"github.com/yungbote/geocatalog-backend/internal/platform/logger"
)

// embedBus carries embedding work to the out-of-process worker and its
// results back, over two pub/sub channels.
type embedBus struct {
	log        *logger.Logger
	rdb        *goredis.Client
	reqChannel string
	resChannel string
}

func NewEmbedBus(log *logger.Logger) (embed.Bus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &embedBus{
		log:        log.With("client", "RedisEmbedBus"),
		rdb:        rdb,
		reqChannel: strings.TrimSpace(envOr("EMBED_REQUEST_CHANNEL", "geocatalog.embed.requests")),
		resChannel: strings.TrimSpace(envOr("EMBED_RESULT_CHANNEL", "geocatalog.embed.results")),
	}, nil
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func (b *embedBus) PublishRequest(ctx context.Context, req embed.Request) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}
	return b.rdb.Publish(ctx, b.reqChannel, raw).Err()
}

func (b *embedBus) SubscribeResults(ctx context.Context, onResult func(embed.Result)) error {
	sub := b.rdb.Subscribe(ctx, b.resChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.resChannel, err)
	}
	ch := sub.Channel()
	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var res embed.Result
				if err := json.Unmarshal([]byte(msg.Payload), &res); err != nil {
					b.log.Warn("dropping malformed embed result", "error", err)
					continue
				}
				onResult(res)
			}
		}
	}()
	return nil
}

func (b *embedBus) Close() error {
	return b.rdb.Close()
}
