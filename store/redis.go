package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reviewlens/types"
)

const (
	productKeyPrefix    = "product:"
	runKeyPrefix        = "run:"
	analysisKeyPrefix   = "analysis:"
	comparisonKeyPrefix = "comparison:"
	productIndexKey     = "products"
)

// casStatusScript transitions product.status only when it matches the
// expected value. Runs server-side so concurrent StartAnalysis calls for the
// same product cannot both win.
var casStatusScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then
  return -1
end
local obj = cjson.decode(raw)
if obj['status'] ~= ARGV[1] then
  return 0
end
obj['status'] = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(obj))
return 1
`)

// RedisConfig configures the Redis store connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on top of a single Redis instance.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	var p types.Product
	if err := s.getJSON(ctx, productKeyPrefix+id, &p); err != nil {
		if err == redis.Nil {
			return nil, notFound("product", id)
		}
		return nil, types.Wrap(types.KindInternal, err, "load product %s", id)
	}
	return &p, nil
}

func (s *RedisStore) PutProduct(ctx context.Context, p *types.Product) error {
	if err := s.putJSON(ctx, productKeyPrefix+p.ID, p); err != nil {
		return types.Wrap(types.KindInternal, err, "store product %s", p.ID)
	}
	if err := s.client.SAdd(ctx, productIndexKey, p.ID).Err(); err != nil {
		return types.Wrap(types.KindInternal, err, "index product %s", p.ID)
	}
	return nil
}

func (s *RedisStore) ListProducts(ctx context.Context) ([]*types.Product, error) {
	ids, err := s.client.SMembers(ctx, productIndexKey).Result()
	if err != nil {
		return nil, types.Wrap(types.KindInternal, err, "list products")
	}

	products := make([]*types.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProduct(ctx, id)
		if types.IsKind(err, types.KindNotFound) {
			continue // index entry outlived the record
		}
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *RedisStore) CompareAndSetStatus(ctx context.Context, id string, expected, next types.ProductStatus) (bool, error) {
	res, err := casStatusScript.Run(ctx, s.client,
		[]string{productKeyPrefix + id}, string(expected), string(next)).Int()
	if err != nil {
		return false, types.Wrap(types.KindInternal, err, "cas status for %s", id)
	}
	if res == -1 {
		return false, notFound("product", id)
	}
	return res == 1, nil
}

func (s *RedisStore) GetRun(ctx context.Context, productID string) (*types.PipelineRun, error) {
	var run types.PipelineRun
	if err := s.getJSON(ctx, runKeyPrefix+productID, &run); err != nil {
		if err == redis.Nil {
			return nil, notFound("run", productID)
		}
		return nil, types.Wrap(types.KindInternal, err, "load run %s", productID)
	}
	return &run, nil
}

func (s *RedisStore) PutRun(ctx context.Context, run *types.PipelineRun) error {
	if err := s.putJSON(ctx, runKeyPrefix+run.ProductID, run); err != nil {
		return types.Wrap(types.KindInternal, err, "store run %s", run.ProductID)
	}
	return nil
}

func (s *RedisStore) GetAnalysis(ctx context.Context, productID string) (*types.AnalysisResult, error) {
	var res types.AnalysisResult
	if err := s.getJSON(ctx, analysisKeyPrefix+productID, &res); err != nil {
		if err == redis.Nil {
			return nil, notFound("analysis", productID)
		}
		return nil, types.Wrap(types.KindInternal, err, "load analysis %s", productID)
	}
	return &res, nil
}

func (s *RedisStore) PutAnalysis(ctx context.Context, res *types.AnalysisResult) error {
	if err := s.putJSON(ctx, analysisKeyPrefix+res.ProductID, res); err != nil {
		return types.Wrap(types.KindInternal, err, "store analysis %s", res.ProductID)
	}
	return nil
}

func (s *RedisStore) GetComparison(ctx context.Context, id string) (*types.Comparison, error) {
	var c types.Comparison
	if err := s.getJSON(ctx, comparisonKeyPrefix+id, &c); err != nil {
		if err == redis.Nil {
			return nil, notFound("comparison", id)
		}
		return nil, types.Wrap(types.KindInternal, err, "load comparison %s", id)
	}
	return &c, nil
}

func (s *RedisStore) PutComparison(ctx context.Context, c *types.Comparison) error {
	if err := s.putJSON(ctx, comparisonKeyPrefix+c.ID, c); err != nil {
		return types.Wrap(types.KindInternal, err, "store comparison %s", c.ID)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) getJSON(ctx context.Context, key string, out any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *RedisStore) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, raw, 0).Err()
}
