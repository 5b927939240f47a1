package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/photo-platform/internal/config"
    "github.com/iliyamo/photo-platform/internal/logger"
)

// captureWriter tees the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int64
    truncated bool
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.truncated {
        if cw.limit > 0 && int64(cw.buf.Len()+len(b)) > cw.limit {
            cw.truncated = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKey is <prefix>:<namespace>:<sha1(route?query)>.
func cacheKey(cfg config.CacheConfig, namespace string, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:%s:%x", cfg.Prefix, namespace, sum[:])
}

// Cached entries are Redis hashes holding the content type and body.
const (
    fieldType = "type"
    fieldBody = "body"
)

func storeEntry(ctx context.Context, rdb *redis.Client, key, contentType string, body []byte, ttl time.Duration) error {
    _, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
        p.HSet(ctx, key, fieldType, contentType, fieldBody, body)
        p.Expire(ctx, key, ttl)
        return nil
    })
    return err
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (contentType string, body []byte, ok bool, err error) {
    m, err := rdb.HGetAll(ctx, key).Result()
    if err != nil {
        return "", nil, false, err
    }
    b, ok := m[fieldBody]
    if !ok {
        return "", nil, false, nil
    }
    return m[fieldType], []byte(b), true, nil
}

// ResponseCache serves cached 200 responses for the configured methods and
// stores misses for cfg.TTL. A disabled config or nil client turns it into
// a pass-through; Redis errors fall back to the handler.
func ResponseCache(cfg config.CacheConfig, namespace string, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, namespace, c)

            contentType, body, hit, err := loadEntry(ctx, rdb, key)
            if err != nil {
                logger.Log.Warnw("response cache read failed", "key", key, "error", err)
            }
            if hit {
                c.Response().Header().Set("X-Cache", "HIT")
                return c.Blob(http.StatusOK, contentType, body)
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.truncated {
                return nil
            }
            ct := c.Response().Header().Get(echo.HeaderContentType)
            if err := storeEntry(context.WithoutCancel(ctx), rdb, key, ct, cw.buf.Bytes(), cfg.TTL); err != nil {
                logger.Log.Warnw("response cache write failed", "key", key, "error", err)
            }
            return nil
        }
    }
}
