package middleware

import (
	"bytes"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain/keys"
	"github.com/x-xyz/gatemarket/service/cache"
	"github.com/x-xyz/gatemarket/service/cache/provider"
	"github.com/x-xyz/gatemarket/service/cache/provider/compound"
	"github.com/x-xyz/gatemarket/service/cache/provider/primitive"
	redisCache "github.com/x-xyz/gatemarket/service/cache/provider/redis"
	"github.com/x-xyz/gatemarket/service/redis"
)

const localCacheSizeMB = 64

// DefaultCacheBypass lists read paths whose answers change with every write and must stay fresh
var DefaultCacheBypass = []string{"/health", "/purchases/", "/accounts/"}

// NewCacheProvider layers an in-process cache over redis, redis is optional
func NewCacheProvider(r redis.Service) provider.Provider {
	local := primitive.NewPrimitive(keys.PfxHttpCache, localCacheSizeMB)
	if r == nil {
		return local
	}
	return compound.NewCompound(local, redisCache.NewRedis(r))
}

type cachedResponse struct {
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// teeWriter copies the body into buf while it is written to the client
type teeWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *teeWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *teeWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// requestKey hashes the path with its query, Encode sorts by parameter name
func requestKey(r *http.Request) string {
	h := fnv.New64a()
	io.WriteString(h, r.URL.Path)
	io.WriteString(h, "?")
	io.WriteString(h, r.URL.Query().Encode())
	return strconv.FormatUint(h.Sum64(), 36)
}

func bypassed(path string, prefixes []string) bool {
	for _, pfx := range prefixes {
		if strings.HasPrefix(path, pfx) {
			return true
		}
	}
	return false
}

// CacheHttp serves successful GET responses from p for ttl. A zero ttl disables caching,
// requests under any bypass prefix always reach the handler.
func CacheHttp(p provider.Provider, ttl time.Duration, bypass ...string) echo.MiddlewareFunc {
	if ttl <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	responses := cache.New(cache.ServiceConfig{
		Ttl:   ttl,
		Pfx:   keys.PfxHttpCache,
		Cache: p,
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method != http.MethodGet || bypassed(req.URL.Path, bypass) {
				return next(c)
			}

			ctx := c.Get("ctx").(ctx.Ctx)
			key := requestKey(req)

			var hit cachedResponse
			if err := responses.Get(ctx, key, &hit); err == nil {
				for k, v := range hit.Header {
					c.Response().Header()[k] = v
				}
				c.Response().WriteHeader(http.StatusOK)
				_, err := c.Response().Write(hit.Body)
				return err
			} else if err != cache.ErrNotFound {
				ctx.WithField("err", err).Error("responses.Get failed")
			}

			w := &teeWriter{ResponseWriter: c.Response().Writer}
			c.Response().Writer = w
			if err := next(c); err != nil {
				c.Error(err)
			}
			if w.status != http.StatusOK {
				return nil
			}

			miss := cachedResponse{Header: c.Response().Header().Clone(), Body: w.buf.Bytes()}
			if err := responses.Set(ctx, key, miss); err != nil {
				ctx.WithFields(log.Fields{"err": err, "path": req.URL.Path}).Error("responses.Set failed")
			}
			return nil
		}
	}
}
