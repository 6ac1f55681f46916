// Package api exposes a preference store over HTTP for management tools.
package api

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/celerix-dev/celerix-prefs/internal/codec"
	"github.com/celerix-dev/celerix-prefs/internal/engine"
	"github.com/celerix-dev/celerix-prefs/internal/telemetry"
	"github.com/celerix-dev/celerix-prefs/pkg/prefs"
	"github.com/celerix-dev/celerix-prefs/pkg/schema"
	"github.com/celerix-dev/celerix-prefs/pkg/sdk"
)

type Handler struct {
	Store sdk.Store
}

// Register mounts the API routes on g.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.GET("/suites", h.GetSuites)
	g.GET("/suites/:suite", h.GetSuite)
	g.GET("/suites/:suite/keys/:key", h.Get)
	g.PUT("/suites/:suite/keys/:key", h.Set)
	g.DELETE("/suites/:suite/keys/:key", h.Delete)
	g.POST("/move", h.Move)
}

func (h *Handler) GetSuites(c *gin.Context) {
	suites, err := h.Store.Suites()
	if err != nil {
		fail(c, err)
		return
	}
	if suites == nil {
		suites = []string{}
	}
	c.JSON(http.StatusOK, suites)
}

func (h *Handler) GetSuite(c *gin.Context) {
	suite := c.Param("suite")
	data, err := h.Store.Dictionary(suite)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Snapshot{
		Suite:      suite,
		Entries:    data,
		ExportedAt: time.Now().UTC(),
	})
}

func (h *Handler) Get(c *gin.Context) {
	suite, key := c.Param("suite"), c.Param("key")
	val, err := h.Store.Get(suite, key)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, schema.Entry{Suite: suite, Key: key, Value: val})
}

func (h *Handler) Set(c *gin.Context) {
	suite, key := c.Param("suite"), c.Param("key")

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var val any
	if err := codec.Decode(body, &val); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json value"})
		return
	}

	// A JSON null clears the key, the same as DELETE.
	if val == nil {
		err = h.Store.Delete(suite, key)
	} else {
		err = h.Store.Set(suite, key, val)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.Store.Delete(c.Param("suite"), c.Param("key")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) Move(c *gin.Context) {
	var input schema.MoveRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Move(input.Src, input.Dst, input.Key); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, prefs.ErrNotFound) || errors.Is(err, engine.ErrSuiteNotFound) {
		status = http.StatusNotFound
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// RequireToken rejects requests without "Authorization: Bearer <token>".
// An empty token disables the check.
func RequireToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Tracing opens a span for every request.
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := telemetry.Tracer().Start(c.Request.Context(), fmt.Sprintf("%s %s", c.Request.Method, route))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		)
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, c.Errors.String())
		}
	}
}
