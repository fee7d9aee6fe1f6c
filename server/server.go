package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spanbridge/go-spanbridge/env"
	"github.com/spanbridge/go-spanbridge/publicapi"
	"github.com/spanbridge/go-spanbridge/service/logger"
	"github.com/spanbridge/go-spanbridge/service/sentryutil"
	"github.com/spanbridge/go-spanbridge/util"
)

// CoreInit builds the gin engine with the bridge routes mounted
func CoreInit(api *publicapi.PublicAPI) *gin.Engine {
	if env.GetString("ENV") != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(requestLogger(), recoverToSentry(), apiMiddleware(api))
	return handlersInit(router)
}

// apiMiddleware makes the PublicAPI reachable from any context derived from the request
func apiMiddleware(api *publicapi.PublicAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.GinContextToContext(c)
		publicapi.AddTo(c, api)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.For(c.Request.Context()).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request handled")
	}
}

// recoverToSentry reports panics before answering 500. Unlike gin.Recovery it forwards
// the panic to sentry so a crashing handler is not silent in production.
func recoverToSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				sentryutil.ReportPanic(c.Request.Context(), rec)
				c.AbortWithStatusJSON(http.StatusInternalServerError, util.ErrorResponse{Error: "internal server error"})
			}
		}()
		c.Next()
	}
}
