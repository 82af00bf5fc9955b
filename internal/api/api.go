// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api exposes the ad server over HTTP: the ad-tag endpoint, the
// click and conversion endpoints, health, and metrics.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adxyz/adserve/core"
	"github.com/adxyz/adserve/pkg/log"
	"github.com/adxyz/adserve/pkg/metric"
)

// Server wires the decision engine to its HTTP routes.
type Server struct {
	engine  *core.Engine
	events  *core.EventLog
	metrics *metric.Metrics
	log     log.Logger
}

// NewServer creates the HTTP surface. metrics may be nil.
func NewServer(engine *core.Engine, events *core.EventLog, metrics *metric.Metrics, logger log.Logger) *Server {
	return &Server{engine: engine, events: events, metrics: metrics, log: logger}
}

// Routes builds the gin engine. The ad path comes in two shapes,
// /ad/<tagID> and /ad/<type>/<tagID> with type js or js2.
func (s *Server) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID())

	r.GET("/ad/:first", s.handleAd)
	r.GET("/ad/:first/:second", s.handleAd)
	r.GET("/click/:click_id", s.handleClick)
	r.GET("/conv/:click_id", s.handleConversion)
	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return r
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Request-ID", uuid.New().String())
		c.Next()
	}
}

func (s *Server) handleAd(c *gin.Context) {
	req := adRequestFromContext(c)

	dec, fail := s.engine.Serve(c.Request.Context(), req)
	if fail != nil {
		s.log.Debug("ad request failed",
			"tag_id", req.TagID, "code", fail.Code, "status", fail.Status)
		writeFailure(c, fail)
		return
	}

	switch dec.View {
	case core.ViewJS:
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(jsWrap(dec.Code)))
	case core.ViewJS2:
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(js2Wrap(dec.Code)))
	default:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(dec.Code))
	}
}

// adRequestFromContext flattens transport state into the engine's explicit
// request value.
func adRequestFromContext(c *gin.Context) *core.AdRequest {
	tagType := ""
	tagID := c.Param("first")
	if second := c.Param("second"); second != "" {
		tagType = tagID
		tagID = second
	}

	params := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}

	return &core.AdRequest{
		TagID:        tagID,
		TagType:      tagType,
		SessionID:    c.Query("session_id"),
		PlacementID:  c.Query("pid"),
		PublisherID:  c.Query("pubid"),
		Width:        c.Query("w"),
		Height:       c.Query("h"),
		Params:       params,
		ForwardedFor: c.GetHeader("X-Forwarded-For"),
		RemoteAddr:   c.Request.RemoteAddr,
		UserAgent:    c.Request.UserAgent(),
		Timestamp:    time.Now(),
	}
}

// transparentGIF is the 1x1 pixel served by the click and conversion
// endpoints.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

func (s *Server) handleClick(c *gin.Context) {
	if fail := s.events.LogClick(c.Request.Context(), c.Param("click_id"), time.Now()); fail != nil {
		writeFailure(c, fail)
		return
	}
	c.Data(http.StatusOK, "image/gif", transparentGIF)
}

func (s *Server) handleConversion(c *gin.Context) {
	if fail := s.events.LogConversion(c.Request.Context(), c.Param("click_id"), time.Now()); fail != nil {
		writeFailure(c, fail)
		return
	}
	c.Data(http.StatusOK, "image/gif", transparentGIF)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeFailure(c *gin.Context, fail *core.Failure) {
	c.Data(fail.Status, "text/html; charset=utf-8",
		[]byte("<!-- "+fail.Message+" ["+fail.Code+"] -->"))
}

// jsWrap delivers the creative through document.write for script tags.
var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", ``,
	`</`, `<\/`,
)

func jsWrap(code string) string {
	return "document.write('" + jsEscaper.Replace(code) + "');"
}

// js2Wrap injects via the DOM for pages that forbid document.write.
func js2Wrap(code string) string {
	return "(function(){var d=document,e=d.createElement('div');e.innerHTML='" +
		jsEscaper.Replace(code) + "';(d.body||d.documentElement).appendChild(e);})();"
}
