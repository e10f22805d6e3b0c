// Package sink runs a local HTTP endpoint that captures gateway webhook
// deliveries so operators can inspect payloads and verify signatures without
// standing up a receiver.
package sink

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	cron "github.com/robfig/cron/v3"

	"github.com/zapkit/zapctl/pkg/env"
	"github.com/zapkit/zapctl/pkg/log"
	"github.com/zapkit/zapctl/pkg/router"
	"github.com/zapkit/zapctl/pkg/signature"
)

const signatureHeader = "X-Webhook-Signature"

// Options tunes the sink. Zero values fall back to env-derived defaults.
type Options struct {
	// Addr is the listen address. Default SINK_ADDRESS:SINK_PORT,
	// falling back to 0.0.0.0:8900.
	Addr string
	// Secret verifies X-Webhook-Signature on incoming deliveries. Empty
	// records deliveries unchecked.
	Secret string
	// Keep caps the in-memory delivery ring.
	Keep int
	// Retention prunes deliveries older than this window. Zero keeps
	// everything until the ring evicts it.
	Retention time.Duration
}

func (o *Options) defaults() {
	if o.Addr == "" {
		address := env.GetEnvStringOrDefault("SINK_ADDRESS", "0.0.0.0")
		port := env.GetEnvStringOrDefault("SINK_PORT", "8900")
		o.Addr = address + ":" + port
	}
	if o.Secret == "" {
		o.Secret = env.GetEnvStringOrDefault("SINK_SECRET", "")
	}
	if o.Keep <= 0 {
		o.Keep = env.GetEnvIntOrDefault("SINK_KEEP", defaultKeep)
	}
	if o.Retention <= 0 {
		o.Retention = env.GetEnvDurationOrDefault("SINK_RETENTION", 0)
	}
}

// Server owns the fiber app and the delivery store.
type Server struct {
	opts  Options
	store *Store
	app   *fiber.App
}

func New(opts Options) *Server {
	opts.defaults()

	app := fiber.New(fiber.Config{
		ErrorHandler:          router.HttpErrorHandler,
		BodyLimit:             router.BodyLimitBytes(),
		DisableStartupMessage: true,
	})

	app.Use(router.HttpRequestID())
	app.Use(router.RecoveryMiddleware())

	app.Use(compress.New(compress.Config{
		Level: compress.Level(router.GZipLevel),
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: router.CORSOrigin,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST",
	}))

	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	app.Use(router.HttpRealIP())

	s := &Server{opts: opts, store: NewStore(opts.Keep)}

	app.Post("/", s.handleDelivery)
	app.Post("/hook", s.handleDelivery)
	app.Get("/deliveries", s.handleList)
	app.Get("/deliveries/:id", s.handleGet)
	app.Get("/stats", s.handleStats)
	app.Get("/healthz", s.handleHealth)

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Store exposes the delivery store for tests.
func (s *Server) Store() *Store {
	return s.store
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
	), cron.WithSeconds())

	if s.opts.Retention > 0 {
		retention := s.opts.Retention
		_, err := c.AddFunc("0 * * * * *", func() {
			if pruned := s.store.PruneOlderThan(time.Now().Add(-retention)); pruned > 0 {
				log.Op("sink").WithField("pruned", pruned).Info("retention sweep dropped old deliveries")
			}
		})
		if err != nil {
			log.Op("sink").WithField("error", err.Error()).Error("failed to schedule retention sweep")
		}
	}
	if env.GetEnvBoolOrDefault("SINK_STATS_CRON_ENABLED", true) {
		spec := env.GetEnvStringOrDefault("SINK_STATS_CRON_SPEC", "0 */5 * * * *")
		if _, err := c.AddFunc(spec, s.logStats); err != nil {
			log.Op("sink").WithField("error", err.Error()).Error("failed to schedule stats line")
		}
	}

	c.Start()
	defer c.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.opts.Addr)
	}()

	entry := log.Op("sink").WithField("addr", s.opts.Addr)
	if s.opts.Secret != "" {
		entry = entry.WithField("verify", true)
	}
	entry.Info("webhook sink listening")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.app.ShutdownWithContext(shutCtx)
	case err := <-errCh:
		return err
	}
}

// logStats emits the periodic delivery summary the stats cron schedules.
func (s *Server) logStats() {
	st := s.store.Stats()
	log.Op("sink").
		WithField("received", st.TotalReceived).
		WithField("retained", st.Retained).
		Info("delivery stats")
}

func (s *Server) handleDelivery(c *fiber.Ctx) error {
	body := c.Body()

	var sigState *bool
	if s.opts.Secret != "" {
		ok := signature.Verify(body, s.opts.Secret, c.Get(signatureHeader))
		sigState = &ok
		if !ok {
			router.Print(c).Warn("delivery rejected: bad signature")
			return router.ResponseUnauthorized(c, "invalid webhook signature")
		}
	}

	remoteIP := c.IP()
	if v := c.Locals("remote_ip"); v != nil {
		if ip, ok := v.(string); ok && ip != "" {
			remoteIP = ip
		}
	}

	d := NewDelivery(c.Path(), remoteIP, captureHeaders(c), body)
	d.SignatureValid = sigState
	s.store.Add(d)

	entry := router.Print(c).WithField("delivery", d.ID)
	if d.Event != "" {
		entry = entry.WithField("event", d.Event)
	}
	if d.SessionID != "" {
		entry = entry.WithField("session", d.SessionID)
	}
	entry.Info("delivery captured")

	return router.ResponseCreatedWithData(c, "delivery captured", fiber.Map{"id": d.ID})
}

func (s *Server) handleList(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return router.ResponseBadRequest(c, "limit must be a non-negative integer")
		}
		limit = parsed
	}
	event := strings.TrimSpace(c.Query("event"))
	return router.ResponseSuccessWithData(c, "", s.store.List(limit, event))
}

func (s *Server) handleGet(c *fiber.Ctx) error {
	d, ok := s.store.Get(c.Params("id"))
	if !ok {
		return router.ResponseNotFound(c, "delivery not found")
	}
	return router.ResponseSuccessWithData(c, "", d)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return router.ResponseSuccessWithData(c, "", s.store.Stats())
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return router.ResponseSuccess(c, "ok")
}

// captureHeaders copies the interesting request headers; hop-by-hop noise is
// dropped to keep stored deliveries small.
func captureHeaders(c *fiber.Ctx) map[string]string {
	keep := map[string]string{}
	for _, name := range []string{
		"Content-Type",
		"User-Agent",
		signatureHeader,
		"X-Request-ID",
	} {
		if v := c.Get(name); v != "" {
			keep[name] = v
		}
	}
	return keep
}
