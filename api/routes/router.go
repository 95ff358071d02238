package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/velurestudio/velure-backend/api/controllers"
	"github.com/velurestudio/velure-backend/api/middleware"
	"github.com/velurestudio/velure-backend/pkg/config"
	"github.com/velurestudio/velure-backend/pkg/logger"
	pkgredis "github.com/velurestudio/velure-backend/pkg/redis"
)

// Deps carries everything the API surface needs. Controllers consume narrow
// interfaces so tests and partial deployments can stub pieces independently.
type Deps struct {
	Memberships    middleware.MembershipResolver
	Delivery       controllers.ImageResolver
	Likes          controllers.LikeCounter
	Sets           controllers.SetStore
	SetPublisher   controllers.SetPublisher
	Watermarks     controllers.WatermarkSettingsStore
	Regenerator    controllers.Regenerator
	Forensic       controllers.ForensicReader
	ErasureQueue   controllers.ErasureQueue
	ErasureDrainer controllers.ErasureDrainer
	PatronSync     controllers.PatronSyncer
	Readiness      map[string]controllers.Pinger
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *pkgredis.Client,
	deps Deps,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	var idempotencyStore pkgredis.IdempotencyStore
	downloadLimit := middleware.DownloadRateLimit(nil, 0, 0, logg)
	if redisClient != nil {
		idempotencyStore = redisClient
		downloadLimit = middleware.DownloadRateLimit(redisClient, cfg.RateLimit.DownloadLimit, cfg.RateLimit.DownloadWindow, logg)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Memberships, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/images/{imageID}", func(r chi.Router) {
			r.Get("/view", controllers.ImageView(deps.Delivery, logg))
			r.With(downloadLimit).Get("/download", controllers.ImageDownload(deps.Delivery, logg))
			r.Post("/like", controllers.ImageLike(deps.Likes, logg))
			r.Delete("/like", controllers.ImageUnlike(deps.Likes, logg))
		})

		r.Post("/v1/me/erasure", controllers.ErasureRequestCreate(deps.ErasureQueue, logg))

		r.Route("/v1/creator", func(r chi.Router) {
			r.Use(middleware.RequireCreator(logg))

			r.Get("/ping", controllers.CreatorPing())

			r.Route("/sets", func(r chi.Router) {
				r.Get("/", controllers.SetList(deps.Sets, logg))
				r.Post("/", controllers.SetCreate(deps.Sets, logg))
				r.Patch("/{setID}/schedule", controllers.SetUpdateSchedule(deps.Sets, logg))
			})

			r.Route("/watermark", func(r chi.Router) {
				r.Get("/", controllers.WatermarkGet(deps.Watermarks, logg))
				r.Put("/", controllers.WatermarkUpsert(deps.Watermarks, logg))
				r.Post("/regenerate", controllers.WatermarkRegenerate(deps.Regenerator, logg))
			})

			r.Route("/forensic", func(r chi.Router) {
				r.Get("/images/{imageID}", controllers.ForensicInvestigateImage(deps.Forensic, cfg.Forensic.InvestigateLimit, logg))
				r.Get("/tracking/{trackingID}", controllers.ForensicInvestigateTracking(deps.Forensic, cfg.Forensic.InvestigateLimit, logg))
			})
		})
	})

	// Scheduler-facing triggers; protected by a shared secret rather than a
	// user token.
	r.Route("/ops", func(r chi.Router) {
		r.Use(middleware.CronSecret(cfg.Cron.SharedSecret, logg))
		r.Post("/patron-sync", controllers.OpsPatronSync(deps.PatronSync, logg))
		r.Post("/publish-due", controllers.OpsPublishDue(deps.SetPublisher, logg))
		r.Post("/erasure-drain", controllers.OpsErasureDrain(deps.ErasureDrainer, logg))
	})

	return r
}
