package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"blockfund/internal/http/handlers"
	"blockfund/internal/metrics"
	"blockfund/internal/middleware"
)

// Options configures the middleware stack.
type Options struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	RateLimitPerMin int
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		metrics.Instrument,
		middleware.CORS(opts.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", metrics.Handler())
	if app.Store != nil {
		r.Handle("/static/*", http.StripPrefix("/static", app.Store.Handler()))
	}

	r.Route("/v1", func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Use(middleware.I18N(opts.DefaultLocale, opts.CountryLookup))

		r.Get("/openapi.json", app.OpenAPIJSON)
		r.Get("/docs", app.OpenAPIDocs)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", app.AuthSignup)
			r.Post("/login", app.AuthLogin)
			r.Post("/google", app.AuthGoogleVerify)
		})

		r.Get("/campaigns", app.ListCampaigns)
		r.Get("/campaigns/{id}", app.GetCampaign)
		r.Get("/campaigns/{id}/donations", app.ListDonations)
		r.Post("/campaigns/{id}/donations/quote", app.QuoteDonation)
		r.Get("/campaigns/{id}/votes", app.ListVotes)
		r.Get("/realtime", app.Realtime)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(app.JWTSecret))

			r.Get("/me", app.Me)
			r.Get("/me/campaigns", app.MyCampaigns)
			r.Get("/me/donations", app.MyDonations)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/", app.WalletInfo)
				r.Post("/challenge", app.WalletChallenge)
				r.Post("/verify", app.WalletVerify)
			})

			r.Post("/media", app.UploadMedia)

			r.Post("/campaigns", app.CreateCampaign)
			r.Post("/campaigns/{id}/verify", app.VerifyCampaign)
			r.Get("/campaigns/{id}/export", app.ExportCampaign)
			r.Post("/campaigns/{id}/votes", app.CastVote)
			r.Post("/campaigns/{id}/donations", app.CreateDonation)
		})
	})

	return r
}
