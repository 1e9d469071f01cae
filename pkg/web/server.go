//nolint:whitespace // can't make both editor and linter happy
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/trialslog/trial-score-manager-go/log"
	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/utils/broadcast"
)

// ScoreAPI is the scoring surface the server exposes.
// Implemented by service.ScoreService.
type ScoreAPI interface {
	EvaluateAttempt(ctx context.Context, competitorID, sectionID int) (
		*model.ProgressionResult, error)
	SubmitAttempt(ctx context.Context, competitorID, sectionID int,
		outcome model.Outcome) (*model.Attempt, error)
	CorrectAttempt(ctx context.Context, id uuid.UUID, outcome model.Outcome) (
		*model.Attempt, error)
	RemoveAttempt(ctx context.Context, id uuid.UUID) error
	GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error)
	GetAttempts(ctx context.Context) ([]*model.Attempt, error)
	GetCompetitorAttempts(ctx context.Context, competitorID int) (
		[]*model.Attempt, error)
	GetStandings(ctx context.Context) ([]*model.Leaderboard, error)
	GetClassStandings(ctx context.Context, classID int) (*model.Leaderboard, error)
}

// CatalogAPI is the configuration surface. Implemented by service.CatalogService.
type CatalogAPI interface {
	GetCatalog(ctx context.Context) (*model.Catalog, error)
	GetSections(ctx context.Context) ([]*model.Section, error)
	GetSection(ctx context.Context, id int) (*model.Section, error)
	CreateSection(ctx context.Context, name string) (*model.Section, error)
	RenameSection(ctx context.Context, id int, name string) error
	DeleteSection(ctx context.Context, id int) error
	GetClasses(ctx context.Context) ([]*model.Class, error)
	GetClass(ctx context.Context, id int) (*model.Class, error)
	CreateClass(ctx context.Context, arg *model.Class) (*model.Class, error)
	UpdateClass(ctx context.Context, arg *model.Class) (*model.Class, error)
	DeleteClass(ctx context.Context, id int) error
}

// CompetitorAPI is the roster surface. Implemented by service.CompetitorService.
type CompetitorAPI interface {
	GetCompetitors(ctx context.Context) ([]*model.Competitor, error)
	GetCompetitor(ctx context.Context, id int) (*model.Competitor, error)
	GetCompetitorByNumber(ctx context.Context, number int) (
		*model.Competitor, error)
	CreateCompetitor(ctx context.Context, arg *model.Competitor) (
		*model.Competitor, error)
	UpdateCompetitor(ctx context.Context, arg *model.Competitor) (
		*model.Competitor, error)
	DeleteCompetitor(ctx context.Context, id int) error
}

// AdminAPI is the destructive surface. Implemented by service.AdminService.
type AdminAPI interface {
	ResetAttempts(ctx context.Context) (int, error)
	ResetEvent(ctx context.Context) error
}

type Server struct {
	score       ScoreAPI
	catalog     CatalogAPI
	competitors CompetitorAPI
	admin       AdminAPI

	adminToken       string
	judgeToken       string
	minClientVersion string
	standings        broadcast.BroadcastServer[[]*model.Leaderboard]
	logger           *log.Logger
	router           *chi.Mux
}

type Option func(s *Server)

func WithScoreAPI(api ScoreAPI) Option {
	return func(s *Server) { s.score = api }
}

func WithCatalogAPI(api CatalogAPI) Option {
	return func(s *Server) { s.catalog = api }
}

func WithCompetitorAPI(api CompetitorAPI) Option {
	return func(s *Server) { s.competitors = api }
}

func WithAdminAPI(api AdminAPI) Option {
	return func(s *Server) { s.admin = api }
}

// WithAuthTokens configures the shared secrets. An empty token leaves the
// corresponding surface open, used for local development.
func WithAuthTokens(adminToken, judgeToken string) Option {
	return func(s *Server) {
		s.adminToken = adminToken
		s.judgeToken = judgeToken
	}
}

// WithStandingsBroadcast connects the live endpoint to recomputed standings.
func WithStandingsBroadcast(
	b broadcast.BroadcastServer[[]*model.Leaderboard],
) Option {
	return func(s *Server) { s.standings = b }
}

// WithMinClientVersion rejects live clients below the given semver.
func WithMinClientVersion(v string) Option {
	return func(s *Server) { s.minClientVersion = v }
}

func NewServer(opts ...Option) *Server {
	s := &Server{logger: log.Default().Named("web")}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRouter()
	return s
}

// Handler is the outermost handler including CORS and h2c support.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(newCORS().Handler(s.router), &http2.Server{})
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/live", s.handleLive)

	r.Route("/api", func(r chi.Router) {
		r.Get("/standings", s.handleStandings)
		r.Get("/standings/{classId}", s.handleClassStandings)
		r.Get("/catalog", s.handleCatalog)

		r.Route("/attempts", func(r chi.Router) {
			r.Get("/", s.handleListAttempts)
			r.Get("/evaluate", s.handleEvaluateAttempt)
			r.Get("/{id}", s.handleGetAttempt)
			r.With(s.requireJudge).Post("/", s.handleSubmitAttempt)
			r.With(s.requireJudge).Patch("/{id}", s.handleCorrectAttempt)
			r.With(s.requireJudge).Delete("/{id}", s.handleRemoveAttempt)
			r.With(s.requireAdmin).Delete("/", s.handleResetAttempts)
		})

		r.Route("/sections", func(r chi.Router) {
			r.Get("/", s.handleListSections)
			r.Get("/{id}", s.handleGetSection)
			r.With(s.requireAdmin).Post("/", s.handleCreateSection)
			r.With(s.requireAdmin).Put("/{id}", s.handleRenameSection)
			r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteSection)
		})

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", s.handleListClasses)
			r.Get("/{id}", s.handleGetClass)
			r.With(s.requireAdmin).Post("/", s.handleCreateClass)
			r.With(s.requireAdmin).Put("/{id}", s.handleUpdateClass)
			r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteClass)
		})

		r.Route("/competitors", func(r chi.Router) {
			r.Get("/", s.handleListCompetitors)
			r.Get("/{id}", s.handleGetCompetitor)
			r.Get("/{id}/attempts", s.handleCompetitorAttempts)
			r.With(s.requireAdmin).Post("/", s.handleCreateCompetitor)
			r.With(s.requireAdmin).Put("/{id}", s.handleUpdateCompetitor)
			r.With(s.requireAdmin).Delete("/{id}", s.handleDeleteCompetitor)
		})

		r.With(s.requireAdmin).Delete("/event", s.handleResetEvent)
	})

	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Debug("http request",
				log.String("method", r.Method),
				log.String("path", r.URL.Path),
				log.Int("status", ww.Status()),
				log.Duration("duration", time.Since(start)),
				log.String("requestId", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

func newCORS() *cors.Cors {
	// permissive on purpose, the typical deployment serves judge tablets
	// and spectator displays from changing origins on a paddock network
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool { return true },
		AllowedHeaders:  []string{"*"},
		MaxAge:          int(2 * time.Hour / time.Second),
	})
}
