package fx

import (
	"context"
	"errors"
	"log"

	"github.com/amityadav/researchcrew/internal/config"
	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/mail"
	"github.com/amityadav/researchcrew/internal/quota"
	"github.com/amityadav/researchcrew/internal/scheduler"
	"github.com/amityadav/researchcrew/internal/scraper"
	"github.com/amityadav/researchcrew/internal/search"
	"github.com/amityadav/researchcrew/internal/serpapi"
	"github.com/amityadav/researchcrew/internal/serper"
	"github.com/amityadav/researchcrew/internal/service"
	"github.com/amityadav/researchcrew/internal/store"
	"github.com/amityadav/researchcrew/internal/tavily"
	adkmodel "github.com/amityadav/researchcrew/pkg/adk/model"
	"go.uber.org/fx"
	"google.golang.org/adk/model"
)

// ============================================================================
// FX MODULES - Group related providers together
// ============================================================================

// ConfigModule provides validated application configuration
var ConfigModule = fx.Module("config",
	fx.Provide(NewConfig),
)

// StoreModule provides run persistence (Postgres, or in-memory without DATABASE_URL)
var StoreModule = fx.Module("store",
	fx.Provide(NewStore),
)

// SearchModule provides the search registry and the webpage scraper
var SearchModule = fx.Module("search",
	fx.Provide(
		NewSearchRegistry,
		scraper.NewScraper,
	),
)

// MailModule provides the SMTP sender
var MailModule = fx.Module("mail",
	fx.Provide(NewMailSender),
)

// ModelModule provides the crew LLM
var ModelModule = fx.Module("model",
	fx.Provide(NewCrewModel),
)

// CrewModule provides the research pipeline and the run service
var CrewModule = fx.Module("crew",
	fx.Provide(
		NewResearchCore,
		NewQuotaLimiter,
		service.NewHub,
		NewResearchService,
	),
)

// SchedulerModule provides and starts the scheduled report worker
var SchedulerModule = fx.Module("scheduler",
	fx.Provide(NewReportWorker),
	fx.Invoke(StartReportWorker),
)

// ============================================================================
// PROVIDER FUNCTIONS - Constructors that FX will call automatically
// ============================================================================

// NewConfig loads and validates configuration
func NewConfig() (config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// NewStore connects to Postgres when configured and closes it on shutdown
func NewStore(lc fx.Lifecycle, cfg config.Config) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("[FX] MemoryStore initialized (DATABASE_URL not set)")
		return store.NewMemoryStore(), nil
	}

	ctx := context.Background()
	st, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			st.Close()
			return nil
		},
	})
	log.Printf("[FX] PostgresStore initialized")
	return st, nil
}

// NewSearchRegistry creates search registry with all available providers,
// in the order they are tried
func NewSearchRegistry(cfg config.Config) *search.Registry {
	registry := search.NewRegistry()

	if cfg.SerperAPIKey != "" {
		registry.Register(serper.NewClient(cfg.SerperAPIKey))
		log.Printf("[FX] SearchRegistry: Serper registered")
	}

	if cfg.SerpAPIKey != "" {
		registry.Register(serpapi.NewClient(cfg.SerpAPIKey))
		log.Printf("[FX] SearchRegistry: SerpApi registered")
	}

	if cfg.TavilyAPIKey != "" {
		registry.Register(tavily.NewClient(cfg.TavilyAPIKey))
		log.Printf("[FX] SearchRegistry: Tavily registered")
	}

	log.Printf("[FX] SearchRegistry initialized with %d providers", registry.Count())
	return registry
}

// NewMailSender creates the SMTP sender. Missing credentials are reported
// when an email is sent, not at startup.
func NewMailSender(cfg config.Config) *mail.Sender {
	sender := mail.NewSender(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.EmailUser,
		Password: cfg.EmailPass,
	})
	if !sender.Configured() {
		log.Printf("[FX] MailSender initialized without credentials (EMAIL_USER/EMAIL_PASS not set)")
	} else {
		log.Printf("[FX] MailSender initialized (%s:%d)", cfg.SMTPHost, cfg.SMTPPort)
	}
	return sender
}

// NewCrewModel creates the crew LLM. Without any API key it returns nil and
// runs fail with core.ErrNoModel.
func NewCrewModel(cfg config.Config) (model.LLM, error) {
	llm, err := adkmodel.NewCrewModel(context.Background(), adkmodel.Options{
		GeminiAPIKey: cfg.GeminiAPIKey,
		GeminiModel:  cfg.GeminiModel,
		GroqAPIKey:   cfg.GroqAPIKey,
		GroqModel:    cfg.GroqModel,
	})
	if errors.Is(err, adkmodel.ErrNoModelConfigured) {
		log.Printf("[FX] CrewModel disabled: %v", err)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Printf("[FX] CrewModel initialized (%s)", llm.Name())
	return llm, nil
}

// NewResearchCore creates the research pipeline
func NewResearchCore(llm model.LLM, registry *search.Registry, scr *scraper.Scraper, sender *mail.Sender, cfg config.Config) *core.ResearchCore {
	c := core.NewResearchCore(llm, registry, scr, sender, cfg.LLMTemperature)
	log.Printf("[FX] ResearchCore initialized")
	return c
}

// NewQuotaLimiter creates the per-recipient daily limiter
func NewQuotaLimiter(st store.Store, cfg config.Config) *quota.Limiter {
	l := quota.NewLimiter(st, cfg.DailyRunLimit)
	if cfg.DailyRunLimit > 0 {
		log.Printf("[FX] QuotaLimiter initialized (%d runs per recipient per day)", cfg.DailyRunLimit)
	}
	return l
}

// NewResearchService creates the run service
func NewResearchService(c *core.ResearchCore, st store.Store, l *quota.Limiter, hub *service.Hub, cfg config.Config) *service.ResearchService {
	svc := service.NewResearchService(c, st, l, hub, cfg.RunTimeout())
	log.Printf("[FX] ResearchService initialized (run timeout: %v)", cfg.RunTimeout())
	return svc
}

// NewReportWorker creates the scheduled report worker (optional)
func NewReportWorker(svc *service.ResearchService, cfg config.Config) *scheduler.Worker {
	if !cfg.Report.Enabled() {
		log.Printf("[FX] ReportWorker disabled (REPORT_SCHEDULE not set)")
		return nil
	}
	w := scheduler.NewWorker(svc, cfg.Report)
	log.Printf("[FX] ReportWorker initialized")
	return w
}

// WorkerStartParams for optional worker injection
type WorkerStartParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Worker    *scheduler.Worker `optional:"true"`
}

// StartReportWorker starts the report worker if available
func StartReportWorker(p WorkerStartParams) {
	if p.Worker == nil {
		return
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return p.Worker.Start()
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()
			return nil
		},
	})
}
