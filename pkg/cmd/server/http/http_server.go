package http

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/trialslog/trial-score-manager-go/log"
	"github.com/trialslog/trial-score-manager-go/pkg/config"
	"github.com/trialslog/trial-score-manager-go/pkg/db/postgres"
	"github.com/trialslog/trial-score-manager-go/pkg/model"
	"github.com/trialslog/trial-score-manager-go/pkg/notify"
	"github.com/trialslog/trial-score-manager-go/pkg/processing"
	"github.com/trialslog/trial-score-manager-go/pkg/service"
	"github.com/trialslog/trial-score-manager-go/pkg/utils"
	"github.com/trialslog/trial-score-manager-go/pkg/utils/broadcast"
	"github.com/trialslog/trial-score-manager-go/pkg/web"
)

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "starts the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVarP(&config.HTTPServerAddr,
		"http-server-addr",
		"a",
		"localhost:8080",
		"HTTP server listen address")

	cmd.Flags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format")
	cmd.Flags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"file with zapfilter rules for per-subsystem log levels")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().StringVar(&config.AdminToken,
		"admin-token",
		"",
		"admin token value")
	cmd.Flags().StringVar(&config.JudgeToken,
		"judge-token",
		"",
		"judge token value")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"NATS server to publish score changes to (empty disables publishing)")
	cmd.Flags().StringVar(&config.NatsSubject,
		"nats-subject",
		notify.DefaultSubject,
		"subject for score change messages")
	cmd.Flags().StringVar(&config.MinClientVersion,
		"min-client-version",
		"",
		"minimum client version accepted on the live endpoint")
	return cmd
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

//nolint:funlen,cyclop // by design
func startServer() error {
	var logger *log.Logger
	var sqlLogger *log.Logger
	var telemetry *config.Telemetry
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
		sqlLogger = log.New(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

	default:
		logger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))

		sqlLogger = log.DevLogger(
			os.Stderr,
			parseLogLevel(config.SQLLogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}

	if config.LogConfig != "" {
		if rules, err := os.ReadFile(config.LogConfig); err == nil {
			logger = logger.WithFilters(strings.TrimSpace(string(rules)))
		} else {
			logger.Warn("could not read log config", log.ErrorField(err))
		}
	}
	log.ResetDefault(logger)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port",
			log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	waitForRequiredServices()

	pgTraceOption := postgres.WithTracer(sqlLogger, log.DebugLevel)
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(context.Background()); err != nil {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(
			otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	log.Info("Starting server")
	pool := postgres.InitWithURL(
		config.DB,
		pgTraceOption,
	)

	// the score service and the recompute processor reference each other,
	// the closure defers the lookup until the first ledger change
	var scoreService *service.ScoreService
	processor := processing.NewProcessor(
		processing.WithStandingsSource(
			func(ctx context.Context) ([]*model.Leaderboard, error) {
				return scoreService.GetStandings(ctx)
			}))

	targets := []notify.ChangeNotifier{processor}
	var natsNotifier *notify.NATSNotifier
	if config.NatsURL != "" {
		var err error
		natsNotifier, err = notify.NewNATSNotifier(config.NatsURL,
			notify.WithSubject(config.NatsSubject))
		if err != nil {
			log.Warn("Could not connect NATS, publishing disabled",
				log.ErrorField(err))
		} else {
			targets = append(targets, natsNotifier)
		}
	}
	dispatcher := notify.NewDispatcher(notify.WithTargets(targets...))

	scoreService = service.InitScoreService(pool,
		service.WithChangeNotifier(dispatcher))
	standingsBroadcast := broadcast.NewBroadcastServer(
		"standings", processor.Updates())

	webServer := web.NewServer(
		web.WithScoreAPI(scoreService),
		web.WithCatalogAPI(service.InitCatalogService(pool)),
		web.WithCompetitorAPI(service.InitCompetitorService(pool)),
		web.WithAdminAPI(service.InitAdminService(pool,
			service.WithAdminChangeNotifier(dispatcher))),
		web.WithAuthTokens(config.AdminToken, config.JudgeToken),
		web.WithStandingsBroadcast(standingsBroadcast),
		web.WithMinClientVersion(config.MinClientVersion))

	server := &http.Server{
		Addr:              config.HTTPServerAddr,
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Starting HTTP server",
			log.String("addr", config.HTTPServerAddr))
		if err := server.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			log.Fatal("server could not be started", log.ErrorField(err))
		}
	}()
	log.Info("Server started")
	setupGoRoutinesDump()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	v := <-sigChan
	log.Debug("Got signal ", log.Any("signal", v))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("could not shutdown http server", log.ErrorField(err))
	}
	dispatcher.Close()
	processor.Close()
	standingsBroadcast.Close()
	if natsNotifier != nil {
		natsNotifier.Close()
	}
	if telemetry != nil {
		telemetry.Shutdown()
	}
	pool.Close()

	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func waitForRequiredServices() {
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		if err = utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
		wg.Done()
	}

	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTCP(postgresAddr)
	}
	if natsAddr := utils.ExtractFromNATSURL(config.NatsURL); natsAddr != "" {
		wg.Add(1)
		go checkTCP(natsAddr)
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}
