package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/mmreplicate/internal/common"
	"github.com/ternarybob/mmreplicate/internal/config"
	"github.com/ternarybob/mmreplicate/internal/controller"
	"github.com/ternarybob/mmreplicate/internal/hooks"
	"github.com/ternarybob/mmreplicate/internal/ingest"
	"github.com/ternarybob/mmreplicate/internal/mmapi"
	"github.com/ternarybob/mmreplicate/internal/runtime"
	"github.com/ternarybob/mmreplicate/internal/storagemongo"
)

const defaultHTTPTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	var (
		build       = flag.Bool("build", false, "do a build run before entering the update loop")
		buildShort  = flag.Bool("b", false, "shorthand for -build")
		skip        = flag.Bool("skip-update", false, "skip the update loop")
		skipShort   = flag.Bool("k", false, "shorthand for -skip-update")
		configPath  = flag.String("config", "", "config file path")
		configShort = flag.String("c", "", "shorthand for -config")
		startTime   = flag.Int64("start-time", 0, "force the starting unix timestamp")
		startShort  = flag.Int64("t", 0, "shorthand for -start-time")
		logLevel    = flag.String("log-level", "", "override log level")
		logShort    = flag.String("l", "", "shorthand for -log-level")
		query       = flag.Bool("query", false, "read a single object from the cache (args: TYPE ID), render its payload, exit")
		queryShort  = flag.Bool("q", false, "shorthand for -query")
	)
	flag.Parse()

	doBuild := *build || *buildShort
	doSkip := *skip || *skipShort
	cfgPath := firstNonEmpty(*configPath, *configShort)
	t := firstNonZero(*startTime, *startShort)
	level := firstNonEmpty(*logLevel, *logShort)
	doQuery := *query || *queryShort

	if doQuery && (doBuild || doSkip || t != 0) {
		fmt.Fprintln(os.Stderr, "-query is mutually exclusive with -build/-skip-update/-start-time")
		return 1
	}
	if doQuery && len(flag.Args()) != 2 {
		fmt.Fprintln(os.Stderr, "-query requires exactly two arguments: TYPE ID")
		return 1
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		return 1
	}
	if level != "" {
		cfg.Log.Level = level
	}

	logger := common.NewLogger(cfg.Log.Location, cfg.Log.Level)
	common.InstallCrashHandler(cfg.Log.Location)
	defer common.RecoverWithCrashFile(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storagemongo.Connect(ctx, storagemongo.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		Name:     cfg.DB.Name,
		Username: cfg.DB.Username,
		Password: cfg.DB.Password,
	})
	if err != nil {
		logger.Fatal().Str("error", err.Error()).Msg("storage init failed")
		return 1
	}

	api := mmapi.NewSignedClient(mmapi.BaseURLForEnv(cfg.MM.Env), cfg.MM.Key, cfg.MM.Secret, defaultHTTPTimeout)

	dispatcher := hooks.NewDispatcher(&http.Client{Timeout: defaultHTTPTimeout}, cfg.HooksRateLimitPerSecond)
	rt := runtime.New(api, store, cfg, logger, dispatcher)

	common.PrintBanner(common.BannerInfo{
		Environment:     cfg.MM.Env,
		ThreadPoolSize:  cfg.ThreadPoolSize,
		HooksEnabled:    cfg.EnableHooks,
		StorageEndpoint: fmt.Sprintf("%s:%d/%s", cfg.DB.Host, cfg.DB.Port, cfg.DB.Name),
	}, logger)

	pool := ingest.NewPool(cfg.ThreadPoolSize, logger)
	engine := ingest.New(rt, pool)

	if doQuery {
		return runQuery(ctx, rt, flag.Arg(0), flag.Arg(1))
	}

	buildStart := time.Now()
	if doBuild {
		logger.Info().Msg("starting build run")
		body, err := api.AllShows(ctx)
		if err != nil {
			logger.Fatal().Str("error", err.Error()).Msg("all_shows() failed")
			return 1
		}
		result := engine.ImportBody(ctx, body, true, 0)
		logger.Info().Int("passes", result.Passes).Int("failures", result.Failures).
			Msg(fmt.Sprintf("build run took %d seconds with %d successes and %d failures.", int64(time.Since(buildStart).Seconds()), result.Passes, result.Failures))
	}
	buildDuration := time.Since(buildStart)

	if doSkip {
		common.PrintShutdownBanner(logger)
		return 0
	}

	ctl := controller.New(engine, store, cfg, logger, nil)
	resume := ctl.InitialResume(ctx, t, buildDuration)
	ctl.Run(ctx, resume)

	common.PrintShutdownBanner(logger)
	return 0
}

func runQuery(ctx context.Context, rt *runtime.Runtime, typ, id string) int {
	obj, found, err := rt.Cache.Get(ctx, typ, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cache read failed: %v\n", err)
		return 1
	}
	if !found {
		fmt.Fprintf(os.Stderr, "no %s with id %s in cache\n", typ, id)
		return 1
	}

	payload := hooks.BuildPayload(ctx, rt.Cache, obj)
	enc, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "payload encode failed: %v\n", err)
		return 1
	}
	fmt.Println(string(enc))
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
