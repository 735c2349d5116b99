package cmd

import (
	"context"
	"os"
	"strings"
	"time"

	coreconfig "github.com/AzielCF/az-posts/core/config"
	coreDB "github.com/AzielCF/az-posts/core/database"
	domainCache "github.com/AzielCF/az-posts/domains/cache"
	domainHealth "github.com/AzielCF/az-posts/domains/health"
	"github.com/AzielCF/az-posts/infrastructure/valkey"
	"github.com/AzielCF/az-posts/pkg/cache"
	"github.com/AzielCF/az-posts/pkg/utils"
	"github.com/AzielCF/az-posts/posts/application"
	"github.com/AzielCF/az-posts/posts/domain"
	postsInfra "github.com/AzielCF/az-posts/posts/infrastructure"
	"github.com/AzielCF/az-posts/posts/repository"
	"github.com/AzielCF/az-posts/ui/websocket"
	"github.com/AzielCF/az-posts/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	appCtx    context.Context
	appCancel context.CancelFunc

	db       *gorm.DB
	vkClient *valkey.Client
	serverID string

	postRepo      *repository.PostGormRepository
	postCache     *cache.Cache
	feedSource    *postsInfra.FeedSource
	postService   *application.PostService
	cacheUsecase  domainCache.ICacheUsecase
	healthUsecase domainHealth.IHealthUsecase
	hub           *websocket.Hub
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-posts",
	Short: "Posts content API with an in-process cache",
	Long: `az-posts serves a small posts API over HTTP and MCP. Reads go through an
in-process cache; an empty store is seeded once from a remote JSON feed.`,
}

func init() {
	if _, err := coreconfig.LoadConfig(); err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	cfg := coreconfig.Global
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&cfg.App.Port, "port", "p", cfg.App.Port,
		"change port number with --port <number> | example: --port=8080")
	flags.BoolVarP(&cfg.App.Debug, "debug", "d", cfg.App.Debug,
		"hide or displaying log with --debug <true/false> | example: --debug=true")
	flags.StringSliceVarP(&cfg.App.BasicAuth, "basic-auth", "b", cfg.App.BasicAuth,
		"basic auth credential | -b=yourUsername:yourPassword")
	flags.StringVarP(&cfg.App.BasePath, "base-path", "", cfg.App.BasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/posts"`)
	flags.StringSliceVarP(&cfg.App.TrustedProxies, "trusted-proxies", "", cfg.App.TrustedProxies,
		`trusted proxy IP ranges --trusted-proxies <string> | example: --trusted-proxies="10.0.0.0/8"`)

	flags.StringVarP(&cfg.Database.Driver, "db-driver", "", cfg.Database.Driver,
		`database driver, sqlite or postgres --db-driver <string>`)
	flags.StringVarP(&cfg.Database.Name, "db-name", "", cfg.Database.Name,
		`sqlite file path or postgres database name --db-name <string> | example: --db-name="storages/posts.db"`)

	flags.Int64VarP(&cfg.Cache.MaxWeight, "cache-max-weight", "", cfg.Cache.MaxWeight,
		`total weight the post cache may hold --cache-max-weight <number>`)
	flags.DurationVarP(&cfg.Cache.SlidingTTL, "cache-sliding-ttl", "", cfg.Cache.SlidingTTL,
		`idle time after which a cached entry expires --cache-sliding-ttl <duration> | example: --cache-sliding-ttl=5m`)
	flags.DurationVarP(&cfg.Cache.AbsoluteTTL, "cache-absolute-ttl", "", cfg.Cache.AbsoluteTTL,
		`maximum lifetime of a cached entry --cache-absolute-ttl <duration> | example: --cache-absolute-ttl=1h`)

	flags.StringVarP(&cfg.Remote.FeedURL, "remote-feed-url", "", cfg.Remote.FeedURL,
		`JSON feed used to seed an empty store --remote-feed-url <url>`)

	flags.BoolVarP(&cfg.Valkey.Enabled, "valkey", "", cfg.Valkey.Enabled,
		`fan out websocket events through valkey --valkey <true/false>`)

	_ = viper.BindPFlags(flags)
}

// initEnvConfig lets viper-managed values (flags or AZPOSTS_* variables)
// override what LoadConfig read.
func initEnvConfig() {
	viper.SetEnvPrefix("azposts")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cfg := coreconfig.Global
	if v := viper.GetString("port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetString("base-path"); v != "" {
		cfg.App.BasePath = v
	}
	if v := viper.GetString("db-driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db-name"); v != "" {
		cfg.Database.Name = v
	}
	if v := viper.GetInt64("cache-max-weight"); v != 0 {
		cfg.Cache.MaxWeight = v
	}
	if v := viper.GetDuration("cache-sliding-ttl"); v > 0 {
		cfg.Cache.SlidingTTL = v
	}
	if v := viper.GetDuration("cache-absolute-ttl"); v > 0 {
		cfg.Cache.AbsoluteTTL = v
	}
	if v := viper.GetString("remote-feed-url"); v != "" {
		cfg.Remote.FeedURL = v
	}
	if viper.GetBool("valkey") {
		cfg.Valkey.Enabled = true
	}
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	appCtx, appCancel = context.WithCancel(context.Background())

	var err error
	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DB] %v", err)
	}
	postRepo = repository.NewPostGormRepository(db)

	postCache = cache.New(
		cache.WithMaxWeight(cfg.Cache.MaxWeight),
		cache.WithCleanupInterval(cfg.Cache.CleanupInterval),
	)

	feedSource = postsInfra.NewFeedSource(postsInfra.FeedConfig{
		URL:          cfg.Remote.FeedURL,
		Timeout:      cfg.Remote.Timeout,
		TokenURL:     cfg.Remote.TokenURL,
		ClientID:     cfg.Remote.ClientID,
		ClientSecret: cfg.Remote.ClientSecret,
		Scopes:       cfg.Remote.Scopes,
	})
	var remote domain.RemoteSource
	if feedSource.Enabled() {
		remote = feedSource
	} else {
		logrus.Info("[FEED] REMOTE_FEED_URL not set, store will not be seeded")
	}

	postService = application.NewPostService(postRepo, remote, postCache, application.CachePolicy{
		PostWeight:       cfg.Cache.PostWeight,
		CollectionWeight: cfg.Cache.CollectionWeight,
		Sliding:          cfg.Cache.SlidingTTL,
		Absolute:         cfg.Cache.AbsoluteTTL,
	})

	hub = websocket.NewHub()
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)
	if cfg.Valkey.Enabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[VALKEY] unavailable, events stay local to this server")
		} else {
			hub.SetEventBus(vkClient, serverID)
			logrus.Infof("[VALKEY] connected, server id %s", serverID)
		}
	}
	postService.SetNotifier(hub)

	cacheUsecase = usecase.NewCacheService(postCache, feedSource)

	var valkeyPing usecase.PingFunc
	if vkClient != nil {
		valkeyPing = vkClient.Ping
	}
	healthUsecase = usecase.NewHealthService(func(ctx context.Context) error {
		return coreDB.Ping(ctx, db)
	}, valkeyPing, feedSource)
}

// ensureSchema creates or updates the posts table.
func ensureSchema() {
	if err := postRepo.InitSchema(appCtx); err != nil {
		logrus.Fatalf("[DB] failed to migrate schema: %v", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if appCancel != nil {
		appCancel()
	}
	if postCache != nil {
		postCache.Close()
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if db != nil {
		if err := coreDB.Close(db); err != nil {
			logrus.WithError(err).Warn("[DB] close failed")
		}
	}
}
