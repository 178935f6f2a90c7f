package cli

import (
	"context"
	"log"
	"time"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/config"
	"buzz-quiz-service/internal/infra/buzzhid"
	"buzz-quiz-service/internal/infra/file"
	"buzz-quiz-service/internal/infra/memory"
	"buzz-quiz-service/internal/infra/postgres"
	redisstore "buzz-quiz-service/internal/infra/redis"
	"buzz-quiz-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

const defaultRetry = 2 * time.Second

// runtime holds the service and the resources it was built from.
type runtime struct {
	service   *app.Service
	connector *buzzhid.Connector
	retry     time.Duration
	closers   []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// buildRuntime picks stores by what is configured: Postgres, then Redis, then
// SQLite, then a mapping file, then memory.
func buildRuntime(ctx context.Context, cfg config.Config) (*runtime, error) {
	rt := &runtime{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = redisClient.Close() })
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
	}

	var local *sqlite.Store
	if pool == nil && redisClient == nil && cfg.SQLite.Path != "" {
		var err error
		local, err = sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			rt.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = local.Close() })
	}

	var mappings app.MappingStore
	switch {
	case pool != nil:
		mappings = postgres.NewMappingStore(pool)
	case redisClient != nil:
		mappings = redisstore.NewMappingStore(redisClient)
	case local != nil:
		mappings = local.Mappings()
	case cfg.Mapping.File != "":
		mappings = file.NewMappingStore(cfg.Mapping.File)
	default:
		mappings = memory.NewMappingStore()
	}

	var quizzes app.CustomQuizStore
	switch {
	case pool != nil:
		quizzes = postgres.NewQuizStore(pool)
	case redisClient != nil:
		quizzes = redisstore.NewQuizStore(redisClient)
	case local != nil:
		quizzes = local.Quizzes()
	default:
		quizzes = memory.NewQuizStore()
	}
	library := app.NewQuizLibrary(quizzes, app.BuiltInQuizzes())

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var repo app.QuizRepository
	if redisClient != nil {
		repo = redisstore.NewQuizRepository(redisClient, library, quizTTL)
	} else {
		repo = memory.NewQuizRepository(library, quizTTL)
	}

	rt.service = app.NewService(mappings, library, repo, app.Options{
		GetReady:   config.TTLDuration(cfg.Game.GetReady, 3*time.Second),
		AnswerTick: config.TTLDuration(cfg.Game.AnswerTick, time.Second),
	})
	rt.service.SetDebugMode(cfg.Device.Debug)

	loaded, err := rt.service.Calibration().LoadSaved(ctx)
	if err != nil {
		log.Printf("mapping: ignoring saved mapping: %v", err)
	} else if loaded {
		log.Printf("mapping: using saved custom mapping")
	}

	rt.connector = buzzhid.NewConnector(buzzhid.Config{
		VendorID:  cfg.Device.VendorID,
		ProductID: cfg.Device.ProductID,
	})
	rt.retry = config.TTLDuration(cfg.Device.Retry, defaultRetry)
	return rt, nil
}
