package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/auth"
	"quizzardo-service/internal/config"
	"quizzardo-service/internal/domain"
	amqppub "quizzardo-service/internal/infra/amqp"
	"quizzardo-service/internal/infra/memory"
	mongoloader "quizzardo-service/internal/infra/mongo"
	pgstore "quizzardo-service/internal/infra/postgres"
	redisstore "quizzardo-service/internal/infra/redis"
	transport "quizzardo-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	settings, err := sessionSettings(cfg)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		db = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL))), pgdialect.New())
		defer db.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes(time.Now()))
	switch {
	case cfg.Mongo.URI != "":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return fmt.Errorf("connect mongo: %w", err)
		}
		defer client.Disconnect(context.Background())
		loader = mongoloader.NewQuizLoader(client.Database(cfg.Mongo.Database))
		log.Printf("quiz catalogue: mongo database %s", cfg.Mongo.Database)
	case pool != nil:
		loader = pgstore.NewQuizLoader(pool)
		log.Printf("quiz catalogue: postgres")
	default:
		log.Printf("quiz catalogue: built-in samples")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var results app.ResultRepository
	var participants app.ParticipantRepository
	switch {
	case db != nil:
		results = pgstore.NewResultStore(db)
		participants = pgstore.NewParticipantStore(pool)
	case redisClient != nil:
		results = redisstore.NewResultStore(redisClient)
		participants = redisstore.NewParticipantStore(redisClient)
	default:
		results = memory.NewResultStore()
		participants = memory.NewParticipantStore()
	}

	deps := app.Deps{
		Sessions:     sessions,
		Quizzes:      quizRepo,
		Results:      results,
		Participants: participants,
	}
	if cfg.AMQP.URL != "" {
		publisher, err := amqppub.NewResultPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
	} else {
		log.Println("amqp not configured, result events will not be published")
	}

	var provider auth.Provider = auth.QueryProvider{AllowAdmin: cfg.Auth.DevAdmin}
	if cfg.Auth.JWTSecret != "" {
		provider = auth.NewJWTProvider(cfg.Auth.JWTSecret)
	} else if cfg.Auth.DevAdmin {
		log.Println("auth.jwt_secret not set, trusting userId and admin query parameters")
	} else {
		log.Println("auth.jwt_secret not set, trusting userId query parameters; admin endpoints disabled")
	}

	service := app.NewQuizService(deps, settings)
	router := transport.NewRouter(service, provider, allowedOrigins())

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func sessionSettings(cfg config.Config) (app.Settings, error) {
	defaults := app.DefaultSettings()
	formula, err := app.ParsePrizeFormula(cfg.Session.PrizeFormula)
	if err != nil {
		return app.Settings{}, err
	}
	return app.Settings{
		TickInterval:   config.TTLDuration(cfg.Session.TickInterval, defaults.TickInterval),
		ViolationLimit: cfg.Session.ViolationLimit,
		SaveTimeout:    config.TTLDuration(cfg.Session.SaveTimeout, defaults.SaveTimeout),
		PrizeFormula:   formula,
		MinQuestions:   cfg.Quiz.MinQuestions,
	}, nil
}

// allowedOrigins reads CORS_ORIGINS (comma separated); empty allows any origin.
func allowedOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// sampleQuizzes is the demo catalogue used when no document store is configured.
func sampleQuizzes(now time.Time) map[string]domain.Quiz {
	quiz := domain.Quiz{
		ID:          "quiz-1",
		Title:       "Warm-up",
		Description: "Five quick questions to try the session flow.",
		Type:        domain.QuizFree,
		PrizeMoney:  []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(50), decimal.NewFromInt(25)},
		Duration:    5,
		StartTime:   now,
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectOption: 1, Points: 10, TimeLimit: 30},
			{Text: "Which planet is closest to the sun?", Options: []string{"Venus", "Mercury", "Mars"}, CorrectOption: 1, Points: 10, TimeLimit: 30},
			{Text: "How many minutes are in an hour?", Options: []string{"60", "100", "30"}, CorrectOption: 0, Points: 10, TimeLimit: 20},
			{Text: "Which is a prime number?", Options: []string{"9", "15", "13", "21"}, CorrectOption: 2, Points: 20, TimeLimit: 30},
			{Text: "What colour do you get mixing blue and yellow?", Options: []string{"Green", "Purple", "Orange"}, CorrectOption: 0, Points: 10, TimeLimit: 20},
		},
	}
	quiz.TotalPoints = quiz.SumPoints()
	return map[string]domain.Quiz{quiz.ID: quiz}
}
