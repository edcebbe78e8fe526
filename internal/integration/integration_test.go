package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"quizzardo-service/internal/app"
	"quizzardo-service/internal/domain"
	pgstore "quizzardo-service/internal/infra/postgres"
	pgmigrations "quizzardo-service/internal/infra/postgres/migrations"
	infraredis "quizzardo-service/internal/infra/redis"
)

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := migrateSchema(t, ctx, pgURL)
	defer db.Close()

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgstore.NewQuizLoader(pool)
	if err := loader.SaveQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	service := app.NewQuizService(app.Deps{
		Sessions:     infraredis.NewSessionStore(redisClient, 5*time.Minute),
		Quizzes:      infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute),
		Results:      pgstore.NewResultStore(db),
		Participants: pgstore.NewParticipantStore(pool),
	}, app.DefaultSettings())

	play := func(who domain.Identity, options ...int) domain.SessionState {
		t.Helper()
		if err := service.Join(ctx, "quiz-1", who, "pay-"+who.UserID); err != nil {
			t.Fatalf("join %s: %v", who.UserID, err)
		}
		session, err := service.OpenSession(ctx, "quiz-1", who)
		if err != nil {
			t.Fatalf("open %s: %v", who.UserID, err)
		}
		if _, err := service.StartSession(ctx, "quiz-1", who.UserID); err != nil {
			t.Fatalf("start %s: %v", who.UserID, err)
		}
		for i, option := range options {
			if _, err := service.SubmitAnswer(ctx, "quiz-1", who.UserID, i, option); err != nil {
				t.Fatalf("answer %s/%d: %v", who.UserID, i, err)
			}
		}
		select {
		case <-session.Settled():
		case <-time.After(10 * time.Second):
			t.Fatalf("result for %s never settled", who.UserID)
		}
		return session.Snapshot()
	}

	alice := play(domain.Identity{UserID: "u1", DisplayName: "Alice"}, 1, 0)
	bob := play(domain.Identity{UserID: "u2", DisplayName: "Bob"}, 1, 1)
	if alice.SaveError != "" || bob.SaveError != "" {
		t.Fatalf("unexpected save errors: %q %q", alice.SaveError, bob.SaveError)
	}
	if bob.Score != 20 || alice.Score != 10 {
		t.Fatalf("unexpected scores alice=%d bob=%d", alice.Score, bob.Score)
	}

	if _, err := service.OpenSession(ctx, "quiz-1", domain.Identity{UserID: "u1"}); !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("expected ErrAlreadyAttempted, got %v", err)
	}

	carol := domain.Identity{UserID: "u3", DisplayName: "Carol"}
	if err := service.Join(ctx, "quiz-1", carol, "pay-u3"); err != nil {
		t.Fatalf("join carol: %v", err)
	}
	session, err := service.OpenSession(ctx, "quiz-1", carol)
	if err != nil {
		t.Fatalf("open carol: %v", err)
	}
	if _, err := service.StartSession(ctx, "quiz-1", carol.UserID); err != nil {
		t.Fatalf("start carol: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := service.ReportSignal(ctx, "quiz-1", carol.UserID, domain.SignalVisibilityLost); err != nil {
			t.Fatalf("signal %d: %v", i, err)
		}
	}
	select {
	case <-session.Settled():
	case <-time.After(10 * time.Second):
		t.Fatalf("result for carol never settled")
	}
	if state := session.Snapshot(); state.SaveError != "" || !state.Disqualified {
		t.Fatalf("disqualified result without answers must be stored: %+v", state)
	}
	if _, err := service.OpenSession(ctx, "quiz-1", carol); !errors.Is(err, domain.ErrAlreadyAttempted) {
		t.Fatalf("disqualified user must not retry, got %v", err)
	}

	var stored []int
	if err := db.NewSelect().Table("quiz_results").Column("answers").
		Where("quiz_id = ? AND user_id = ?", "quiz-1", "u3").
		Scan(ctx, pgdialect.Array(&stored)); err != nil {
		t.Fatalf("read carol answers: %v", err)
	}
	if stored == nil || len(stored) != 0 {
		t.Fatalf("expected empty answers array, got %v", stored)
	}

	lb, err := service.Leaderboard(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 3 || lb.Entries[0].UserID != "u2" || !lb.Entries[0].Prize.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected bob leading with the first prize, got %+v", lb.Entries)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func migrateSchema(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		Title:      "Integration",
		Type:       domain.QuizPaid,
		EntryFee:   decimal.NewFromInt(10),
		PrizeMoney: []decimal.Decimal{decimal.NewFromInt(300), decimal.NewFromInt(100)},
		Duration:   5,
		StartTime:  time.Now().Add(-time.Minute),
		Questions: []domain.Question{
			{Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectOption: 1, Points: 10, TimeLimit: 30},
			{Text: "What is 3 * 3?", Options: []string{"6", "9"}, CorrectOption: 1, Points: 10, TimeLimit: 30},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
