package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/sync/errgroup"

	"video-quiz-service/internal/app"
	"video-quiz-service/internal/domain"
	"video-quiz-service/internal/generator"
	"video-quiz-service/internal/infra/postgres"
	pgmigrations "video-quiz-service/internal/infra/postgres/migrations"
	infraredis "video-quiz-service/internal/infra/redis"
)

func TestAssessmentLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	store := postgres.NewAssessmentStore(pool)
	repo := infraredis.NewAssessmentCache(redisClient, store, 5*time.Minute, nil)
	service := app.NewAssessmentService(repo, generator.NewGateway(fixedCapability()), nil, nil)

	view, err := service.CreateAssessment(ctx, "u1", "https://youtu.be/abc", 4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(view.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(view.Questions))
	}

	var wins, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			_, err := service.SubmitAssessment(ctx, "u1", view.ID, map[int]string{0: "B", 1: "A", 2: "B"})
			switch {
			case err == nil:
				wins.Add(1)
			case errors.Is(err, domain.ErrAlreadyCompleted):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if wins.Load() != 1 || conflicts.Load() != 7 {
		t.Fatalf("expected exactly one winning submission, got %d wins %d conflicts", wins.Load(), conflicts.Load())
	}

	got, err := service.GetAssessment(ctx, "u1", view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Completed || *got.Score != 2 || *got.TotalQuestions != 4 || len(got.Results) != 4 {
		t.Fatalf("unexpected completed view %+v", got)
	}
	if got.Results[3].UserAnswer != nil || got.Results[1].Correct {
		t.Fatalf("unexpected results %+v", got.Results)
	}

	// Bypass the cache to check what Postgres holds.
	stored, err := store.GetByID(ctx, view.ID)
	if err != nil {
		t.Fatalf("load from postgres: %v", err)
	}
	c, ok := stored.Completion()
	if !ok || c.Score != 2 || len(c.Answers) != 4 {
		t.Fatalf("unexpected stored completion %+v", c)
	}

	if _, err := service.GetAssessment(ctx, "u2", view.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	list, err := service.ListAssessments(ctx, "u1", 10)
	if err != nil || len(list) != 1 || !list[0].Completed {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assess", "POSTGRES_PASSWORD": "assesspass", "POSTGRES_DB": "assessments"},
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
	dsn := fmt.Sprintf("postgres://assess:assesspass@%s:%s/assessments?sslmode=disable", host, port.Port())
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

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func fixedCapability() generator.Capability {
	return generator.CapabilityFunc(func(_ context.Context, req generator.Request) (generator.Response, error) {
		out := make([]generator.RawQuestion, req.QuestionCount)
		for i := range out {
			out[i] = generator.RawQuestion{
				Question: fmt.Sprintf("Question %d?", i),
				Options: []generator.RawOption{
					{Label: "A", Text: "first"},
					{Label: "B", Text: "second"},
				},
				CorrectAnswer: "B",
			}
		}
		return generator.Response{Model: "test-model", Questions: out}, nil
	})
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
