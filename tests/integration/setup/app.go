package setup

import (
	"context"
	"testing"

	"github.com/ferdian3456/rolehub/internal/delivery/http"
	"github.com/ferdian3456/rolehub/internal/delivery/http/middleware"
	"github.com/ferdian3456/rolehub/internal/delivery/http/route"
	"github.com/ferdian3456/rolehub/internal/repository"
	"github.com/ferdian3456/rolehub/internal/usecase"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

func SetupTestApp(t *testing.T, pgURL, redisURL, minioURL string) (*fiber.App, *pgxpool.Pool, *redis.Client, *minio.Client) {
	t.Log("Setting up test application...")

	ctx := context.Background()

	// 1. Create test config with test infrastructure values
	testConfig := koanf.New(".")
	_ = testConfig.Set("MINIO_BUCKET_NAME", "rolehub-test")
	_ = testConfig.Set("MINIO_ACCESS_KEY", "minioadmin")
	_ = testConfig.Set("MINIO_SECRET_KEY", "minioadmin")

	// 2. Connect to PostgreSQL
	t.Log("Connecting to test PostgreSQL...")
	dbPool, err := pgxpool.New(ctx, pgURL)
	if err != nil {
		t.Fatalf("failed to connect to test db: %v", err)
	}

	// 3. Connect to Redis
	t.Log("Connecting to test Redis...")
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
		DB:   0,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to test redis: %v", err)
	}

	// 4. Connect to MinIO
	t.Log("Connecting to test MinIO...")
	minioClient, err := minio.New(minioURL, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Fatalf("failed to connect to minio: %v", err)
	}

	bucketName := "rolehub-test"
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		t.Fatalf("failed to check minio bucket: %v", err)
	}

	if !exists {
		t.Logf("Creating MinIO bucket: %s", bucketName)
		err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			t.Fatalf("failed to create minio bucket: %v", err)
		}
	} else {
		t.Logf("MinIO bucket already exists: %s", bucketName)
	}

	// 5. Setup logger
	zapLogger := zap.NewExample()
	defer func() {
		_ = zapLogger.Sync()
	}()

	// 6. Setup repositories
	roleRepository := repository.NewRoleRepository(zapLogger, dbPool, redisClient, minioClient)
	memberRepository := repository.NewMemberRepository(zapLogger, dbPool, redisClient, minioClient)

	// 7. Setup usecases
	roleUsecase := usecase.NewRoleUsecase(roleRepository, dbPool, zapLogger, testConfig)
	memberUsecase := usecase.NewMemberUsecase(memberRepository, roleUsecase, dbPool, zapLogger, testConfig)

	// 8. Setup controllers
	roleController := http.NewRoleController(roleUsecase, zapLogger, testConfig)
	memberController := http.NewMemberController(memberUsecase, zapLogger, testConfig)

	// 9. Setup middleware
	actorMiddleware := middleware.NewActorMiddleware(zapLogger, testConfig)

	// 10. Setup Fiber app
	fiberApp := fiber.New(fiber.Config{
		AppName:               "Rolehub Test",
		DisableStartupMessage: true,
		DisableKeepalive:      true, // Important for tests
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 11. Setup routes
	routeConfig := route.RouteConfig{
		App:              fiberApp,
		RoleController:   roleController,
		MemberController: memberController,
		ActorMiddleware:  actorMiddleware,
	}

	routeConfig.SetupRoute()

	t.Log("Test application setup completed successfully")

	return fiberApp, dbPool, redisClient, minioClient
}
