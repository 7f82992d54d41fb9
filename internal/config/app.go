package config

import (
	http "github.com/ferdian3456/rolehub/internal/delivery/http"
	"github.com/ferdian3456/rolehub/internal/delivery/http/middleware"
	"github.com/ferdian3456/rolehub/internal/delivery/http/route"
	"github.com/ferdian3456/rolehub/internal/repository"
	"github.com/ferdian3456/rolehub/internal/usecase"
	"github.com/minio/minio-go/v7"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type ServerConfig struct {
	Router  *fiber.App
	DB      *pgxpool.Pool
	DBCache *redis.Client
	Log     *zap.Logger
	Config  *koanf.Koanf
	MinIO   *minio.Client
}

func Server(config *ServerConfig) {
	roleRepository := repository.NewRoleRepository(config.Log, config.DB, config.DBCache, config.MinIO)
	roleUsecase := usecase.NewRoleUsecase(roleRepository, config.DB, config.Log, config.Config)
	roleController := http.NewRoleController(roleUsecase, config.Log, config.Config)

	memberRepository := repository.NewMemberRepository(config.Log, config.DB, config.DBCache, config.MinIO)
	memberUsecase := usecase.NewMemberUsecase(memberRepository, roleUsecase, config.DB, config.Log, config.Config)
	memberController := http.NewMemberController(memberUsecase, config.Log, config.Config)

	actorMiddleware := middleware.NewActorMiddleware(config.Log, config.Config)

	routeConfig := route.RouteConfig{
		App:              config.Router,
		RoleController:   roleController,
		MemberController: memberController,
		ActorMiddleware:  actorMiddleware,
	}

	routeConfig.SetupRoute()
}
