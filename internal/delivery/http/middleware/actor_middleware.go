package middleware

import (
	"github.com/ferdian3456/rolehub/internal/constant"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/ferdian3456/rolehub/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const ActorHeader = "X-Actor-Id"

// ActorMiddleware resolves the acting user for mutating routes. Identity is
// established upstream (gateway handles authentication), this service only
// needs the id.
type ActorMiddleware struct {
	Log    *zap.Logger
	Config *koanf.Koanf
}

func NewActorMiddleware(zap *zap.Logger, koanf *koanf.Koanf) *ActorMiddleware {
	return &ActorMiddleware{
		Log:    zap,
		Config: koanf,
	}
}

func (middleware *ActorMiddleware) RequireActor() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		actorHeader := ctx.Get(ActorHeader)
		if actorHeader == "" {
			return util.SendErrorResponse(ctx, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "Actor id is required",
				Param:   "actorId",
			})
		}

		actorId, err := uuid.Parse(actorHeader)
		if err != nil {
			return util.SendErrorResponse(ctx, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "Invalid actor id",
				Param:   "actorId",
			})
		}

		ctx.Locals("actorId", actorId)

		return ctx.Next()
	}
}
