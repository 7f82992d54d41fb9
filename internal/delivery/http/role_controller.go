package http

import (
	"errors"

	"github.com/ferdian3456/rolehub/internal/constant"
	tracemw "github.com/ferdian3456/rolehub/internal/middleware"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/ferdian3456/rolehub/internal/observability"
	"github.com/ferdian3456/rolehub/internal/usecase"
	"github.com/ferdian3456/rolehub/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type RoleController struct {
	Log         *zap.Logger
	RoleUsecase *usecase.RoleUsecase
	Config      *koanf.Koanf
}

func NewRoleController(roleUsecase *usecase.RoleUsecase, zap *zap.Logger, koanf *koanf.Koanf) *RoleController {
	return &RoleController{
		Log:         zap,
		RoleUsecase: roleUsecase,
		Config:      koanf,
	}
}

// sendUsecaseError maps the usecase error taxonomy onto HTTP statuses.
func sendUsecaseError(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	var validationErr *model.ValidationError
	var notFoundErr *model.NotFoundError
	var forbiddenErr *model.ForbiddenError
	var conflictErr *model.ConflictError

	if errors.As(err, &validationErr) {
		return util.SendErrorResponse(ctx, validationErr)
	} else if errors.As(err, &notFoundErr) {
		return util.SendErrorResponseNotFound(ctx, notFoundErr)
	} else if errors.As(err, &forbiddenErr) {
		return util.SendErrorResponseForbidden(ctx, forbiddenErr)
	} else if errors.As(err, &conflictErr) {
		return util.SendErrorResponseConflict(ctx, conflictErr)
	}

	return util.SendErrorResponseInternalServer(ctx, observability.WithContext(ctx.UserContext(), log), err)
}

func (controller *RoleController) CreateRole(ctx *fiber.Ctx) error {
	actorId := ctx.Locals("actorId").(uuid.UUID)

	payload := model.RoleCreateRequest{}
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
		})
	}

	response, err := controller.RoleUsecase.CreateRole(ctx.UserContext(), actorId, payload)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendCreatedResponseWithData(ctx, response)
}

func (controller *RoleController) GetRolesByServer(ctx *fiber.Ctx) error {
	serverId := ctx.Params("serverId")
	page := ctx.QueryInt("page", constant.DEFAULT_PAGE)
	limit := ctx.QueryInt("limit", constant.DEFAULT_LIMIT)

	response, err := controller.RoleUsecase.GetRolesByServer(ctx.UserContext(), serverId, page, limit)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *RoleController) ValidateRoleName(ctx *fiber.Ctx) error {
	name := ctx.Query("name")
	serverId := ctx.Query("serverId")
	excludeId := ctx.Query("excludeId")

	response, err := controller.RoleUsecase.ValidateRoleName(ctx.UserContext(), name, serverId, excludeId)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *RoleController) GetRoleById(ctx *fiber.Ctx) error {
	roleId := ctx.Params("id")

	response, err := controller.RoleUsecase.GetRoleById(ctx.UserContext(), roleId)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *RoleController) UpdateRole(ctx *fiber.Ctx) error {
	actorId := ctx.Locals("actorId").(uuid.UUID)
	roleId := ctx.Params("id")

	payload := model.RoleUpdateRequest{}
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
		})
	}

	response, err := controller.RoleUsecase.UpdateRole(ctx.UserContext(), actorId, roleId, payload)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *RoleController) DeleteRole(ctx *fiber.Ctx) error {
	actorId := ctx.Locals("actorId").(uuid.UUID)
	roleId := ctx.Params("id")

	response, err := controller.RoleUsecase.DeleteRole(ctx.UserContext(), actorId, roleId)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	tracemw.GetLoggerFromContext(ctx).Info("role deleted",
		zap.String("role_id", roleId),
		zap.Int("members_affected", response.MembersAffected),
	)

	return util.SendSuccessResponseWithData(ctx, response)
}
