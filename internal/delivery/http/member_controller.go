package http

import (
	"github.com/ferdian3456/rolehub/internal/constant"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/ferdian3456/rolehub/internal/usecase"
	"github.com/ferdian3456/rolehub/internal/util"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type MemberController struct {
	Log           *zap.Logger
	MemberUsecase *usecase.MemberUsecase
	Config        *koanf.Koanf
}

func NewMemberController(memberUsecase *usecase.MemberUsecase, zap *zap.Logger, koanf *koanf.Koanf) *MemberController {
	return &MemberController{
		Log:           zap,
		MemberUsecase: memberUsecase,
		Config:        koanf,
	}
}

func (controller *MemberController) GetMembers(ctx *fiber.Ctx) error {
	serverId := ctx.Params("serverId")

	response, err := controller.MemberUsecase.GetMembers(ctx.UserContext(), serverId)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *MemberController) AssignRole(ctx *fiber.Ctx) error {
	actorId := ctx.Locals("actorId").(uuid.UUID)
	serverId := ctx.Params("serverId")

	payload := model.MemberAssignRoleRequest{}
	err := util.ReadRequestBody(ctx, &payload)
	if err != nil {
		return util.SendErrorResponse(ctx, &model.ValidationError{
			Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
			Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
		})
	}

	response, err := controller.MemberUsecase.AssignRole(ctx.UserContext(), actorId, serverId, payload)
	if err != nil {
		return sendUsecaseError(ctx, controller.Log, err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
