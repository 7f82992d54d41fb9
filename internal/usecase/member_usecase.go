package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/ferdian3456/rolehub/internal/constant"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/ferdian3456/rolehub/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type MemberUsecase struct {
	MemberRepository *repository.MemberRepository
	RoleUsecase      *RoleUsecase
	DB               *pgxpool.Pool
	Log              *zap.Logger
	Config           *koanf.Koanf
}

func NewMemberUsecase(memberRepository *repository.MemberRepository, roleUsecase *RoleUsecase, db *pgxpool.Pool, zap *zap.Logger, koanf *koanf.Koanf) *MemberUsecase {
	return &MemberUsecase{
		MemberRepository: memberRepository,
		RoleUsecase:      roleUsecase,
		DB:               db,
		Log:              zap,
		Config:           koanf,
	}
}

// AssignRole sets or clears a member's role. The membership row is created on
// first assignment, so assigning works for users who joined out of band.
func (usecase *MemberUsecase) AssignRole(ctx context.Context, actorId uuid.UUID, serverIdParam string, payload model.MemberAssignRoleRequest) (model.MemberResponse, error) {
	response := model.MemberResponse{}

	serverId, err := uuid.Parse(serverIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid server id",
			Param:   "serverId",
		}
	}

	if payload.UserId == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "User id is required to not be empty",
			Param:   "userId",
		}
	}

	userId, err := uuid.Parse(payload.UserId)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid user id",
			Param:   "userId",
		}
	}

	var roleId *uuid.UUID
	if payload.RoleId != nil {
		parsed, err := uuid.Parse(*payload.RoleId)
		if err != nil {
			return response, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "Invalid role id",
				Param:   "roleId",
			}
		}
		roleId = &parsed
	}

	err = usecase.RoleUsecase.CanManageRoles(ctx, serverId, actorId)
	if err != nil {
		return response, err
	}

	if roleId != nil {
		role, err := usecase.RoleUsecase.RoleRepository.GetRole(ctx, *roleId)
		if err != nil {
			return response, err
		}

		if role.ServerId != serverId {
			return response, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "Role does not belong to this server",
				Param:   "roleId",
			}
		}
	}

	exists, err := usecase.MemberRepository.CheckUserExists(ctx, userId)
	if err != nil {
		return response, err
	}

	if exists != 1 {
		return response, &model.NotFoundError{
			Code:    constant.ERR_NOT_FOUND_ERROR,
			Message: "User not found",
			Param:   "userId",
		}
	}

	member, memberExists, err := usecase.MemberRepository.GetMember(ctx, serverId, userId)
	if err != nil {
		return response, err
	}

	// cached details of both roles go stale once the member moves
	var previousRoleId *uuid.UUID
	if memberExists == 1 {
		previousRoleId = member.RoleId
	}

	now := time.Now().UTC()

	commited := false

	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return response, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	if memberExists == 1 {
		err = usecase.MemberRepository.UpdateMemberRole(ctx, tx, member.Id, roleId, actorId, now)
		if err != nil {
			return response, err
		}
	} else {
		member = model.ServerMember{
			Id:             uuid.New(),
			ServerId:       serverId,
			UserId:         userId,
			RoleId:         roleId,
			CreateDatetime: now,
			UpdateDatetime: now,
			CreateUserId:   actorId,
			UpdateUserId:   actorId,
		}

		err = usecase.MemberRepository.CreateMember(ctx, tx, member)
		if err != nil {
			return response, mapMembershipUniqueViolation(err)
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return response, mapMembershipUniqueViolation(err)
	}

	commited = true

	usecase.invalidateRoleCache(ctx, previousRoleId)
	usecase.invalidateRoleCache(ctx, roleId)

	response, err = usecase.MemberRepository.GetMemberDetail(ctx, member.Id)
	if err != nil {
		return response, err
	}

	err = usecase.presignAvatar(ctx, &response)
	if err != nil {
		return response, err
	}

	return response, nil
}

func (usecase *MemberUsecase) GetMembers(ctx context.Context, serverIdParam string) (model.MemberListResponse, error) {
	response := model.MemberListResponse{}

	serverId, err := uuid.Parse(serverIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid server id",
			Param:   "serverId",
		}
	}

	_, err = usecase.RoleUsecase.RoleRepository.GetServer(ctx, serverId)
	if err != nil {
		return response, err
	}

	members, err := usecase.MemberRepository.GetMembersByServer(ctx, serverId)
	if err != nil {
		return response, err
	}

	for i := range members {
		err = usecase.presignAvatar(ctx, &members[i])
		if err != nil {
			return response, err
		}
	}

	response.Data = members

	return response, nil
}

// invalidateRoleCache drops the cached detail of a role whose member list just
// changed, so reads within the TTL do not serve a stale assignment.
func (usecase *MemberUsecase) invalidateRoleCache(ctx context.Context, roleId *uuid.UUID) {
	if roleId == nil {
		return
	}

	err := usecase.RoleUsecase.RoleRepository.RemoveRoleDetailFromCache(ctx, *roleId)
	if err != nil {
		usecase.Log.Warn("failed to invalidate role cache", zap.Error(err))
	}
}

// mapMembershipUniqueViolation turns a concurrent first-time assignment that
// lost the insert race on (server_id, user_id) into a retryable conflict
// instead of an internal error.
func mapMembershipUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &model.ConflictError{
			Code:    constant.ERR_CONFLICT_ERROR,
			Message: "Member was modified concurrently, please retry",
			Param:   "userId",
		}
	}

	return err
}

func (usecase *MemberUsecase) presignAvatar(ctx context.Context, member *model.MemberResponse) error {
	if member.Avatar == nil {
		return nil
	}

	bucketName := usecase.Config.String("MINIO_BUCKET_NAME")

	presignedURL, err := usecase.RoleUsecase.RoleRepository.PresignAvatarURL(ctx, bucketName, *member.Avatar)
	if err != nil {
		return err
	}

	member.Avatar = &presignedURL

	return nil
}
