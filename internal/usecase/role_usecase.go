package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/ferdian3456/rolehub/internal/constant"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/ferdian3456/rolehub/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// managePermissions are the capability values that grant role management,
// one shared definition consulted by the single authorization check.
var managePermissions = []string{model.PermManageRoles, model.PermAdministrator}

type RoleUsecase struct {
	RoleRepository *repository.RoleRepository
	DB             *pgxpool.Pool
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewRoleUsecase(roleRepository *repository.RoleRepository, db *pgxpool.Pool, zap *zap.Logger, koanf *koanf.Koanf) *RoleUsecase {
	return &RoleUsecase{
		RoleRepository: roleRepository,
		DB:             db,
		Log:            zap,
		Config:         koanf,
	}
}

// CanManageRoles is the one authorization gate for every role mutation: the
// server owner always passes, anyone else needs MANAGE_ROLES or ADMINISTRATOR
// through their assigned role. A member without a role never passes.
func (usecase *RoleUsecase) CanManageRoles(ctx context.Context, serverId uuid.UUID, actorId uuid.UUID) error {
	server, err := usecase.RoleRepository.GetServer(ctx, serverId)
	if err != nil {
		return err
	}

	if server.OwnerId == actorId {
		return nil
	}

	exists, err := usecase.RoleRepository.CheckMemberManagePermission(ctx, serverId, actorId, managePermissions)
	if err != nil {
		return err
	}

	if exists != 1 {
		return &model.ForbiddenError{
			Code:    constant.ERR_FORBIDDEN_ERROR,
			Message: "You do not have permission to manage roles in this server",
		}
	}

	return nil
}

func (usecase *RoleUsecase) CreateRole(ctx context.Context, actorId uuid.UUID, payload model.RoleCreateRequest) (model.RoleResponse, error) {
	response := model.RoleResponse{}

	if payload.Name == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Name is required to not be empty",
			Param:   "name",
		}
	}

	if payload.ServerId == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Server id is required to not be empty",
			Param:   "serverId",
		}
	}

	serverId, err := uuid.Parse(payload.ServerId)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid server id",
			Param:   "serverId",
		}
	}

	permissions, err := normalizePermissions(payload.Permissions)
	if err != nil {
		return response, err
	}

	err = usecase.CanManageRoles(ctx, serverId, actorId)
	if err != nil {
		return response, err
	}

	exists, err := usecase.RoleRepository.CheckRoleNameExists(ctx, serverId, payload.Name, uuid.Nil)
	if err != nil {
		return response, err
	}

	if exists == 1 {
		return response, &model.ConflictError{
			Code:    constant.ERR_CONFLICT_ERROR,
			Message: "A role with this name already exists in this server",
			Param:   "name",
		}
	}

	now := time.Now().UTC()

	role := model.ServerRole{
		Id:             uuid.New(),
		ServerId:       serverId,
		Name:           payload.Name,
		Color:          payload.Color,
		CreateDatetime: now,
		UpdateDatetime: now,
		CreateUserId:   actorId,
		UpdateUserId:   actorId,
	}

	commited := false

	// role and its permission rows land together or not at all
	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return response, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	err = usecase.RoleRepository.CreateRole(ctx, tx, role)
	if err != nil {
		return response, usecase.mapUniqueViolation(err, "name")
	}

	for _, value := range permissions {
		permission := model.ServerRolePermission{
			Id:     uuid.New(),
			RoleId: role.Id,
			Value:  value,
		}

		err = usecase.RoleRepository.CreateRolePermission(ctx, tx, permission)
		if err != nil {
			return response, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return response, usecase.mapUniqueViolation(err, "name")
	}

	commited = true

	return usecase.buildRoleResponse(ctx, role, false)
}

func (usecase *RoleUsecase) UpdateRole(ctx context.Context, actorId uuid.UUID, roleIdParam string, payload model.RoleUpdateRequest) (model.RoleResponse, error) {
	response := model.RoleResponse{}

	roleId, err := uuid.Parse(roleIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid role id",
			Param:   "id",
		}
	}

	if payload.Name != nil && *payload.Name == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Name is required to not be empty",
			Param:   "name",
		}
	}

	var permissions []string
	if payload.Permissions != nil {
		permissions, err = normalizePermissions(*payload.Permissions)
		if err != nil {
			return response, err
		}
	}

	role, err := usecase.RoleRepository.GetRole(ctx, roleId)
	if err != nil {
		return response, err
	}

	err = usecase.CanManageRoles(ctx, role.ServerId, actorId)
	if err != nil {
		return response, err
	}

	if payload.Name != nil && *payload.Name != role.Name {
		exists, err := usecase.RoleRepository.CheckRoleNameExists(ctx, role.ServerId, *payload.Name, role.Id)
		if err != nil {
			return response, err
		}

		if exists == 1 {
			return response, &model.ConflictError{
				Code:    constant.ERR_CONFLICT_ERROR,
				Message: "A role with this name already exists in this server",
				Param:   "name",
			}
		}
	}

	// apply only the supplied fields
	if payload.Name != nil {
		role.Name = *payload.Name
	}

	if payload.Color.Set {
		if payload.Color.Valid {
			color := payload.Color.Value
			role.Color = &color
		} else {
			role.Color = nil
		}
	}

	now := time.Now().UTC()
	role.UpdateDatetime = now
	role.UpdateUserId = actorId

	commited := false

	// field update and permission replacement share one transaction so
	// readers never observe the role stripped of its permissions mid-update
	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return response, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	err = usecase.RoleRepository.UpdateRole(ctx, tx, role.Id, role.Name, role.Color, actorId, now)
	if err != nil {
		return response, usecase.mapUniqueViolation(err, "name")
	}

	if payload.Permissions != nil {
		err = usecase.RoleRepository.DeleteRolePermissions(ctx, tx, role.Id)
		if err != nil {
			return response, err
		}

		for _, value := range permissions {
			permission := model.ServerRolePermission{
				Id:     uuid.New(),
				RoleId: role.Id,
				Value:  value,
			}

			err = usecase.RoleRepository.CreateRolePermission(ctx, tx, permission)
			if err != nil {
				return response, err
			}
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		return response, usecase.mapUniqueViolation(err, "name")
	}

	commited = true

	err = usecase.RoleRepository.RemoveRoleDetailFromCache(ctx, role.Id)
	if err != nil {
		usecase.Log.Warn("failed to invalidate role cache", zap.Error(err))
	}

	return usecase.buildRoleResponse(ctx, role, false)
}

func (usecase *RoleUsecase) DeleteRole(ctx context.Context, actorId uuid.UUID, roleIdParam string) (model.RoleDeleteResponse, error) {
	response := model.RoleDeleteResponse{}

	roleId, err := uuid.Parse(roleIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid role id",
			Param:   "id",
		}
	}

	role, err := usecase.RoleRepository.GetRole(ctx, roleId)
	if err != nil {
		return response, err
	}

	err = usecase.CanManageRoles(ctx, role.ServerId, actorId)
	if err != nil {
		return response, err
	}

	now := time.Now().UTC()

	commited := false

	// members are detached before the role row goes away, inside the same
	// transaction, so no member ever references a deleted role
	tx, err := usecase.DB.Begin(ctx)
	if err != nil {
		return response, err
	}

	defer func() {
		if !commited {
			_ = tx.Rollback(ctx)
		}
	}()

	err = usecase.RoleRepository.DeleteRolePermissions(ctx, tx, role.Id)
	if err != nil {
		return response, err
	}

	membersAffected, err := usecase.RoleRepository.DetachMembersFromRole(ctx, tx, role.Id, actorId, now)
	if err != nil {
		return response, err
	}

	err = usecase.RoleRepository.DeleteRole(ctx, tx, role.Id)
	if err != nil {
		return response, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return response, err
	}

	commited = true

	err = usecase.RoleRepository.RemoveRoleDetailFromCache(ctx, role.Id)
	if err != nil {
		usecase.Log.Warn("failed to invalidate role cache", zap.Error(err))
	}

	response.MembersAffected = membersAffected

	return response, nil
}

// ValidateRoleName is a pure read used for live uniqueness feedback, it does
// not authorize and does not mutate.
func (usecase *RoleUsecase) ValidateRoleName(ctx context.Context, name string, serverIdParam string, excludeIdParam string) (model.RoleNameValidationResponse, error) {
	response := model.RoleNameValidationResponse{}

	if name == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Name is required to not be empty",
			Param:   "name",
		}
	}

	if serverIdParam == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Server id is required to not be empty",
			Param:   "serverId",
		}
	}

	serverId, err := uuid.Parse(serverIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid server id",
			Param:   "serverId",
		}
	}

	excludeId := uuid.Nil
	if excludeIdParam != "" {
		excludeId, err = uuid.Parse(excludeIdParam)
		if err != nil {
			return response, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: "Invalid exclude id",
				Param:   "excludeId",
			}
		}
	}

	exists, err := usecase.RoleRepository.CheckRoleNameExists(ctx, serverId, name, excludeId)
	if err != nil {
		return response, err
	}

	response.Exists = exists == 1
	response.IsUnique = exists != 1

	return response, nil
}

func (usecase *RoleUsecase) GetRolesByServer(ctx context.Context, serverIdParam string, page int, limit int) (model.RoleListResponse, error) {
	response := model.RoleListResponse{}

	if serverIdParam == "" {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Server id is required to not be empty",
			Param:   "serverId",
		}
	}

	serverId, err := uuid.Parse(serverIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid server id",
			Param:   "serverId",
		}
	}

	if page < 1 {
		page = constant.DEFAULT_PAGE
	}

	if limit < 1 {
		limit = constant.DEFAULT_LIMIT
	} else if limit > constant.MAX_LIMIT {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: fmt.Sprintf("Limit is exceeded max limit: %d", constant.MAX_LIMIT),
			Param:   "limit",
		}
	}

	offset := (page - 1) * limit

	roles, err := usecase.RoleRepository.GetRolesByServer(ctx, serverId, limit, offset)
	if err != nil {
		return response, err
	}

	total, err := usecase.RoleRepository.CountRolesByServer(ctx, serverId)
	if err != nil {
		return response, err
	}

	response.Data = []model.RoleResponse{}
	if len(roles) > 0 {
		// every role on the page belongs to the same server, resolve it once
		server, err := usecase.RoleRepository.GetServer(ctx, serverId)
		if err != nil {
			return response, err
		}

		for _, role := range roles {
			roleResponse, err := usecase.buildRoleResponseWithServer(ctx, role, server, true)
			if err != nil {
				return response, err
			}
			response.Data = append(response.Data, roleResponse)
		}
	}

	response.Pagination = model.Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}

	return response, nil
}

func (usecase *RoleUsecase) GetRoleById(ctx context.Context, roleIdParam string) (model.RoleResponse, error) {
	response := model.RoleResponse{}

	roleId, err := uuid.Parse(roleIdParam)
	if err != nil {
		return response, &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: "Invalid role id",
			Param:   "id",
		}
	}

	cached, err := usecase.RoleRepository.GetRoleDetailInCache(ctx, roleId)
	if err != nil {
		usecase.Log.Warn("failed to read role cache", zap.Error(err))
	}

	if cached != nil {
		err = sonic.Unmarshal(cached, &response)
		if err == nil {
			return response, nil
		}
		usecase.Log.Warn("failed to decode cached role", zap.Error(err))
	}

	role, err := usecase.RoleRepository.GetRole(ctx, roleId)
	if err != nil {
		return response, err
	}

	response, err = usecase.buildRoleResponse(ctx, role, true)
	if err != nil {
		return response, err
	}

	payload, err := sonic.Marshal(response)
	if err == nil {
		err = usecase.RoleRepository.SetRoleDetailInCache(ctx, roleId, payload)
		if err != nil {
			usecase.Log.Warn("failed to write role cache", zap.Error(err))
		}
	}

	return response, nil
}

func (usecase *RoleUsecase) buildRoleResponse(ctx context.Context, role model.ServerRole, withMembers bool) (model.RoleResponse, error) {
	server, err := usecase.RoleRepository.GetServer(ctx, role.ServerId)
	if err != nil {
		return model.RoleResponse{}, err
	}

	return usecase.buildRoleResponseWithServer(ctx, role, server, withMembers)
}

func (usecase *RoleUsecase) buildRoleResponseWithServer(ctx context.Context, role model.ServerRole, server model.Server, withMembers bool) (model.RoleResponse, error) {
	response := model.RoleResponse{
		Id:             role.Id,
		ServerId:       role.ServerId,
		Name:           role.Name,
		Color:          role.Color,
		CreateDatetime: role.CreateDatetime,
		UpdateDatetime: role.UpdateDatetime,
	}

	response.Server = model.ServerSummary{
		Id:   server.Id,
		Name: server.Name,
	}

	permissions, err := usecase.RoleRepository.GetRolePermissions(ctx, role.Id)
	if err != nil {
		return response, err
	}

	response.Permissions = permissions

	if withMembers {
		members, err := usecase.RoleRepository.GetRoleMembers(ctx, role.Id)
		if err != nil {
			return response, err
		}

		bucketName := usecase.Config.String("MINIO_BUCKET_NAME")
		for i := range members {
			if members[i].Avatar == nil {
				continue
			}

			presignedURL, err := usecase.RoleRepository.PresignAvatarURL(ctx, bucketName, *members[i].Avatar)
			if err != nil {
				return response, err
			}

			members[i].Avatar = &presignedURL
		}

		response.Members = members
	}

	return response, nil
}

// mapUniqueViolation turns a storage-level uniqueness violation into the same
// conflict the pre-check would have produced, the constraint is the backstop
// for the check-then-act race.
func (usecase *RoleUsecase) mapUniqueViolation(err error, param string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &model.ConflictError{
			Code:    constant.ERR_CONFLICT_ERROR,
			Message: "A role with this name already exists in this server",
			Param:   param,
		}
	}

	return err
}

// normalizePermissions validates values against the closed capability set and
// drops duplicates while keeping first-seen order.
func normalizePermissions(values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{}, len(values))
	normalized := make([]string, 0, len(values))

	for _, value := range values {
		if _, ok := model.ValidPermissions[value]; !ok {
			return nil, &model.ValidationError{
				Code:    constant.ERR_VALIDATION_CODE,
				Message: fmt.Sprintf("Unknown permission value: %s", value),
				Param:   "permissions",
			}
		}

		if _, ok := seen[value]; ok {
			continue
		}

		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}

	return normalized, nil
}
