package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ferdian3456/rolehub/internal/constant"
	"github.com/ferdian3456/rolehub/internal/model"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type RoleRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBCache  *redis.Client
	DBObject *minio.Client
}

func NewRoleRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client, minio *minio.Client) *RoleRepository {
	return &RoleRepository{
		Log:      zap,
		DB:       db,
		DBCache:  dbCache,
		DBObject: minio,
	}
}

// Postgresql
func (repository *RoleRepository) GetServer(ctx context.Context, serverId uuid.UUID) (model.Server, error) {
	query := "SELECT id,owner_id,name,create_datetime,update_datetime FROM servers WHERE id=$1 LIMIT 1"

	server := model.Server{}
	err := repository.DB.QueryRow(ctx, query, serverId).Scan(&server.Id, &server.OwnerId, &server.Name, &server.CreateDatetime, &server.UpdateDatetime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return server, &model.NotFoundError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Server not found",
				Param:   "serverId",
			}
		}
		return server, err
	}

	return server, nil
}

func (repository *RoleRepository) GetRole(ctx context.Context, roleId uuid.UUID) (model.ServerRole, error) {
	query := "SELECT id,server_id,name,color,create_datetime,update_datetime,create_user_id,update_user_id FROM server_roles WHERE id=$1 LIMIT 1"

	role := model.ServerRole{}
	err := repository.DB.QueryRow(ctx, query, roleId).Scan(&role.Id, &role.ServerId, &role.Name, &role.Color, &role.CreateDatetime, &role.UpdateDatetime, &role.CreateUserId, &role.UpdateUserId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role, &model.NotFoundError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Role not found",
				Param:   "id",
			}
		}
		return role, err
	}

	return role, nil
}

// CheckRoleNameExists reports whether a role with this exact name exists in
// the server, optionally excluding one role id (rename-in-place check).
func (repository *RoleRepository) CheckRoleNameExists(ctx context.Context, serverId uuid.UUID, name string, excludeId uuid.UUID) (int, error) {
	var exists int
	var err error

	if excludeId == uuid.Nil {
		query := "SELECT 1 FROM server_roles WHERE server_id=$1 AND name=$2 LIMIT 1"
		err = repository.DB.QueryRow(ctx, query, serverId, name).Scan(&exists)
	} else {
		query := "SELECT 1 FROM server_roles WHERE server_id=$1 AND name=$2 AND id<>$3 LIMIT 1"
		err = repository.DB.QueryRow(ctx, query, serverId, name, excludeId).Scan(&exists)
	}

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return exists, err
	}

	return exists, nil
}

// CheckMemberManagePermission reports whether the user's assigned role in the
// server carries any of the given capability values. Members without an
// assigned role never match.
func (repository *RoleRepository) CheckMemberManagePermission(ctx context.Context, serverId uuid.UUID, userId uuid.UUID, values []string) (int, error) {
	query := `SELECT 1
			FROM server_members A
			JOIN server_role_permissions B ON A.role_id = B.role_id
			WHERE A.server_id=$1 AND A.user_id=$2 AND B.value = ANY($3)
			LIMIT 1`

	var exists int
	err := repository.DB.QueryRow(ctx, query, serverId, userId, values).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return exists, err
	}

	return exists, nil
}

func (repository *RoleRepository) CreateRole(ctx context.Context, tx pgx.Tx, role model.ServerRole) error {
	query := "INSERT INTO server_roles (id, server_id, name, color, create_datetime, update_datetime, create_user_id, update_user_id) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)"

	_, err := tx.Exec(ctx, query, role.Id, role.ServerId, role.Name, role.Color, role.CreateDatetime, role.UpdateDatetime, role.CreateUserId, role.UpdateUserId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *RoleRepository) CreateRolePermission(ctx context.Context, tx pgx.Tx, permission model.ServerRolePermission) error {
	query := "INSERT INTO server_role_permissions (id, role_id, value) VALUES ($1,$2,$3)"

	_, err := tx.Exec(ctx, query, permission.Id, permission.RoleId, permission.Value)
	if err != nil {
		return err
	}

	return nil
}

func (repository *RoleRepository) UpdateRole(ctx context.Context, tx pgx.Tx, roleId uuid.UUID, name string, color *string, updateUserId uuid.UUID, updateDatetime time.Time) error {
	query := "UPDATE server_roles SET name=$1, color=$2, update_datetime=$3, update_user_id=$4 WHERE id=$5"

	_, err := tx.Exec(ctx, query, name, color, updateDatetime, updateUserId, roleId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *RoleRepository) DeleteRolePermissions(ctx context.Context, tx pgx.Tx, roleId uuid.UUID) error {
	query := "DELETE FROM server_role_permissions WHERE role_id=$1"

	_, err := tx.Exec(ctx, query, roleId)
	if err != nil {
		return err
	}

	return nil
}

// DetachMembersFromRole nulls out the role reference for every member still
// pointing at the role, returning how many were detached.
func (repository *RoleRepository) DetachMembersFromRole(ctx context.Context, tx pgx.Tx, roleId uuid.UUID, updateUserId uuid.UUID, updateDatetime time.Time) (int, error) {
	query := "UPDATE server_members SET role_id=NULL, update_datetime=$1, update_user_id=$2 WHERE role_id=$3"

	cmdTag, err := tx.Exec(ctx, query, updateDatetime, updateUserId, roleId)
	if err != nil {
		return 0, err
	}

	return int(cmdTag.RowsAffected()), nil
}

func (repository *RoleRepository) DeleteRole(ctx context.Context, tx pgx.Tx, roleId uuid.UUID) error {
	query := "DELETE FROM server_roles WHERE id=$1"

	_, err := tx.Exec(ctx, query, roleId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *RoleRepository) GetRolePermissions(ctx context.Context, roleId uuid.UUID) ([]model.RolePermissionResponse, error) {
	query := "SELECT id,value FROM server_role_permissions WHERE role_id=$1 ORDER BY value ASC"

	rows, err := repository.DB.Query(ctx, query, roleId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	permissions := []model.RolePermissionResponse{}
	for rows.Next() {
		permission := model.RolePermissionResponse{}
		err = rows.Scan(&permission.Id, &permission.Value)
		if err != nil {
			return nil, err
		}
		permissions = append(permissions, permission)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return permissions, nil
}

// GetRoleMembers returns member summaries with the raw avatar object key in
// the Avatar field, the usecase swaps it for a presigned URL.
func (repository *RoleRepository) GetRoleMembers(ctx context.Context, roleId uuid.UUID) ([]model.RoleMemberSummary, error) {
	query := `SELECT A.id, A.user_id, B.username, B.avatar_object_key
			FROM server_members A
			JOIN users B ON A.user_id = B.id
			WHERE A.role_id=$1
			ORDER BY A.create_datetime ASC`

	rows, err := repository.DB.Query(ctx, query, roleId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.RoleMemberSummary{}
	for rows.Next() {
		member := model.RoleMemberSummary{}
		err = rows.Scan(&member.Id, &member.UserId, &member.Username, &member.Avatar)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return members, nil
}

func (repository *RoleRepository) GetRolesByServer(ctx context.Context, serverId uuid.UUID, limit int, offset int) ([]model.ServerRole, error) {
	query := `SELECT id,server_id,name,color,create_datetime,update_datetime,create_user_id,update_user_id
			FROM server_roles
			WHERE server_id=$1
			ORDER BY create_datetime DESC
			LIMIT $2 OFFSET $3`

	rows, err := repository.DB.Query(ctx, query, serverId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []model.ServerRole{}
	for rows.Next() {
		role := model.ServerRole{}
		err = rows.Scan(&role.Id, &role.ServerId, &role.Name, &role.Color, &role.CreateDatetime, &role.UpdateDatetime, &role.CreateUserId, &role.UpdateUserId)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return roles, nil
}

func (repository *RoleRepository) CountRolesByServer(ctx context.Context, serverId uuid.UUID) (int, error) {
	query := "SELECT COUNT(*) FROM server_roles WHERE server_id=$1"

	var total int
	err := repository.DB.QueryRow(ctx, query, serverId).Scan(&total)
	if err != nil {
		return 0, err
	}

	return total, nil
}

// Redis - Cache
func (repository *RoleRepository) SetRoleDetailInCache(ctx context.Context, roleId uuid.UUID, payload []byte) error {
	key := fmt.Sprintf("role:detail:%s", roleId)

	err := repository.DBCache.Set(ctx, key, payload, 5*time.Minute).Err()
	if err != nil {
		return err
	}

	return nil
}

func (repository *RoleRepository) GetRoleDetailInCache(ctx context.Context, roleId uuid.UUID) ([]byte, error) {
	key := fmt.Sprintf("role:detail:%s", roleId)

	payload, err := repository.DBCache.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return payload, nil
}

func (repository *RoleRepository) RemoveRoleDetailFromCache(ctx context.Context, roleId uuid.UUID) error {
	key := fmt.Sprintf("role:detail:%s", roleId)

	err := repository.DBCache.Del(ctx, key).Err()
	if err != nil {
		return err
	}

	return nil
}

// MinIO - avatar bucket is private, reads go through presigned GET URLs
func (repository *RoleRepository) PresignAvatarURL(ctx context.Context, bucketName string, objectKey string) (string, error) {
	presignedURL, err := repository.DBObject.PresignedGetObject(ctx, bucketName, objectKey, 15*time.Minute, nil)
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
