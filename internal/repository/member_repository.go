package repository

import (
	"context"
	"errors"
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

type MemberRepository struct {
	Log      *zap.Logger
	DB       *pgxpool.Pool
	DBCache  *redis.Client
	DBObject *minio.Client
}

func NewMemberRepository(zap *zap.Logger, db *pgxpool.Pool, dbCache *redis.Client, minio *minio.Client) *MemberRepository {
	return &MemberRepository{
		Log:      zap,
		DB:       db,
		DBCache:  dbCache,
		DBObject: minio,
	}
}

func (repository *MemberRepository) GetMember(ctx context.Context, serverId uuid.UUID, userId uuid.UUID) (model.ServerMember, int, error) {
	query := "SELECT id,server_id,user_id,role_id,create_datetime,update_datetime,create_user_id,update_user_id FROM server_members WHERE server_id=$1 AND user_id=$2 LIMIT 1"

	member := model.ServerMember{}
	err := repository.DB.QueryRow(ctx, query, serverId, userId).Scan(&member.Id, &member.ServerId, &member.UserId, &member.RoleId, &member.CreateDatetime, &member.UpdateDatetime, &member.CreateUserId, &member.UpdateUserId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member, 0, nil
		}
		return member, 0, err
	}

	return member, 1, nil
}

func (repository *MemberRepository) CheckUserExists(ctx context.Context, userId uuid.UUID) (int, error) {
	query := "SELECT 1 FROM users WHERE id=$1 LIMIT 1"

	var exists int
	err := repository.DB.QueryRow(ctx, query, userId).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return exists, err
	}

	return exists, nil
}

func (repository *MemberRepository) CreateMember(ctx context.Context, tx pgx.Tx, member model.ServerMember) error {
	query := "INSERT INTO server_members (id, server_id, user_id, role_id, create_datetime, update_datetime, create_user_id, update_user_id) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)"

	_, err := tx.Exec(ctx, query, member.Id, member.ServerId, member.UserId, member.RoleId, member.CreateDatetime, member.UpdateDatetime, member.CreateUserId, member.UpdateUserId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *MemberRepository) UpdateMemberRole(ctx context.Context, tx pgx.Tx, memberId uuid.UUID, roleId *uuid.UUID, updateUserId uuid.UUID, updateDatetime time.Time) error {
	query := "UPDATE server_members SET role_id=$1, update_datetime=$2, update_user_id=$3 WHERE id=$4"

	_, err := tx.Exec(ctx, query, roleId, updateDatetime, updateUserId, memberId)
	if err != nil {
		return err
	}

	return nil
}

func (repository *MemberRepository) GetMemberDetail(ctx context.Context, memberId uuid.UUID) (model.MemberResponse, error) {
	query := `SELECT A.id, A.user_id, B.username, B.fullname, B.avatar_object_key, A.role_id, C.name, A.create_datetime
			FROM server_members A
			JOIN users B ON A.user_id = B.id
			LEFT JOIN server_roles C ON A.role_id = C.id
			WHERE A.id=$1
			LIMIT 1`

	member := model.MemberResponse{}
	err := repository.DB.QueryRow(ctx, query, memberId).Scan(&member.Id, &member.UserId, &member.Username, &member.Fullname, &member.Avatar, &member.RoleId, &member.RoleName, &member.CreateDatetime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return member, &model.NotFoundError{
				Code:    constant.ERR_NOT_FOUND_ERROR,
				Message: "Member not found",
				Param:   "memberId",
			}
		}
		return member, err
	}

	return member, nil
}

// GetMembersByServer returns members with user display fields and role name,
// the Avatar field carries the raw object key until the usecase presigns it.
func (repository *MemberRepository) GetMembersByServer(ctx context.Context, serverId uuid.UUID) ([]model.MemberResponse, error) {
	query := `SELECT A.id, A.user_id, B.username, B.fullname, B.avatar_object_key, A.role_id, C.name, A.create_datetime
			FROM server_members A
			JOIN users B ON A.user_id = B.id
			LEFT JOIN server_roles C ON A.role_id = C.id
			WHERE A.server_id=$1
			ORDER BY A.create_datetime ASC`

	rows, err := repository.DB.Query(ctx, query, serverId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.MemberResponse{}
	for rows.Next() {
		member := model.MemberResponse{}
		err = rows.Scan(&member.Id, &member.UserId, &member.Username, &member.Fullname, &member.Avatar, &member.RoleId, &member.RoleName, &member.CreateDatetime)
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
