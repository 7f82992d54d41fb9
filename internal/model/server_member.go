package model

import (
	"time"

	"github.com/google/uuid"
)

type ServerMember struct {
	Id             uuid.UUID
	ServerId       uuid.UUID
	UserId         uuid.UUID
	RoleId         *uuid.UUID
	CreateDatetime time.Time
	UpdateDatetime time.Time
	CreateUserId   uuid.UUID
	UpdateUserId   uuid.UUID
}

type MemberAssignRoleRequest struct {
	UserId string  `json:"userId"`
	RoleId *string `json:"roleId"`
}

type MemberResponse struct {
	Id             uuid.UUID  `json:"id"`
	UserId         uuid.UUID  `json:"userId"`
	Username       string     `json:"username"`
	Fullname       string     `json:"fullname"`
	Avatar         *string    `json:"avatar"`
	RoleId         *uuid.UUID `json:"roleId"`
	RoleName       *string    `json:"roleName"`
	CreateDatetime time.Time  `json:"createDatetime"`
}

type MemberListResponse struct {
	Data []MemberResponse `json:"data"`
}
