package model

import (
	"time"

	"github.com/google/uuid"
)

// Capability tags a role can carry. The set is closed: values outside this
// list are rejected at the usecase boundary.
const (
	PermAdministrator   = "ADMINISTRATOR"
	PermManageRoles     = "MANAGE_ROLES"
	PermManageChannels  = "MANAGE_CHANNELS"
	PermManageMessages  = "MANAGE_MESSAGES"
	PermManageInvites   = "MANAGE_INVITES"
	PermKickMembers     = "KICK_MEMBERS"
	PermBanMembers      = "BAN_MEMBERS"
	PermViewChannels    = "VIEW_CHANNELS"
	PermSendMessages    = "SEND_MESSAGES"
	PermAttachFiles     = "ATTACH_FILES"
	PermMentionEveryone = "MENTION_EVERYONE"
)

var ValidPermissions = map[string]struct{}{
	PermAdministrator:   {},
	PermManageRoles:     {},
	PermManageChannels:  {},
	PermManageMessages:  {},
	PermManageInvites:   {},
	PermKickMembers:     {},
	PermBanMembers:      {},
	PermViewChannels:    {},
	PermSendMessages:    {},
	PermAttachFiles:     {},
	PermMentionEveryone: {},
}

type ServerRole struct {
	Id             uuid.UUID
	ServerId       uuid.UUID
	Name           string
	Color          *string
	CreateDatetime time.Time
	UpdateDatetime time.Time
	CreateUserId   uuid.UUID
	UpdateUserId   uuid.UUID
}

type ServerRolePermission struct {
	Id     uuid.UUID
	RoleId uuid.UUID
	Value  string
}

type RoleCreateRequest struct {
	Name        string   `json:"name"`
	ServerId    string   `json:"serverId"`
	Color       *string  `json:"color"`
	Permissions []string `json:"permissions"`
}

// RoleUpdateRequest distinguishes omitted fields from cleared ones. Name only
// needs absent-vs-value, Color also needs an explicit null, Permissions uses
// a nil slice pointer for "leave untouched" and an empty slice for "clear".
type RoleUpdateRequest struct {
	Name        *string        `json:"name"`
	Color       OptionalString `json:"color"`
	Permissions *[]string      `json:"permissions"`
}

type RolePermissionResponse struct {
	Id    uuid.UUID `json:"id"`
	Value string    `json:"value"`
}

type RoleMemberSummary struct {
	Id       uuid.UUID `json:"id"`
	UserId   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	Avatar   *string   `json:"avatar"`
}

type RoleResponse struct {
	Id             uuid.UUID                `json:"id"`
	ServerId       uuid.UUID                `json:"serverId"`
	Name           string                   `json:"name"`
	Color          *string                  `json:"color"`
	Permissions    []RolePermissionResponse `json:"permissions"`
	Server         ServerSummary            `json:"server"`
	Members        []RoleMemberSummary      `json:"members,omitempty"`
	CreateDatetime time.Time                `json:"createDatetime"`
	UpdateDatetime time.Time                `json:"updateDatetime"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type RoleListResponse struct {
	Data       []RoleResponse `json:"data"`
	Pagination Pagination     `json:"pagination"`
}

type RoleDeleteResponse struct {
	MembersAffected int `json:"membersAffected"`
}

type RoleNameValidationResponse struct {
	IsUnique bool `json:"isUnique"`
	Exists   bool `json:"exists"`
}
