package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id              uuid.UUID
	Username        string
	Fullname        string
	AvatarObjectKey *string
	CreateDatetime  time.Time
	UpdateDatetime  time.Time
}
