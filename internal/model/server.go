package model

import (
	"time"

	"github.com/google/uuid"
)

type Server struct {
	Id             uuid.UUID
	OwnerId        uuid.UUID
	Name           string
	CreateDatetime time.Time
	UpdateDatetime time.Time
}

type ServerSummary struct {
	Id   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
