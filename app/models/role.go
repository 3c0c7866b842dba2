package models

import (
	"time"

	"github.com/shashiranjanraj/grinfood/pkg/rbac"
)

// RoleAssignment is stored under the subject id, so each subject has at most
// one.
type RoleAssignment struct {
	SubjectID string    `bson:"_id" json:"uid"`
	Role      rbac.Role `bson:"role" json:"role"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type RoleInput struct {
	Role string `json:"role" validate:"required,in=user,manager"`
}
