package utils

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/authz"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func GetCurrentActor(ctx *gin.Context) (authz.Actor, error) {
	user, exists := ctx.Get(types.ContextUserKey)

	if !exists {
		return authz.Actor{}, fmt.Errorf("User not authenticated")
	}

	actor, ok := user.(authz.Actor)

	if !ok {
		return authz.Actor{}, fmt.Errorf("Invalid user type in context")
	}

	return actor, nil
}
