package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
)

const contextKeyTaskID = "task_id"

// RequireTaskID parses the :id path parameter. Whether the caller may touch
// the task is decided by the task service.
func RequireTaskID() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || taskID == 0 {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		c.Set(contextKeyTaskID, taskID)
		c.Next()
	}
}

// GetTaskID retrieves the task ID parsed by RequireTaskID
func GetTaskID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(contextKeyTaskID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}
