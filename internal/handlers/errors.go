package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/logger"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/services"
	"go.uber.org/zap"
)

// respondError maps service errors onto the API error envelope. Anything not
// recognised is logged and reported as a generic internal error.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, err.Error())
	case errors.Is(err, services.ErrAccountDisabled):
		apierrors.AccountDisabled(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrEmployeeNotFound),
		errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrCompanyOnly),
		errors.Is(err, services.ErrTaskForbidden),
		errors.Is(err, services.ErrTenantMismatch),
		errors.Is(err, services.ErrAssigneesLocked):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		apierrors.InvalidState(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")
	case errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	default:
		logger.FromContext(c).Error("Request failed", zap.Error(err))
		apierrors.InternalError(c, "")
	}
}

// requireIdentity fetches the caller set by RequireAuth, answering 401 when
// it is missing.
func requireIdentity(c *gin.Context) (services.Identity, bool) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Identity{}, false
	}
	return identity, true
}

// invalidBody answers 400 for a body that failed to bind. Failed binding
// rules are listed per field in the details.
func invalidBody(c *gin.Context, message string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, message)
		return
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	apierrors.BadRequestWithDetails(c, message, fields)
}
