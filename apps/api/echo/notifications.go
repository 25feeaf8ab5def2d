package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/notification"
)

type notificationApi struct {
	svc      notification.Service
	validate *validator.Validate
}

type (
	// NotificationRequest broadcasts a message to the students of some batches, or to all students.
	NotificationRequest struct {
		notification.Message
		BatchIDs []string `json:"batch_ids" validate:"omitempty,dive,required"`
	}

	NotificationResponse struct {
		notification.Report
		Error string `json:"error,omitempty"`
	}
)

func (nr *NotificationRequest) Validate(_ context.Context, validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Body = core.CleanString(nr.Body)
	nr.ClickAction = core.CleanString(nr.ClickAction)
	if err := validate.Struct(nr); err != nil {
		return err
	}
	return nr.CheckPayload()
}

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := notificationApi{
		svc:      deps.NotificationSvc,
		validate: deps.Validate,
	}

	g.POST("/notifications", api.broadcast, jwt, staffMiddleware())
}

// Handlers

func (api *notificationApi) broadcast(ctx echo.Context) error {
	var data NotificationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NotificationRequest")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	var report notification.Report
	if len(data.BatchIDs) > 0 {
		report = api.svc.NotifyBatchStudents(ctx.Request().Context(), data.BatchIDs, data.Message)
	} else {
		report = api.svc.NotifyAllStudents(ctx.Request().Context(), data.Message)
	}

	resp := NotificationResponse{Report: report}
	if report.Err != nil {
		resp.Error = report.Err.Error()
	}
	return ctx.JSON(http.StatusOK, resp)
}
