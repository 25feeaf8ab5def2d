package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core/notification"
)

type deviceApi struct {
	svc      notification.Service
	validate *validator.Validate
}

type LogoutResponse struct {
	Deactivated int `json:"deactivated"`
}

func registerDeviceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := deviceApi{
		svc:      deps.NotificationSvc,
		validate: deps.Validate,
	}

	dg := g.Group("/devices", jwt)
	dg.POST("", api.register)
	dg.POST("/logout", api.logout)
}

// Handlers

func (api *deviceApi) register(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	var data notification.NewDeviceToken
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDeviceToken")
	}
	if err = data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}

	tok, created, err := api.svc.RegisterToken(ctx.Request().Context(), id.UserID, data)
	if err != nil {
		return errors.Wrap(err, "registering device token")
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, tok)
}

func (api *deviceApi) logout(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}
	n, err := api.svc.Logout(ctx.Request().Context(), id.UserID)
	if err != nil {
		return errors.Wrap(err, "deactivating device tokens")
	}
	return ctx.JSON(http.StatusOK, LogoutResponse{Deactivated: n})
}
