package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/student"
)

type studentApi struct {
	svc      student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create, staffMiddleware())
	sg.GET("", api.query, staffMiddleware())
	sg.GET("/me", api.retrieveMine, roleMiddleware(core.RoleStudent))
	sg.GET("/:id", api.retrieve, staffMiddleware())
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	std, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == student.ErrUserExists {
			return core.NewValidationError(err, core.FieldError{Field: "user_id", Error: student.ErrUserExists.Error()})
		}
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	students, err := api.svc.Query(ctx.Request().Context(), &filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) retrieveMine(ctx echo.Context) error {
	std, err := getContextStudent(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

// getContextStudent returns the student profile of the caller.
func getContextStudent(ctx echo.Context, svc student.Service) (student.Student, error) {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting context identity")
	}
	std, err := svc.GetByUserID(ctx.Request().Context(), id.UserID)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "getting context student")
	}
	return std, nil
}
