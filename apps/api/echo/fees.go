package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coaching/core"
	"github.com/trezcool/coaching/core/fee"
	"github.com/trezcool/coaching/core/student"
)

type feeApi struct {
	svc       fee.Service
	stdSvc    student.Service
	reminders *fee.ReminderScheduler
	validate  *validator.Validate
}

type (
	// MyFeesResponse is the fee history of the calling student.
	MyFeesResponse struct {
		Student    student.Student `json:"student"`
		Evaluation fee.Evaluation  `json:"evaluation"`
		Payments   []fee.Payment   `json:"payments"`
	}

	RemindersResponse struct {
		Sent int `json:"sent"`
	}
)

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps *Deps) {
	api := feeApi{
		svc:       deps.FeeSvc,
		stdSvc:    deps.StudentSvc,
		reminders: deps.Reminders,
		validate:  deps.Validate,
	}

	fg := g.Group("/fees", jwt)
	fg.GET("", api.overview, staffMiddleware())
	fg.GET("/mine", api.mine, roleMiddleware(core.RoleStudent))
	fg.POST("/reminders", api.sendReminders, staffMiddleware())
	fg.POST("/payments", api.recordPayment, staffMiddleware())
	fg.GET("/payments", api.queryPayments, staffMiddleware())
	fg.GET("/payments/:id", api.retrievePayment)
}

// Handlers

func (api *feeApi) overview(ctx echo.Context) error {
	var on EvaluationDate
	if err := on.Bind(ctx); err != nil {
		return err
	}
	rows, err := api.svc.Overview(ctx.Request().Context(), on.Date)
	if err != nil {
		return errors.Wrap(err, "computing fee overview")
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.stdSvc); err != nil {
		return err
	}

	p, err := api.svc.RecordPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *feeApi) queryPayments(ctx echo.Context) error {
	filter := fee.PaymentFilter{StudentID: ctx.QueryParam("student_id")}
	payments, err := api.svc.ListPayments(ctx.Request().Context(), &filter)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	return ctx.JSON(http.StatusOK, payments)
}

// retrievePayment returns a receipt; students can only see their own.
func (api *feeApi) retrievePayment(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context identity")
	}

	p, err := api.svc.GetPayment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting payment")
	}
	if id.Role.IsStaff() {
		return ctx.JSON(http.StatusOK, p)
	}

	std, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return errHttpForbidden
		}
		return err
	}
	if p.StudentID != std.ID {
		return errHttpForbidden
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *feeApi) mine(ctx echo.Context) error {
	var on EvaluationDate
	if err := on.Bind(ctx); err != nil {
		return err
	}
	std, err := getContextStudent(ctx, api.stdSvc)
	if err != nil {
		return err
	}
	payments, err := api.svc.ListPayments(ctx.Request().Context(), &fee.PaymentFilter{StudentID: std.ID})
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	return ctx.JSON(http.StatusOK, MyFeesResponse{
		Student:    std,
		Evaluation: fee.Evaluate(std, payments, on.Date),
		Payments:   payments,
	})
}

func (api *feeApi) sendReminders(ctx echo.Context) error {
	var on EvaluationDate
	if err := on.Bind(ctx); err != nil {
		return err
	}
	sent := api.reminders.Run(ctx.Request().Context(), on.Date)
	return ctx.JSON(http.StatusOK, RemindersResponse{Sent: sent})
}
