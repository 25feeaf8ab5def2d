package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/coaching/core"
)

var dateParam = "date"

// EvaluationDate is the `?date=YYYY-MM-DD` query param fees are evaluated on; it defaults to today.
type EvaluationDate struct {
	Date time.Time
}

func (ed *EvaluationDate) Bind(ctx echo.Context) error {
	ed.Date = core.Today()
	val := ctx.QueryParam(dateParam)
	if val == "" {
		return nil
	}

	d, err := core.ParseDate(val)
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: dateParam, Error: "must be a date (YYYY-MM-DD)"})
	}
	ed.Date = d
	return nil
}
