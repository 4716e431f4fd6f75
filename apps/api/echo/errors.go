package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/org"
	"github.com/trezcool/shule/core/transfer"
)

var (
	errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	errKindNotFound = echo.NewHTTPError(http.StatusNotFound, "Unknown transfer kind")
)

// newAppHTTPErrorHandler translates service errors to the HTTP statuses
// clients can act on; anything unmapped is a 500 and, if it marks the app as
// unhealthy, triggers a graceful shutdown.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = echo.Map{"errors": origErr.Translate(core.Translator)}
		case *core.ValidationError:
			code = http.StatusBadRequest
			flds := make(echo.Map, len(origErr.Fields))
			for _, fldErr := range origErr.Fields {
				flds[fldErr.Field] = fldErr.Error
			}
			message = echo.Map{"errors": flds}
		default:
			switch origErr {
			case transfer.ErrNotFound, member.ErrNotFound,
				org.ErrCampusNotFound, org.ErrGradeNotFound, org.ErrClassroomNotFound, org.ErrCoordinatorNotFound:
				code = http.StatusNotFound
				message = err.Error()
			case transfer.ErrPermissionDenied:
				code = http.StatusForbidden
				message = err.Error()
			case transfer.ErrAlreadyTerminal, transfer.ErrApprovalOutOfOrder:
				code = http.StatusConflict
				message = err.Error()
			case transfer.ErrUnknownKind, transfer.ErrCrossCampus, transfer.ErrCrossShift,
				transfer.ErrGradeDelta, transfer.ErrNotAssigned, transfer.ErrNoAvailableDestination,
				ident.ErrInvalidFormat:
				code = http.StatusBadRequest
				message = err.Error()
			default:
				code = http.StatusInternalServerError
				message = http.StatusText(code)
				if ctx.Echo().Debug {
					message = err.Error()
				}
				logger.Error("unhandled API error", "error", err)

				if ok := core.IsShutdown(err); ok {
					signalShutdown()
				}
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// send JSON response
		var resErr error
		if ctx.Request().Method == http.MethodHead {
			resErr = ctx.NoContent(code)
		} else {
			resErr = ctx.JSON(code, message)
		}
		if resErr != nil {
			logger.Error("error responding to request", "error", resErr)
		}
	}
}
