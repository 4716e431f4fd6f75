package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/ident"
	"github.com/trezcool/shule/core/member"
	"github.com/trezcool/shule/core/transfer"
)

type identAPI struct {
	svc     transfer.Service
	members member.Repository
}

func registerIdentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc transfer.Service, members member.Repository) {
	api := identAPI{svc: svc, members: members}

	g.POST("/identifiers/preview", api.preview, jwt)

	mg := g.Group("/members", jwt)
	mg.GET("/:id", api.getMember)
	mg.GET("/:id/history", api.history)
}

type previewRequest struct {
	MemberID   string `json:"member_id"`
	Code       string `json:"code"`
	CampusCode string `json:"campus_code"`
	ShiftCode  string `json:"shift_code"`
	YearCode   string `json:"year_code"`
	RoleCode   string `json:"role_code"`
}

func (r *previewRequest) Validate() error {
	r.Code = core.CleanString(r.Code)
	if r.MemberID == "" && r.Code == "" {
		return core.NewValidationError(nil,
			core.FieldError{Field: "member_id", Error: "either member_id or code is required"})
	}
	return nil
}

// preview shows what a member's identifier would become after a change,
// without persisting anything.
func (api *identAPI) preview(ctx echo.Context) error {
	if _, err := getContextActor(ctx); err != nil {
		return err
	}
	var data previewRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	code := data.Code
	if data.MemberID != "" {
		m, err := api.members.GetMember(ctx.Request().Context(), data.MemberID)
		if err != nil {
			return err
		}
		code = m.Code
	}

	preview, err := ident.PreviewChange(code, data.CampusCode, data.ShiftCode, data.YearCode, data.RoleCode)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, preview)
}

func (api *identAPI) getMember(ctx echo.Context) error {
	if _, err := getContextActor(ctx); err != nil {
		return err
	}
	m, err := api.members.GetMember(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

// history returns a member's identifier change records, newest first.
func (api *identAPI) history(ctx echo.Context) error {
	if _, err := getContextActor(ctx); err != nil {
		return err
	}
	records, err := api.svc.History(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}
