package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/transfer"
)

type transferAPI struct {
	svc transfer.Service
}

func registerTransferAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc transfer.Service) {
	api := transferAPI{svc: svc}

	tg := g.Group("/transfers", jwt)
	tg.POST("/:kind", api.create)
	tg.GET("/:kind/:id", api.get)
	tg.GET("/:kind/:id/steps", api.steps)
	tg.POST("/:kind/:id/approve", api.approve)
	tg.POST("/:kind/:id/decline", api.decline)
	tg.POST("/:kind/:id/cancel", api.cancel)
	tg.POST("/campus/:id/submit", api.submitCampus)
}

type (
	decisionRequest struct {
		Comment string `json:"comment"`
	}
	declineRequest struct {
		Reason string `json:"reason"`
	}
)

func pathKind(ctx echo.Context) (transfer.Kind, error) {
	kind, err := transfer.ParseKind(ctx.Param("kind"))
	if err != nil {
		return "", errKindNotFound
	}
	return kind, nil
}

func (api *transferAPI) create(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}

	var res interface{}
	switch kind {
	case transfer.KindClass:
		var data transfer.NewClassTransfer
		if err := ctx.Bind(&data); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		res, err = api.svc.CreateClassTransfer(ctx.Request().Context(), actor, data)
	case transfer.KindShift:
		var data transfer.NewShiftTransfer
		if err := ctx.Bind(&data); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		res, err = api.svc.CreateShiftTransfer(ctx.Request().Context(), actor, data)
	case transfer.KindGradeSkip:
		var data transfer.NewGradeSkipTransfer
		if err := ctx.Bind(&data); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		res, err = api.svc.CreateGradeSkipTransfer(ctx.Request().Context(), actor, data)
	case transfer.KindCampus:
		var data transfer.NewCampusTransfer
		if err := ctx.Bind(&data); err != nil {
			return err
		}
		if err := data.Validate(); err != nil {
			return err
		}
		res, err = api.svc.CreateCampusTransfer(ctx.Request().Context(), actor, data)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *transferAPI) get(ctx echo.Context) error {
	if _, err := getContextActor(ctx); err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	var res interface{}
	switch kind {
	case transfer.KindClass:
		res, err = api.svc.GetClassTransfer(ctx.Request().Context(), id)
	case transfer.KindShift:
		res, err = api.svc.GetShiftTransfer(ctx.Request().Context(), id)
	case transfer.KindGradeSkip:
		res, err = api.svc.GetGradeSkipTransfer(ctx.Request().Context(), id)
	case transfer.KindCampus:
		res, err = api.svc.GetCampusTransfer(ctx.Request().Context(), id)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *transferAPI) steps(ctx echo.Context) error {
	if _, err := getContextActor(ctx); err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}
	steps, err := api.svc.Steps(ctx.Request().Context(), kind, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, steps)
}

func (api *transferAPI) approve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}
	var data decisionRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	id := ctx.Param("id")

	var res interface{}
	switch kind {
	case transfer.KindClass:
		res, err = api.svc.ApproveClassTransfer(ctx.Request().Context(), actor, id, data.Comment)
	case transfer.KindShift:
		res, err = api.svc.ApproveShiftTransfer(ctx.Request().Context(), actor, id, data.Comment)
	case transfer.KindGradeSkip:
		res, err = api.svc.ApproveGradeSkipTransfer(ctx.Request().Context(), actor, id, data.Comment)
	case transfer.KindCampus:
		res, err = api.svc.ApproveCampusTransfer(ctx.Request().Context(), actor, id, data.Comment)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *transferAPI) decline(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}
	var data declineRequest
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	id := ctx.Param("id")

	var res interface{}
	switch kind {
	case transfer.KindClass:
		res, err = api.svc.DeclineClassTransfer(ctx.Request().Context(), actor, id, data.Reason)
	case transfer.KindShift:
		res, err = api.svc.DeclineShiftTransfer(ctx.Request().Context(), actor, id, data.Reason)
	case transfer.KindGradeSkip:
		res, err = api.svc.DeclineGradeSkipTransfer(ctx.Request().Context(), actor, id, data.Reason)
	case transfer.KindCampus:
		res, err = api.svc.DeclineCampusTransfer(ctx.Request().Context(), actor, id, data.Reason)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *transferAPI) cancel(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	kind, err := pathKind(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")

	var res interface{}
	switch kind {
	case transfer.KindClass:
		res, err = api.svc.CancelClassTransfer(ctx.Request().Context(), actor, id)
	case transfer.KindShift:
		res, err = api.svc.CancelShiftTransfer(ctx.Request().Context(), actor, id)
	case transfer.KindGradeSkip:
		res, err = api.svc.CancelGradeSkipTransfer(ctx.Request().Context(), actor, id)
	case transfer.KindCampus:
		res, err = api.svc.CancelCampusTransfer(ctx.Request().Context(), actor, id)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *transferAPI) submitCampus(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.SubmitCampusTransfer(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
