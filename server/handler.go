package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spanbridge/go-spanbridge/publicapi"
	"github.com/spanbridge/go-spanbridge/service/bridge"
	"github.com/spanbridge/go-spanbridge/service/catalog"
	"github.com/spanbridge/go-spanbridge/service/codec"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/service/sentryutil"
	"github.com/spanbridge/go-spanbridge/service/wallet"
	"github.com/spanbridge/go-spanbridge/util"
)

func handlersInit(router *gin.Engine) *gin.Engine {
	router.GET("/alive", util.HealthCheckHandler())

	group := router.Group("/bridge")
	group.POST("/transfers", submitTransfer)
	group.GET("/transfers/:appchain", getTransfers)
	group.DELETE("/transfers/:appchain", clearTransfers)
	group.GET("/tokens/:appchain", listTokens)
	group.POST("/validate", validateTarget)
	group.POST("/max", maxTransferable)

	return router
}

func submitTransfer(c *gin.Context) {
	var input publicapi.SubmitTransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, util.ErrorResponse{Error: err.Error()})
		return
	}

	record, err := publicapi.For(c.Request.Context()).Bridge.SubmitTransfer(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

func getTransfers(c *gin.Context) {
	appchainID := persist.AppchainID(c.Param("appchain"))
	records, err := publicapi.For(c.Request.Context()).Bridge.GetTransfers(c.Request.Context(), appchainID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func clearTransfers(c *gin.Context) {
	appchainID := persist.AppchainID(c.Param("appchain"))
	if err := publicapi.For(c.Request.Context()).Bridge.ClearTransfers(c.Request.Context(), appchainID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, util.SuccessResponse{Success: true})
}

func listTokens(c *gin.Context) {
	appchainID := persist.AppchainID(c.Param("appchain"))
	tokens, err := publicapi.For(c.Request.Context()).Bridge.ListTokens(c.Request.Context(), appchainID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func validateTarget(c *gin.Context) {
	var input publicapi.ValidateTargetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, util.ErrorResponse{Error: err.Error()})
		return
	}

	status, err := publicapi.For(c.Request.Context()).Bridge.ValidateTarget(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func maxTransferable(c *gin.Context) {
	var input publicapi.MaxTransferableInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, util.ErrorResponse{Error: err.Error()})
		return
	}

	max, err := publicapi.For(c.Request.Context()).Bridge.MaxTransferable(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"max": max.String()})
}

// respondWithError maps domain errors onto HTTP statuses. Anything unrecognized is a 500
// and gets reported.
func respondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case isBadRequest(err):
		status = http.StatusBadRequest
	case errors.As(err, &catalog.ErrAppchainNotFound{}) || errors.As(err, &persist.ErrTransferNotFound{}):
		status = http.StatusNotFound
	case errors.Is(err, wallet.ErrUserCancelled):
		status = http.StatusConflict
	case errors.As(err, &persist.ErrTransferUnconfirmed{}):
		status = http.StatusBadGateway
	default:
		sentryutil.ReportError(c.Request.Context(), err)
	}

	c.JSON(status, util.ErrorResponse{Error: err.Error()})
}

func isBadRequest(err error) bool {
	var validationErrs validator.ValidationErrors
	return errors.As(err, &persist.ErrInvalidAddress{}) ||
		errors.As(err, &publicapi.ErrTargetNotFound{}) ||
		errors.As(err, &publicapi.ErrUnknownToken{}) ||
		errors.Is(err, bridge.ErrAmbiguousAsset) ||
		errors.Is(err, bridge.ErrMissingAmount) ||
		errors.Is(err, codec.ErrNegativeAmount) ||
		errors.As(err, &validationErrs)
}
