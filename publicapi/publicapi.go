package publicapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spanbridge/go-spanbridge/event"
	"github.com/spanbridge/go-spanbridge/service/catalog"
	"github.com/spanbridge/go-spanbridge/service/persist"
	"github.com/spanbridge/go-spanbridge/service/preflight"
	"github.com/spanbridge/go-spanbridge/util"
	"github.com/spanbridge/go-spanbridge/validate"
)

const apiContextKey = "publicapi.api"

type PublicAPI struct {
	validator *validator.Validate

	Bridge *BridgeAPI
}

func New(repo persist.TransferRepository, assets catalog.Catalog, checker *preflight.Validator, submitter TransferSubmitter, events *event.Dispatcher) *PublicAPI {
	validator := validate.WithCustomValidators()

	return &PublicAPI{
		validator: validator,

		Bridge: &BridgeAPI{repo: repo, assets: assets, checker: checker, submitter: submitter, validator: validator, events: events},
	}
}

// AddTo adds the specified PublicAPI to a gin context
func AddTo(ctx *gin.Context, api *PublicAPI) {
	ctx.Set(apiContextKey, api)
}

// PushTo pushes the specified PublicAPI onto the context stack and returns the new context
func PushTo(ctx context.Context, api *PublicAPI) context.Context {
	return context.WithValue(ctx, apiContextKey, api)
}

func For(ctx context.Context) *PublicAPI {
	// See if a newer PublicAPI instance has been pushed to the context stack
	if api, ok := ctx.Value(apiContextKey).(*PublicAPI); ok {
		return api
	}

	// If not, fall back to the one added to the gin context
	gc := util.GinContextFromContext(ctx)
	return gc.Value(apiContextKey).(*PublicAPI)
}
