package handler

import (
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/pkg/httpcontext"
	schemaUC "github.com/Pilar-d/pendientes/usecase/schema"
)

type AdminHandler struct {
	baseHandler
	schema *schemaUC.UseCase
}

func NewAdminHandler(schema *schemaUC.UseCase, deps Deps) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(deps),
		schema:      schema,
	}
}

// UpgradeSchema applies pending migrations. Existing rows are never dropped.
func (h *AdminHandler) UpgradeSchema(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, _ := httpcontext.IdentityFrom(stdCtx)
	version, err := h.schema.Upgrade(stdCtx)
	if err != nil {
		h.fail(ctx, stdCtx, err, "/")
		return
	}

	h.log(stdCtx).Info("schema upgrade requested",
		zap.Int64("account_id", identity.AccountID),
		zap.Uint("version", version),
	)
	h.notify(ctx, NoticeSuccess, fmt.Sprintf("Base de datos actualizada (versión %d). No se eliminó ningún dato.", version))
	h.redirect(ctx, "/")
}
