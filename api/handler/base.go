package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/api/transport"
	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/pkg/httpcontext"
	appLogger "github.com/Pilar-d/pendientes/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	views   *Views
	flash   *Flasher
	logger  *zap.Logger
}

// Deps bundles what every page handler needs.
type Deps struct {
	Adapter *httpcontext.Adapter
	Views   *Views
	Flash   *Flasher
	Logger  *zap.Logger
}

func newBaseHandler(deps Deps) baseHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: deps.Adapter, views: deps.Views, flash: deps.Flash, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) log(ctx context.Context) *zap.Logger {
	return appLogger.WithRequestID(ctx, h.logger)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

// render writes an HTML page, consuming any pending flash notices.
func (h baseHandler) render(ctx *fasthttp.RequestCtx, status int, name string, data interface{}) {
	body, err := h.views.Render(name, data)
	if err != nil {
		h.logger.Error("render template", zap.String("template", name), zap.Error(err))
		ctx.Error("error interno", fasthttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.SetContentType("text/html; charset=utf-8")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (h baseHandler) page(ctx *fasthttp.RequestCtx, title string) page {
	p := page{Title: title, Notices: h.flash.Pop(ctx)}
	if identity, ok := httpcontext.IdentityFromRequest(ctx); ok {
		p.Username = identity.Username
	}
	return p
}

// redirect sends the browser to path with 303 so the follow-up is a GET.
func (h baseHandler) redirect(ctx *fasthttp.RequestCtx, path string) {
	ctx.Redirect(path, fasthttp.StatusSeeOther)
}

func (h baseHandler) notify(ctx *fasthttp.RequestCtx, kind, text string) {
	if err := h.flash.Push(ctx, Notice{Kind: kind, Text: text}); err != nil {
		h.logger.Error("set flash cookie", zap.Error(err))
	}
}

// fail turns err into a notice and redirects to path.
func (h baseHandler) fail(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error, path string) {
	h.logFailure(stdCtx, err)
	h.notify(ctx, NoticeError, noticeFor(err))
	h.redirect(ctx, path)
}

func (h baseHandler) logFailure(stdCtx context.Context, err error) {
	switch domain.CodeOf(err) {
	case domain.ErrCodeSchemaMismatch:
		h.log(stdCtx).Error("schema mismatch, run migrations", zap.Error(err))
	case domain.ErrCodeUnavailable, domain.ErrCodeInternal:
		h.log(stdCtx).Error("request failed", zap.Error(err))
	case domain.ErrCodeForbidden:
		h.log(stdCtx).Warn("forbidden", zap.Error(err))
	default:
		h.log(stdCtx).Debug("request rejected", zap.Error(err))
	}
}

// pathID reads the {id} route parameter. Anything but a positive integer is
// reported as a missing task.
func pathID(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrTaskNotFound
	}
	return id, nil
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid), domain.IsDomainError(err, domain.ErrCodeInvalidDate):
		return http.StatusBadRequest, string(domain.CodeOf(err))
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeSchemaMismatch), domain.IsDomainError(err, domain.ErrCodeUnavailable):
		return http.StatusServiceUnavailable, string(domain.CodeOf(err))
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

// noticeFor returns the message shown to the user for err.
func noticeFor(err error) string {
	if errors.Is(err, domain.ErrFieldTooLong) {
		return "Un campo supera la longitud máxima permitida."
	}
	switch domain.CodeOf(err) {
	case domain.ErrCodeInvalid:
		return "Faltan campos obligatorios."
	case domain.ErrCodeInvalidDate:
		return "Fecha inválida, usa el formato AAAA-MM-DD."
	case domain.ErrCodeConflict:
		return "El nombre de usuario ya existe."
	case domain.ErrCodeUnauthorized:
		return "Usuario o contraseña incorrectos."
	case domain.ErrCodeNotFound:
		return "La tarea no existe."
	case domain.ErrCodeForbidden:
		return "No tienes permiso para modificar esta tarea."
	case domain.ErrCodeSchemaMismatch:
		return "La base de datos necesita una migración. Visita /actualizar-db o ejecuta migrate up."
	case domain.ErrCodeUnavailable:
		return "La base de datos no está disponible. Inténtalo de nuevo."
	default:
		return "Ocurrió un error inesperado."
	}
}
