package middleware

import (
	"context"
	"errors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/domain"
	"github.com/Pilar-d/pendientes/pkg/httpcontext"
	appLogger "github.com/Pilar-d/pendientes/pkg/logger"
	"github.com/Pilar-d/pendientes/pkg/signedcookie"
)

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

type SessionResolver interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
}

// SessionAuth guards a handler behind a valid session cookie. The resolved
// identity is stored on the request for handlers to read.
func SessionAuth(cookieName string, codec *signedcookie.Codec, sessions SessionResolver, adapter *httpcontext.Adapter, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			raw := string(ctx.Request.Header.Cookie(cookieName))
			if raw == "" {
				ctx.Redirect(LoginPath, fasthttp.StatusFound)
				return
			}

			sessionID, err := codec.SessionID(raw)
			if err != nil {
				logger.Debug("rejected session cookie", zap.Error(err))
				clearCookie(ctx, cookieName)
				ctx.Redirect(LoginPath, fasthttp.StatusFound)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			session, err := sessions.GetSession(stdCtx, sessionID)
			cancel()
			if err != nil {
				if !errors.Is(err, domain.ErrSessionNotFound) {
					appLogger.WithRequestID(stdCtx, logger).Warn("session lookup failed", zap.Error(err))
				}
				clearCookie(ctx, cookieName)
				ctx.Redirect(LoginPath, fasthttp.StatusFound)
				return
			}

			httpcontext.SetIdentity(ctx, session.Identity())
			next(ctx)
		}
	}
}

func clearCookie(ctx *fasthttp.RequestCtx, name string) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetPath("/")
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}
