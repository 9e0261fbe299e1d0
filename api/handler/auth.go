package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/Pilar-d/pendientes/pkg/signedcookie"
	authUC "github.com/Pilar-d/pendientes/usecase/auth"
)

// SessionCookie describes the browser cookie holding the signed session id.
type SessionCookie struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	baseHandler
	uc     *authUC.UseCase
	codec  *signedcookie.Codec
	cookie SessionCookie
}

func NewAuthHandler(uc *authUC.UseCase, codec *signedcookie.Codec, cookie SessionCookie, deps Deps) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(deps),
		uc:          uc,
		codec:       codec,
		cookie:      cookie,
	}
}

func loginPage(p page, username string) authPage {
	p.Title = "Iniciar sesión"
	return authPage{page: p, Action: "/login", Alt: "/register", AltLabel: "¿No tienes cuenta? Regístrate", Submit: "Entrar", Login: username}
}

func registerPage(p page, username string) authPage {
	p.Title = "Crear cuenta"
	return authPage{page: p, Action: "/register", Alt: "/login", AltLabel: "¿Ya tienes cuenta? Inicia sesión", Submit: "Registrarse", Login: username}
}

func (h *AuthHandler) LoginForm(ctx *fasthttp.RequestCtx) {
	h.render(ctx, fasthttp.StatusOK, "auth", loginPage(h.page(ctx, ""), ""))
}

func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	username := string(ctx.FormValue("username"))
	password := string(ctx.FormValue("password"))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	session, err := h.uc.Login(stdCtx, username, password)
	if err != nil {
		h.logFailure(stdCtx, err)
		p := h.page(ctx, "")
		p.Notices = append(p.Notices, Notice{Kind: NoticeError, Text: noticeFor(err)})
		status, _ := mapError(err)
		h.render(ctx, status, "auth", loginPage(p, username))
		return
	}

	value, err := h.codec.SignSession(session.ID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		h.log(stdCtx).Error("sign session cookie", zap.Error(err))
		ctx.Error("error interno", fasthttp.StatusInternalServerError)
		return
	}
	setCookie(ctx, h.cookie.Name, value, session.ExpiresAt, h.cookie.Secure)

	h.log(stdCtx).Info("login", zap.Int64("account_id", session.AccountID))
	h.notify(ctx, NoticeSuccess, "Sesión iniciada.")
	h.redirect(ctx, "/")
}

func (h *AuthHandler) RegisterForm(ctx *fasthttp.RequestCtx) {
	h.render(ctx, fasthttp.StatusOK, "auth", registerPage(h.page(ctx, ""), ""))
}

func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	username := string(ctx.FormValue("username"))
	password := string(ctx.FormValue("password"))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if _, err := h.uc.Register(stdCtx, username, password); err != nil {
		h.logFailure(stdCtx, err)
		p := h.page(ctx, "")
		p.Notices = append(p.Notices, Notice{Kind: NoticeError, Text: noticeFor(err)})
		status, _ := mapError(err)
		h.render(ctx, status, "auth", registerPage(p, username))
		return
	}

	h.notify(ctx, NoticeSuccess, "Registro exitoso. Ahora puedes iniciar sesión.")
	h.redirect(ctx, "/login")
}

func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if raw := ctx.Request.Header.Cookie(h.cookie.Name); len(raw) > 0 {
		if sessionID, err := h.codec.SessionID(string(raw)); err == nil {
			if err := h.uc.RevokeSession(stdCtx, sessionID); err != nil {
				h.log(stdCtx).Warn("revoke session", zap.Error(err))
			}
		}
	}
	deleteCookie(ctx, h.cookie.Name)

	h.notify(ctx, NoticeInfo, "Sesión cerrada.")
	h.redirect(ctx, "/login")
}
