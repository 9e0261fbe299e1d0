package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"

	"github.com/Pilar-d/pendientes/pkg/signedcookie"
)

const flashTTL = 5 * time.Minute

// Notice kinds map to CSS classes in the templates.
const (
	NoticeSuccess = "success"
	NoticeInfo    = "info"
	NoticeError   = "danger"
)

// Notice is a one-shot message shown on the next rendered page.
type Notice struct {
	Kind string `json:"k"`
	Text string `json:"t"`
}

type flashClaims struct {
	Notices []Notice `json:"n"`
	jwt.RegisteredClaims
}

// Flasher keeps notices in a signed cookie between a redirect and the page
// that follows it.
type Flasher struct {
	codec  *signedcookie.Codec
	name   string
	secure bool
}

func NewFlasher(codec *signedcookie.Codec, name string, secure bool) *Flasher {
	if name == "" {
		name = "pendientes_flash"
	}
	return &Flasher{codec: codec, name: name, secure: secure}
}

// Push queues notices for the next page.
func (f *Flasher) Push(ctx *fasthttp.RequestCtx, notices ...Notice) error {
	if len(notices) == 0 {
		return nil
	}
	now := time.Now()
	value, err := f.codec.Sign(flashClaims{
		Notices: notices,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	})
	if err != nil {
		return err
	}
	setCookie(ctx, f.name, value, now.Add(flashTTL), f.secure)
	return nil
}

// Pop returns queued notices and clears them.
func (f *Flasher) Pop(ctx *fasthttp.RequestCtx) []Notice {
	raw := ctx.Request.Header.Cookie(f.name)
	if len(raw) == 0 {
		return nil
	}
	deleteCookie(ctx, f.name)

	var claims flashClaims
	if err := f.codec.Parse(string(raw), &claims); err != nil {
		return nil
	}
	return claims.Notices
}

func setCookie(ctx *fasthttp.RequestCtx, name, value string, expires time.Time, secure bool) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetValue(value)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetSecure(secure)
	c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	c.SetExpire(expires)
	ctx.Response.Header.SetCookie(c)
}

// deleteCookie expires name on the same path it was set on.
func deleteCookie(ctx *fasthttp.RequestCtx, name string) {
	c := fasthttp.AcquireCookie()
	defer fasthttp.ReleaseCookie(c)

	c.SetKey(name)
	c.SetPath("/")
	c.SetHTTPOnly(true)
	c.SetExpire(fasthttp.CookieExpireDelete)
	ctx.Response.Header.SetCookie(c)
}
