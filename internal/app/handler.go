package app

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/stolasapp/turnstile/internal/account"
	"github.com/stolasapp/turnstile/internal/app/component"
	"github.com/stolasapp/turnstile/internal/sec"
)

type handler struct {
	accounts     *account.Service
	secureCookie bool
}

func (h handler) register(e *echo.Echo) {
	e.GET(component.PathIndex, h.index)
	e.GET(component.PathHome, h.home)
	e.GET(component.PathSignUp, h.signUpPage)
	e.GET(component.PathSignIn, h.signInPage)

	e.POST(component.PathUsers, h.signUp)
	e.POST(component.PathSessions, h.signIn)
	e.GET(component.PathSignOut, h.signOut)
	e.POST(component.PathMe, h.updateCredentials)
}

// Field order must match account.Registration.
type signUpRequest struct {
	Email     string `form:"email"     json:"email"`
	Password  string `form:"password"  json:"password"`
	FirstName string `form:"firstName" json:"firstName"`
	LastName  string `form:"lastName"  json:"lastName"`
}

// Field order must match account.Credentials.
type credentialsRequest struct {
	Email    string `form:"email"    json:"email"`
	Password string `form:"password" json:"password"`
}

func (h handler) index(c echo.Context) error {
	if _, ok := sec.GetAuthenticatedUser(c.Request().Context()); ok {
		return c.Redirect(http.StatusFound, component.PathHome)
	}
	return render(c, component.Index())
}

func (h handler) home(c echo.Context) error {
	ident, ok := sec.GetAuthenticatedUser(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, component.PathIndex)
	}
	return render(c, component.Home(ident.DisplayName(), csrfToken(c)))
}

func (h handler) signUpPage(c echo.Context) error {
	return render(c, component.SignUp(csrfToken(c)))
}

func (h handler) signInPage(c echo.Context) error {
	return render(c, component.SignIn(csrfToken(c)))
}

func (h handler) signUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	login, err := h.accounts.Register(c.Request().Context(), account.Registration(req))
	if err != nil {
		return toHTTPError(err)
	}
	c.SetCookie(h.sessionCookie(login.Token))
	return c.Redirect(http.StatusFound, component.PathHome)
}

func (h handler) signIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	login, err := h.accounts.SignIn(c.Request().Context(), account.Credentials(req))
	if err != nil {
		return toHTTPError(err)
	}
	c.SetCookie(h.sessionCookie(login.Token))
	return c.Redirect(http.StatusFound, component.PathHome)
}

func (h handler) signOut(c echo.Context) error {
	ctx := c.Request().Context()
	if ident, ok := sec.GetAuthenticatedUser(ctx); ok {
		if _, err := h.accounts.SignOut(ctx, ident); err != nil {
			return toHTTPError(err)
		}
		c.SetCookie(h.clearedCookie())
	}
	return c.Redirect(http.StatusFound, component.PathIndex)
}

func (h handler) updateCredentials(c echo.Context) error {
	ctx := c.Request().Context()
	ident, ok := sec.GetAuthenticatedUser(ctx)
	if !ok {
		return c.Redirect(http.StatusFound, component.PathIndex)
	}
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := h.accounts.UpdateCredentials(ctx, ident, account.Credentials(req)); err != nil {
		return toHTTPError(err)
	}
	c.SetCookie(h.clearedCookie())
	return c.Redirect(http.StatusFound, component.PathIndex)
}

func (h handler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h handler) clearedCookie() *http.Cookie {
	cookie := h.sessionCookie("")
	cookie.MaxAge = -1
	return cookie
}

// csrfToken returns the token the CSRF middleware stored for this request. It
// is empty when the browser's Sec-Fetch-Site header already vouched for the
// request.
func csrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

// toHTTPError converts an account error to an Echo HTTPError with the
// appropriate status code. Store failures are returned as-is for the default
// 500 handling, which hides the message outside of debug mode.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}

	// Already an HTTP error - pass through
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	var verr account.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error()).SetInternal(err)
	case errors.Is(err, account.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error()).SetInternal(err)
	case errors.Is(err, account.ErrAuthentication):
		return echo.NewHTTPError(http.StatusNotFound, "not found").SetInternal(err)
	default:
		return err
	}
}

// render buffers the component so a failed render does not leave a partial
// response behind.
func render(c echo.Context, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
