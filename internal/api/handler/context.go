package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minics/console/internal/api/middleware"
	"github.com/minics/console/internal/core/session"
)

// ctxSession returns the session injected by the Session middleware and
// fails fast when the middleware did not run.
func ctxSession(c echo.Context) (*session.Store, error) {
	store := middleware.SessionFrom(c)
	if store == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	return store, nil
}

// ctxAuthSession is ctxSession for routes that need a logged-in user.
func ctxAuthSession(c echo.Context) (*session.Store, error) {
	store, err := ctxSession(c)
	if err != nil {
		return nil, err
	}
	if !store.IsAuthenticated(c.Request().Context()) {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in or session expired")
	}
	return store, nil
}

// actorID is the id of the logged-in operator making the request.
func actorID(c echo.Context) (string, error) {
	store, err := ctxAuthSession(c)
	if err != nil {
		return "", err
	}
	return store.User().ID, nil
}
