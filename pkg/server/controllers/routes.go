/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/bookclub/bookclub/pkg/server/app"
	mw "github.com/bookclub/bookclub/pkg/server/middleware"
	"github.com/bookclub/bookclub/pkg/server/permissions"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// APIPrefix is the path prefix of the API routes
const APIPrefix = "/api/v1"

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
}

// NewAPIRoutes returns a new api routes
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	can := func(capability permissions.Capability, h http.HandlerFunc) http.HandlerFunc {
		return mw.Auth(a, mw.Require(capability, h))
	}

	return []Route{
		{"POST", "/register", c.Users.Register, true},
		{"GET", "/register/confirm", c.Users.ConfirmEmail, true},
		{"POST", "/signin", c.Users.SignIn, true},
		{"POST", "/signout", c.Users.SignOut, true},

		{"GET", "/users", can(permissions.UserRead, c.Users.Index), true},
		{"GET", "/users/lookup", can(permissions.UserRead, c.Users.Lookup), true},
		{"GET", "/users/{userID:[0-9]+}", can(permissions.UserRead, c.Users.Show), true},
		{"GET", "/users/{userID:[0-9]+}/books", can(permissions.BookRead, c.Users.Books), true},
		{"DELETE", "/users/{userID:[0-9]+}", can(permissions.UserWrite, c.Users.Delete), true},

		{"GET", "/books", can(permissions.BookRead, c.Books.Index), true},
		{"GET", "/books/available", can(permissions.BookRead, c.Books.Available), true},
		{"GET", "/books/search", can(permissions.BookRead, c.Books.Search), true},
		{"GET", "/books/{bookID:[0-9]+}", can(permissions.BookRead, c.Books.Show), true},
		{"GET", "/books/{bookID:[0-9]+}/owners", can(permissions.BookRead, c.Books.Owners), true},

		{"GET", "/ownerships", can(permissions.BookRead, c.Ownerships.Index), true},
		{"GET", "/ownerships/check", can(permissions.BookRead, c.Ownerships.Check), true},
		{"POST", "/ownerships", can(permissions.BookWrite, c.Ownerships.Create), true},
		{"DELETE", "/ownerships", can(permissions.BookDelete, c.Ownerships.Delete), true},

		{"GET", "/loans", can(permissions.BookRead, c.Loans.Index), true},
		{"GET", "/loans/entry", can(permissions.BookRead, c.Loans.Show), true},
		{"GET", "/loans/given", can(permissions.BookRead, c.Loans.Given), true},
		{"GET", "/loans/received", can(permissions.BookRead, c.Loans.Received), true},
		{"POST", "/loans", can(permissions.BookRent, c.Loans.Create), true},
		{"PATCH", "/loans", can(permissions.BookRent, c.Loans.Extend), true},

		{"GET", "/waitlist", can(permissions.BookRead, c.Waitlist.Index), true},
		{"POST", "/waitlist", can(permissions.BookRent, c.Waitlist.Create), true},
	}
}

func registerRoutes(router *mux.Router, wrapper mw.Middleware, app *app.App, routes []Route) {
	for _, route := range routes {
		wrappedHandler := wrapper(route.Handler, app, route.RateLimit)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix(APIPrefix).Subrouter()
	registerRoutes(apiRouter, mw.APIMw, app, rc.APIRoutes)

	router.Handle("/health", mw.ApplyLimit(rc.Controllers.Health.Index, false, app.AppEnv)).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(mw.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return mw.Global(router), nil
}
