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

package middleware

import (
	"net/http"

	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/context"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/permissions"
	"github.com/pkg/errors"
)

// AuthWithSession performs user authentication with session. Malformed
// credentials authenticate nobody.
func AuthWithSession(a *app.App, r *http.Request) (*database.User, bool, error) {
	sessionKey, err := GetCredential(r)
	if err != nil || sessionKey == "" {
		return nil, false, nil
	}

	user, err := a.FindSessionUser(sessionKey)
	if errors.Is(err, app.ErrLoginRequired) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrap(err, "finding session user")
	}

	return user, true, nil
}

// Auth is an authentication middleware. Requests without a valid session are
// rejected with unauthorized.
func Auth(a *app.App, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := AuthWithSession(a, r)
		if err != nil {
			DoError(w, "authenticating with session", err, http.StatusInternalServerError)
			return
		}
		if !ok {
			RespondUnauthorized(w)
			return
		}

		ctx := context.WithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Require rejects authenticated users whose role lacks the capability. It
// must run after Auth.
func Require(c permissions.Capability, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := context.User(r.Context())
		if user == nil {
			RespondUnauthorized(w)
			return
		}
		if !permissions.Can(user, c) {
			RespondForbidden(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}
