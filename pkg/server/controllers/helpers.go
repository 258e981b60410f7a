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
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/context"
	"github.com/bookclub/bookclub/pkg/server/log"
	mw "github.com/bookclub/bookclub/pkg/server/middleware"
	"github.com/bookclub/bookclub/pkg/server/permissions"
	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/pkg/errors"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// MessageResponse is the payload of a request answered with a confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// invalidParams returns a validation error naming the offending parameters
func invalidParams(names ...string) error {
	sort.Strings(names)

	return &app.Error{
		Kind: app.KindValidation,
		Msg:  fmt.Sprintf("missing or invalid parameters: %s", strings.Join(names, ", ")),
	}
}

// parseQuery decodes the url query of the request into dst
func parseQuery(r *http.Request, dst interface{}) error {
	err := queryDecoder.Decode(dst, r.URL.Query())
	if err == nil {
		return nil
	}

	multi, ok := err.(schema.MultiError)
	if !ok {
		return errors.Wrap(err, "decoding query")
	}

	var keys []string
	for k := range multi {
		keys = append(keys, k)
	}

	return invalidParams(keys...)
}

// parseRequestData decodes the JSON body of the request into v
func parseRequestData(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &app.Error{Kind: app.KindValidation, Msg: "invalid request body"}
	}

	return nil
}

// parseIDVar parses the numeric route variable of the given name
func parseIDVar(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, invalidParams(name)
	}

	return id, nil
}

func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

func respondMessage(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, MessageResponse{Message: message})
}

func statusForKind(k app.Kind) int {
	switch k {
	case app.KindNotFound:
		return http.StatusNotFound
	case app.KindValidation, app.KindBadRequest, app.KindConflict:
		return http.StatusBadRequest
	case app.KindForbidden:
		return http.StatusForbidden
	case app.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// handleJSONError responds with the status of the error kind. Internal
// errors are logged and their message is not exposed.
func handleJSONError(w http.ResponseWriter, err error, msg string) {
	var appErr *app.Error
	if !errors.As(err, &appErr) || appErr.Kind == app.KindInternal {
		mw.DoError(w, msg, err, http.StatusInternalServerError)
		return
	}

	mw.RespondError(w, statusForKind(appErr.Kind), appErr.Error())
}

// errForbidden is returned when a member acts on behalf of someone else
var errForbidden = &app.Error{Kind: app.KindForbidden, Msg: "you may only act on your own behalf"}

// authorizeActFor checks that the authenticated user may act for the user
// of the given id
func authorizeActFor(r *http.Request, userID int64) error {
	if !permissions.ActFor(context.User(r.Context()), userID) {
		return errForbidden
	}

	return nil
}

func setSessionCookie(w http.ResponseWriter, key string, expires time.Time) {
	cookie := http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    key,
		Expires:  expires,
		Path:     "/",
		HttpOnly: true,
	}
	http.SetCookie(w, &cookie)
}

func unsetSessionCookie(w http.ResponseWriter) {
	expire := time.Now().Add(time.Hour * -24 * 30)
	cookie := http.Cookie{
		Name:     mw.SessionCookieName,
		Value:    "",
		Expires:  expire,
		Path:     "/",
		HttpOnly: true,
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.SetCookie(w, &cookie)
}
