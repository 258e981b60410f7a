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
	"github.com/bookclub/bookclub/pkg/server/buildinfo"
)

// NewHealth creates a new Health controller.
func NewHealth(app *app.App) *Health {
	return &Health{
		app: app,
	}
}

// Health is a health controller.
type Health struct {
	app *app.App
}

// HealthResponse is the payload of the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Index handles GET /health. The store is pinged so that an unreachable
// database reports the service as unavailable.
func (h *Health) Index(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.app.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Version: buildinfo.Version})
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Version})
}
