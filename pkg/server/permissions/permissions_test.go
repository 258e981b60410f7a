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

package permissions

import (
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/database"
)

func TestCapabilities(t *testing.T) {
	assert.DeepEqual(t, Capabilities(RoleAdmin), []Capability{UserRead, UserWrite, UserDelete, BookRead, BookWrite, BookDelete}, "admin capabilities mismatch")
	assert.DeepEqual(t, Capabilities(RoleMember), []Capability{UserRead, UserWrite, BookRead, BookWrite, BookRent, BookDelete}, "member capabilities mismatch")

	// callers cannot alter the grants
	c := Capabilities(RoleMember)
	c[0] = UserDelete
	assert.Equal(t, Capabilities(RoleMember)[0], UserRead, "grants should not change")
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, ParseRole("admin"), RoleAdmin, "admin mismatch")
	assert.Equal(t, ParseRole("member"), RoleMember, "member mismatch")
	assert.Equal(t, ParseRole("superuser"), RoleMember, "unknown mismatch")
	assert.Equal(t, RoleAdmin.String(), "admin", "string mismatch")
}

func TestCan(t *testing.T) {
	admin := &database.User{Model: database.Model{ID: 1}, Role: database.RoleAdmin}
	member := &database.User{Model: database.Model{ID: 2}, Role: database.RoleMember}

	testCases := []struct {
		name       string
		user       *database.User
		capability Capability
		expected   bool
	}{
		{"admin deletes users", admin, UserDelete, true},
		{"admin rents", admin, BookRent, false},
		{"member rents", member, BookRent, true},
		{"member deletes users", member, UserDelete, false},
		{"member writes books", member, BookWrite, true},
		{"guest", nil, BookRead, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, Can(tc.user, tc.capability), tc.expected, "result mismatch")
		})
	}
}

func TestActFor(t *testing.T) {
	admin := &database.User{Model: database.Model{ID: 1}, Role: database.RoleAdmin}
	member := &database.User{Model: database.Model{ID: 2}, Role: database.RoleMember}

	assert.Equal(t, ActFor(admin, 2), true, "admin acts for others")
	assert.Equal(t, ActFor(member, 2), true, "member acts for self")
	assert.Equal(t, ActFor(member, 1), false, "member acts for others")
	assert.Equal(t, ActFor(nil, 1), false, "guest")
}

func TestCapabilityNames(t *testing.T) {
	testCases := []struct {
		capability Capability
		expected   string
	}{
		{UserRead, "user:read"},
		{UserWrite, "user:write"},
		{UserDelete, "user:delete"},
		{BookRead, "book:read"},
		{BookWrite, "book:write"},
		{BookRent, "book:rent"},
		{BookDelete, "book:delete"},
	}

	for _, tc := range testCases {
		assert.Equal(t, string(tc.capability), tc.expected, "capability name mismatch")
	}
}
