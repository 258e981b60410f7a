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

// Package permissions maps user roles to the capabilities they grant
package permissions

import (
	"github.com/bookclub/bookclub/pkg/server/database"
)

// Role is a role of a user in the club
type Role int

const (
	// RoleMember is a regular member of the club
	RoleMember Role = iota
	// RoleAdmin administers the club
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return database.RoleAdmin
	}

	return database.RoleMember
}

// ParseRole returns the role stored for a user. Unknown values are members.
func ParseRole(s string) Role {
	if s == database.RoleAdmin {
		return RoleAdmin
	}

	return RoleMember
}

// Capability is an action a role may perform
type Capability string

const (
	// UserRead allows browsing the member directory
	UserRead Capability = "user:read"
	// UserWrite allows changing user accounts
	UserWrite Capability = "user:write"
	// UserDelete allows deleting any user account
	UserDelete Capability = "user:delete"
	// BookRead allows browsing books, ownerships, loans and waitlists
	BookRead Capability = "book:read"
	// BookWrite allows registering owned copies
	BookWrite Capability = "book:write"
	// BookRent allows borrowing, extending loans and joining waitlists
	BookRent Capability = "book:rent"
	// BookDelete allows removing owned copies
	BookDelete Capability = "book:delete"
)

var capabilities = map[Role][]Capability{
	RoleAdmin:  {UserRead, UserWrite, UserDelete, BookRead, BookWrite, BookDelete},
	RoleMember: {UserRead, UserWrite, BookRead, BookWrite, BookRent, BookDelete},
}

// Capabilities returns the capabilities granted by the role
func Capabilities(r Role) []Capability {
	ret := make([]Capability, len(capabilities[r]))
	copy(ret, capabilities[r])

	return ret
}

// Can checks if the user is granted the capability
func Can(user *database.User, c Capability) bool {
	if user == nil {
		return false
	}

	for _, granted := range capabilities[ParseRole(user.Role)] {
		if granted == c {
			return true
		}
	}

	return false
}

// ActFor checks if the user may act on behalf of the user with the given id.
// Admins act for anyone and members only for themselves.
func ActFor(user *database.User, userID int64) bool {
	if user == nil {
		return false
	}
	if ParseRole(user.Role) == RoleAdmin {
		return true
	}

	return user.ID == userID
}
