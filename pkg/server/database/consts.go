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

package database

const (
	// TokenTypeEmailConfirmation is a type of a token for confirming the email of a new account
	TokenTypeEmailConfirmation = "email_confirmation"
)

const (
	// DriverSQLite selects the SQLite store
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL store
	DriverPostgres = "postgres"
)

const (
	// RoleAdmin is the stored role of an administrator
	RoleAdmin = "admin"
	// RoleMember is the stored role of a club member
	RoleMember = "member"
)
