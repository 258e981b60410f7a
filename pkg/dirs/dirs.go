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

// Package dirs resolves where the server keeps its data files
package dirs

import (
	"os"
	"path/filepath"
)

const envDataHome = "XDG_DATA_HOME"

// DataHome is the base directory for user data files. It is XDG_DATA_HOME
// when set and ~/.local/share otherwise.
var DataHome string

func init() {
	Reload()
}

// Reload reads DataHome from the environment again
func Reload() {
	DataHome = dataHome()
}

func dataHome() string {
	if dir := os.Getenv(envDataHome); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".local", "share")
	}

	return filepath.Join(home, ".local", "share")
}

// DataPath returns the path of name inside the data directory of app
func DataPath(app, name string) string {
	return filepath.Join(DataHome, app, name)
}
