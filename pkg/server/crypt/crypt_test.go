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

package crypt

import (
	"encoding/base64"
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
)

func TestGetRandomStr(t *testing.T) {
	testCases := []int{8, 16, 32}

	for _, n := range testCases {
		s, err := GetRandomStr(n)
		if err != nil {
			t.Fatal(err)
		}

		b, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			t.Fatalf("decoding %s: %v", s, err)
		}
		assert.Equal(t, len(b), n, "decoded length mismatch")
	}

	a, _ := GetRandomStr(32)
	b, _ := GetRandomStr(32)
	assert.NotEqual(t, a, b, "random strings should differ")
}
