// Copyright 2026 The SurgePlane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store holds storage-level errors shared by every backend.
package store

import "errors"

// ErrStorageUnavailable marks failures of the backing store itself
// (connectivity, timeouts, unexpected driver errors), as opposed to
// domain outcomes such as not-found or duplicate.
var ErrStorageUnavailable = errors.New("storage unavailable")
