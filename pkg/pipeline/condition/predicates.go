// Copyright 2025 Tom Barlow
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

package condition

import "fmt"

// Event names as reported in github.event_name.
const (
	EventPullRequest      = "pull_request"
	EventPush             = "push"
	EventRelease          = "release"
	EventWorkflowDispatch = "workflow_dispatch"
)

// IsPullRequest holds for pull-request events.
func IsPullRequest() *Node {
	return Atom(fmt.Sprintf("github.event_name == '%s'", EventPullRequest))
}

// IsNotPullRequest holds for every event except pull requests.
func IsNotPullRequest() *Node {
	return Atom(fmt.Sprintf("github.event_name != '%s'", EventPullRequest))
}

// IsPush holds for push events.
func IsPush() *Node {
	return Atom(fmt.Sprintf("github.event_name == '%s'", EventPush))
}

// IsManualDispatch holds for manually dispatched runs.
func IsManualDispatch() *Node {
	return Atom(fmt.Sprintf("github.event_name == '%s'", EventWorkflowDispatch))
}

// IsReleasePublished holds when a release was published.
func IsReleasePublished() *Node {
	return And(
		Atom(fmt.Sprintf("github.event_name == '%s'", EventRelease)),
		Atom("github.event.action == 'published'"),
	)
}

// MatrixEquals holds in matrix instances where axis has the given value.
func MatrixEquals(axis, value string) *Node {
	return Atom(fmt.Sprintf("matrix.%s == '%s'", axis, value))
}
