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

package drift

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/tombee/cigen/pkg/pipeline/render"
)

// OrphanPattern matches workflow files below the workflows directory.
const OrphanPattern = "**/*.{yml,yaml}"

// FindOrphans returns workflow files under dir that carry the autogenerated
// header but are not keep. They are typically left behind after renaming a
// workflow. Paths are returned joined with dir, sorted.
func FindOrphans(dir, keep string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), OrphanPattern)
	if err != nil {
		return nil, err
	}

	firstLine := strings.SplitN(render.Header, "\n", 2)[0]
	keep = filepath.Clean(keep)

	var orphans []string
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		if filepath.Clean(path) == keep {
			continue
		}
		generated, err := startsWith(path, firstLine)
		if err != nil {
			return nil, err
		}
		if generated {
			orphans = append(orphans, path)
		}
	}
	sort.Strings(orphans)
	return orphans, nil
}

func startsWith(path, line string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return scanner.Text() == line, nil
}
