/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tools

import (
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Comcast/spok/util"
)

var inlinePattern = regexp.MustCompile(`(?s)(.*?)(%inline *\("([^"]*)"\))`)

// Inline replaces '%inline("NAME")' with f(NAME).
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	i := 0
	acc := make([]byte, 0, len(bs))
	for {
		part := inlinePattern.FindSubmatch(bs[i:])
		if part == nil {
			acc = append(acc, bs[i:]...)
			break
		}
		i += len(part[0])
		acc = append(acc, part[1]...)
		replacement, err := f(string(part[3]))
		if err != nil {
			return nil, err
		}
		util.Logf("inlining %s: %s", part[3], replacement)
		acc = append(acc, replacement...)
	}

	return acc, nil
}

// ReadFileWithInlines is a replacement for os.ReadFile that adds
// automatic Inline()ing based on the directory obtained from the
// filename.
//
// '%inline("NAME")' is replaced with ReadFile(NAME).  Inlined files
// can have their own inlines.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return inlineFrom(bs, filepath.Dir(filename), 0)
}

// ReadAllWithInlines is a replacement for io.ReadAll that adds
// automatic Inline()ing based on the given directory.
//
// '%inline("NAME")' is replaced with ReadFile(NAME).
func ReadAllWithInlines(in io.Reader, dir string) ([]byte, error) {
	bs, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return inlineFrom(bs, dir, 0)
}

// maxInlineDepth stops inline cycles.
const maxInlineDepth = 16

func inlineFrom(bs []byte, dir string, depth int) ([]byte, error) {
	f := func(name string) ([]byte, error) {
		if maxInlineDepth <= depth {
			return nil, &InlineTooDeep{Name: name}
		}
		filename := filepath.Join(dir, name)
		bs, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		return inlineFrom(bs, filepath.Dir(filename), depth+1)
	}
	return Inline(bs, f)
}

// InlineTooDeep is returned when inlines nest too deeply, which
// probably means a file inlines itself.
type InlineTooDeep struct {
	Name string
}

func (e *InlineTooDeep) Error() string {
	return "inlines too deep at " + e.Name
}
