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

// Package report renders recorded assertions as Markdown or HTML.
package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/Comcast/spok/snapshot"

	md "github.com/russross/blackfriday/v2"
)

// Report is what gets rendered.
type Report struct {
	Title string

	// Doc is Markdown that appears before the results.
	Doc string

	Records []snapshot.Record

	// Differences from a stored snapshot (if any).
	Differences []snapshot.Difference
}

// Failures returns the number of records that aren't OK.
func (r *Report) Failures() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.OK {
			n++
		}
	}
	return n
}

var cell = strings.NewReplacer("|", `\|`, "\n", " ", "`", "'")

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + cell.Replace(s) + "`"
}

// Markdown writes the report.
func Markdown(out io.Writer, r *Report) error {
	var err error
	f := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(out, format+"\n", args...)
		}
	}

	f("# %s\n", r.Title)
	if r.Doc != "" {
		f("%s\n", r.Doc)
	}

	failed := r.Failures()
	f("**%d assertions, %d passed, %d failed**\n", len(r.Records), len(r.Records)-failed, failed)

	if 0 < len(r.Records) {
		f("| # | status | message | actual | expected |")
		f("|---|---|---|---|---|")
		for i, rec := range r.Records {
			status := "ok"
			actual, expected := "", ""
			if !rec.OK {
				status = "**not ok**"
				actual, expected = code(rec.Actual), code(rec.Expected)
			}
			f("| %d | %s | %s | %s | %s |", i+1, status, code(rec.Message), actual, expected)
		}
		f("")
	}

	if 0 < len(r.Differences) {
		f("## Snapshot differences\n")
		for _, d := range r.Differences {
			f("- %s", cell.Replace(d.String()))
		}
		f("")
	}

	return err
}

// HTML writes a complete page.  The body is the Markdown report
// rendered by Blackfriday.
func HTML(out io.Writer, r *Report, cssFiles []string) error {
	var buf bytes.Buffer
	if err := Markdown(&buf, r); err != nil {
		return err
	}

	title := html.EscapeString(r.Title)

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, title)

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", html.EscapeString(cssFile))
	}

	fmt.Fprintf(out, `
  </head>
  <body>
<div class="report">%s</div>
  </body>
</html>
`, md.Run(buf.Bytes()))

	return nil
}
