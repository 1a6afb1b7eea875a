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

// Package inspect renders values for humans.
//
// The format follows what ECMAScript programmers see from
// util.inspect: strings in single quotes, objects as { k: v },
// arrays as [ 1, 2 ], and "[Object]" past the depth limit.
package inspect

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultDepth is how deep Inspect goes.
const DefaultDepth = 5

// BreakLength is the width beyond which containers are printed on
// several lines.
const BreakLength = 80

// OrderedMap is a map that knows the order of its keys.
type OrderedMap interface {
	Keys() []string
	Get(k string) (interface{}, bool)
}

// Labeled is a function with a label (like a predicate).
type Labeled interface {
	SpecLabel() string
}

type undefineder interface {
	IsUndefined() bool
}

// Inspect renders x with DefaultDepth.
func Inspect(x interface{}, color bool) string {
	return Options{Depth: DefaultDepth, Color: color}.Inspect(x)
}

// Options control rendering.  A negative Depth means no limit.
type Options struct {
	Depth int
	Color bool
}

// Inspect renders x.
func (o Options) Inspect(x interface{}) string {
	p := &printer{Options: o, seen: map[uintptr]bool{}}
	s, _ := p.format(x, 0, 0)
	return s
}

// ANSI styles as used by util.inspect.
const (
	styleNumber    = "33"
	styleString    = "32"
	styleNull      = "1"
	styleUndefined = "90"
	styleSpecial   = "36"
	styleDate      = "35"
	styleRegexp    = "31"
)

var closers = map[string]string{
	"1":  "22",
	"31": "39",
	"32": "39",
	"33": "39",
	"35": "39",
	"36": "39",
	"90": "39",
}

func stylize(s, style string, color bool) string {
	if !color {
		return s
	}
	return "\x1b[" + style + "m" + s + "\x1b[" + closers[style] + "m"
}

// Faint renders s in bright black when color is on.
func Faint(s string, color bool) string {
	return stylize(s, styleUndefined, color)
}

var ansi = regexp.MustCompile("\x1b\\[[0-9;]*m")

// StripColors removes ANSI escapes.
func StripColors(s string) string {
	return ansi.ReplaceAllString(s, "")
}

type printer struct {
	Options
	seen map[uintptr]bool
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z_$0-9]*$`)

func quote(s string) string {
	q := "'"
	if strings.Contains(s, "'") {
		if !strings.Contains(s, `"`) {
			q = `"`
		} else if !strings.Contains(s, "`") {
			q = "`"
		}
	}
	r := strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", `\r`, q, `\`+q)
	return q + r.Replace(s) + q
}

func formatKey(k string, color bool) string {
	if identifier.MatchString(k) {
		return k
	}
	return stylize(quote(k), styleString, color)
}

// FormatNumber renders a number as ECMAScript would.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0 && math.Signbit(f):
		return "-0"
	case math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// format returns the rendering and the number of container levels
// within it.
func (p *printer) format(x interface{}, level, indent int) (string, int) {
	switch vv := x.(type) {
	case nil:
		return stylize("null", styleNull, p.Color), 0
	case undefineder:
		if vv.IsUndefined() {
			return stylize("undefined", styleUndefined, p.Color), 0
		}
	case Labeled:
		label := vv.SpecLabel()
		if label == "" {
			return stylize("[Function (anonymous)]", styleSpecial, p.Color), 0
		}
		return stylize("[Function: "+label+"]", styleSpecial, p.Color), 0
	case string:
		return stylize(quote(vv), styleString, p.Color), 0
	case bool:
		return stylize(strconv.FormatBool(vv), styleNumber, p.Color), 0
	case time.Time:
		return stylize(vv.UTC().Format("2006-01-02T15:04:05.000Z"), styleDate, p.Color), 0
	case *regexp.Regexp:
		return stylize("/"+vv.String()+"/", styleRegexp, p.Color), 0
	case error:
		return "[Error: " + vv.Error() + "]", 0
	case OrderedMap:
		return p.formatEntries(x, vv.Keys(), vv.Get, "", level, indent)
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return stylize(strconv.FormatInt(v.Int(), 10), styleNumber, p.Color), 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return stylize(strconv.FormatUint(v.Uint(), 10), styleNumber, p.Color), 0
	case reflect.Float32, reflect.Float64:
		return stylize(FormatNumber(v.Float()), styleNumber, p.Color), 0
	case reflect.String:
		return stylize(quote(v.String()), styleString, p.Color), 0
	case reflect.Bool:
		return stylize(strconv.FormatBool(v.Bool()), styleNumber, p.Color), 0
	case reflect.Func:
		if v.IsNil() {
			return stylize("null", styleNull, p.Color), 0
		}
		return stylize("[Function (anonymous)]", styleSpecial, p.Color), 0
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return stylize("null", styleNull, p.Color), 0
		}
		if v.Kind() == reflect.Ptr {
			if p.seen[v.Pointer()] {
				return stylize("[Circular]", styleSpecial, p.Color), 0
			}
			p.seen[v.Pointer()] = true
			defer delete(p.seen, v.Pointer())
		}
		return p.format(v.Elem().Interface(), level, indent)
	case reflect.Map:
		if v.IsNil() {
			return stylize("null", styleNull, p.Color), 0
		}
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(x), 0
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		get := func(k string) (interface{}, bool) {
			e := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
			if !e.IsValid() {
				return nil, false
			}
			return e.Interface(), true
		}
		return p.formatEntries(x, keys, get, "", level, indent)
	case reflect.Slice:
		if v.IsNil() {
			return stylize("null", styleNull, p.Color), 0
		}
		fallthrough
	case reflect.Array:
		return p.formatArray(v, level, indent)
	case reflect.Struct:
		t := v.Type()
		keys := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).PkgPath == "" {
				keys = append(keys, t.Field(i).Name)
			}
		}
		get := func(k string) (interface{}, bool) {
			return v.FieldByName(k).Interface(), true
		}
		return p.formatEntries(x, keys, get, t.Name(), level, indent)
	}
	return fmt.Sprint(x), 0
}

func (p *printer) formatEntries(x interface{}, keys []string, get func(string) (interface{}, bool), base string, level, indent int) (string, int) {
	if len(keys) == 0 {
		return join(base, "{}"), 0
	}
	if 0 <= p.Depth && p.Depth < level {
		name := base
		if name == "" {
			name = "Object"
		}
		return stylize("["+name+"]", styleSpecial, p.Color), 0
	}
	height := 0
	output := make([]string, 0, len(keys))
	for _, k := range keys {
		val, _ := get(k)
		s, h := p.format(val, level+1, indent+2)
		if height < h+1 {
			height = h + 1
		}
		output = append(output, formatKey(k, p.Color)+": "+s)
	}
	return p.reduce(output, base, "{", "}", height, indent), height
}

func (p *printer) formatArray(v reflect.Value, level, indent int) (string, int) {
	if v.Len() == 0 {
		return "[]", 0
	}
	if 0 <= p.Depth && p.Depth < level {
		return stylize("[Array]", styleSpecial, p.Color), 0
	}
	height := 0
	output := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		s, h := p.format(v.Index(i).Interface(), level+1, indent+2)
		if height < h+1 {
			height = h + 1
		}
		output = append(output, s)
	}
	return p.reduce(output, "", "[", "]", height, indent), height
}

// reduce joins the entries on one line if they fit and the
// container isn't too deeply nested.  Otherwise each entry gets its
// own line.
func (p *printer) reduce(output []string, base, open, close string, height, indent int) string {
	if height <= 3 {
		start := len(output) + indent + len(open) + len(base) + 10
		if p.belowBreakLength(output, start) {
			joined := strings.Join(output, ", ")
			if !strings.Contains(joined, "\n") {
				return join(base, open+" "+joined+" "+close)
			}
		}
	}
	nl := "\n" + strings.Repeat(" ", indent)
	return join(base, open+nl+"  "+strings.Join(output, ","+nl+"  ")+nl+close)
}

func (p *printer) belowBreakLength(output []string, start int) bool {
	total := len(output) + start
	if BreakLength < total+len(output) {
		return false
	}
	for _, s := range output {
		total += len(StripColors(s))
		if BreakLength < total {
			return false
		}
	}
	return true
}

func join(base, s string) string {
	if base == "" {
		return s
	}
	return base + " " + s
}
