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

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/Comcast/spok/match"
	"github.com/Comcast/spok/util"

	"github.com/gorhill/cronexpr"
	"golang.org/x/net/publicsuffix"
)

// PollSource makes an HTTP GET request on a cron schedule.
//
// Each value is an Object with "statusCode", "status",
// "contentType", and "body".  The body is parsed as JSON when
// possible and is otherwise a string.
//
// Cookies set by the server are sent with subsequent requests.
type PollSource struct {
	URL string

	// Immediate makes the first request without waiting for the
	// schedule.
	Immediate bool

	// Client defaults to a client with a cookie jar.
	Client *http.Client

	// Now defaults to time.Now.
	Now func() time.Time

	schedule *cronexpr.Expression
	polled   bool
}

// Poll makes a PollSource.
//
// The cron expression can have five, six, or seven fields.  With
// seven, the first is seconds.
func Poll(url, cronExpr string) (*PollSource, error) {
	schedule, err := cronexpr.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("bad cron expression %q: %w", cronExpr, err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &PollSource{
		URL: url,
		Client: &http.Client{
			Jar: jar,
		},
		Now:      time.Now,
		schedule: schedule,
	}, nil
}

// Next waits for the next scheduled time and makes the request.
//
// When the schedule has no more times, the error is io.EOF.
func (s *PollSource) Next(ctx context.Context) (interface{}, error) {
	if !(s.Immediate && !s.polled) {
		now := s.Now()
		then := s.schedule.Next(now)
		if then.IsZero() {
			return nil, io.EOF
		}
		util.Logf("PollSource %s waiting until %s", s.URL, then.Format(time.RFC3339))
		timer := time.NewTimer(then.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	s.polled = true
	return s.get(ctx)
}

func (s *PollSource) get(ctx context.Context) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	util.Logf("PollSource %s %s %s", s.URL, resp.Status, body)

	var parsed interface{} = string(body)
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "json") || ct == "" {
		parsed = decodeMessage(body)
	}

	return match.Obj(
		"statusCode", resp.StatusCode,
		"status", resp.Status,
		"contentType", resp.Header.Get("Content-Type"),
		"body", parsed,
	), nil
}

func (s *PollSource) Close() error {
	s.Client.CloseIdleConnections()
	return nil
}
