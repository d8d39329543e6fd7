package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// Response is a successful reply from Client.Execute.
type Response struct {
	Status   int
	Headers  http.Header
	Duration time.Duration
	body     []byte
}

func (r *Response) IsSuccess() bool { return r.Status >= 200 && r.Status < 300 }

// Header returns the first value of name, or "".
func (r *Response) Header(name string) string { return r.Headers.Get(name) }

func (r *Response) HasHeader(name string) bool {
	_, ok := r.Headers[http.CanonicalHeaderKey(name)]
	return ok
}

func (r *Response) ContentType() string { return r.Header("Content-Type") }

// RateLimitRemaining parses x-ratelimit-remaining.
func (r *Response) RateLimitRemaining() (uint, bool) {
	v, err := strconv.ParseUint(r.Header("X-Ratelimit-Remaining"), 10, 0)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}

// RateLimitReset parses x-ratelimit-reset.
func (r *Response) RateLimitReset() (uint64, bool) {
	v, err := strconv.ParseUint(r.Header("X-Ratelimit-Reset"), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Body returns the raw response body.
func (r *Response) Body() []byte { return r.body }

// Query evaluates a JSONPath expression such as "$.data.name" against the body.
func (r *Response) Query(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(r.body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	return jsonpath.Get(path, doc)
}
