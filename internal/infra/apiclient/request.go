package apiclient

import (
	"maps"
	"net/http"
)

// Request describes a call for Client.Execute. Builders return copies.
type Request struct {
	method  string
	path    string
	headers map[string]string
	query   map[string]string
	body    any
}

func NewRequest(method, path string) Request {
	return Request{
		method:  method,
		path:    path,
		headers: map[string]string{},
		query:   map[string]string{},
	}
}

func GET(path string) Request    { return NewRequest(http.MethodGet, path) }
func POST(path string) Request   { return NewRequest(http.MethodPost, path) }
func PUT(path string) Request    { return NewRequest(http.MethodPut, path) }
func DELETE(path string) Request { return NewRequest(http.MethodDelete, path) }
func PATCH(path string) Request  { return NewRequest(http.MethodPatch, path) }

func (r Request) WithHeader(key, value string) Request {
	r.headers = maps.Clone(r.headers)
	if r.headers == nil {
		r.headers = map[string]string{}
	}
	r.headers[key] = value
	return r
}

func (r Request) WithJSONContentType() Request {
	return r.WithHeader("Content-Type", "application/json")
}

func (r Request) WithQueryParam(key, value string) Request {
	r.query = maps.Clone(r.query)
	if r.query == nil {
		r.query = map[string]string{}
	}
	r.query[key] = value
	return r
}

func (r Request) WithQueryParams(params map[string]string) Request {
	r.query = maps.Clone(r.query)
	if r.query == nil {
		r.query = map[string]string{}
	}
	maps.Copy(r.query, params)
	return r
}

// WithBody sets a value that is JSON encoded when sent.
func (r Request) WithBody(body any) Request {
	r.body = body
	return r
}

func (r Request) Method() string                 { return r.method }
func (r Request) Path() string                   { return r.path }
func (r Request) Headers() map[string]string     { return maps.Clone(r.headers) }
func (r Request) QueryParams() map[string]string { return maps.Clone(r.query) }
func (r Request) Body() any                      { return r.body }
