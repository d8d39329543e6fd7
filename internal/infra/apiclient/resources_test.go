package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalvaropc/tether/internal/domain"
)

func TestResourcesRoutes(t *testing.T) {
	doc := domain.NewResource("r1", domain.NewResourceData("spec", domain.ResourceDocument).WithData("content", "x"))

	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		switch r.Method {
		case http.MethodDelete:
			_, _ = w.Write([]byte("true"))
		case http.MethodGet:
			if r.URL.Path == "/resources" {
				_ = json.NewEncoder(w).Encode([]domain.Resource{doc})
				return
			}
			_ = json.NewEncoder(w).Encode(doc)
		default:
			var in domain.Resource
			_ = json.NewDecoder(r.Body).Decode(&in)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(in)
		}
	}))
	defer srv.Close()

	api := NewResources(newTestClient(t, srv))
	ctx := context.Background()

	created, err := api.CreateResource(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "spec", created.Data.Name)

	got, err := api.GetResource(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = api.UpdateResource(ctx, "r1", doc)
	require.NoError(t, err)

	ok, err := api.DeleteResource(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := api.ListResources(ctx, 5, "sp")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Equal(t, []string{
		"POST /resources",
		"GET /resources/r1",
		"PUT /resources/r1",
		"DELETE /resources/r1",
		"GET /resources?filter=sp&limit=5",
	}, seen)
}

func TestResourcesErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   domain.ErrorKind
	}{
		{http.StatusNotFound, "", domain.KindNotFound},
		{http.StatusUnauthorized, "", domain.KindPermissionDenied},
		{http.StatusForbidden, "", domain.KindPermissionDenied},
		{http.StatusOK, "{broken", domain.KindProcessing},
		{http.StatusBadRequest, `{"error":"nope"}`, domain.KindExternalService},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		api := NewResources(newTestClient(t, srv))

		_, err := api.GetResource(context.Background(), "missing")
		assert.Equal(t, tc.kind, domain.KindOf(err), "status %d", tc.status)
		srv.Close()
	}
}
