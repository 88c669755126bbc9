package cocoapods_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/podrelease/pkg/infra/cocoapods"
)

func TestIndex_Exists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pods/CardIO/specs/5.4.1":
			w.WriteHeader(http.StatusOK)
		case "/pods/CardIO/specs/9.9.9":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	index := cocoapods.NewIndex(server.URL+"/pods/{name}/specs/{version}", cocoapods.WithHTTPClient(server.Client()))
	ctx := context.Background()

	t.Run("published version", func(t *testing.T) {
		ok, err := index.Exists(ctx, "CardIO", "5.4.1")
		gt.NoError(t, err)
		gt.True(t, ok)
	})

	t.Run("not yet published", func(t *testing.T) {
		ok, err := index.Exists(ctx, "CardIO", "9.9.9")
		gt.NoError(t, err)
		gt.False(t, ok)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := index.Exists(ctx, "Other", "1.0.0")
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("unexpected status")
	})
}
