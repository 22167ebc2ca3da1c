package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/facturacr/edocs-api/internal/utils"
)

func TestLookupAndSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/channels/ch-1/branches/001":
			w.Write([]byte(`{"code":"001","name":"Central"}`))
		case "/channels/ch-1/activities/620100":
			w.Write([]byte(`{"code":"620100","name":"Software development"}`))
		case "/channels/ch-1/activities":
			w.Write([]byte(`[{"code":"620100","name":"Software development"},{"code":"461001","name":"Wholesale trade"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, utils.NewLogger("error"))
	ctx := context.Background()

	name, err := client.BranchName(ctx, "ch-1", "001")
	if err != nil || name != "Central" {
		t.Errorf("BranchName = %q, %v", name, err)
	}

	name, err = client.ActivityName(ctx, "ch-1", "620100")
	if err != nil || name != "Software development" {
		t.Errorf("ActivityName = %q, %v", name, err)
	}

	if _, err := client.BranchName(ctx, "ch-1", "999"); err == nil {
		t.Error("missing branch lookup did not error")
	}

	rows, err := client.FetchActivities(ctx, "ch-1")
	if err != nil {
		t.Fatalf("FetchActivities: %v", err)
	}
	if len(rows) != 2 || rows[0].Channel != "ch-1" || rows[1].Code != "461001" {
		t.Errorf("rows = %v", rows)
	}
}
