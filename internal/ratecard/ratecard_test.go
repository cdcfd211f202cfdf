package ratecard

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"budget-engine/internal/model"
)

func TestDefaultsWithoutCatalog(t *testing.T) {
	c := New("", 0)
	got := c.Rates(model.RoleLecturer)[model.RoleLecturer]
	if !reflect.DeepEqual(got, DefaultRates) {
		t.Fatalf("expected %v, got %v", DefaultRates, got)
	}
	if known := c.Known(); !reflect.DeepEqual(known, DefaultRates) {
		t.Fatalf("expected %v, got %v", DefaultRates, known)
	}
}

func TestRemoteCatalogIsCached(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		role := strings.TrimPrefix(r.URL.Path, "/rates/")
		w.Header().Set("Content-Type", "application/json")
		switch role {
		case string(model.RoleLecturer):
			w.Write([]byte(`{"role":"Lecturer","rates":[120,140]}`))
		case string(model.RoleResearchAssistant):
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`{"role":"x","rates":[90,0,-1]}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	got := c.Rates(model.Roles...)
	if !reflect.DeepEqual(got[model.RoleLecturer], []string{"120", "140"}) {
		t.Fatalf("expected lecturer rates [120 140], got %v", got[model.RoleLecturer])
	}
	if !reflect.DeepEqual(got[model.RoleScientificStaff], []string{"90"}) {
		t.Fatalf("expected invalid rates dropped, got %v", got[model.RoleScientificStaff])
	}
	if !reflect.DeepEqual(got[model.RoleResearchAssistant], DefaultRates) {
		t.Fatalf("expected fallback on 404, got %v", got[model.RoleResearchAssistant])
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("expected 3 requests, got %d", n)
	}

	c.Rates(model.RoleLecturer, model.RoleScientificStaff)
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Fatalf("expected cached roles not to be refetched, got %d requests", n)
	}
	c.Rates(model.RoleResearchAssistant)
	if n := atomic.LoadInt32(&hits); n != 4 {
		t.Fatalf("expected failed role to be retried, got %d requests", n)
	}
}

func TestUnreachableCatalogFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, 200*time.Millisecond)
	got := c.Rates(model.RoleLecturer)[model.RoleLecturer]
	if !reflect.DeepEqual(got, DefaultRates) {
		t.Fatalf("expected fallback rates, got %v", got)
	}
}
