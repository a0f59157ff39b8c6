package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carburapp/internal/models"
)

func TestSearchByCityNormalizesResults(t *testing.T) {
	var gotQuery, gotKey, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		gotKey = r.URL.Query().Get("key")
		gotLanguage = r.URL.Query().Get("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{
					"place_id": "abc123",
					"name": "Esso Tuscolana",
					"vicinity": "Via Tuscolana 10, Roma",
					"geometry": {"location": {"lat": 41.87, "lng": 12.52}}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "it", 0, server.Client())

	stations, err := client.SearchByCity(context.Background(), "Roma")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if gotQuery != "distributori di benzina a Roma" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotKey != "test-key" || gotLanguage != "it" {
		t.Errorf("key=%q language=%q", gotKey, gotLanguage)
	}
	if len(stations) != 1 {
		t.Fatalf("expected 1 station, got %d", len(stations))
	}
	st := stations[0]
	if st.ID != "abc123" || st.Name != "Esso Tuscolana" || st.Address != "Via Tuscolana 10, Roma" {
		t.Errorf("unexpected station: %+v", st)
	}
	if st.Latitude != 41.87 || st.Longitude != 12.52 {
		t.Errorf("unexpected coordinates: %+v", st)
	}
}

func TestSearchNearbySendsLocationAndType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nearbysearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("type") != "gas_station" {
			t.Errorf("type = %q", r.URL.Query().Get("type"))
		}
		if r.URL.Query().Get("radius") != "2500" {
			t.Errorf("radius = %q", r.URL.Query().Get("radius"))
		}
		if r.URL.Query().Get("location") == "" {
			t.Error("location missing")
		}
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "it", 2500, server.Client())

	stations, err := client.SearchNearby(context.Background(), models.Coordinate{Lat: 41.9, Lon: 12.5})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(stations) != 0 {
		t.Fatalf("expected no stations, got %d", len(stations))
	}
}

func TestSearchRejectsAPIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED", "results": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-key", "it", 0, server.Client())

	if _, err := client.SearchByCity(context.Background(), "Roma"); err == nil {
		t.Fatal("expected error for REQUEST_DENIED")
	}
}

func TestSearchRejectsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "it", 0, server.Client())

	if _, err := client.SearchByCity(context.Background(), "Roma"); err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}
