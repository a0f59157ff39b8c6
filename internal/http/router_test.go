package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"carburapp/internal/http/handlers"
	"carburapp/internal/http/middleware"
	"carburapp/internal/models"
	"carburapp/internal/password"
	"carburapp/internal/places"
	"carburapp/internal/repository"
	"carburapp/internal/service"
)

type memLedger struct {
	mu      sync.Mutex
	entries map[string]*models.PriceEntry
}

func key(stationID string, fuel models.FuelType) string {
	return stationID + "|" + string(fuel)
}

func (m *memLedger) SubmitReport(_ context.Context, stationID, stationName string, fuel models.FuelType, value decimal.Decimal, userID int64, _ int) (*models.PriceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	entry := &models.PriceEntry{
		StationID:         stationID,
		StationName:       stationName,
		FuelType:          fuel,
		Value:             value,
		ConfirmationCount: 1,
		Confirmers:        []int64{userID},
		InsertedAt:        now,
		LastUpdated:       now,
	}
	m.entries[key(stationID, fuel)] = entry
	clone := *entry
	return &clone, nil
}

func (m *memLedger) Confirm(_ context.Context, stationID string, fuel models.FuelType, userID int64, _ int) (*models.PriceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key(stationID, fuel)]
	if !ok {
		return nil, repository.ErrPriceNotFound
	}
	for _, id := range entry.Confirmers {
		if id == userID {
			return nil, repository.ErrAlreadyConfirmed
		}
	}
	entry.Confirmers = append(entry.Confirmers, userID)
	entry.ConfirmationCount++
	clone := *entry
	return &clone, nil
}

func (m *memLedger) ListByStationIDs(_ context.Context, stationIDs []string) (map[string][]models.PriceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make(map[string][]models.PriceEntry)
	for _, entry := range m.entries {
		for _, id := range stationIDs {
			if entry.StationID == id {
				result[id] = append(result[id], *entry)
			}
		}
	}
	return result, nil
}

type memUsers struct {
	mu     sync.Mutex
	byID   map[int64]*models.User
	nextID int64
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memUsers) SetVerified(_ context.Context, id int64) error { return nil }

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memUsers) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardRow, error) {
	return nil, nil
}

type staticSearcher struct {
	stations []models.Station
}

func (s *staticSearcher) SearchByCity(context.Context, string) ([]models.Station, error) {
	return s.stations, nil
}

func (s *staticSearcher) SearchNearby(context.Context, models.Coordinate) ([]models.Station, error) {
	return s.stations, nil
}

type noopCodeStore struct{}

func (noopCodeStore) Save(context.Context, string, string) error    { return nil }
func (noopCodeStore) Consume(context.Context, string, string) error { return nil }

type noopMailer struct{}

func (noopMailer) SendVerificationCode(string, string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *service.TokenService) {
	t.Helper()
	logger := zap.NewNop()
	const secret = "router-test-secret"

	ledger := &memLedger{entries: make(map[string]*models.PriceEntry)}
	users := &memUsers{byID: make(map[int64]*models.User)}

	priceService := service.NewPriceService(ledger, nil, nil, logger)
	placesService := places.NewService(&staticSearcher{stations: []models.Station{
		{ID: "st-1", Name: "Esso Tuscolana", Address: "Via Tuscolana 10", Latitude: 41.87, Longitude: 12.52},
	}}, nil, logger)

	tokens := service.NewTokenService(secret, time.Hour)
	newCode := func() (string, error) { return "0000", nil }
	authService := service.NewAuthService(users, password.NewBcryptHasher(4), tokens, noopCodeStore{}, noopMailer{}, newCode, logger)

	router := NewRouter(RouterDeps{
		AuthHandlers:        handlers.NewAuthHandlers(authService, logger),
		StationsHandlers:    handlers.NewStationsHandlers(placesService, priceService, logger),
		PricesHandlers:      handlers.NewPricesHandlers(priceService, logger),
		LeaderboardHandlers: handlers.NewLeaderboardHandlers(service.NewGamificationService(users), logger),
		PriceFeedHandler:    func(w http.ResponseWriter, r *http.Request) {},
		HealthHandler:       handlers.NewHealthHandler(),
		RateLimiter:         middleware.NewRateLimiter(1000, 1000),
	}, middleware.AuthMiddleware(secret))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, tokens
}

func bearerFor(t *testing.T, tokens *service.TokenService, userID int64) string {
	t.Helper()
	token, err := tokens.GenerateToken(userID, fmt.Sprintf("user%d@example.com", userID))
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return "Bearer " + token
}

func doJSON(t *testing.T, method, url, auth, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp.StatusCode, decoded
}

func TestSearchMergesPrices(t *testing.T) {
	server, tokens := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices", bearerFor(t, tokens, 1),
		`{"station_name": "Esso Tuscolana", "fuel_type": "Diesel", "value": "1.799"}`)
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", status)
	}

	status, body := doJSON(t, http.MethodGet, server.URL+"/api/stations?city=Roma", "", "")
	if status != http.StatusOK {
		t.Fatalf("search status = %d, want 200", status)
	}
	stations, ok := body["stations"].([]interface{})
	if !ok || len(stations) != 1 {
		t.Fatalf("unexpected stations payload: %v", body)
	}
	station := stations[0].(map[string]interface{})
	prices, ok := station["prices"].([]interface{})
	if !ok || len(prices) != 1 {
		t.Fatalf("expected merged price, got %v", station)
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	server, _ := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices", "",
		`{"fuel_type": "Diesel", "value": "1.799"}`)
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestConfirmFlowOverHTTP(t *testing.T) {
	server, tokens := newTestServer(t)

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices", bearerFor(t, tokens, 1),
		`{"station_name": "Esso", "fuel_type": "Diesel", "value": "1.799"}`)
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, want 201", status)
	}

	status, body := doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices/confirm", bearerFor(t, tokens, 2),
		`{"fuel_type": "Diesel"}`)
	if status != http.StatusOK {
		t.Fatalf("confirm status = %d, want 200", status)
	}
	if body["status"] != "applied" {
		t.Fatalf("confirm result = %v, want applied", body["status"])
	}

	status, body = doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices/confirm", bearerFor(t, tokens, 2),
		`{"fuel_type": "Diesel"}`)
	if status != http.StatusOK {
		t.Fatalf("repeat confirm status = %d, want 200", status)
	}
	if body["status"] != "already_confirmed" {
		t.Fatalf("repeat confirm result = %v, want already_confirmed", body["status"])
	}

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/stations/st-1/prices/confirm", bearerFor(t, tokens, 3),
		`{"fuel_type": "LPG"}`)
	if status != http.StatusNotFound {
		t.Fatalf("missing entry confirm status = %d, want 404", status)
	}
}
