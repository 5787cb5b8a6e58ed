package server

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"cardforge/internal/game"
)

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/healthz", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if resp.Header.Get(headerCorrelationID) == "" {
		t.Fatalf("expected correlation id header")
	}
}

func TestListTemplates(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/templates", "", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	templates, ok := body["templates"].([]any)
	if !ok || len(templates) == 0 {
		t.Fatalf("expected templates, got %v", body["templates"])
	}
}

func TestCreatorRoutesRequireUser(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodGet, "/api/definitions", "", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	body := decodeBody(t, resp)
	if body["kind"] != "unauthorized" {
		t.Fatalf("expected unauthorized kind, got %v", body["kind"])
	}
}

func TestCreatorRoutesRejectOverlongUser(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions", strings.Repeat("u", 65), map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"name":         "Office Party",
	})
	expectStatus(t, resp, http.StatusBadRequest)
	body := decodeBody(t, resp)
	if body["kind"] != "validation" {
		t.Fatalf("expected validation kind, got %v", body["kind"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", strings.Repeat("u", 65), map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"hostNickname": "Ada",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodGet, "/api/definitions", strings.Repeat("u", 64), nil)
	expectStatus(t, resp, http.StatusOK)
}

func TestCreateDefinition(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"name":         "Office Party",
	})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if body["slug"] != "office-party" {
		t.Fatalf("expected derived slug, got %v", body["slug"])
	}
	if body["status"] != string(game.StatusDraft) {
		t.Fatalf("expected draft status, got %v", body["status"])
	}
	if body["creatorName"] != "Ada" {
		t.Fatalf("expected creator name from header, got %v", body["creatorName"])
	}
	assertString(t, body["shareToken"])
}

func TestCreateDefinitionValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
	})
	expectStatus(t, resp, http.StatusBadRequest)
	body := decodeBody(t, resp)
	if body["error"] != "name is required" {
		t.Fatalf("expected name message, got %v", body["error"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/definitions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"name":         "Bad Slug",
		"slug":         "Not A Slug",
	})
	expectStatus(t, resp, http.StatusBadRequest)
	body = decodeBody(t, resp)
	if body["kind"] != "validation" {
		t.Fatalf("expected validation kind, got %v", body["kind"])
	}
}

func TestDuplicateSlugConflicts(t *testing.T) {
	ts := newTestServer(t)
	createDefinition(t, ts, "Office Party")

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"name":         "Office Party",
	})
	expectStatus(t, resp, http.StatusConflict)
}

func TestDefinitionOwnership(t *testing.T) {
	ts := newTestServer(t)
	defID, packID := createDefinition(t, ts, "Mine")

	resp := doRequest(t, ts, http.MethodGet, "/api/definitions/"+defID, "someone-else", nil)
	expectStatus(t, resp, http.StatusForbidden)

	resp = doRequest(t, ts, http.MethodPost, "/api/packs/"+packID+"/cards", "someone-else", map[string]any{
		"cards": []map[string]any{{"cardType": "prompt", "properties": map[string]any{"text": "___"}}},
	})
	expectStatus(t, resp, http.StatusForbidden)

	resp = doRequest(t, ts, http.MethodGet, "/api/definitions/missing", testUser, nil)
	expectStatus(t, resp, http.StatusNotFound)
}

func TestListDefinitionsPagination(t *testing.T) {
	ts := newTestServer(t)
	createDefinition(t, ts, "One")
	createDefinition(t, ts, "Two")
	createDefinition(t, ts, "Three")

	resp := doRequest(t, ts, http.MethodGet, "/api/definitions?page=2&per_page=2", testUser, nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	items := body["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one item on page 2, got %d", len(items))
	}
	pagination := body["pagination"].(map[string]any)
	if pagination["total"] != float64(3) || pagination["totalPages"] != float64(2) {
		t.Fatalf("unexpected pagination %v", pagination)
	}
	if pagination["hasNext"] != false || pagination["hasPrev"] != true {
		t.Fatalf("unexpected pagination flags %v", pagination)
	}
}

func TestUpdateDefinition(t *testing.T) {
	ts := newTestServer(t)
	defID, _ := createDefinition(t, ts, "Before")

	resp := doRequest(t, ts, http.MethodPatch, "/api/definitions/"+defID, testUser, map[string]any{
		"name":       "After",
		"gameConfig": map[string]any{"handSize": 7},
	})
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	if body["name"] != "After" {
		t.Fatalf("expected renamed definition, got %v", body["name"])
	}
	config := body["gameConfig"].(map[string]any)
	if config["handSize"] != float64(7) {
		t.Fatalf("expected handSize override, got %v", config["handSize"])
	}
}

func TestApplyCards(t *testing.T) {
	ts := newTestServer(t)
	_, packID := createDefinition(t, ts, "Cards")

	resp := doRequest(t, ts, http.MethodPost, "/api/packs/"+packID+"/cards", testUser, map[string]any{
		"cards": []map[string]any{
			{"cardType": "prompt", "properties": map[string]any{"text": "___ and ___ walk into a bar."}},
			{"cardType": "response", "properties": map[string]any{"text": "A goose."}},
		},
	})
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	results := body["results"].(map[string]any)
	if results["created"] != float64(2) {
		t.Fatalf("expected two created, got %v", results)
	}
	pack := body["pack"].(map[string]any)
	cards := pack["cards"].([]any)
	if len(cards) != 2 {
		t.Fatalf("expected two cards, got %d", len(cards))
	}
	prompt := cards[0].(map[string]any)
	props := prompt["properties"].(map[string]any)
	if props["pick"] != float64(2) {
		t.Fatalf("expected derived pick 2, got %v", props["pick"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/packs/"+packID+"/cards", testUser, map[string]any{
		"cards": []map[string]any{{"cardType": "not a type!", "properties": map[string]any{"text": "x"}}},
	})
	expectStatus(t, resp, http.StatusBadRequest)
	for _, pick := range []float64{1e300, 11} {
		resp = doRequest(t, ts, http.MethodPost, "/api/packs/"+packID+"/cards", testUser, map[string]any{
			"cards": []map[string]any{{"cardType": "prompt", "properties": map[string]any{"text": "x ___", "pick": pick}}},
		})
		expectStatus(t, resp, http.StatusBadRequest)
	}
}

func TestPackLifecycle(t *testing.T) {
	ts := newTestServer(t)
	defID, coreID := createDefinition(t, ts, "Packs")

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions/"+defID+"/packs", testUser, map[string]any{
		"name": "Expansion",
	})
	expectStatus(t, resp, http.StatusCreated)
	packID := assertString(t, decodeBody(t, resp)["id"])

	resp = doRequest(t, ts, http.MethodDelete, "/api/packs/"+coreID, testUser, nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodDelete, "/api/packs/"+packID, testUser, nil)
	expectStatus(t, resp, http.StatusNoContent)
}

func TestPlayLoad(t *testing.T) {
	ts := newTestServer(t)
	defID, packID := createDefinition(t, ts, "Playable")
	doRequest(t, ts, http.MethodPost, "/api/packs/"+packID+"/cards", testUser, map[string]any{
		"cards": []map[string]any{{"cardType": "response", "properties": map[string]any{"text": "Socks."}}},
	})

	resp := doRequest(t, ts, http.MethodGet, "/api/definitions/"+defID, testUser, nil)
	token := assertString(t, decodeBody(t, resp)["shareToken"])

	resp = doRequest(t, ts, http.MethodGet, "/play/"+token, "", nil)
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	for _, key := range []string{"definition", "packs", "meta"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("expected %q in play bundle", key)
		}
	}

	resp = doRequest(t, ts, http.MethodGet, "/play/unknown-token", "", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, ts, http.MethodPost, "/api/definitions/"+defID+"/status", testUser, map[string]any{
		"status": "archived",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, ts, http.MethodGet, "/play/"+token, "", nil)
	expectStatus(t, resp, http.StatusForbidden)

	resp = doRequest(t, ts, http.MethodGet, "/api/definitions/"+defID+"/preview", testUser, nil)
	expectStatus(t, resp, http.StatusForbidden)
}

func TestStatusTransitionRejected(t *testing.T) {
	ts := newTestServer(t)
	defID, _ := createDefinition(t, ts, "Terminal")

	resp := doRequest(t, ts, http.MethodPost, "/api/definitions/"+defID+"/status", testUser, map[string]any{
		"status": "ARCHIVED",
	})
	expectStatus(t, resp, http.StatusOK)

	resp = doRequest(t, ts, http.MethodPost, "/api/definitions/"+defID+"/status", testUser, map[string]any{
		"status": "DRAFT",
	})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestCreateSessionFromTemplate(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"hostNickname": "Ada",
		"isPrivate":    true,
		"password":     "hunter2",
	})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	code := assertString(t, body["roomCode"])
	if body["joinUrl"] != "http://localhost:8080/join/"+code {
		t.Fatalf("unexpected join url %v", body["joinUrl"])
	}
	if _, ok := body["password"]; ok {
		t.Fatalf("password must not be returned")
	}
	if body["maxPlayers"] != float64(10) {
		t.Fatalf("expected template max players, got %v", body["maxPlayers"])
	}
}

func TestCreateSessionFromDefinition(t *testing.T) {
	ts := newTestServer(t)
	defID, _ := createDefinition(t, ts, "Session Source")

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"gameDefinitionId": defID,
		"hostNickname":     "Ada",
		"maxPlayers":       6,
	})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	if body["gameDefinitionId"] != defID {
		t.Fatalf("expected definition id, got %v", body["gameDefinitionId"])
	}
	config := body["gameConfig"].(map[string]any)
	if _, ok := config["packs"]; !ok {
		t.Fatalf("expected frozen packs in session config")
	}
}

func TestCreateSessionValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"hostNickname": "Ada",
	})
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
	})
	expectStatus(t, resp, http.StatusBadRequest)
	body := decodeBody(t, resp)
	if body["error"] != "hostNickname is required" {
		t.Fatalf("expected nickname message, got %v", body["error"])
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"hostNickname": "Ada",
		"maxPlayers":   500,
	})
	expectStatus(t, resp, http.StatusBadRequest)
}

func TestSessionLookupAndQR(t *testing.T) {
	ts := newTestServer(t)

	resp := doRequest(t, ts, http.MethodPost, "/api/sessions", testUser, map[string]any{
		"templateSlug": game.StockTemplateSlug,
		"hostNickname": "Ada",
	})
	expectStatus(t, resp, http.StatusCreated)
	code := assertString(t, decodeBody(t, resp)["roomCode"])

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+strings.ToLower(code), "", nil)
	expectStatus(t, resp, http.StatusOK)
	if decodeBody(t, resp)["roomCode"] != code {
		t.Fatalf("expected lookup to normalize the code")
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/!!", "", nil)
	expectStatus(t, resp, http.StatusBadRequest)

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/ZZZZ", "", nil)
	expectStatus(t, resp, http.StatusNotFound)

	resp = doRequest(t, ts, http.MethodGet, "/api/sessions/"+code+"/qr", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if got := resp.Header.Get("Content-Type"); got != "image/png" {
		t.Fatalf("expected png, got %q", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read qr: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("decode qr png: %v", err)
	}
}
