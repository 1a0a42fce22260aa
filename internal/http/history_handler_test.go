package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"hashchat/internal/domain"
)

func TestHistoryHandler_List(t *testing.T) {
	app := newTestApp(t)
	aliceID, aliceToken := app.registerAndLogin(t, "alice")
	bobID, bobToken := app.registerAndLogin(t, "bob")
	_, carolToken := app.registerAndLogin(t, "carol")

	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		if _, err := app.messages.Append(ctx, aliceID, bobID, text); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	path := "/api/messages/" + aliceID + "/" + bobID
	rec := performAuthRequest(app.router, http.MethodGet, path, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var msgs []domain.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 3 || msgs[0].Text != "one" || msgs[2].Text != "three" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
	if msgs[0].SenderID != aliceID || msgs[0].ReceiverID != bobID {
		t.Fatalf("unexpected participants: %+v", msgs[0])
	}

	rec = performAuthRequest(app.router, http.MethodGet, path+"?limit=2", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for other participant, got %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}

	rec = performAuthRequest(app.router, http.MethodGet, path, carolToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for outsider, got %d", rec.Code)
	}

	rec = performAuthRequest(app.router, http.MethodGet, path+"?limit=abc", aliceToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}
