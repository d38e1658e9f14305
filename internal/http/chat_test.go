package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"encore/internal/chat"
	"encore/internal/domain"
)

func TestChatPostRequiresLogin(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.postForm(t, "/api/v1/chat", url.Values{"body": {"hello"}}, "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous post expected 401, got %d", resp.StatusCode)
	}

	alice := ta.session(t, "sid-alice", "u-alice")
	resp = ta.postForm(t, "/api/v1/chat", url.Values{"body": {"  great set!  "}}, alice)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post: %d %s", resp.StatusCode, readBody(t, resp))
	}
	var m chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatal(err)
	}
	if m.ID != 1 || m.Author != "Alice" || m.Body != "great set!" {
		t.Fatalf("posted message = %+v", m)
	}

	for _, body := range []string{"   ", strings.Repeat("x", chat.MaxBodyRunes+1)} {
		if resp := ta.postForm(t, "/api/v1/chat", url.Values{"body": {body}}, alice); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body of %d chars expected 400, got %d", len(body), resp.StatusCode)
		}
	}
}

func TestChatHistory(t *testing.T) {
	ta := newTestApp(t)
	for _, b := range []string{"one", "two", "three"} {
		if _, err := ta.hub.Post("Bob", b); err != nil {
			t.Fatal(err)
		}
	}
	resp := ta.get(t, "/api/v1/chat?after=1", "")
	var out struct {
		Messages []chat.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Messages) != 2 || out.Messages[0].Body != "two" || out.Messages[1].ID != 3 {
		t.Fatalf("history after 1 = %+v", out.Messages)
	}
}

func TestChatStreamResumesFromLastEventID(t *testing.T) {
	ta := newTestApp(t)
	for _, b := range []string{"first", "second", "third"} {
		if _, err := ta.hub.Post("Bob", b); err != nil {
			t.Fatal(err)
		}
	}
	// A closed hub ends the stream once the backlog is written.
	ta.hub.Close()

	req := httptest.NewRequest("GET", "/api/v1/chat/stream", nil)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content-type = %q", ct)
	}
	body := readBody(t, resp)
	if strings.Contains(body, "first") {
		t.Fatalf("stream replayed an acknowledged message:\n%s", body)
	}
	if !strings.Contains(body, "id: 2\nevent: message\ndata: ") || !strings.Contains(body, "id: 3\n") {
		t.Fatalf("stream body:\n%s", body)
	}
	if strings.Index(body, "second") > strings.Index(body, "third") {
		t.Fatalf("stream out of order:\n%s", body)
	}
}

func TestTimelineAPI(t *testing.T) {
	ta := newTestApp(t)
	resp := ta.get(t, "/api/v1/timeline", "")
	var out struct {
		Events []domain.TimelineEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Events) != 4 || out.Events[0].ID != "first-show" {
		t.Fatalf("timeline = %+v", out.Events)
	}
}
