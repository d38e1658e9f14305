package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"encore/internal/services"
)

type syncReply struct {
	services.SyncView
	Error string             `json:"error"`
	State *services.SyncView `json:"state"`
}

func syncEvent(t *testing.T, ta *testApp, sid, kind string, atMs int) (int, syncReply) {
	t.Helper()
	form := url.Values{"event": {kind}}
	if atMs >= 0 {
		form.Set("at_ms", strconv.Itoa(atMs))
	}
	resp := ta.postForm(t, "/admin/sync/night-drive/events", form, sid)
	var r syncReply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		t.Fatalf("%s: decode: %v", kind, err)
	}
	return resp.StatusCode, r
}

func TestSyncEventsRecordCues(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.session(t, "sid-admin", "u-admin")

	if resp := ta.get(t, "/admin/sync/night-drive", admin); resp.StatusCode != http.StatusOK {
		t.Fatalf("editor: %d", resp.StatusCode)
	}

	code, r := syncEvent(t, ta, admin, "press", 1000)
	if code != http.StatusOK || r.PendingMs == nil || *r.PendingMs != 1000 || r.Cursor != 0 {
		t.Fatalf("press: %d %+v", code, r.SyncView)
	}
	code, r = syncEvent(t, ta, admin, "release", 3500)
	if code != http.StatusOK || r.Cursor != 1 || len(r.Cues) != 1 || r.PendingMs != nil {
		t.Fatalf("release: %d %+v", code, r.SyncView)
	}
	if r.Current != "Radio playing something slow" {
		t.Fatalf("current line = %q", r.Current)
	}

	// Releasing with nothing pressed is refused and the state comes back.
	code, r = syncEvent(t, ta, admin, "release", 4000)
	if code != http.StatusConflict || r.Error == "" || r.State == nil || r.State.Cursor != 1 {
		t.Fatalf("stray release: %d %+v", code, r)
	}
	// Pressing before the previous line ended is refused.
	if code, _ = syncEvent(t, ta, admin, "press", 3000); code != http.StatusConflict {
		t.Fatalf("overlapping press: %d", code)
	}
	if code, _ = syncEvent(t, ta, admin, "rewind", -1); code != http.StatusBadRequest {
		t.Fatalf("unknown event: %d", code)
	}
	if code, _ = syncEvent(t, ta, admin, "press", -1); code != http.StatusBadRequest {
		t.Fatalf("press without at_ms: %d", code)
	}

	code, r = syncEvent(t, ta, admin, "undo", -1)
	if code != http.StatusOK || r.Cursor != 0 || r.PendingMs != nil || len(r.Cues) != 0 {
		t.Fatalf("undo: %d %+v", code, r.SyncView)
	}
}

func TestSyncDownloadAndPublish(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.session(t, "sid-admin", "u-admin")

	// Two of four lines timed: downloadable, not publishable.
	for _, at := range [][2]int{{1000, 3500}, {4000, 6250}} {
		syncEvent(t, ta, admin, "press", at[0])
		syncEvent(t, ta, admin, "release", at[1])
	}
	resp := ta.get(t, "/admin/sync/night-drive/srt", admin)
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "night-drive.srt") {
		t.Fatalf("content-disposition = %q", cd)
	}
	want := "1\n00:00:01,000 --> 00:00:03,500\nHeadlights on the empty road\n\n2\n00:00:04,000 --> 00:00:06,250\nRadio playing something slow\n"
	if !strings.HasPrefix(body, want) {
		t.Fatalf("srt body:\n%s", body)
	}

	resp = ta.postForm(t, "/admin/sync/night-drive/publish", url.Values{}, admin)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("incomplete publish expected 409, got %d", resp.StatusCode)
	}
	if resp := ta.get(t, "/tracks/night-drive/lyrics.srt", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unpublished lyrics expected 404, got %d", resp.StatusCode)
	}

	for _, at := range [][2]int{{7000, 9000}, {9500, 12000}} {
		syncEvent(t, ta, admin, "press", at[0])
		syncEvent(t, ta, admin, "release", at[1])
	}
	resp = ta.postForm(t, "/admin/sync/night-drive/publish", url.Values{}, admin)
	if resp.StatusCode != http.StatusFound || !strings.HasSuffix(resp.Header.Get("Location"), "?published=1") {
		t.Fatalf("publish: %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp = ta.get(t, "/tracks/night-drive/lyrics.srt", "")
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/x-subrip") {
		t.Fatalf("published lyrics: %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "4\n00:00:09,500 --> 00:00:12,000\nJust keep driving till it's day") {
		t.Fatalf("published srt:\n%s", body)
	}
}

func TestSyncSetLyricsResetsTiming(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.session(t, "sid-admin", "u-admin")
	syncEvent(t, ta, admin, "press", 0)
	syncEvent(t, ta, admin, "release", 1000)

	resp := ta.postForm(t, "/admin/sync/night-drive/lyrics", url.Values{"lyrics": {"one\n\ntwo"}}, admin)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("set lyrics: %d %s", resp.StatusCode, readBody(t, resp))
	}
	v, err := ta.deps.SyncHandler.Sync.Load("night-drive")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Lines) != 2 || len(v.Cues) != 0 {
		t.Fatalf("after new lyrics: lines=%q cues=%d", v.Lines, len(v.Cues))
	}

	if resp := ta.postForm(t, "/admin/sync/night-drive/lyrics", url.Values{"lyrics": {"   "}}, admin); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank lyrics expected 400, got %d", resp.StatusCode)
	}
	if resp := ta.get(t, "/admin/sync/no-such-track", admin); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown track expected 404, got %d", resp.StatusCode)
	}
}

func TestSyncUnknownTrack(t *testing.T) {
	ta := newTestApp(t)
	admin := ta.session(t, "sid-admin", "u-admin")

	resp := ta.postForm(t, "/admin/sync/no-such-track/events", url.Values{"event": {"press"}, "at_ms": {"0"}}, admin)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("press on unknown track: %d %s", resp.StatusCode, readBody(t, resp))
	}
	if resp := ta.get(t, "/admin/sync/no-such-track/srt", admin); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download for unknown track: %d", resp.StatusCode)
	}
	if resp := ta.postForm(t, "/admin/sync/no-such-track/publish", url.Values{}, admin); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("publish for unknown track: %d", resp.StatusCode)
	}
}
