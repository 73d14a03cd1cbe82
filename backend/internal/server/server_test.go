package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soar/vrinput/backend/internal/cvar"
	"github.com/soar/vrinput/backend/internal/host"
	"github.com/soar/vrinput/backend/internal/hub"
	"github.com/soar/vrinput/backend/internal/mapper"
)

const indexHTML = `<!DOCTYPE html>
<html>
  <!-- viewer page -->
  <head>
    <title>vrinput</title>
  </head>
  <body>
    <p>   remotes   </p>
  </body>
</html>
`

func newTestServer(t *testing.T) (*httptest.Server, *cvar.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cvars := cvar.NewRegistry()
	mapper.RegisterCvars(cvars)

	h := hub.NewHub()
	go h.Run(ctx)
	reports := make(chan host.Report)
	b := hub.NewBroadcaster(h, reports)
	go b.Run(ctx)

	frontend := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte(indexHTML)},
	}
	srv := New(h, b, cvars, frontend, "")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, cvars
}

func TestListCvars(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/cvars")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var list []cvar.Cvar
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	found := false
	for _, c := range list {
		if c.Name == mapper.CvarSnapTurnAngle && c.String == "45" {
			found = true
		}
	}
	if !found {
		t.Errorf("snap turn cvar missing from %+v", list)
	}
}

func TestSetCvar(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"ok", `{"name":"vr_snapturn_angle","value":"30"}`, http.StatusOK},
		{"unknown cvar", `{"name":"nope","value":"1"}`, http.StatusUnprocessableEntity},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cvars := newTestServer(t)
			resp, err := http.Post(ts.URL+"/api/cvars", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && cvars.Int(mapper.CvarSnapTurnAngle) != 30 {
				t.Errorf("cvar not set: %v", cvars.String(mapper.CvarSnapTurnAngle))
			}
		})
	}
}

func TestFrontendIsMinified(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "vrinput") {
		t.Errorf("body = %q", body)
	}
	if strings.Contains(string(body), "viewer page") {
		t.Errorf("comment not stripped: %q", body)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) hub.WSMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg hub.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func TestWebSocketSetCvar(t *testing.T) {
	ts, cvars := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if msg := readMessage(t, conn); msg.Type != hub.TypeFull || msg.Data == nil {
		t.Fatalf("initial message = %+v, want full state", msg)
	}

	err = conn.WriteJSON(hub.ClientMessage{Type: hub.TypeSetCvar, Name: mapper.CvarLaserSight, Value: "1"})
	if err != nil {
		t.Fatal(err)
	}
	msg := readMessage(t, conn)
	if msg.Type != hub.TypeCvarSet || msg.Cvar == nil || msg.Cvar.String != "1" {
		t.Fatalf("reply = %+v, want cvar_set", msg)
	}
	if !cvars.Bool(mapper.CvarLaserSight) {
		t.Error("laser sight cvar not set")
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: "select_player"}); err != nil {
		t.Fatal(err)
	}
	if msg := readMessage(t, conn); msg.Type != hub.TypeError {
		t.Errorf("reply = %+v, want error", msg)
	}
}
