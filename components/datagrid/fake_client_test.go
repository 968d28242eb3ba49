package datagrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	path    string
	payload map[string]any
}

type fakeClient struct {
	mu      sync.Mutex
	lists   []ListRequest
	gets    []string
	posts   []recordedCall
	puts    []recordedCall
	deletes []string
	exports []ListRequest

	listFn   func(ctx context.Context, req ListRequest, call int) ([]byte, error)
	getFn    func(path string) ([]byte, error)
	postErr  error
	putErr   error
	deleteFn func(path string) error
	exportFn func(req ListRequest) (ExportFile, error)
}

func (f *fakeClient) List(ctx context.Context, req ListRequest) ([]byte, error) {
	f.mu.Lock()
	call := len(f.lists)
	f.lists = append(f.lists, req)
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return pageBody(1, 1, 0), nil
	}
	return fn(ctx, req, call)
}

func (f *fakeClient) Get(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	f.gets = append(f.gets, path)
	fn := f.getFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("not found")
	}
	return fn(path)
}

func (f *fakeClient) Post(_ context.Context, path string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, recordedCall{path: path, payload: payload})
	return f.postErr
}

func (f *fakeClient) Put(_ context.Context, path string, payload map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, recordedCall{path: path, payload: payload})
	return f.putErr
}

func (f *fakeClient) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, path)
	fn := f.deleteFn
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(path)
}

func (f *fakeClient) Export(_ context.Context, req ListRequest) (ExportFile, error) {
	f.mu.Lock()
	f.exports = append(f.exports, req)
	fn := f.exportFn
	f.mu.Unlock()
	if fn == nil {
		return ExportFile{}, &RemoteError{StatusCode: 404}
	}
	return fn(req)
}

func (f *fakeClient) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

func (f *fakeClient) lastList() ListRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[len(f.lists)-1]
}

func (f *fakeClient) postCalls() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.posts...)
}

type staticSession struct {
	token string
	role  int
	has   bool
}

func (s staticSession) Token() (string, bool) { return s.token, s.token != "" }
func (s staticSession) Role() (int, bool)     { return s.role, s.has }

type recordingHook struct {
	mu     sync.Mutex
	events []GridEvent
}

func (h *recordingHook) GridUpdated(_ context.Context, event GridEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Reason
	}
	return out
}

// pageBody renders a nested envelope with ids page*100+i.
func pageBody(page, last, count int) []byte {
	rows := make([]map[string]any, count)
	for i := range rows {
		id := page*100 + i
		rows[i] = map[string]any{"id": id, "name": fmt.Sprintf("row %d", id), "progress": 0.5}
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"data":         rows,
			"current_page": page,
			"last_page":    last,
			"per_page":     25,
			"total":        last * 25,
		},
	})
	return body
}

func testEntity() EntityConfig {
	return EntityConfig{
		Code:       "leads",
		Name:       "Leads",
		Collection: "/leads",
		Columns: []Column{
			{Key: "id", Label: "ID"},
			{Key: "name", Label: "Name"},
			{Key: "progress", Label: "Progress"},
			{Key: ActionColumn, Label: "Action"},
		},
		FallbackColumns: []Column{{Key: "id", Label: "ID"}, {Key: "name", Label: "Name"}},
		RequiredFields:  []string{"name"},
		PercentFields:   []string{"progress"},
	}
}

type controllerFixture struct {
	ctrl   *Controller
	client *fakeClient
	clock  *clockwork.FakeClock
	hook   *recordingHook
	logs   *test.Hook
}

func newFixture(t *testing.T, entity EntityConfig, client *fakeClient, session SessionContext) controllerFixture {
	t.Helper()
	logger, logs := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC))
	hook := &recordingHook{}
	ctrl, err := NewController(Options{
		Entity:  entity,
		Client:  client,
		Session: session,
		Hook:    hook,
		Logger:  logrus.NewEntry(logger),
		Clock:   clock,
	})
	require.NoError(t, err)
	return controllerFixture{ctrl: ctrl, client: client, clock: clock, hook: hook, logs: logs}
}
