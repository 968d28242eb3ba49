package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/pkg/session"
)

func TestHTTPClientListSendsBearerAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/leads" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Fatalf("expected request id")
		}
		if got := r.URL.Query()["owner[]"]; len(got) != 2 {
			t.Fatalf("expected repeated owner[] params, got %v", got)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":1}],"meta":{"total":1}}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/api/", Session: session.NewStatic("secret", 1)})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	body, err := client.List(context.Background(), datagrid.ListRequest{
		Collection: "/leads",
		Method:     http.MethodGet,
		Params:     url.Values{"page": {"1"}, "owner[]": {"a", "b"}},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	result, strategy, err := datagrid.ExtractListResult(body, 25)
	if err != nil || strategy != "meta" || len(result.Rows) != 1 {
		t.Fatalf("unexpected result %#v %s %v", result, strategy, err)
	}
}

func TestHTTPClientOmitsAuthorizationWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Fatalf("authorization header must be absent")
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(server.Close)

	for _, sess := range []datagrid.SessionContext{nil, session.NewStatic("", 0)} {
		client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL, Session: sess})
		if err != nil {
			t.Fatalf("new client: %v", err)
		}
		if _, err := client.Get(context.Background(), "/leads/1"); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
}

func TestHTTPClientPostListEncodesJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["page"] != float64(2) || body["status"] != "open" {
			t.Fatalf("unexpected body %#v", body)
		}
		if tags, ok := body["tag"].([]any); !ok || len(tags) != 2 {
			t.Fatalf("expected tag array, got %#v", body["tag"])
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	_, err := client.List(context.Background(), datagrid.ListRequest{
		Collection: "/chats",
		Method:     http.MethodPost,
		Params:     url.Values{"page": {"2"}, "status": {"open"}, "tag[]": {"a", "b"}},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestHTTPClientRemoteErrorCarriesServerMessage(t *testing.T) {
	cases := map[string]string{
		`{"message":"Email already taken"}`:        "Email already taken",
		`{"error":"forbidden"}`:                    "forbidden",
		`{"error":{"message":"nested"}}`:           "nested",
		`plain failure`:                            "plain failure",
		`<html><body>Bad gateway</body></html>`:    "",
		``:                                         "",
		`{"errors":{"name":["required"]},"x":true}`: "",
	}
	for body, want := range cases {
		body := body
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, body)
		}))
		client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
		err := client.Post(context.Background(), "/leads", map[string]any{"name": "x"})
		server.Close()

		var rerr *datagrid.RemoteError
		if !errors.As(err, &rerr) {
			t.Fatalf("expected remote error for %q, got %v", body, err)
		}
		if rerr.StatusCode != http.StatusUnprocessableEntity || rerr.Message != want {
			t.Fatalf("body %q: got %#v, want message %q", body, rerr, want)
		}
	}
}

func TestHTTPClientDeleteAndPut(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	if err := client.Put(context.Background(), "/jobs/4", map[string]any{"title": "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	err := client.Delete(context.Background(), "/jobs/4")
	var rerr *datagrid.RemoteError
	if !errors.As(err, &rerr) || rerr.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 remote error, got %v", err)
	}
	if len(methods) != 2 || methods[0] != "PUT /jobs/4" || methods[1] != "DELETE /jobs/4" {
		t.Fatalf("unexpected calls %v", methods)
	}
}

func TestHTTPClientExportReadsDisposition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("export") != "1" {
			t.Fatalf("expected export flag")
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="leads_all.csv"`)
		_, _ = w.Write([]byte("id\n1\n"))
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	file, err := client.Export(context.Background(), datagrid.ListRequest{
		Collection: "/leads",
		Params:     url.Values{"export": {"1"}},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if file.Name != "leads_all.csv" || string(file.Data) != "id\n1\n" || file.ContentType != "text/csv" {
		t.Fatalf("unexpected file %#v", file)
	}
}

func TestHTTPClientHonorsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Get(ctx, "/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if datagrid.UserMessage(err, "fallback") != "Request timed out" {
		t.Fatalf("expected timeout message")
	}
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error")
	}
}
