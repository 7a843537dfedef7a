package worksuite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dcastellanos/shiftpay-backend/pkg/config"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "worksuite-test"})
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(context.Background(), config.WorkSuiteConfig{
		BaseURL:      server.URL,
		APIKey:       "test-key",
		PageSize:     2,
		MaxUserPages: 3,
		HTTPTimeout:  2 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(context.Background(), config.WorkSuiteConfig{APIKey: "k"}, testLogger()); err == nil {
		t.Fatal("expected error without base url")
	}
	if _, err := NewClient(context.Background(), config.WorkSuiteConfig{BaseURL: "http://x"}, testLogger()); err == nil {
		t.Fatal("expected error without api key")
	}
	if _, err := NewClient(context.Background(), config.WorkSuiteConfig{BaseURL: "http://x", APIKey: "k"}, nil); err == nil {
		t.Fatal("expected error without logger")
	}
}

func TestListUsersSendsAPIKeyAndPaging(t *testing.T) {
	var gotKey, gotPage, gotSize string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotPage = r.URL.Query().Get("page")
		gotSize = r.URL.Query().Get("page_size")
		json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{
			{"id": 7, "email": "Ada@Example.com", "name": "Ada"},
		}})
	}))

	users, err := client.ListUsers(context.Background(), 2)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header missing, got %q", gotKey)
	}
	if gotPage != "2" || gotSize != "2" {
		t.Fatalf("unexpected paging params page=%s size=%s", gotPage, gotSize)
	}
	if len(users) != 1 || users[0].ID != 7 {
		t.Fatalf("unexpected users %+v", users)
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"users": []map[string]any{}})
	}))

	if _, err := client.ListUsers(context.Background(), 1); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := client.ListUsers(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream code, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("4xx must not be retried, saw %d calls", calls)
	}
}

func TestListFormSubmissionsFollowsProvidedOffset(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		switch offset {
		case "":
			fmt.Fprint(w, `{"submissions":[{"id":"s1","form_id":"f1","user_id":1}],"next_offset":5}`)
		case "5":
			fmt.Fprint(w, `{"submissions":[{"id":"s2","form_id":"f1","user_id":2}]}`)
		default:
			t.Errorf("unexpected offset %q", offset)
		}
	}))

	window := time.Now()
	page, err := client.ListFormSubmissions(context.Background(), "f1", window.Add(-time.Hour), window, nil)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if page.NextOffset == nil || *page.NextOffset != 5 {
		t.Fatalf("expected next_offset 5, got %v", page.NextOffset)
	}

	page, err = client.ListFormSubmissions(context.Background(), "f1", window.Add(-time.Hour), window, page.NextOffset)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if page.NextOffset != nil {
		t.Fatalf("expected final page, got cursor %v", *page.NextOffset)
	}
	if len(page.Submissions) != 1 || page.Submissions[0].ID != "s2" {
		t.Fatalf("unexpected page %+v", page.Submissions)
	}
}

func TestTimeActivityValidateAndWorkedSeconds(t *testing.T) {
	in := int64(1000)
	out := int64(1000 + 8*3600)
	activity := TimeActivity{
		ID:       "t1",
		ClockIn:  &in,
		ClockOut: &out,
		Breaks:   []BreakInterval{{Start: 2000, End: 2000 + 1800}},
	}
	if err := activity.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := activity.WorkedSeconds(); got != 8*3600-1800 {
		t.Fatalf("expected %d worked seconds, got %d", 8*3600-1800, got)
	}

	broken := TimeActivity{ID: "t2", ClockIn: &in}
	err := broken.Validate()
	if err == nil {
		t.Fatal("expected unsupported shape error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnsupportedShape {
		t.Fatalf("expected UNSUPPORTED_SHAPE, got %v", err)
	}
}
