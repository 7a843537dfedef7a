package identity

import (
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

type stubDirectory struct {
	pages    [][]worksuite.User
	pageSize int
	maxPages int
	listErr  error
	getErr   error
	users    map[int64]worksuite.User

	listCalls int
	getCalls  int
}

func (s *stubDirectory) ListUsers(_ context.Context, page int) ([]worksuite.User, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	if page < 1 || page > len(s.pages) {
		return nil, nil
	}
	return s.pages[page-1], nil
}

func (s *stubDirectory) GetUser(_ context.Context, id int64) (*worksuite.User, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	user, ok := s.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &user, nil
}

func (s *stubDirectory) PageSize() int     { return s.pageSize }
func (s *stubDirectory) MaxUserPages() int { return s.maxPages }

func TestResolveAllMatchesCaseInsensitively(t *testing.T) {
	dir := &stubDirectory{
		pageSize: 3,
		maxPages: 10,
		pages: [][]worksuite.User{
			{
				{ID: 1, Email: "Ada@Example.com"},
				{ID: 2, Email: "grace@example.com"},
			},
		},
	}
	resolver, err := NewResolver(dir, nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	res, err := resolver.ResolveAll(context.Background(), []string{"ADA@example.COM", "grace@example.com", "missing@example.com"})
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if res.Truncated {
		t.Fatal("short page must not report truncation")
	}
	if id, ok := res.ExternalID("Ada@Example.com"); !ok || id != 1 {
		t.Fatalf("expected ada resolved to 1, got %d %v", id, ok)
	}
	if _, ok := res.ExternalID("missing@example.com"); ok {
		t.Fatal("unmatched email must stay unresolved")
	}
}

func TestResolveAllStopsOnShortPage(t *testing.T) {
	dir := &stubDirectory{
		pageSize: 2,
		maxPages: 10,
		pages: [][]worksuite.User{
			{{ID: 1, Email: "a@x.com"}, {ID: 2, Email: "b@x.com"}},
			{{ID: 3, Email: "c@x.com"}},
		},
	}
	resolver, _ := NewResolver(dir, nil)

	res, err := resolver.ResolveAll(context.Background(), []string{"zz@x.com"})
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if dir.listCalls != 2 {
		t.Fatalf("expected 2 pages fetched, got %d", dir.listCalls)
	}
	if res.Truncated {
		t.Fatal("short page termination is complete coverage")
	}
}

func TestResolveAllStopsEarlyWhenAllResolved(t *testing.T) {
	dir := &stubDirectory{
		pageSize: 2,
		maxPages: 10,
		pages: [][]worksuite.User{
			{{ID: 1, Email: "a@x.com"}, {ID: 2, Email: "b@x.com"}},
			{{ID: 3, Email: "c@x.com"}, {ID: 4, Email: "d@x.com"}},
		},
	}
	resolver, _ := NewResolver(dir, nil)

	res, err := resolver.ResolveAll(context.Background(), []string{"a@x.com"})
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if dir.listCalls != 1 {
		t.Fatalf("expected early stop after 1 page, got %d", dir.listCalls)
	}
	if len(res.ByEmail) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(res.ByEmail))
	}
}

func TestResolveAllFlagsTruncationAtPageCap(t *testing.T) {
	full := []worksuite.User{{ID: 1, Email: "a@x.com"}, {ID: 2, Email: "b@x.com"}}
	dir := &stubDirectory{
		pageSize: 2,
		maxPages: 2,
		pages:    [][]worksuite.User{full, full},
	}
	resolver, _ := NewResolver(dir, nil)

	res, err := resolver.ResolveAll(context.Background(), []string{"never@x.com"})
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if !res.Truncated {
		t.Fatal("page-cap termination must flag partial coverage")
	}
	if dir.listCalls != 2 {
		t.Fatalf("expected page cap of 2, got %d calls", dir.listCalls)
	}
}

func TestResolveAllSurfacesUpstreamFailure(t *testing.T) {
	dir := &stubDirectory{pageSize: 2, maxPages: 2, listErr: errors.New("boom")}
	resolver, _ := NewResolver(dir, nil)

	_, err := resolver.ResolveAll(context.Background(), []string{"a@x.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream code, got %v", err)
	}
}

func TestResolveAllEmptyCandidates(t *testing.T) {
	dir := &stubDirectory{pageSize: 2, maxPages: 2}
	resolver, _ := NewResolver(dir, nil)

	res, err := resolver.ResolveAll(context.Background(), nil)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if dir.listCalls != 0 {
		t.Fatal("no candidates must mean no directory calls")
	}
	if len(res.ByEmail) != 0 || res.Truncated {
		t.Fatalf("expected empty resolution, got %+v", res)
	}
}

func TestResolveUserMemoizes(t *testing.T) {
	dir := &stubDirectory{
		pageSize: 2,
		maxPages: 2,
		users:    map[int64]worksuite.User{42: {ID: 42, Email: "Lin@Example.com"}},
	}
	resolver, _ := NewResolver(dir, nil)

	email, err := resolver.ResolveUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if email != "lin@example.com" {
		t.Fatalf("expected lower-cased email, got %q", email)
	}

	if _, err := resolver.ResolveUser(context.Background(), 42); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if dir.getCalls != 1 {
		t.Fatalf("expected memoized lookup, got %d calls", dir.getCalls)
	}
}

func TestResolveUserSeededByResolveAll(t *testing.T) {
	dir := &stubDirectory{
		pageSize: 2,
		maxPages: 2,
		pages:    [][]worksuite.User{{{ID: 7, Email: "kim@x.com"}}},
	}
	resolver, _ := NewResolver(dir, nil)

	if _, err := resolver.ResolveAll(context.Background(), []string{"kim@x.com"}); err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	email, err := resolver.ResolveUser(context.Background(), 7)
	if err != nil {
		t.Fatalf("resolve user: %v", err)
	}
	if email != "kim@x.com" {
		t.Fatalf("unexpected email %q", email)
	}
	if dir.getCalls != 0 {
		t.Fatal("page scan should have seeded the memo")
	}
}
