package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?limit=10&offset=30")
	if p.Limit != 10 {
		t.Errorf("expected limit 10, got %d", p.Limit)
	}
	if p.Offset != 30 {
		t.Errorf("expected offset 30, got %d", p.Offset)
	}
}

func TestFromContext_Bounds(t *testing.T) {
	tests := []struct {
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"/?limit=100000", MaxLimit, 0},
		{"/?limit=-3", DefaultLimit, 0},
		{"/?limit=abc&offset=xyz", DefaultLimit, 0},
		{"/?offset=-10", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			p := paramsFor(t, tt.target)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got %+v, want limit=%d offset=%d", p, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestPaginate(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name    string
		p       Params
		want    []string
		hasMore bool
	}{
		{"first page", Params{Limit: 2, Offset: 0}, []string{"a", "b"}, true},
		{"last page", Params{Limit: 2, Offset: 4}, []string{"e"}, false},
		{"exact end", Params{Limit: 5, Offset: 0}, []string{"a", "b", "c", "d", "e"}, false},
		{"past end", Params{Limit: 2, Offset: 10}, []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Paginate(items, tt.p)
			if resp.Total != 5 {
				t.Errorf("expected total 5, got %d", resp.Total)
			}
			if len(resp.Data) != len(tt.want) {
				t.Fatalf("got %v, want %v", resp.Data, tt.want)
			}
			for i := range tt.want {
				if resp.Data[i] != tt.want[i] {
					t.Errorf("Data[%d] = %q, want %q", i, resp.Data[i], tt.want[i])
				}
			}
			if resp.HasMore != tt.hasMore {
				t.Errorf("HasMore = %v, want %v", resp.HasMore, tt.hasMore)
			}
		})
	}
}

func TestPaginate_DoesNotAlias(t *testing.T) {
	items := []int{1, 2, 3}
	resp := Paginate(items, Params{Limit: 2})
	resp.Data[0] = 99
	if items[0] != 1 {
		t.Error("page should not share backing array with input")
	}
}

func TestParams_Navigation(t *testing.T) {
	p := Params{Limit: 10, Offset: 5}
	if !p.HasPrevious() {
		t.Error("expected HasPrevious")
	}
	if p.PreviousOffset() != 0 {
		t.Errorf("expected previous offset 0, got %d", p.PreviousOffset())
	}
	if p.NextOffset() != 15 {
		t.Errorf("expected next offset 15, got %d", p.NextOffset())
	}
	if p.HasNext(15) {
		t.Error("expected no next page at total 15")
	}
}

func TestParams_Links(t *testing.T) {
	p := Params{Limit: 10, Offset: 10}
	links := p.Links("/api/v1/specs/fhir-r4/resources", 45)

	want := map[string]string{
		"self":     "/api/v1/specs/fhir-r4/resources?offset=10&limit=10",
		"next":     "/api/v1/specs/fhir-r4/resources?offset=20&limit=10",
		"previous": "/api/v1/specs/fhir-r4/resources?offset=0&limit=10",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d", len(want), len(links))
	}
	for _, l := range links {
		if want[l.Relation] != l.URL {
			t.Errorf("%s link = %q, want %q", l.Relation, l.URL, want[l.Relation])
		}
	}

	first := Params{Limit: 10}.Links("/x", 5)
	if len(first) != 1 || first[0].Relation != "self" {
		t.Errorf("expected only self link, got %v", first)
	}
}
