package places

import "testing"

func testDirectory() *Directory {
	return NewDirectory([]Place{
		{Name: "Central Station", Latitude: 40.7128, Longitude: -74.006},
		{Name: "North Cafe", Latitude: 40.72, Longitude: -74.01},
		{Name: "River Park", Latitude: 40.73, Longitude: -73.99},
	})
}

func TestSearch(t *testing.T) {
	d := testDirectory()

	tests := []struct {
		query string
		want  string
	}{
		{query: "central", want: "Central Station"},
		{query: "cafe", want: "North Cafe"},
		{query: "rvr prk", want: "River Park"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results := d.Search(tt.query)
			if len(results) == 0 {
				t.Fatalf("no results for %q", tt.query)
			}
			if results[0].Name != tt.want {
				t.Errorf("expected best match %q, got %q", tt.want, results[0].Name)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	d := testDirectory()

	place, err := d.Resolve("station")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if place.Name != "Central Station" {
		t.Errorf("expected Central Station, got %s", place.Name)
	}
	if place.Latitude != 40.7128 || place.Longitude != -74.006 {
		t.Errorf("coordinates lost: %+v", place)
	}
}

func TestResolveNoMatch(t *testing.T) {
	d := testDirectory()
	if _, err := d.Resolve("zzzzzz"); err == nil {
		t.Error("expected an error for an unmatched query")
	}
}

func TestEmptyDirectory(t *testing.T) {
	d := NewDirectory(nil)
	if results := d.Search("anything"); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}
