// Package places resolves free-text meeting-spot queries against a
// configured directory of known places. The negotiation engine consumes the
// result as an opaque (name, lat, lng) triple.
package places

import (
	"fmt"

	"github.com/sahilm/fuzzy"
)

type Place struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// Directory is an in-memory, fuzzy-searchable place list.
type Directory struct {
	places []Place
}

func NewDirectory(places []Place) *Directory {
	return &Directory{places: places}
}

func (d *Directory) String(i int) string {
	return d.places[i].Name
}

func (d *Directory) Len() int {
	return len(d.places)
}

// Search returns places matching the query, best match first.
func (d *Directory) Search(query string) []Place {
	matches := fuzzy.FindFrom(query, d)

	results := make([]Place, 0, len(matches))
	for _, m := range matches {
		results = append(results, d.places[m.Index])
	}
	return results
}

// Resolve returns the single best match for the query.
func (d *Directory) Resolve(query string) (Place, error) {
	results := d.Search(query)
	if len(results) == 0 {
		return Place{}, fmt.Errorf("no place matches %q", query)
	}
	return results[0], nil
}
