package db

import (
	"context"

	"farmdash/farm"

	"github.com/rohanthewiz/serr"
)

var catalogNames = map[string]bool{
	farm.CatalogItems:       true,
	farm.CatalogFertilizers: true,
	farm.CatalogPesticides:  true,
	farm.CatalogPlants:      true,
	farm.CatalogYields:      true,
}

// IsCatalog reports whether name is a known reference catalog
func IsCatalog(name string) bool {
	return catalogNames[name]
}

// ListCatalog returns the entries of a reference catalog ordered by id
func (s *Store) ListCatalog(ctx context.Context, name string) ([]farm.CatalogEntry, error) {
	if !IsCatalog(name) {
		return nil, serr.New("unknown catalog: " + name)
	}

	rows, err := s.db.Conn().QueryContext(ctx,
		"SELECT id, name, unit FROM catalog_entries WHERE catalog = ? ORDER BY id", name)
	if err != nil {
		return nil, serr.Wrap(err, "failed to list catalog")
	}
	defer rows.Close()

	entries := []farm.CatalogEntry{}
	for rows.Next() {
		var e farm.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Unit); err != nil {
			return nil, serr.Wrap(err, "failed to scan catalog entry")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
