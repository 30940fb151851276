// Package review builds the read-only recap shown on the wizard's last step.
package review

import (
	"context"

	"farmdash/farm"

	"github.com/rohanthewiz/serr"
	"golang.org/x/sync/errgroup"
)

// Placeholder labels for ids missing from a catalog
const (
	UnknownItem       = "Unknown Item"
	UnknownFertilizer = "Unknown Fertilizer"
	UnknownPesticide  = "Unknown Pesticide"
)

// CatalogSource reads a reference catalog by name
type CatalogSource interface {
	ListCatalog(ctx context.Context, name string) ([]farm.CatalogEntry, error)
}

// Catalogs indexes the reference catalogs the recap joins against
type Catalogs struct {
	Items       map[int64]farm.CatalogEntry
	Fertilizers map[int64]farm.CatalogEntry
	Pesticides  map[int64]farm.CatalogEntry
}

// LoadCatalogs fetches items, fertilizers and pesticides concurrently
func LoadCatalogs(ctx context.Context, src CatalogSource) (Catalogs, error) {
	var items, fertilizers, pesticides []farm.CatalogEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if items, err = src.ListCatalog(gctx, farm.CatalogItems); err != nil {
			return serr.Wrap(err, "failed to load items")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if fertilizers, err = src.ListCatalog(gctx, farm.CatalogFertilizers); err != nil {
			return serr.Wrap(err, "failed to load fertilizers")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if pesticides, err = src.ListCatalog(gctx, farm.CatalogPesticides); err != nil {
			return serr.Wrap(err, "failed to load pesticides")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Catalogs{}, err
	}

	return Catalogs{
		Items:       index(items),
		Fertilizers: index(fertilizers),
		Pesticides:  index(pesticides),
	}, nil
}

func index(entries []farm.CatalogEntry) map[int64]farm.CatalogEntry {
	m := make(map[int64]farm.CatalogEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

func lookup(m map[int64]farm.CatalogEntry, id int64, placeholder string) string {
	if e, ok := m[id]; ok {
		return e.Name
	}
	return placeholder
}
