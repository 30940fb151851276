package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"farmdash/farm"
	"farmdash/stores"
	"farmdash/wizard"

	"github.com/rohanthewiz/element"
)

func int64Ptr(v int64) *int64 { return &v }

type fakeCatalogs struct {
	mu      sync.Mutex
	data    map[string][]farm.CatalogEntry
	failOn  string
	fetched []string
}

func (f *fakeCatalogs) ListCatalog(_ context.Context, name string) ([]farm.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, name)
	if name == f.failOn {
		return nil, errors.New("catalog offline")
	}
	return f.data[name], nil
}

func testCatalogs() Catalogs {
	return Catalogs{
		Items:       index([]farm.CatalogEntry{{ID: 1, Name: "Watering can", Unit: "pcs"}, {ID: 2, Name: "Crate"}}),
		Fertilizers: index([]farm.CatalogEntry{{ID: 10, Name: "NPK 16-16-8"}}),
		Pesticides:  index([]farm.CatalogEntry{{ID: 20, Name: "Neem oil"}}),
	}
}

func TestSummarizeJoinsCatalogs(t *testing.T) {
	v := wizard.Values{
		PlanName: "Spring lettuce",
		CaringTasks: []farm.CaringTask{
			{TaskName: "Fertilize", TaskType: "Fertilizer", FertilizerID: int64Ptr(10), Items: []farm.TaskItem{{ItemID: 1, Quantity: 2}}},
			{TaskName: "Spray", TaskType: "Pesticide", PesticideID: int64Ptr(20), ID: 5},
			{TaskName: "Mystery", FertilizerID: int64Ptr(99), Items: []farm.TaskItem{{ItemID: 77, Quantity: 1, Unit: "kg"}}},
			{TaskName: "Odd spray", PesticideID: int64Ptr(98)},
		},
		HarvestingTasks: []farm.HarvestingTask{{TaskName: "Cut", Items: []farm.TaskItem{{ItemID: 2, Quantity: 30, Unit: "crate"}}}},
		InspectingForms: []farm.InspectingForm{{TaskName: "Check"}},
	}
	counts := stores.Counts{Caring: 4, Harvesting: 1, Inspecting: 1}

	s := Summarize(v, counts, testCatalogs())

	if len(s.Counts) != 4 || s.Counts[0].Category != "caring" || s.Counts[0].Count != 4 || s.Counts[0].Color == "" {
		t.Errorf("Unexpected counts %+v", s.Counts)
	}
	if s.Counts[3].Category != "packaging" || s.Counts[3].Count != 0 {
		t.Errorf("Expected packaging tile with 0, got %+v", s.Counts[3])
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"fertilizer", s.Caring[0].Material, "NPK 16-16-8"},
		{"item", s.Caring[0].Items[0].Name, "Watering can"},
		{"item unit from catalog", s.Caring[0].Items[0].Unit, "pcs"},
		{"pesticide", s.Caring[1].Material, "Neem oil"},
		{"unknown fertilizer", s.Caring[2].Material, UnknownFertilizer},
		{"unknown item", s.Caring[2].Items[0].Name, UnknownItem},
		{"unknown pesticide", s.Caring[3].Material, UnknownPesticide},
		{"harvest item", s.Harvesting[0].Items[0].Name, "Crate"},
		{"inspection", s.Inspecting[0].TaskName, "Check"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, tt.got)
		}
	}

	if !s.Caring[1].Saved || s.Caring[0].Saved {
		t.Error("Expected saved flag to follow task id")
	}
}

func TestSummarizeEmptyCatalogs(t *testing.T) {
	v := wizard.Values{CaringTasks: []farm.CaringTask{{TaskName: "Water", Items: []farm.TaskItem{{ItemID: 1}}}}}
	s := Summarize(v, stores.Counts{}, Catalogs{})

	if s.Caring[0].Items[0].Name != UnknownItem || s.Caring[0].Material != "" {
		t.Errorf("Unexpected row %+v", s.Caring[0])
	}
}

func TestLoadCatalogs(t *testing.T) {
	src := &fakeCatalogs{data: map[string][]farm.CatalogEntry{
		farm.CatalogItems:       {{ID: 1, Name: "Hoe"}},
		farm.CatalogFertilizers: {{ID: 2, Name: "Compost"}},
		farm.CatalogPesticides:  {{ID: 3, Name: "Copper"}},
	}}

	cat, err := LoadCatalogs(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Items[1].Name != "Hoe" || cat.Fertilizers[2].Name != "Compost" || cat.Pesticides[3].Name != "Copper" {
		t.Errorf("Unexpected catalogs %+v", cat)
	}
	if len(src.fetched) != 3 {
		t.Errorf("Expected 3 fetches, got %v", src.fetched)
	}

	src.failOn = farm.CatalogPesticides
	if _, err := LoadCatalogs(context.Background(), src); err == nil {
		t.Error("Expected catalog failure to surface")
	}
}

func TestRenderSummary(t *testing.T) {
	v := wizard.Values{
		PlanName:    "Spring lettuce",
		CaringTasks: []farm.CaringTask{{TaskName: "Spray", PesticideID: int64Ptr(404)}},
	}
	s := Summarize(v, stores.Counts{Caring: 1}, testCatalogs())

	b := element.NewBuilder()
	element.RenderComponents(b, SummaryComponent{Summary: s})
	html := b.String()

	for _, want := range []string{"Spring lettuce", "Caring tasks", "Spray", UnknownPesticide, "Packaging"} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected rendered recap to contain %q", want)
		}
	}
	if strings.Contains(html, "Harvesting tasks") {
		t.Error("Expected empty sections to be skipped")
	}
}

func TestFormatQty(t *testing.T) {
	cases := map[float64]string{0: "0", 1200: "1200", 2.5: "2.5", 0.126: "0.13"}
	for in, want := range cases {
		if got := formatQty(in); got != want {
			t.Errorf("formatQty(%v) = %q, want %q", in, got, want)
		}
	}
}
