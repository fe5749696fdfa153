package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogRecordAndGet(t *testing.T) {
	c := openTestCatalog(t)

	meta := &RunMetadata{
		ID:         "run-1",
		Name:       "baseline",
		Timestamp:  time.Unix(100, 0),
		Integrator: "rk45",
		TotalLoss:  0.25,
		Final:      []float64{0.1, 0.2, 0.3, 0.4, 0.5},
		Steps:      104,
	}
	if err := c.Record(meta); err != nil {
		t.Fatalf("record: %v", err)
	}

	e, err := c.Get("run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e.Name != "baseline" || e.Steps != 104 || e.Cf5 != 0.5 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if !e.Created().Equal(time.Unix(100, 0)) {
		t.Errorf("unexpected created time %v", e.Created())
	}

	meta.TotalLoss = 0.3
	if err := c.Record(meta); err != nil {
		t.Fatalf("re-record: %v", err)
	}
	n, err := c.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 entry after replace, got %d", n)
	}

	if _, err := c.Get("missing"); err == nil {
		t.Error("expected error for missing id")
	}
}

func TestCatalogOrdering(t *testing.T) {
	c := openTestCatalog(t)

	runs := []struct {
		id   string
		at   int64
		loss float64
	}{
		{"a", 1, 0.5},
		{"b", 2, 0.1},
		{"c", 3, 0.9},
	}
	for _, r := range runs {
		meta := &RunMetadata{ID: r.id, Timestamp: time.Unix(r.at, 0), TotalLoss: r.loss, Integrator: "rk45"}
		if err := c.Record(meta); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := c.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("unexpected recent order: %+v", recent)
	}

	worst, err := c.Worst(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(worst) != 3 || worst[0].ID != "c" || worst[2].ID != "b" {
		t.Errorf("unexpected loss order: %+v", worst)
	}
}
