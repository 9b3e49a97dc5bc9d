package reconcile

import (
	"testing"

	"telecost/internal/model"
)

func TestNormalizeCompanyName(t *testing.T) {
	t.Parallel()

	got := NormalizeCompanyName("  ООО \"Ромашка\"   Плюс ")
	if got.Raw != "ООО \"Ромашка\"   Плюс" {
		t.Fatalf("raw=%q", got.Raw)
	}
	if got.Normalized != "ооо ромашка плюс" {
		t.Fatalf("normalized=%q", got.Normalized)
	}
	if n := NormalizeCompanyName("'АО' `Вектор`").Normalized; n != "ао вектор" {
		t.Fatalf("normalized=%q", n)
	}
}

func TestFindSimilarCompanies(t *testing.T) {
	t.Parallel()

	companies := NormalizeCompanies([]*model.Company{
		{ID: 1, Name: "ООО Ромашка"},
		{ID: 2, Name: "Ромашка"},
		{ID: 3, Name: "ООО «Лютик»"},
		{ID: 4, Name: "   "},
	})

	cases := []struct {
		name string
		want []int64
	}{
		{"ромашка", []int64{1, 2}},
		{"ООО Ромашка Групп", []int64{1, 2}},
		{"ооо ромашка", []int64{1, 2}},
		{"Незабудка", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := FindSimilarCompanies(NormalizeCompanyName(tc.name), companies)
		if len(got) != len(tc.want) {
			t.Fatalf("%q: got %d matches, want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("%q: match %d id=%d, want %d", tc.name, i, got[i].ID, tc.want[i])
			}
		}
	}
}

func TestFindSimilarCompanies_Symmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"альфа", "альфа бета"},
		{"альфа бета", "альфа"},
		{"гамма", "гамма"},
		{"дельта", "эпсилон"},
	}
	for _, p := range pairs {
		a := NormalizeCompanyName(p[0])
		b := NormalizeCompanyName(p[1])
		ab := len(FindSimilarCompanies(a, []NormalizedCompany{{ID: 1, NormalizedCompanyName: b}})) == 1
		ba := len(FindSimilarCompanies(b, []NormalizedCompany{{ID: 1, NormalizedCompanyName: a}})) == 1
		if ab != ba {
			t.Fatalf("match for %q/%q is not symmetric: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestCollectCompanyConflicts(t *testing.T) {
	t.Parallel()

	companies := NormalizeCompanies([]*model.Company{{ID: 7, Name: "ООО Ромашка"}})
	resolutions := []model.ContractResolution{
		{ContractNumber: "A-1", Company: model.NewCompany{Name: "Ромашка"}},
		{ContractNumber: "A-2", Company: model.NewCompany{Name: "Ромашка", ForceCreate: true}},
		{ContractNumber: "A-3", Company: model.ExistingCompany{ID: 7}},
		{ContractNumber: "A-4", Company: model.NewCompany{Name: "Лютик"}},
	}

	conflicts := CollectCompanyConflicts(resolutions, companies)
	if len(conflicts) != 1 {
		t.Fatalf("conflicts=%+v", conflicts)
	}
	c := conflicts[0]
	if c.ContractNumber != "A-1" || c.Name != "Ромашка" {
		t.Fatalf("unexpected conflict: %+v", c)
	}
	if len(c.Suggestions) != 1 || c.Suggestions[0].ID != 7 || c.Suggestions[0].Name != "ООО Ромашка" {
		t.Fatalf("unexpected suggestions: %+v", c.Suggestions)
	}
}
