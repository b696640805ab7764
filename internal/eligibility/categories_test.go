package eligibility

import (
	"slices"
	"testing"

	"rollupload/pkg/domain"
)

func TestCategories(t *testing.T) {
	marker := &domain.Marker{Key: 1}
	cases := []struct {
		name        string
		allele      domain.Allele
		conditional bool
		want        []string
	}{
		{"wild type", domain.Allele{Marker: marker, WildType: true, GenerationType: "Not Applicable"}, false, []string{"not-applicable", CategoryWildType}},
		{"reporter transgene", domain.Allele{Marker: marker, GenerationType: "Transgenic", Attributes: []string{domain.AttributeReporter}}, false, []string{CategoryReporterTransgene, "transgenic"}},
		{"reporter with extra attribute", domain.Allele{Marker: marker, GenerationType: "Transgenic", Attributes: []string{domain.AttributeReporter, domain.AttributeInsertedExpressed}}, false, []string{"transgenic"}},
		{"transactivator", domain.Allele{Marker: marker, GenerationType: "Transgenic", Attributes: []string{domain.AttributeTransactivator}}, false, []string{CategoryTransactivator, "transgenic"}},
		{"recombinase outside conditional", domain.Allele{Marker: marker, GenerationType: "Targeted", Attributes: []string{domain.AttributeRecombinase}}, false, []string{"targeted"}},
		{"recombinase in conditional", domain.Allele{Marker: marker, GenerationType: "Targeted", Attributes: []string{domain.AttributeRecombinase}}, true, []string{CategoryConditionalRecombinase, "targeted"}},
		{"marker-less", domain.Allele{GenerationType: "Chemically induced (ENU)"}, false, []string{"chemically-induced-enu", CategoryMarkerLess}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Categories(tc.allele, domain.Genotype{Conditional: tc.conditional})
			if !slices.Equal(got, tc.want) {
				t.Fatalf("Categories = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGenerationSlug(t *testing.T) {
	cases := map[string]string{
		"Gene trapped":             "gene-trapped",
		" Targeted ":               "targeted",
		"Chemically induced (ENU)": "chemically-induced-enu",
		"":                         "",
	}
	for in, want := range cases {
		if got := generationSlug(in); got != want {
			t.Fatalf("generationSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
