package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

func TestAddVariation_IgnoresDuplicates(t *testing.T) {
	t.Parallel()

	c := &domain.Candidate{}
	c.AddVariation("a.pdf")
	c.AddVariation("b.pdf")
	c.AddVariation("a.pdf")

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, c.Variations)
}

func TestClone_DoesNotShareVariations(t *testing.T) {
	t.Parallel()

	c := &domain.Candidate{URL: "https://x.test/a.pdf", Variations: []string{"a.pdf"}}
	cp := c.Clone()
	cp.AddVariation("b.pdf")

	assert.Len(t, c.Variations, 1)
	assert.Equal(t, c.URL, cp.URL)
}

func TestIsPDFURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://x.test/form.pdf", true},
		{"https://x.test/form.pdf?v=2", true},
		{"https://x.test/view?type=application/pdf", true},
		{"https://x.test/forms/", false},
		{"https://x.test/form.PDF", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.IsPDFURL(tt.url), tt.url)
	}
}

func TestIsPDFContentType(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.IsPDFContentType("application/pdf"))
	assert.True(t, domain.IsPDFContentType("Application/PDF; charset=binary"))
	assert.False(t, domain.IsPDFContentType("text/html"))
	assert.False(t, domain.IsPDFContentType(""))
}

func TestValidationResult_ContentTypeOrEmpty(t *testing.T) {
	t.Parallel()

	ct := "application/pdf"
	assert.Equal(t, "application/pdf", domain.ValidationResult{ContentType: &ct}.ContentTypeOrEmpty())
	assert.Empty(t, domain.ValidationResult{}.ContentTypeOrEmpty())
}
