package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func TestArticlesAreValid(t *testing.T) {
	list := Articles()
	require.Len(t, list, 12)
	ids := map[string]bool{}
	for _, a := range list {
		assert.True(t, a.Category.Valid(), a.Title)
		assert.NotEmpty(t, a.Content)
		assert.False(t, ids[a.ID], "duplicate id %s", a.ID)
		ids[a.ID] = true
	}
}

func TestCopiesAreIndependent(t *testing.T) {
	first := Agents()
	first[0].Skills[domain.CategoryOther] = 1
	first[0].Workload = 7
	second := Agents()
	assert.False(t, second[0].Covers(domain.CategoryOther))
	assert.Zero(t, second[0].Workload)

	articles := Articles()
	articles[0].Tags[0] = "changed"
	assert.Equal(t, "password", Articles()[0].Tags[0])
}

func TestRosterCoversEveryCategory(t *testing.T) {
	roster := Agents()
	require.Len(t, roster, 6)
	for _, c := range domain.AllCategories() {
		covered := false
		for i := range roster {
			assert.True(t, roster[i].Active())
			covered = covered || roster[i].Covers(c)
		}
		assert.True(t, covered, c)
	}
}
