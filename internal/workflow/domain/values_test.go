package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"In Progress", "in-progress"},
		{"  To Do  ", "to-do"},
		{"Done!!", "done"},
		{"QA / Review", "qa-review"},
		{"ready_for_qa", "ready-for-qa"},
		{"--weird--name--", "weird-name"},
		{"Émoji 🚀", "moji"},
		{"!!!", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestSlugify_TruncatesLongNames(t *testing.T) {
	slug := Slugify(strings.Repeat("ab ", 40))

	assert.LessOrEqual(t, len(slug), MaxSlugLength)
	assert.True(t, ValidSlug(slug))
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("A"))
	assert.True(t, ValidName(strings.Repeat("x", MaxNameLength)))
	assert.False(t, ValidName(""))
	assert.False(t, ValidName(strings.Repeat("x", MaxNameLength+1)))
}

func TestValidColor(t *testing.T) {
	assert.True(t, ValidColor("#6b7280"))
	assert.True(t, ValidColor("#ABCDEF"))
	assert.False(t, ValidColor("6b7280"))
	assert.False(t, ValidColor("#6b728"))
	assert.False(t, ValidColor("#gggggg"))
}

func TestIconAndCategory(t *testing.T) {
	assert.Len(t, Icons, 24)
	assert.True(t, Icon("thumbs-down").IsValid())
	assert.False(t, Icon("").IsValid())

	assert.True(t, CategoryInProgress.IsValid())
	assert.False(t, Category("todo").IsValid())
	assert.True(t, CategoryClosed.MarksComplete())
	assert.False(t, CategoryOpen.MarksComplete())
}
