package textfilter

import (
	"reflect"
	"testing"
)

func TestProfanityFilter_Categories(t *testing.T) {
	filter := NewProfanityFilter()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "clean narrative",
			input:    "You step into the tavern and the barkeep waves you over.",
			expected: nil,
		},
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "mild fantasy language is allowed",
			input:    "The hellhound howls. Damn the storm, says the guard.",
			expected: nil,
		},
		{
			name:     "word boundaries - partial matches are ignored",
			input:    "The classical bard sings of Scunthorpe and a shiitake harvest.",
			expected: nil,
		},
		{
			name:     "words with innocent meanings in a fantasy setting",
			input:    "The cock crows at dawn. Blue tits scatter as you cock your crossbow.",
			expected: nil,
		},
		{
			name:     "profanity",
			input:    "The smith mutters, 'Shit, the forge is out.'",
			expected: []string{CategoryProfanity},
		},
		{
			name:     "case folding",
			input:    "FUCK this place, the guard shouts.",
			expected: []string{CategoryProfanity},
		},
		{
			name:     "multiple categories sorted",
			input:    "bullshit, you slut",
			expected: []string{CategorySexual, CategoryProfanity},
		},
		{
			name:     "slur",
			input:    "He calls the dwarf a retard.",
			expected: []string{CategoryViolenceHate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.Categories(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Categories(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestProfanityFilter_ContainsProfanity(t *testing.T) {
	filter := NewProfanityFilter()

	if filter.ContainsProfanity("You find five gold coins.") {
		t.Error("expected clean text")
	}
	if !filter.ContainsProfanity("What the fuck was that?") {
		t.Error("expected profanity to be detected")
	}
}
