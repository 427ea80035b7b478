// Package classification infers a product category from free text using keyword
// dictionaries.
package classification

import (
	"strings"
	"sync"

	"github.com/Veraticus/weightbot/internal/model"
)

// Keywords associates a category with the substrings that select it.
type Keywords struct {
	Category model.Category
	Words    []string
}

// Classifier maps product text to a category. It is safe for concurrent use.
type Classifier struct {
	dictionary []Keywords
	mu         sync.RWMutex
}

// NewClassifier creates a classifier with the given dictionary, searched in order.
func NewClassifier(dictionary []Keywords) *Classifier {
	c := &Classifier{}
	c.dictionary = normalizeDictionary(dictionary)
	return c
}

// NewDefaultClassifier creates a classifier with the built-in dictionary.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywords())
}

var defaultClassifier = NewDefaultClassifier()

// Classify classifies text with the built-in dictionary.
func Classify(text string) model.Category {
	return defaultClassifier.Classify(text)
}

// Classify returns the first category whose keyword appears in text. Unmatched text
// containing a volume indicator is a rice cooker; anything else is a small appliance.
func (c *Classifier) Classify(text string) model.Category {
	t := strings.ToLower(text)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, entry := range c.dictionary {
		for _, word := range entry.Words {
			if strings.Contains(t, word) {
				return entry.Category
			}
		}
	}

	for _, indicator := range volumeIndicators {
		if strings.Contains(t, indicator) {
			return model.CategoryRiceCooker
		}
	}

	return model.CategorySmallElec
}

// AddKeywords appends words to a category's entry, keeping dictionary order. Unknown
// categories are appended at the end.
func (c *Classifier) AddKeywords(category model.Category, words ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	words = lowerAll(words)
	for i := range c.dictionary {
		if c.dictionary[i].Category == category {
			c.dictionary[i].Words = append(c.dictionary[i].Words, words...)
			return
		}
	}
	c.dictionary = append(c.dictionary, Keywords{Category: category, Words: words})
}

// KeywordCount returns the number of loaded keywords.
func (c *Classifier) KeywordCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, entry := range c.dictionary {
		n += len(entry.Words)
	}
	return n
}

func normalizeDictionary(dictionary []Keywords) []Keywords {
	out := make([]Keywords, 0, len(dictionary))
	for _, entry := range dictionary {
		out = append(out, Keywords{Category: entry.Category, Words: lowerAll(entry.Words)})
	}
	return out
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
