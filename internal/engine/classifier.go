package engine

import (
	"strings"

	"github.com/ginjaninja78/shipment-report/internal/config"
	"github.com/ginjaninja78/shipment-report/internal/model"
)

// Classifier files orders under a carrier bucket by the tag text of their
// mother row. Rules are tested in priority order and the first hit wins, so
// a tag naming two carriers is always filed under the earlier one.
type Classifier struct {
	rules        []config.Carrier
	tagField     string
	unclassified model.Bucket
}

// NewClassifier returns a classifier for the given priority list.
func NewClassifier(carriers []config.Carrier, tagField string, unclassified model.Bucket) *Classifier {
	return &Classifier{
		rules:        append([]config.Carrier(nil), carriers...),
		tagField:     tagField,
		unclassified: unclassified,
	}
}

// Classify returns the bucket of an order. Motherless orders and orders
// whose tags match no carrier are unclassified.
func (c *Classifier) Classify(o *model.Order) model.Bucket {
	if !o.HasMother() {
		return c.unclassified
	}
	return c.ClassifyTags(o.Field(c.tagField))
}

// ClassifyTags applies the rules to raw tag text.
func (c *Classifier) ClassifyTags(tags string) model.Bucket {
	if tags == "" {
		return c.unclassified
	}
	for _, rule := range c.rules {
		for _, marker := range rule.Markers {
			if marker != "" && strings.Contains(tags, marker) {
				return model.Bucket(rule.Label)
			}
		}
	}
	return c.unclassified
}

// Unclassified returns the catch-all bucket.
func (c *Classifier) Unclassified() model.Bucket {
	return c.unclassified
}
