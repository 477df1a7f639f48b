package normalize

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/Epistemic-Technology/micrograph-mcp/internal/logger"
	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// Result is the outcome of normalizing one tag dictionary.
type Result struct {
	// Tags holds every input key, stringified. Tags that failed are nil.
	Tags models.TagDictionary
	// Failed lists the keys whose values could not be classified, sorted.
	Failed []string
	// Err combines the individual tag failures; nil when every tag succeeded.
	Err error
}

// NormalizeTags classifies every entry of raw. A failure in one tag, panics
// included, only nils that tag; the remaining tags are still processed.
func NormalizeTags[K comparable](raw map[K]any, log logger.Logger) Result {
	keys := make([]string, 0, len(raw))
	values := make(map[string]any, len(raw))
	for k, v := range raw {
		key := fmt.Sprint(k)
		keys = append(keys, key)
		values[key] = v
	}
	sort.Strings(keys)

	result := Result{Tags: make(models.TagDictionary, len(keys))}
	for _, key := range keys {
		value, err := normalizeTag(values[key])
		if err != nil {
			log.Warn("Tag %s could not be normalized: %v", key, err)
			result.Failed = append(result.Failed, key)
			result.Err = multierr.Append(result.Err, fmt.Errorf("tag %s: %w", key, err))
			result.Tags[key] = nil
			continue
		}
		result.Tags[key] = value
	}

	log.Debug("Normalized %d tags (%d failed)", len(keys), len(result.Failed))
	return result
}

func normalizeTag(v any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic while classifying: %v", r)
		}
	}()

	classified, err := Classify(v)
	if err != nil {
		return nil, err
	}
	return StripNamespaces(classified), nil
}
