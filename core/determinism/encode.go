package determinism

import (
	json "github.com/goccy/go-json"

	"github.com/santoshpalla27/aws-frontend-estimation/core/jsonval"
)

// MarshalCanonical serializes v with every object key recursively sorted,
// two-space indentation, and a trailing newline. Identical input values
// produce byte-identical output across runs and platforms.
func MarshalCanonical(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	tree, err := jsonval.Parse(raw)
	if err != nil {
		return nil, err
	}

	out := tree.MarshalIndent("  ")
	return append(out, '\n'), nil
}
