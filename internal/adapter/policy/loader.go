package policy

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads and validates the policy YAML at path.
func LoadFromFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a policy document. Validation reports every
// problem found, not just the first.
func Parse(data []byte) (*Policy, error) {
	var pol Policy
	if err := yaml.Unmarshal(data, &pol); err != nil {
		return nil, fmt.Errorf("parsing policy YAML: %w", err)
	}
	if err := validate(&pol); err != nil {
		return nil, fmt.Errorf("validating policy: %w", err)
	}
	return &pol, nil
}

// maskOwner remembers where a bare column name first received a mask.
type maskOwner struct {
	table string
	mask  string
}

func validate(pol *Policy) error {
	keys := make([]string, 0, len(pol.Context.Tables))
	for key := range pol.Context.Tables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []error
	// Statement results carry no table, so masks also apply by bare column
	// name and one name must not map to two different masks.
	owners := make(map[string]maskOwner)
	for _, key := range keys {
		if _, _, _, ok := SplitTableKey(key); !ok {
			errs = append(errs, fmt.Errorf("context.tables[%q]: key must be catalog.schema.table", key))
			continue
		}
		tc := pol.Context.Tables[key]
		cols := make([]string, 0, len(tc.Columns))
		for col := range tc.Columns {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		for _, col := range cols {
			mask := tc.Columns[col].Mask
			switch {
			case col == "":
				errs = append(errs, fmt.Errorf("context.tables[%q].columns contains an empty key", key))
				continue
			case !mask.Valid():
				errs = append(errs, fmt.Errorf("context.tables[%q].columns[%q].mask: invalid value %q (allowed: redact, hash, partial, null)", key, col, mask))
				continue
			case mask == "":
				continue
			}
			prev, seen := owners[col]
			if !seen {
				owners[col] = maskOwner{table: key, mask: string(mask)}
				continue
			}
			if prev.mask != string(mask) {
				errs = append(errs, fmt.Errorf("conflicting masks for column %q: %s in %s, %s in %s", col, prev.mask, prev.table, mask, key))
			}
		}
	}
	return errors.Join(errs...)
}
