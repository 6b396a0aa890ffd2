package audit

import (
	"encoding/json"
	"reflect"
	"sort"
)

// Change is one field's before/after pair.
type Change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Snapshot flattens v through its JSON form so structs, maps and models
// compare field by field.
func Snapshot(v interface{}) map[string]interface{} {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

// Diff returns the fields whose values differ between before and after.
// A nil before means creation; a nil after means deletion.
func Diff(before, after interface{}, ignore ...string) map[string]Change {
	b := Snapshot(before)
	a := Snapshot(after)
	skip := map[string]bool{"created_at": true, "updated_at": true}
	for _, k := range ignore {
		skip[k] = true
	}

	keys := map[string]struct{}{}
	for k := range b {
		keys[k] = struct{}{}
	}
	for k := range a {
		keys[k] = struct{}{}
	}

	out := map[string]Change{}
	for k := range keys {
		if skip[k] {
			continue
		}
		ov, nv := b[k], a[k]
		if reflect.DeepEqual(ov, nv) {
			continue
		}
		out[k] = Change{Old: ov, New: nv}
	}
	return out
}

// Fields lists the keys of a diff in order; used for the details column.
func Fields(d map[string]Change) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
