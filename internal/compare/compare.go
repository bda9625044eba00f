// Package compare decides whether an observed field declaration and a
// designer field declaration are equivalent across the two modifier
// vocabularies.
package compare

import (
	"sort"

	"github.com/sokinpui/formsync/model"
)

// accessPairs lines up the observed visibilities with their designer
// counterparts. Private is handled separately because the designer may omit it.
var accessPairs = [...]struct {
	observed model.Modifiers
	desired  model.Access
}{
	{model.Protected, model.AccessFamily},
	{model.ProtectedInternal, model.AccessFamilyOrAssembly},
	{model.Internal, model.AccessAssembly},
	{model.Public, model.AccessPublic},
}

// FieldChanged reports whether old and desired differ in type or visibility.
// A field whose type the parser could not resolve is never reported as
// changed on type grounds.
func FieldChanged(old *model.Field, desired *model.DesiredField) bool {
	return TypeChanged(old, desired) || VisibilityChanged(old.Modifiers, desired.Access)
}

// TypeChanged compares the resolved type of old with the desired base type.
func TypeChanged(old *model.Field, desired *model.DesiredField) bool {
	if !old.Type.Resolved() {
		return false
	}
	return old.Type.FullName != desired.Type
}

// VisibilityChanged compares an observed visibility with a designer access level.
func VisibilityChanged(observed model.Modifiers, desired model.Access) bool {
	vis := observed.Visibility()
	if vis == model.Private {
		if desired != model.AccessDefault && desired != model.AccessPrivate {
			return true
		}
	}
	for _, p := range accessPairs {
		if (vis == p.observed) != (desired == p.desired) {
			return true
		}
	}
	return false
}

// Classify diffs the desired fields against the complete observed class.
// The result lists desired fields in their given order followed by the
// removed fields sorted by name.
func Classify(complete *model.Class, desired []model.DesiredField) []model.FieldDiff {
	diffs := make([]model.FieldDiff, 0, len(desired))
	wanted := make(map[string]struct{}, len(desired))

	for i := range desired {
		d := &desired[i]
		wanted[d.Name] = struct{}{}
		old := complete.Field(d.Name)
		switch {
		case old == nil:
			diffs = append(diffs, model.FieldDiff{Name: d.Name, Kind: model.Added, New: d})
		case FieldChanged(old, d):
			diffs = append(diffs, model.FieldDiff{Name: d.Name, Kind: model.Changed, Old: old, New: d})
		default:
			diffs = append(diffs, model.FieldDiff{Name: d.Name, Kind: model.Unchanged, Old: old, New: d})
		}
	}

	var removed []model.FieldDiff
	if complete != nil {
		for _, f := range complete.Fields {
			if _, ok := wanted[f.Name]; !ok {
				removed = append(removed, model.FieldDiff{Name: f.Name, Kind: model.Removed, Old: f})
			}
		}
	}
	sort.SliceStable(removed, func(i, j int) bool { return removed[i].Name < removed[j].Name })
	return append(diffs, removed...)
}
