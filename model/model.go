package model

// DiffKind classifies one field name when desired and observed state are compared.
type DiffKind uint8

const (
	Unchanged DiffKind = iota
	Added
	Changed
	Removed
)

func (k DiffKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// FieldDiff is derived per pass and never stored.
type FieldDiff struct {
	Name string
	Kind DiffKind
	Old  *Field
	New  *DesiredField
}

// EditKind selects how an EditOperation touches the buffer.
type EditKind uint8

const (
	ReplaceRegion EditKind = iota
	InsertAt
	RemoveRegion
)

// EditOperation is produced by the reconciliation driver and consumed
// immediately by the edit applier. Region-based edits use Region,
// InsertAt uses Offset.
type EditOperation struct {
	Kind   EditKind
	Region Region
	Offset int
	Text   string
}

// Warning is a non-fatal synchronization problem isolated to one item.
type Warning struct {
	Field  string
	Reason string
}

// PassResult summarises one reconciliation pass for display and journaling.
type PassResult struct {
	ID        string
	Skipped   bool
	Renamed   string
	Added     []string
	Changed   []string
	Removed   []string
	Unchanged []string
	Warnings  []Warning
	Failed    []Warning
	Files     []string
	Message   string
}

// Summary holds the results of a CLI operation for display.
type Summary struct {
	Pass     *PassResult
	Modified []string
	Failed   []string
	Lines    []string
	Message  string
}
