// Package region locates the designer-owned class, its initialization
// method and the declarations that synchronization edits.
package region

import (
	"strings"

	"github.com/sokinpui/formsync/model"
)

// Designable reports whether a class is a form or control whose
// initialization method the designer owns.
type Designable func(c *model.Class) bool

// Owner is the designer-owned class part together with its initialization method.
type Owner struct {
	Class *model.Class
	Init  *model.Method
}

// FindInitializationMethod returns the method named initName declared in c.
func FindInitializationMethod(c *model.Class, initName string) *model.Method {
	if c == nil {
		return nil
	}
	for _, m := range c.Methods {
		if m.Name == initName && len(m.Parameters) == 0 {
			return m
		}
	}
	return nil
}

// FindDesignerOwnerClass scans the classes of unit for the first designable
// class declaring initName. It never guesses a fallback.
func FindDesignerOwnerClass(unit *model.CompilationUnit, designable Designable, initName string) (Owner, bool) {
	if unit == nil {
		return Owner{}, false
	}
	for _, c := range unit.Classes {
		if !designable(c) {
			continue
		}
		if m := FindInitializationMethod(c, initName); m != nil {
			return Owner{Class: c, Init: m}, true
		}
	}
	return Owner{}, false
}

// FindDesignableClass returns the first designable class of unit whether or
// not it declares the initialization method in this part.
func FindDesignableClass(unit *model.CompilationUnit, designable Designable) *model.Class {
	if unit == nil {
		return nil
	}
	for _, c := range unit.Classes {
		if designable(c) {
			return c
		}
	}
	return nil
}

// FindClass returns the class of unit with the given full name, or nil.
func FindClass(unit *model.CompilationUnit, fullName string) *model.Class {
	if unit == nil {
		return nil
	}
	for _, c := range unit.Classes {
		if c.FullName() == fullName {
			return c
		}
	}
	return nil
}

// BaseTypes builds a Designable predicate from known base type names. A
// class is designable when one of its base types is known, or names another
// class of lookup that is designable itself.
func BaseTypes(known []string, lookup func(name string) *model.Class) Designable {
	set := make(map[string]struct{}, len(known))
	for _, k := range known {
		set[k] = struct{}{}
	}
	var check func(c *model.Class, seen map[*model.Class]bool) bool
	check = func(c *model.Class, seen map[*model.Class]bool) bool {
		if c == nil || seen[c] {
			return false
		}
		seen[c] = true
		for _, base := range c.BaseTypes {
			base = stripGenerics(base)
			if _, ok := set[base]; ok {
				return true
			}
			if lookup != nil && check(lookup(base), seen) {
				return true
			}
		}
		return false
	}
	return func(c *model.Class) bool {
		return check(c, make(map[*model.Class]bool))
	}
}

func stripGenerics(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimPrefix(strings.TrimSpace(name), "global::")
}

// CheckRegion fails with a precondition violation when any coordinate of r
// is not positive.
func CheckRegion(op string, r model.Region) error {
	if !r.Valid() {
		return model.PreconditionError(op, "column must be > 0 (region %s)", r)
	}
	return nil
}

// Indentation returns the leading whitespace of the given 1-based line of text.
func Indentation(text string, line int) string {
	l := Line(text, line)
	return l[:len(l)-len(strings.TrimLeft(l, " \t"))]
}

// Line returns the 1-based line of text without its terminator.
func Line(text string, line int) string {
	if line < 1 {
		return ""
	}
	start := 0
	for i := 1; i < line; i++ {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return ""
		}
		start += nl + 1
	}
	end := strings.IndexByte(text[start:], '\n')
	if end < 0 {
		end = len(text) - start
	}
	return strings.TrimSuffix(text[start:start+end], "\r")
}

// LineSpan is the whole-line region covering lines first..last, ending at
// the start of the line after last.
func LineSpan(first, last int) model.Region {
	return model.Region{BeginLine: first, BeginColumn: 1, EndLine: last + 1, EndColumn: 1}
}
