package csharp

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	tscsharp "github.com/smacker/go-tree-sitter/csharp"
	"go.uber.org/zap"

	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/model"
)

// Renamer renames a class symbol in a set of open buffers. Matching is
// syntactic: every identifier token spelled like the class is renamed,
// except member names reached through a dot. Locals and parameters that
// share the class name are renamed along with their uses.
type Renamer struct {
	logger *zap.Logger
}

// NewRenamer creates a Renamer. A nil logger disables logging.
func NewRenamer(logger *zap.Logger) *Renamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renamer{logger: logger}
}

// RenameClass renames class to newName in every target buffer, keyed by path.
func (r *Renamer) RenameClass(class *model.Class, newName string, targets map[string]edit.Buffer) error {
	if class == nil || class.Name == newName {
		return nil
	}
	paths := make([]string, 0, len(targets))
	for p := range targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		buf := targets[path]
		count, err := renameIn(buf, class.Name, newName)
		if err != nil {
			return fmt.Errorf("rename %s in %s: %w", class.Name, path, err)
		}
		r.logger.Debug("renamed class references",
			zap.String("file", path), zap.String("from", class.Name),
			zap.String("to", newName), zap.Int("count", count))
	}
	return nil
}

func renameIn(buf edit.Buffer, oldName, newName string) (int, error) {
	content := []byte(buf.Text())

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tscsharp.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return 0, err
	}
	defer tree.Close()

	var offsets []int
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "identifier" && n.Content(content) == oldName && !isMemberName(n) {
			offsets = append(offsets, int(n.StartByte()))
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(tree.RootNode())

	// Back to front so earlier offsets stay valid.
	for i := len(offsets) - 1; i >= 0; i-- {
		if err := buf.Replace(offsets[i], len(oldName), newName); err != nil {
			return 0, err
		}
	}
	return len(offsets), nil
}

// isMemberName reports whether n is the right-hand name of a member access
// such as this.MainForm, which refers to a member, not the type.
func isMemberName(n *sitter.Node) bool {
	parent := n.Parent()
	if parent == nil || parent.Type() != "member_access_expression" {
		return false
	}
	name := parent.ChildByFieldName("name")
	return name != nil && name.StartByte() == n.StartByte()
}
