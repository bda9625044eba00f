// Package parser turns raw input text into a desired state. The input is
// either a bare YAML document or markdown carrying fenced ```formsync or
// ```yaml blocks.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sokinpui/formsync/internal/desired"
	"github.com/sokinpui/formsync/model"
)

// ErrNoDesiredState is returned when the input has neither a document nor blocks.
var ErrNoDesiredState = errors.New("no desired state found in input")

var desiredLangs = map[string]bool{"formsync": true, "yaml": true, "yml": true}

// DesiredBlocks returns the fenced blocks that may carry a desired state.
// Blocks tagged formsync win over plain yaml blocks.
func DesiredBlocks(content string) ([]CodeBlock, error) {
	blocks, err := ExtractCodeBlocks([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}
	var tagged, plain []CodeBlock
	for _, b := range blocks {
		switch {
		case b.Lang == "formsync":
			tagged = append(tagged, b)
		case desiredLangs[b.Lang]:
			plain = append(plain, b)
		}
	}
	if len(tagged) > 0 {
		return tagged, nil
	}
	return plain, nil
}

// ParseDesired decodes content. Types from several blocks are concatenated;
// the first non-empty namespace wins.
func ParseDesired(content string) (*model.DesiredState, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoDesiredState
	}
	blocks, err := DesiredBlocks(content)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		state, err := desired.Parse([]byte(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDesiredState, err)
		}
		return state, nil
	}

	merged := &model.DesiredState{}
	for _, b := range blocks {
		state, err := desired.Parse([]byte(b.Content))
		if err != nil {
			return nil, fmt.Errorf("block at line %d: %w", b.Line, err)
		}
		if merged.Namespace == "" {
			merged.Namespace = state.Namespace
		}
		merged.Types = append(merged.Types, state.Types...)
	}
	return merged, nil
}
