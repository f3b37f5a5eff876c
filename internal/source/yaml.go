package source

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// scalarString decodes any YAML scalar (int or string) as its literal text.
type scalarString string

func (s *scalarString) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar", node.Line)
	}
	*s = scalarString(yamlID(node))
	return nil
}

// yamlID renders an id so that 2, 2.0 and "2" all name the same task.
func yamlID(node *yaml.Node) string {
	if node.ShortTag() == "!!float" {
		if f, err := strconv.ParseFloat(node.Value, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return strconv.FormatInt(int64(f), 10)
		}
	}
	return node.Value
}

// wholeNumber decodes an integer scalar, rejecting fractions instead of
// truncating them.
type wholeNumber int

func (n *wholeNumber) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	switch node.ShortTag() {
	case "!!int":
		v, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
		}
		*n = wholeNumber(v)
	case "!!float":
		f, err := strconv.ParseFloat(node.Value, 64)
		if err != nil || f != math.Trunc(f) {
			return fmt.Errorf("line %d: duration %s is not a whole number", node.Line, node.Value)
		}
		*n = wholeNumber(f)
	default:
		return fmt.Errorf("line %d: duration must be a number, got %q", node.Line, node.Value)
	}
	return nil
}

// predecessorList accepts a sequence of ids or a semicolon-separated scalar.
type predecessorList []string

func (p *predecessorList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Value != "" {
				*p = append(*p, yamlID(item))
			}
		}
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil
		}
		*p = SplitPredecessors(node.Value)
	default:
		return fmt.Errorf("line %d: predecessors must be a list or a string", node.Line)
	}
	return nil
}

type yamlTask struct {
	ID           scalarString    `yaml:"id"`
	Name         string          `yaml:"name"`
	Duration     wholeNumber     `yaml:"duration"`
	Predecessors predecessorList `yaml:"predecessors"`
}

type yamlTable struct {
	Tasks []yamlTask `yaml:"tasks"`
}

func parseYAML(r io.Reader) ([]RawTask, error) {
	var table yamlTable
	if err := yaml.NewDecoder(r).Decode(&table); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	tasks := make([]RawTask, 0, len(table.Tasks))
	for _, t := range table.Tasks {
		tasks = append(tasks, RawTask{
			ID:           string(t.ID),
			Name:         t.Name,
			Duration:     int(t.Duration),
			Predecessors: []string(t.Predecessors),
		})
	}
	return tasks, nil
}
