package config

import (
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/kartoffeldruck/internal/content"
	"git.home.luguber.info/inful/kartoffeldruck/internal/foundation/errors"
)

// ProcessorConfig is the `contentProcessors` entry: either `false`, or an
// ordered mapping from glob pattern to one or more built-in processor names.
//
//	contentProcessors:
//	  "*.md": markdown
//	  "posts/**": [sanitize]
type ProcessorConfig struct {
	Disabled bool
	Rules    []ProcessorRule
}

// ProcessorRule binds processor names to a pattern.
type ProcessorRule struct {
	Pattern    string
	Processors []string
}

// UnmarshalYAML keeps the mapping order.
func (p *ProcessorConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var enabled bool
		if err := node.Decode(&enabled); err != nil || enabled {
			return errors.ConfigError("contentProcessors must be false or a mapping").
				WithContext("line", node.Line).
				Build()
		}
		p.Disabled = true
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]

			var names []string
			switch value.Kind {
			case yaml.ScalarNode:
				names = []string{value.Value}
			case yaml.SequenceNode:
				if err := value.Decode(&names); err != nil {
					return err
				}
			default:
				return errors.ConfigError("processor must be a name or a list of names").
					WithContext("pattern", key.Value).
					WithContext("line", value.Line).
					Build()
			}
			p.Rules = append(p.Rules, ProcessorRule{Pattern: key.Value, Processors: names})
		}
		return nil
	default:
		return errors.ConfigError("contentProcessors must be false or a mapping").
			WithContext("line", node.Line).
			Build()
	}
}

// Selection converts the entry into a value content.NewSelector accepts.
// A nil receiver selects the defaults.
func (p *ProcessorConfig) Selection() (any, error) {
	if p == nil {
		return nil, nil
	}
	if p.Disabled {
		return false, nil
	}

	rules := make(content.Rules, 0, len(p.Rules))
	for _, r := range p.Rules {
		procs := make([]content.Processor, 0, len(r.Processors))
		for _, name := range r.Processors {
			proc, err := content.Lookup(name)
			if err != nil {
				return nil, err
			}
			procs = append(procs, proc)
		}
		rules = append(rules, content.Rule{Pattern: r.Pattern, Processors: procs})
	}
	return rules, nil
}
