package steps

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a step record.
type document struct {
	Selector    *string   `yaml:"selector"`
	CommandType yaml.Node `yaml:"command_type"`
}

type outDocument struct {
	Selector    string      `yaml:"selector,omitempty"`
	CommandType interface{} `yaml:"command_type"`
}

type windowSize struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Load reads, parses and validates a script file.
func Load(path string) ([]Step, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	list, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

// Parse decodes a YAML step list. It does not validate it.
func Parse(data []byte) ([]Step, error) {
	var list []Step
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse steps: %w", err)
	}
	return list, nil
}

// Marshal encodes a step list in the form Parse accepts.
func Marshal(list []Step) ([]byte, error) {
	if list == nil {
		list = []Step{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(list); err != nil {
		return nil, fmt.Errorf("failed to marshal steps: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalYAML decodes a step record.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var doc document
	if err := node.Decode(&doc); err != nil {
		return err
	}
	if doc.CommandType.Kind == 0 {
		return fmt.Errorf("line %d: command_type is required", node.Line)
	}

	var selector string
	if doc.Selector != nil {
		selector = *doc.Selector
	}
	kind, err := decodeKind(&doc.CommandType, selector != "")
	if err != nil {
		return err
	}

	*s = Step{Selector: selector, Kind: kind}
	return nil
}

// MarshalYAML encodes a step record.
func (s Step) MarshalYAML() (interface{}, error) {
	if s.Kind == nil {
		return nil, fmt.Errorf("step has no command type")
	}
	return outDocument{Selector: s.Selector, CommandType: encodeKind(s.Kind)}, nil
}

func decodeKind(n *yaml.Node, hasSelector bool) (Kind, error) {
	var (
		tag     string
		payload *yaml.Node
	)
	switch n.Kind {
	case yaml.ScalarNode:
		tag = n.Value
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, fmt.Errorf("line %d: command_type must name exactly one command", n.Line)
		}
		tag, payload = n.Content[0].Value, n.Content[1]
	default:
		return nil, fmt.Errorf("line %d: command_type must be a name or a single-key mapping", n.Line)
	}

	if payload == nil {
		switch tag {
		case "ScrollIntoView":
			return ScrollSelectorIntoView{}, nil
		case "LeaveFrame":
			return LeaveFrame{}, nil
		case "PrintSource":
			return DumpPageSource{}, nil
		case "Wait":
			return WaitForSelector{}, nil
		case "Clear":
			return ClearField{}, nil
		case "EnterFrame":
			return EnterFrame{}, nil
		case "ClickUntilNavigation":
			return ClickUntilURLChanges{}, nil
		case "ClickUntilDomChanged":
			return ClickUntilPageSourceChanges{}, nil
		case "Click":
			return Click{}, nil
		case "Check":
			return AssertPresent{}, nil
		case "Recursive":
			return Descend{}, nil
		case "GoTo", "Loop", "ChangeWindowSize", "WaitForSeconds", "ChangeWindow", "Input":
			return nil, fmt.Errorf("line %d: %s needs a value", n.Line, tag)
		}
		return nil, fmt.Errorf("line %d: unknown command type %q", n.Line, tag)
	}

	switch tag {
	case "GoTo":
		var url string
		if err := payload.Decode(&url); err != nil {
			return nil, err
		}
		return NavigateTo{URL: url}, nil
	case "Loop":
		var body []Step
		if err := payload.Decode(&body); err != nil {
			return nil, err
		}
		return Loop{Steps: body}, nil
	case "ChangeWindowSize":
		var size windowSize
		if err := payload.Decode(&size); err != nil {
			return nil, err
		}
		return ResizeWindow{Width: size.Width, Height: size.Height}, nil
	case "WaitForSeconds":
		var seconds float64
		if err := payload.Decode(&seconds); err != nil {
			return nil, err
		}
		if hasSelector {
			return WaitUpTo(seconds), nil
		}
		return SleepSeconds{Seconds: seconds}, nil
	case "ChangeWindow":
		var index int
		if err := payload.Decode(&index); err != nil {
			return nil, err
		}
		return SwitchToWindowIndex{Index: index}, nil
	case "Input":
		var text string
		if err := payload.Decode(&text); err != nil {
			return nil, err
		}
		return TypeText{Text: text}, nil
	case "Recursive":
		var child Step
		if err := payload.Decode(&child); err != nil {
			return nil, err
		}
		return Descend{Child: &child}, nil
	}
	return nil, fmt.Errorf("line %d: command type %q takes no value", n.Line, tag)
}

func encodeKind(k Kind) interface{} {
	switch k := k.(type) {
	case NavigateTo:
		return map[string]interface{}{k.Tag(): k.URL}
	case Loop:
		body := k.Steps
		if body == nil {
			body = []Step{}
		}
		return map[string]interface{}{k.Tag(): body}
	case ResizeWindow:
		return map[string]interface{}{k.Tag(): windowSize{Width: k.Width, Height: k.Height}}
	case SleepSeconds:
		return map[string]interface{}{k.Tag(): k.Seconds}
	case WaitForSelector:
		if k.Seconds == nil {
			return k.Tag()
		}
		return map[string]interface{}{k.Tag(): *k.Seconds}
	case SwitchToWindowIndex:
		return map[string]interface{}{k.Tag(): k.Index}
	case TypeText:
		return map[string]interface{}{k.Tag(): k.Text}
	case Descend:
		if k.Child == nil {
			return k.Tag()
		}
		return map[string]interface{}{k.Tag(): *k.Child}
	}
	return k.Tag()
}
