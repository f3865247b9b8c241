package interpreter

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nadzzz/deskpilot/internal/command"
)

var (
	promptOnce sync.Once
	prompt     string
)

// SystemPrompt returns the instruction sent with every Interpret call. It
// lists the canonical action vocabulary and the reply format.
func SystemPrompt() string {
	promptOnce.Do(func() {
		var sb strings.Builder
		sb.WriteString("You are a desktop automation assistant. Convert the user's request into a structured command.\n\n")
		sb.WriteString("Available actions:\n")
		for _, d := range command.Describe {
			fmt.Fprintf(&sb, "- %s: %s\n", d.Action, d.Hint)
		}
		sb.WriteString("\nFor multi-step tasks, return steps as a list. Each step has \"action\" and \"parameters\".\n")
		sb.WriteString("\nRespond ONLY with valid JSON in this exact format:\n")
		sb.WriteString(`{"action": "action_name", "parameters": {}, "steps": [], "description": "human readable description"}`)
		sb.WriteString("\n\nFor single actions, steps is empty.\n")
		prompt = sb.String()
	})
	return prompt
}

type rawCommand struct {
	Action      *string         `json:"action"`
	Parameters  json.RawMessage `json:"parameters"`
	Description string          `json:"description"`
	Steps       json.RawMessage `json:"steps"`
}

type rawStep struct {
	Action     string          `json:"action"`
	Parameters json.RawMessage `json:"parameters"`
}

// Parse converts a model reply into a command. Code fences and prose around
// the JSON are ignored by taking the outermost object. Anything that cannot
// become a command yields an error command.
func Parse(reply string) *command.Command {
	body, ok := outermostObject(reply)
	if !ok {
		return command.Errorf(nil, "Could not parse command")
	}

	var raw rawCommand
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return command.Errorf(err, "Invalid JSON response from AI")
	}
	if raw.Action == nil || strings.TrimSpace(*raw.Action) == "" {
		return command.Errorf(fmt.Errorf("missing required field: action"), "Invalid response structure: missing 'action'")
	}

	cmd := &command.Command{
		Action:      strings.TrimSpace(*raw.Action),
		Parameters:  objectOrEmpty(raw.Parameters),
		Description: raw.Description,
	}

	var steps []json.RawMessage
	if json.Unmarshal(raw.Steps, &steps) != nil {
		// null, missing or not a list
		steps = nil
	}
	for i, s := range steps {
		var st rawStep
		if err := json.Unmarshal(s, &st); err != nil || strings.TrimSpace(st.Action) == "" {
			return command.Errorf(fmt.Errorf("invalid step %d", i+1), "Step %d has invalid structure", i+1)
		}
		cmd.Steps = append(cmd.Steps, command.Step{
			Action:     strings.TrimSpace(st.Action),
			Parameters: objectOrEmpty(st.Parameters),
		})
	}
	return cmd
}

func objectOrEmpty(raw json.RawMessage) command.Params {
	var p command.Params
	if len(raw) == 0 || json.Unmarshal(raw, &p) != nil || p == nil {
		return command.Params{}
	}
	return p
}

// outermostObject returns the text between the first '{' and the last '}'.
func outermostObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
