package agent

import (
	"context"
	"fmt"
	"strings"
)

// TodoItem is one entry in a todowrite call.
type TodoItem struct {
	ID      string `json:"id" validate:"required"`
	Content string `json:"content" validate:"required"`
	Status  string `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// TodoWriteArgs are the todowrite tool's arguments.
type TodoWriteArgs struct {
	Todos []TodoItem `json:"todos" validate:"required,min=1,dive"`
}

// checkTodos enforces the constraints the schema cannot express: unique
// identifiers and at most one in-progress item.
func checkTodos(todos []TodoItem) error {
	seen := make(map[string]bool, len(todos))
	inProgress := 0
	for _, todo := range todos {
		if seen[todo.ID] {
			return fmt.Errorf("duplicate todo id %q", todo.ID)
		}
		seen[todo.ID] = true
		if todo.Status == "in_progress" {
			inProgress++
		}
	}
	if inProgress > 1 {
		return fmt.Errorf("only one todo may be in_progress at a time, found %d", inProgress)
	}
	return nil
}

// NewTodoWriteTool builds the todowrite tool. Each call replaces the whole
// list; the rendered list echoed back is the only persistence, so the tool
// is read-only for approval purposes.
func NewTodoWriteTool() Tool {
	return Tool{
		Name: "todowrite",
		Description: "Replace the task list used to plan and track multi-step work. " +
			"Provide the full list each time; at most one item may be in_progress.",
		Effect: EffectReadOnly,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"todos": map[string]interface{}{
					"type":        "array",
					"description": "The complete task list",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"id":      map[string]interface{}{"type": "string"},
							"content": map[string]interface{}{"type": "string"},
							"status": map[string]interface{}{
								"type": "string",
								"enum": []string{"pending", "in_progress", "completed"},
							},
						},
						"required": []string{"id", "content", "status"},
					},
				},
			},
			"required": []string{"todos"},
		},
		NewArgs: func() any { return &TodoWriteArgs{} },
		Run: func(_ context.Context, args any, _ Environment) (string, error) {
			a := args.(*TodoWriteArgs)
			if err := checkTodos(a.Todos); err != nil {
				return "", err
			}
			var sb strings.Builder
			sb.WriteString("Todo list updated:\n")
			for _, todo := range a.Todos {
				marker := "[ ]"
				switch todo.Status {
				case "in_progress":
					marker = "[~]"
				case "completed":
					marker = "[x]"
				}
				fmt.Fprintf(&sb, "%s %s\n", marker, todo.Content)
			}
			return sb.String(), nil
		},
	}
}
