package reasoner

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planpilot/planpilot/pkg/models"
)

// Tool names form the reasoner's closed vocabulary. They mirror the
// operation names one to one so a directive maps straight onto the service
// client.
const (
	toolFetchState        = string(models.OpFetchState)
	toolAddTask           = string(models.OpAddTask)
	toolRecomputeSchedule = string(models.OpRecomputeSchedule)
)

// ToolDefinitions returns the scheduling tool schemas offered to the model.
func ToolDefinitions() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		{
			OfTool: &anthropic.ToolParam{
				Name:        toolFetchState,
				Description: anthropic.String("Fetch the current state of a project: all tasks with their dependencies and any computed schedule dates."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"project_id": map[string]interface{}{
							"type":        "string",
							"description": "Identifier of the project to read",
						},
					},
					Required: []string{"project_id"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        toolAddTask,
				Description: anthropic.String("Add a task to a project. Duration is in working days. Omit start to let the scheduler compute it from dependencies. Repeating this call creates duplicate tasks."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"project_id": map[string]interface{}{
							"type":        "string",
							"description": "Identifier of the project to add the task to",
						},
						"name": map[string]interface{}{
							"type":        "string",
							"description": "Task name, unique within the project",
						},
						"start": map[string]interface{}{
							"type":        "string",
							"description": "ISO-8601 start date (optional; omit to derive from dependencies)",
						},
						"duration": map[string]interface{}{
							"type":        "integer",
							"description": "Task length in working days (must be positive)",
						},
						"dependencies": map[string]interface{}{
							"type":        "array",
							"items":       map[string]interface{}{"type": "string"},
							"description": "Names of tasks that must end before this one starts",
						},
					},
					Required: []string{"project_id", "name", "duration"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        toolRecomputeSchedule,
				Description: anthropic.String("Recompute the project schedule. Returns the full project state with authoritative computed start and end dates. Run this after adding tasks."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"project_id": map[string]interface{}{
							"type":        "string",
							"description": "Identifier of the project to reschedule",
						},
					},
					Required: []string{"project_id"},
				},
			},
		},
	}
}
