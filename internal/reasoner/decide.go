package reasoner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/planpilot/planpilot/pkg/models"
)

// ErrContractViolation marks reasoner output that does not fit the decision
// contract: an out-of-vocabulary tool name or arguments that fail strict
// decoding. The orchestration loop treats it as recoverable.
var ErrContractViolation = errors.New("reasoner contract violation")

const systemPrompt = `You are a project-scheduling assistant operating a remote scheduler on the user's behalf.

You have exactly three tools: fetch_state reads a project, add_task creates one task, recompute_schedule recalculates all dates and returns the authoritative schedule. The scheduler owns all date math and rejects dependency cycles; you decide which operation to run next based on what you have observed so far.

Rules:
- Issue at most one tool call per reply.
- Fetch the project state before referencing existing tasks you have not observed.
- After adding tasks, run recompute_schedule so computed dates are authoritative.
- Tool failures come back as observations; correct your arguments and retry rather than giving up.
- When the request is satisfied (or genuinely cannot be), reply with plain text and no tool call. That text is the final answer returned to the user.`

// Decide invokes the model with the request and the full trace so far and
// parses the reply into a Decision. Each call is stateless: the conversation
// is rebuilt from the trace.
func (c *Client) Decide(ctx context.Context, request string, trace models.Trace) (*models.Decision, error) {
	resp, err := c.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: buildMessages(request, trace),
		Tools:    ToolDefinitions(),
	})
	if err != nil {
		return nil, fmt.Errorf("reasoner call failed: %w", err)
	}

	c.tracker.Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	return parseDecision(resp)
}

// parseDecision maps a model reply onto the closed decision variant: a reply
// with a tool call is an action directive, a text-only reply is the final
// answer. Only the first tool call counts; directives execute one at a time.
func parseDecision(resp *anthropic.Message) (*models.Decision, error) {
	var thought string
	var action *models.Action

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			thought += variant.Text

		case anthropic.ToolUseBlock:
			if action != nil {
				continue
			}
			parsed, err := parseAction(variant.Name, variant.ID, variant.Input)
			if err != nil {
				return nil, err
			}
			action = parsed
		}
	}

	if action != nil {
		return &models.Decision{Thought: thought, Action: action}, nil
	}
	if thought == "" {
		return nil, fmt.Errorf("%w: reply contained neither a tool call nor text", ErrContractViolation)
	}
	return &models.Decision{Thought: thought, Final: &models.FinalAnswer{Text: thought}}, nil
}

// parseAction strictly decodes a tool call into a typed directive. Unknown
// tool names and unknown or missing fields are contract violations.
func parseAction(name, toolUseID string, input json.RawMessage) (*models.Action, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.DisallowUnknownFields()

	switch name {
	case toolFetchState:
		var args struct {
			ProjectID string `json:"project_id"`
		}
		if err := dec.Decode(&args); err != nil {
			return nil, fmt.Errorf("%w: %s arguments: %v", ErrContractViolation, name, err)
		}
		return &models.Action{Op: models.OpFetchState, ToolUseID: toolUseID, ProjectID: args.ProjectID}, nil

	case toolAddTask:
		var args struct {
			ProjectID    string   `json:"project_id"`
			Name         string   `json:"name"`
			Start        string   `json:"start"`
			Duration     int      `json:"duration"`
			Dependencies []string `json:"dependencies"`
		}
		if err := dec.Decode(&args); err != nil {
			return nil, fmt.Errorf("%w: %s arguments: %v", ErrContractViolation, name, err)
		}
		return &models.Action{
			Op:        models.OpAddTask,
			ToolUseID: toolUseID,
			ProjectID: args.ProjectID,
			Task: &models.TaskRecord{
				Name:         args.Name,
				Start:        args.Start,
				Duration:     args.Duration,
				Dependencies: args.Dependencies,
			},
		}, nil

	case toolRecomputeSchedule:
		var args struct {
			ProjectID string `json:"project_id"`
		}
		if err := dec.Decode(&args); err != nil {
			return nil, fmt.Errorf("%w: %s arguments: %v", ErrContractViolation, name, err)
		}
		return &models.Action{Op: models.OpRecomputeSchedule, ToolUseID: toolUseID, ProjectID: args.ProjectID}, nil

	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrContractViolation, name)
	}
}

// buildMessages reconstructs the conversation from the trace. Acted steps
// replay as an assistant tool call paired with its tool result; decide-phase
// failures replay as a plain-text correction so the model can recover.
func buildMessages(request string, trace models.Trace) []anthropic.MessageParam {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(request)),
	}

	for _, step := range trace {
		if step.Action == nil {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(
				"Your previous reply was not a usable directive: %s\nReply with exactly one tool call, or with plain text to finish.",
				step.Observation.Content))))
			continue
		}

		var blocks []anthropic.ContentBlockParamUnion
		if step.Thought != "" {
			blocks = append(blocks, anthropic.NewTextBlock(step.Thought))
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(step.Action.ToolUseID, actionInput(*step.Action), string(step.Action.Op)))

		messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		messages = append(messages, anthropic.NewUserMessage(
			anthropic.NewToolResultBlock(step.Action.ToolUseID, step.Observation.Content, step.Observation.IsError)))
	}

	return messages
}

// actionInput re-marshals a directive into its wire argument shape for
// conversation replay.
func actionInput(a models.Action) json.RawMessage {
	args := map[string]interface{}{"project_id": a.ProjectID}
	if a.Op == models.OpAddTask && a.Task != nil {
		args["name"] = a.Task.Name
		args["duration"] = a.Task.Duration
		if a.Task.Start != "" {
			args["start"] = a.Task.Start
		}
		if len(a.Task.Dependencies) > 0 {
			args["dependencies"] = a.Task.Dependencies
		}
	}
	raw, _ := json.Marshal(args)
	return raw
}
