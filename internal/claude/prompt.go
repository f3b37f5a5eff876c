package claude

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"text/template"
)

const defaultPromptTemplate = `You are an expert manufacturing engineer. Given the work elements of an assembly line, infer the precedence relations between them.

Rules:
- Only add a relation when there is a strong physical reason (task B cannot start until task A is complete).
- Prefer fewer relations. Do not add transitive or speculative ones.
- Keep the predecessors already listed; only add missing ones.
- Do not create cycles.
- Only use task ids from the provided list.
- A task cannot precede itself.

Return your answer as JSON with this exact structure:
{
  "edges": [
    {"task_id": "<task that waits>", "predecessor_id": "<task that must be done first>", "reason": "<short explanation>"}
  ],
  "summary": "<one paragraph summary of the precedence structure>"
}

Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.

There are {{len .Tasks}} tasks with a total work content of {{.TotalWork}}:
{{.TasksJSON}}
`

// PromptData holds the data used to render the inference prompt.
type PromptData struct {
	Tasks     []TaskSummary
	TasksJSON string
	TotalWork int
}

// RenderPrompt renders the inference prompt for tasks using either a custom
// template file or the default.
func RenderPrompt(tasks []TaskSummary, templatePath string) (string, error) {
	tmplStr := defaultPromptTemplate
	if templatePath != "" {
		content, err := os.ReadFile(templatePath)
		if err != nil {
			return "", fmt.Errorf("read prompt template: %w", err)
		}
		tmplStr = string(content)
	}

	tmpl, err := template.New("prompt").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal tasks: %w", err)
	}

	pd := PromptData{Tasks: tasks, TasksJSON: string(data)}
	for _, t := range tasks {
		pd.TotalWork += t.Duration
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, pd); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
