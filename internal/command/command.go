// Package command decodes and applies the structured actions a mentor
// persona attaches to its replies.
package command

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/abhisek/aimentor/internal/llm"
)

// Command names understood by the executor.
const (
	RegisterStudent         = "register_student"
	LoginStudent            = "login_student"
	SwitchToNextExpert      = "switch_to_next_expert"
	UpdateStudentBackground = "update_student_background"
	ChangeEduContent        = "change_edu_content"
	ApproveTopic            = "approve_topic"
	ApproveBlock            = "approve_block"
	ApproveChapter          = "approve_chapter"
)

// Command is one action requested by the model. Params stay untyped until
// the executor decodes them for the command's kind.
type Command struct {
	Name        string         `json:"name" jsonschema:"minLength=1,description=Command identifier"`
	Params      map[string]any `json:"params" jsonschema:"description=Command arguments"`
	Description string         `json:"description,omitempty" jsonschema:"description=Human readable explanation of the action"`
}

var (
	schemaOnce sync.Once
	schema     *llm.Schema
	schemaJSON string
)

// Schema returns the JSON Schema of a single command entry.
func Schema() *llm.Schema {
	loadSchema()
	return schema
}

// SchemaJSON returns the indented command entry schema for embedding in
// prompts.
func SchemaJSON() string {
	loadSchema()
	return schemaJSON
}

func loadSchema() {
	schemaOnce.Do(func() {
		r := jsonschema.Reflector{
			AllowAdditionalProperties: false,
			DoNotReference:            true,
		}
		s := r.Reflect(&Command{})

		raw, err := json.Marshal(s)
		if err != nil {
			panic("command: marshal schema: " + err.Error())
		}
		var def map[string]any
		if err := json.Unmarshal(raw, &def); err != nil {
			panic("command: decode schema: " + err.Error())
		}
		delete(def, "$id")

		pretty, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			panic("command: indent schema: " + err.Error())
		}

		schema = &llm.Schema{
			Name:        "command-entry",
			Description: "A single command attached to a mentor reply",
			Definition:  def,
		}
		schemaJSON = string(pretty)
	})
}
