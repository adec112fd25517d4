package completion

import (
	"fmt"
	"strings"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/types"
)

// structuredToolName is the fixed name of the synthetic function that
// delivers the schema to function-calling providers.
const structuredToolName = "structured_response"

const structuredToolDescription = "Always respond by calling this function. " +
	"The arguments must conform to the parameters schema."

const jsonInstructionPrefix = "Respond only in JSON conforming to this schema: "

// composition is the provider-facing rendering of one option set: how the
// schema requirement travels (tools vs. instructions), the resolved system
// message, and the priming prefix. It is computed once per call and reused
// by every turn of the conversation, including heal round-trips.
type composition struct {
	systemMessage      string
	schemaInstructions string
	responsePrefix     string
	tools              []llm.ToolSchema
	toolChoice         string
}

// composeRequest renders opts for a provider with the given function-calling
// capability. A schema that is not object-shaped at the top level is a
// configuration error, raised here before any network call.
func composeRequest(opts Options, fcCapable bool) (*composition, error) {
	comp := &composition{systemMessage: resolvePrompt(opts.SystemMessage)}
	if opts.Schema == nil {
		return comp, nil
	}

	if !opts.Schema.IsObject() {
		return nil, types.NewError(types.ErrInvalidSchema,
			"structured-output schema must be object-shaped at the top level")
	}
	schemaJSON, err := opts.Schema.ToJSON()
	if err != nil {
		return nil, types.NewError(types.ErrInvalidSchema, "schema is not serializable").WithCause(err)
	}

	if fcCapable {
		comp.tools = []llm.ToolSchema{{
			Name:        structuredToolName,
			Description: structuredToolDescription,
			Parameters:  schemaJSON,
		}}
		comp.toolChoice = structuredToolName
		return comp, nil
	}

	// No native function calling: deliver the schema as a system-message
	// instruction and prime the reply toward an object starting with the
	// schema's first property.
	comp.schemaInstructions = string(schemaJSON)
	comp.responsePrefix = fmt.Sprintf(`{ %q: `, opts.Schema.FirstProperty())
	comp.systemMessage = strings.TrimSpace(
		jsonInstructionPrefix + comp.schemaInstructions + "\n\n" + comp.systemMessage)
	return comp, nil
}
