package action

import (
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"orgpilot/internal/domain"
)

// dataShape describes the schema of one action kind's data object.
type dataShape struct {
	required []string
	optional []string
	// minProps forces at least one property when nothing is required.
	minProps int
}

var stageEnum = []string{
	string(domain.StagePlanning),
	string(domain.StageExecution),
	string(domain.StageDelivery),
}

// dataShapes is the closed action vocabulary. Every kind listed here is
// recognized; everything else is a schema violation.
var dataShapes = map[domain.ActionKind]dataShape{
	domain.ActionNoAction: {},

	domain.ActionUpdateOrganization: {
		optional: []string{"name", "description", "website"},
		minProps: 1,
	},

	domain.ActionCreatePillar: {required: []string{"name", "description"}},
	domain.ActionUpdatePillar: {required: []string{"name"}, optional: []string{"newName", "description"}},
	domain.ActionDeletePillar: {required: []string{"name"}},

	domain.ActionCreateArea: {required: []string{"name", "description"}},
	domain.ActionUpdateArea: {required: []string{"name"}, optional: []string{"newName", "description"}},
	domain.ActionDeleteArea: {required: []string{"name"}},

	domain.ActionCreateKPI: {required: []string{"name", "description"}},
	domain.ActionUpdateKPI: {required: []string{"name"}, optional: []string{"newName", "description"}},
	domain.ActionDeleteKPI: {required: []string{"name"}},

	domain.ActionCreateTask: {required: []string{"name", "description"}},
	domain.ActionUpdateTask: {required: []string{"name"}, optional: []string{"newName", "description"}},
	domain.ActionDeleteTask: {required: []string{"name"}},

	domain.ActionCreateProcess: {required: []string{"name", "description", "stage"}},
	domain.ActionUpdateProcess: {required: []string{"name"}, optional: []string{"newName", "description", "stage"}},
	domain.ActionDeleteProcess: {required: []string{"name"}},
}

// buildSchemaSource renders the JSON Schema document for one kind's data
// object. All properties are strings except stage, which is a closed enum.
// additionalProperties is always false: unknown fields fail validation.
func buildSchemaSource(s dataShape) string {
	props := make([]string, 0, len(s.required)+len(s.optional))
	for _, name := range append(append([]string{}, s.required...), s.optional...) {
		if name == "stage" {
			props = append(props, fmt.Sprintf(`%q:{"type":"string","enum":[%q,%q,%q]}`,
				name, stageEnum[0], stageEnum[1], stageEnum[2]))
			continue
		}
		props = append(props, fmt.Sprintf(`%q:{"type":"string","minLength":1}`, name))
	}

	var b strings.Builder
	b.WriteString(`{"type":"object","properties":{`)
	b.WriteString(strings.Join(props, ","))
	b.WriteString(`},"additionalProperties":false`)
	if len(s.required) > 0 {
		quoted := make([]string, len(s.required))
		for i, name := range s.required {
			quoted[i] = fmt.Sprintf("%q", name)
		}
		b.WriteString(`,"required":[` + strings.Join(quoted, ",") + `]`)
	}
	if s.minProps > 0 {
		b.WriteString(fmt.Sprintf(`,"minProperties":%d`, s.minProps))
	}
	b.WriteString(`}`)
	return b.String()
}

// dataSchemas holds the compiled schema per action kind, built once at load.
var dataSchemas = func() map[domain.ActionKind]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	out := make(map[domain.ActionKind]*jsonschema.Schema, len(dataShapes))
	for kind, shape := range dataShapes {
		schema, err := compiler.Compile([]byte(buildSchemaSource(shape)))
		if err != nil {
			panic(fmt.Sprintf("action: compiling schema for %s: %v", kind, err))
		}
		out[kind] = schema
	}
	return out
}()

// validateData checks a decoded data object against the kind's schema.
func validateData(kind domain.ActionKind, data any) error {
	schema, ok := dataSchemas[kind]
	if !ok {
		return domain.NewDomainError("action.validateData", domain.ErrSchemaViolation,
			fmt.Sprintf("unknown action kind %q", kind))
	}
	result := schema.Validate(data)
	if !result.IsValid() {
		return domain.NewDomainError("action.validateData", domain.ErrSchemaViolation,
			fmt.Sprintf("%s", result.Error()))
	}
	return nil
}
