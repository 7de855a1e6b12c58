// Package action interprets agent replies: it extracts ~~~json fenced
// blocks, validates them against the closed action vocabulary, and returns
// the clean user-facing message alongside the surviving actions.
package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"orgpilot/internal/domain"
)

// fenceRe matches one ~~~json fenced block, non-greedy so adjacent blocks
// stay separate.
var fenceRe = regexp.MustCompile(`(?s)~~~json\s*(.*?)\s*~~~`)

// stripRe removes fenced blocks plus trailing whitespace for the clean
// message.
var stripRe = regexp.MustCompile(`(?s)~~~json.*?~~~\s*`)

// envelope is the wire form of one action block.
type envelope struct {
	Action domain.ActionKind `json:"action"`
	Data   json.RawMessage   `json:"data"`
}

// Result is the interpreted form of one raw agent reply.
type Result struct {
	// Message is the reply with every fenced block removed and the
	// remainder trimmed.
	Message string
	// Actions are the blocks that passed validation, in reply order.
	// no_action blocks are recognized but never included.
	Actions []domain.Action
	// Diagnostics records every dropped block, in reply order.
	Diagnostics []domain.Diagnostic
}

// Interpreter parses agent replies. The zero value is not usable; call
// NewInterpreter.
type Interpreter struct {
	logger  *slog.Logger
	lenient bool
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for dropped-block warnings.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithLenient tolerates unknown data fields instead of dropping the block.
// The action kind must still be known and the typed requirements still hold.
func WithLenient(lenient bool) Option {
	return func(i *Interpreter) { i.lenient = lenient }
}

// NewInterpreter builds an Interpreter. By default it is strict: any block
// that is not valid JSON or does not match a known action shape is dropped
// with a diagnostic, never applied.
func NewInterpreter(opts ...Option) *Interpreter {
	i := &Interpreter{logger: slog.Default()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Interpret splits raw into the clean message and the validated actions.
// It never fails: malformed or invalid blocks become diagnostics and the
// rest of the reply is still used.
func (i *Interpreter) Interpret(raw string) Result {
	res := Result{
		Message: strings.TrimSpace(stripRe.ReplaceAllString(raw, "")),
	}

	matches := fenceRe.FindAllStringSubmatch(raw, -1)
	for idx, m := range matches {
		block := m[1]
		act, err := i.parseBlock(block)
		if err != nil {
			diag := domain.Diagnostic{
				Kind:       diagnosticKind(err),
				BlockIndex: idx,
				Detail:     err.Error(),
				Raw:        block,
			}
			res.Diagnostics = append(res.Diagnostics, diag)
			i.logger.Warn("dropping action block",
				"block_index", idx,
				"reason", string(diag.Kind),
				"detail", diag.Detail)
			continue
		}
		if act.Kind == domain.ActionNoAction {
			continue
		}
		res.Actions = append(res.Actions, act)
	}

	return res
}

// parseBlock decodes and validates a single fenced block.
func (i *Interpreter) parseBlock(block string) (domain.Action, error) {
	var env envelope
	dec := json.NewDecoder(strings.NewReader(block))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrMalformedAction, err.Error())
	}
	if dec.More() {
		return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrMalformedAction, "trailing content after action object")
	}
	if env.Action == "" {
		return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrSchemaViolation, "missing action field")
	}
	if _, known := dataShapes[env.Action]; !known {
		return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrSchemaViolation, fmt.Sprintf("unknown action kind %q", env.Action))
	}

	// An absent or null data object is treated as empty.
	rawData := env.Data
	if len(rawData) == 0 || string(rawData) == "null" {
		rawData = json.RawMessage(`{}`)
	}

	if !i.lenient {
		var generic any
		if err := json.Unmarshal(rawData, &generic); err != nil {
			return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
				domain.ErrMalformedAction, err.Error())
		}
		if err := validateData(env.Action, generic); err != nil {
			return domain.Action{}, err
		}
	}

	var data domain.ActionData
	ddec := json.NewDecoder(bytes.NewReader(rawData))
	if !i.lenient {
		ddec.DisallowUnknownFields()
	}
	if err := ddec.Decode(&data); err != nil {
		return domain.Action{}, domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrSchemaViolation, err.Error())
	}

	act := domain.Action{Kind: env.Action, Data: data}
	if i.lenient {
		if err := lenientValidate(act); err != nil {
			return domain.Action{}, err
		}
		return act, nil
	}
	if err := act.Validate(); err != nil {
		return domain.Action{}, err
	}
	return act, nil
}

// lenientValidate keeps only the requirements the apply step cannot work
// without: a name to resolve or create with, and a defined stage when one
// is given. Missing descriptions and unknown extra fields are tolerated.
func lenientValidate(act domain.Action) error {
	switch act.Kind {
	case domain.ActionNoAction, domain.ActionUpdateOrganization:
	default:
		if act.Data.Name == nil || *act.Data.Name == "" {
			return domain.NewDomainError("Interpreter.parseBlock",
				domain.ErrSchemaViolation,
				fmt.Sprintf("%s requires a non-empty data.name", act.Kind))
		}
	}
	if act.Data.Stage != nil && !act.Data.Stage.Valid() {
		return domain.NewDomainError("Interpreter.parseBlock",
			domain.ErrSchemaViolation,
			fmt.Sprintf("unknown process stage %q", *act.Data.Stage))
	}
	return nil
}

// diagnosticKind maps a parse error to its diagnostic class.
func diagnosticKind(err error) domain.DiagnosticKind {
	if domain.ErrorCodeOf(err) == domain.CodeMalformedAction {
		return domain.DiagMalformedAction
	}
	return domain.DiagSchemaViolation
}
