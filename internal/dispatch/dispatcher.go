// Package dispatch drives one asynchronous tool invocation: synchronous
// input validation, multipart payload assembly, the transport call, and
// funneling the outcome back into the state store.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pmarinho/analisador-fiscal/internal/api"
	"github.com/pmarinho/analisador-fiscal/internal/files"
	"github.com/pmarinho/analisador-fiscal/internal/model"
	"github.com/pmarinho/analisador-fiscal/internal/registry"
	"github.com/pmarinho/analisador-fiscal/internal/state"
)

// Fixed user-facing messages. Validation failures are surfaced inline
// and never logged; transport failures are both surfaced and logged.
const (
	MsgAnalysisInputsMissing   = "Por favor, selecione o arquivo SPED e ao menos um arquivo XML."
	MsgConversionInputsMissing = "Por favor, selecione os dois arquivos antes de converter."
	MsgGenericFailure          = "Ocorreu um erro ao processar os arquivos. Tente novamente."
)

// ErrValidation marks a precondition failure caught before any network
// activity.
var ErrValidation = errors.New("required inputs missing")

// Transport executes one multipart request against the remote service.
type Transport interface {
	PostMultipart(ctx context.Context, path string, parts []api.FilePart, fields map[string]string) (*api.Response, error)
}

// ConvertOutput is the opaque payload a conversion tool returns, handed
// off to the exporter's blob path.
type ConvertOutput struct {
	Data   []byte
	Header http.Header
}

// Dispatcher runs tool invocations against the store.
type Dispatcher struct {
	store     *state.Store
	transport Transport
}

// NewDispatcher wires the store and transport together.
func NewDispatcher(store *state.Store, transport Transport) *Dispatcher {
	return &Dispatcher{store: store, transport: transport}
}

// RunAnalysis executes one analysis invocation for key. Preconditions
// are checked synchronously: the single SPED slot and the non-empty XML
// slot must both be populated, otherwise the state moves straight to
// Error with a fixed message and nothing reaches the transport. A new
// invocation always fully replaces any prior results or error message.
func (d *Dispatcher) RunAnalysis(ctx context.Context, key model.ToolKey) error {
	tool, err := registry.Lookup(key)
	if err != nil {
		return err
	}
	if tool.Kind != registry.KindAnalysis {
		return fmt.Errorf("tool %s is not an analysis tool", key)
	}

	singleSlot := tool.SingleSlots()[0]
	multiSlot, _ := tool.MultiSlot()

	snap := d.store.Get(key)
	single := snap.Inputs[singleSlot.Name].Single
	multi := snap.Inputs[multiSlot.Name].Multi
	if single == nil || len(multi) == 0 {
		d.store.Update(key, state.Patch{
			Status:       state.Status(model.StatusError),
			ErrorMessage: state.Message(MsgAnalysisInputsMissing),
		})
		return fmt.Errorf("%w: %s", ErrValidation, key)
	}

	d.begin(key)
	defer d.settle(key)

	parts := make([]api.FilePart, 0, 1+len(multi))
	parts = append(parts, api.FilePart{
		Field:    singleSlot.Name,
		Filename: files.EnsureFilename(*single, singleSlot.Role, 0),
		Path:     single.Path,
	})
	for i, h := range multi {
		parts = append(parts, api.FilePart{
			Field:    multiSlot.Name,
			Filename: files.EnsureFilename(h, multiSlot.Role, i),
			Path:     h.Path,
		})
	}

	resp, err := d.transport.PostMultipart(ctx, tool.Endpoint, parts, d.fields(tool, snap))
	if err != nil {
		d.fail(key, err)
		return err
	}

	var decoded struct {
		Data []model.ResultRecord `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		err = fmt.Errorf("failed to decode analysis response: %w", err)
		d.fail(key, err)
		return err
	}

	d.store.Update(key, state.Patch{
		Status:       state.Status(model.StatusSuccess),
		Results:      state.Results(decoded.Data),
		ErrorMessage: state.Message(""),
	})
	return nil
}

// RunConversion executes one conversion invocation for key. Both single
// file slots must be populated. On success the server's opaque payload
// and headers are returned for the exporter; the tool state only tracks
// Loading bookkeeping and error capture, never results.
func (d *Dispatcher) RunConversion(ctx context.Context, key model.ToolKey) (*ConvertOutput, error) {
	tool, err := registry.Lookup(key)
	if err != nil {
		return nil, err
	}
	if tool.Kind != registry.KindConversion {
		return nil, fmt.Errorf("tool %s is not a conversion tool", key)
	}

	snap := d.store.Get(key)
	parts := make([]api.FilePart, 0, len(tool.Slots))
	for i, slot := range tool.SingleSlots() {
		h := snap.Inputs[slot.Name].Single
		if h == nil {
			d.store.Update(key, state.Patch{
				Status:       state.Status(model.StatusError),
				ErrorMessage: state.Message(MsgConversionInputsMissing),
			})
			return nil, fmt.Errorf("%w: %s", ErrValidation, key)
		}
		parts = append(parts, api.FilePart{
			Field:    slot.Name,
			Filename: files.EnsureFilename(*h, slot.Role, i),
			Path:     h.Path,
		})
	}

	d.begin(key)
	defer d.settle(key)

	resp, err := d.transport.PostMultipart(ctx, tool.Endpoint, parts, d.fields(tool, snap))
	if err != nil {
		d.fail(key, err)
		return nil, err
	}

	d.store.Update(key, state.Patch{
		Status:       state.Status(model.StatusIdle),
		ErrorMessage: state.Message(""),
	})
	return &ConvertOutput{Data: resp.Body, Header: resp.Header}, nil
}

// begin moves the tool into Loading and discards any prior outcome.
func (d *Dispatcher) begin(key model.ToolKey) {
	d.store.Update(key, state.Patch{
		Status:       state.Status(model.StatusLoading),
		Results:      state.Results(nil),
		ErrorMessage: state.Message(""),
	})
}

// settle guarantees Loading is released even on a path that set no
// terminal state. It runs after every exit.
func (d *Dispatcher) settle(key model.ToolKey) {
	d.store.UpdateFunc(key, func(prev model.ToolState) state.Patch {
		if prev.Status != model.StatusLoading {
			return state.Patch{}
		}
		return state.Patch{
			Status:       state.Status(model.StatusError),
			ErrorMessage: state.Message(MsgGenericFailure),
		}
	})
}

// fail records a transport failure, preferring the server-supplied
// message when the error body was structured.
func (d *Dispatcher) fail(key model.ToolKey, err error) {
	slog.Error("tool invocation failed", "tool", key, "error", err)
	d.store.Update(key, state.Patch{
		Status:       state.Status(model.StatusError),
		ErrorMessage: state.Message(UserMessage(err)),
	})
}

// fields collects the tool's declared parameters that hold a value.
func (d *Dispatcher) fields(tool registry.Tool, snap model.ToolState) map[string]string {
	fields := make(map[string]string)
	for _, name := range tool.ParameterFields {
		if value := snap.Parameters[name]; value != "" {
			fields[name] = value
		}
	}
	return fields
}

// UserMessage maps a transport error to the text shown to the user.
func UserMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return MsgGenericFailure
}
