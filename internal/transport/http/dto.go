package http

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/strogmv/apiblocks/internal/pkg/errors"
)

var validate = validator.New()

// WorkspaceRequest carries a workspace to compile or run. For JSON the
// workspace may be inlined as an object; YAML and CUE sources are strings.
type WorkspaceRequest struct {
	Workspace json.RawMessage `json:"workspace" validate:"required"`
	Format    string          `json:"format" validate:"omitempty,oneof=json yaml yml cue"`
	Name      string          `json:"name" validate:"max=200"`
}

// Source returns the workspace bytes and their format.
func (req WorkspaceRequest) Source() ([]byte, string, error) {
	format := req.Format
	if format == "" {
		format = "json"
	}
	var text string
	if err := json.Unmarshal(req.Workspace, &text); err == nil {
		return []byte(text), format, nil
	}
	if format != "json" {
		return nil, "", stderrors.New(format + " workspaces must be sent as a string")
	}
	return req.Workspace, format, nil
}

type CompileResponse struct {
	Hash         string          `json:"hash"`
	Name         string          `json:"name"`
	Instructions int             `json:"instructions"`
	Listing      string          `json:"listing"`
	Program      json.RawMessage `json:"program"`
}

type ArchiveResponse struct {
	Links map[string]string `json:"links"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	// Breakers maps each called host to its circuit state.
	Breakers map[string]string `json:"breakers,omitempty"`
}

func decodeJSONRequest(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New(http.StatusBadRequest, "Bad Request", "request body required")
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return errors.New(http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
		}
		return errors.Wrap(http.StatusBadRequest, "Bad Request", err)
	}
	if len(body) == 0 {
		return errors.New(http.StatusBadRequest, "Bad Request", "request body required")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(http.StatusBadRequest, "Bad Request", err)
	}
	if err := validate.Struct(out); err != nil {
		return errors.Wrap(http.StatusBadRequest, "Validation Failed", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
