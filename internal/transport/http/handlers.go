package http

import (
	stderrors "errors"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/strogmv/apiblocks/compiler"
	"github.com/strogmv/apiblocks/compiler/ir"
	"github.com/strogmv/apiblocks/internal/pkg/errors"
	"github.com/strogmv/apiblocks/internal/port"
	"github.com/strogmv/apiblocks/internal/service"
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: compiler.Version}
	if s.opts.Breakers != nil {
		resp.Breakers = map[string]string{}
		for host, state := range s.opts.Breakers() {
			resp.Breakers[host] = state.String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listBlocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.runner.Registry().Shapes())
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	data, format, err := req.Source()
	if err != nil {
		errors.WriteError(w, r, errors.Wrap(http.StatusBadRequest, "Bad Request", err))
		return
	}
	res, err := s.runner.Compile(r.Context(), data, format, req.Name)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, CompileResponse{
		Hash:         res.Hash,
		Name:         res.Program.Name,
		Instructions: res.Program.Len(),
		Listing:      ir.Format(res.Program),
		Program:      res.Canonical,
	})
}

func (s *Server) getProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.runner.Program(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) exportProgram(w http.ResponseWriter, r *http.Request) {
	src, err := s.runner.ExportGo(r.Context(), chi.URLParam(r, "hash"))
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	w.Header().Set("Content-Type", "text/x-go; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="main.go"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(src)
}

func (s *Server) runProgram(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.RunStored(r.Context(), chi.URLParam(r, "hash"), service.RunOptions{})
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) listProgramRuns(w http.ResponseWriter, r *http.Request) {
	_, limit := paging(r)
	runs, err := s.runner.ListByProgram(r.Context(), chi.URLParam(r, "hash"), limit)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) runWorkspace(w http.ResponseWriter, r *http.Request) {
	var req WorkspaceRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	data, format, err := req.Source()
	if err != nil {
		errors.WriteError(w, r, errors.Wrap(http.StatusBadRequest, "Bad Request", err))
		return
	}
	run, err := s.runner.RunWorkspace(r.Context(), data, format, req.Name, service.RunOptions{})
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusCreated, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	offset, limit := paging(r)
	runs, err := s.runner.List(r.Context(), offset, limit)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runner.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id, format := chi.URLParam(r, "id"), chi.URLParam(r, "format")
	if format != service.FormatPDF && format != service.FormatXLSX {
		errors.WriteError(w, r, errors.New(http.StatusBadRequest, "Bad Request", "format must be pdf or xlsx"))
		return
	}
	data, contentType, err := s.runner.Report(r.Context(), id, format)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="run-`+id+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) archive(w http.ResponseWriter, r *http.Request) {
	links, err := s.runner.Archive(r.Context(), chi.URLParam(r, "id"), s.opts.ArchiveTTL)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	writeJSON(w, http.StatusOK, ArchiveResponse{Links: links})
}

// getFile serves an archived report from the configured storage, so the
// links of a local archive resolve against this server.
func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	rc, contentType, err := s.runner.File(r.Context(), key)
	if err != nil {
		errors.WriteError(w, r, mapError(err))
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.WarnContext(r.Context(), "stream archived file", "key", key, "error", err)
	}
}

func paging(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	offset, _ = strconv.Atoi(q.Get("offset"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return offset, limit
}

// mapError turns service and compiler errors into problems.
func mapError(err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	var ce *compiler.ContractError
	if stderrors.As(err, &ce) {
		status := http.StatusUnprocessableEntity
		if ce.Stage == compiler.StageWorkspace {
			status = http.StatusBadRequest
		}
		p := errors.Wrap(status, "Compilation Failed", err).WithCode(ce.Code).With("stage", string(ce.Stage))
		var issues *compiler.IssuesError
		if stderrors.As(err, &issues) {
			p.With("issues", issues.Issues)
		}
		return p
	}
	switch {
	case stderrors.Is(err, port.ErrNotFound):
		return errors.Wrap(http.StatusNotFound, "Not Found", err)
	case stderrors.Is(err, service.ErrNoStorage):
		return errors.Wrap(http.StatusNotImplemented, "Not Implemented", err)
	}
	return err
}
