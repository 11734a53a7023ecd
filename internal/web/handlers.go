package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/payrecon/internal/core"
	"github.com/JonMunkholm/payrecon/internal/loader"
	"github.com/JonMunkholm/payrecon/internal/logging"
	"github.com/JonMunkholm/payrecon/internal/web/templates"
)

// multipartMemory is the part of a multipart body kept in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

// recentRuns is the number of runs listed on the home page.
const recentRuns = 20

// ProfileSummary is the list view of a profile.
type ProfileSummary struct {
	Key         string `json:"key"`
	Group       string `json:"group,omitempty"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// ReconcileResponse is returned by POST /api/reconcile/{profileKey}.
type ReconcileResponse struct {
	RunID  string       `json:"runId"`
	URL    string       `json:"url"`
	Report *core.Report `json:"report"`
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, nil)
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, msg *core.UserMessage) {
	ctx := r.Context()

	byGroup := s.service.ListProfilesByGroup()
	var groups []templates.ProfileGroup
	for _, name := range core.Groups() {
		groups = append(groups, templates.ProfileGroup{Name: name, Profiles: byGroup[name]})
	}

	recent, err := s.service.ListRuns(ctx, recentRuns)
	if err != nil {
		logging.FromContext(ctx).Warn("list runs failed", "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err = templates.Index(templates.IndexParams{
		Groups:         groups,
		DefaultProfile: s.cfg.Reconcile.DefaultProfile,
		Recent:         recent,
		Accept:         strings.Join(loader.Extensions(), ","),
		Error:          msg,
	}).Render(ctx, w)
	if err != nil {
		logging.FromContext(ctx).Error("render index failed", "error", err)
	}
}

// handleReconcileForm runs a reconciliation from the HTML form and
// redirects to the report page.
func (s *Server) handleReconcileForm(w http.ResponseWriter, r *http.Request) {
	run, err := s.reconcileRequest(w, r, r.FormValue)
	if err != nil {
		logging.FromContext(r.Context()).Warn("reconcile form rejected", "error", err)
		msg := core.MapError(err)
		s.renderIndex(w, r, statusFor(err), &msg)
		return
	}
	http.Redirect(w, r, "/runs/"+run.ID.String(), http.StatusSeeOther)
}

func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.RunPage(run).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render run failed", "run_id", run.ID, "error", err)
	}
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.service.ListProfiles()
	out := make([]ProfileSummary, len(profiles))
	for i, p := range profiles {
		out[i] = ProfileSummary{Key: p.Key, Group: p.Group, Label: p.Label, Description: p.Description}
	}
	writeJSON(w, r, out)
}

// handleGetProfile returns a profile as JSON, or as its YAML document
// with ?format=yaml.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.service.GetProfile(chi.URLParam(r, "profileKey"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") != "yaml" {
		writeJSON(w, r, cfg)
		return
	}
	data, err := core.MarshalProfile(cfg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", cfg.Key+".yaml"))
	_, _ = w.Write(data)
}

// handleReconcile runs a reconciliation from a multipart upload with
// "timesheet" and "payroll" file parts.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	profileKey := chi.URLParam(r, "profileKey")
	run, err := s.reconcileRequest(w, r, func(string) string { return profileKey })
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSONStatus(w, r, http.StatusCreated, ReconcileResponse{
		RunID:  run.ID.String(),
		URL:    "/runs/" + run.ID.String(),
		Report: run.Report,
	})
}

// reconcileRequest reads both uploads and runs the reconciliation under the
// profile returned by profileOf("profile").
func (s *Server) reconcileRequest(w http.ResponseWriter, r *http.Request, profileOf func(string) string) (*core.Run, error) {
	maxFile := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, 2*maxFile+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body over %d bytes", loader.ErrTooLarge, tooLarge.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("timesheet: no file provided")
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	timesheet, err := readUpload(r, "timesheet", maxFile)
	if err != nil {
		return nil, err
	}
	payroll, err := readUpload(r, "payroll", maxFile)
	if err != nil {
		return nil, err
	}

	return s.service.Reconcile(r.Context(), profileOf("profile"), timesheet, payroll)
}

// readUpload returns the named file part. A missing part yields an upload
// without data, which the service reports as not provided.
func readUpload(r *http.Request, field string, maxSize int64) (core.Upload, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return core.Upload{Name: field}, nil
	}
	if err != nil {
		return core.Upload{}, fmt.Errorf("%s: %w", field, err)
	}
	defer f.Close()

	if hdr.Size > maxSize {
		return core.Upload{}, fmt.Errorf("%s: %w (%d bytes, max %d)", field, loader.ErrTooLarge, hdr.Size, maxSize)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return core.Upload{}, fmt.Errorf("%s: read upload: %w", field, err)
	}
	return core.Upload{Name: hdr.Filename, Data: data}, nil
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), parseIntParam(r, "limit", core.DefaultListLimit))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []core.RunSummary{}
	}
	writeJSON(w, r, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, run)
}
