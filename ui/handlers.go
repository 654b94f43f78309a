package ui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"difcregistry/domain/core"
	"difcregistry/domain/registry"
	"difcregistry/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Artifact file names, matching what the register's public site exports.
const (
	Step1FileName = "Step1_DIFC_Companies.xlsx"
	Step2FileName = "Step2_DIFC_Details.xlsx"
)

type indexData struct {
	CompanyTypes []string
	MinCount     int
	MaxCount     int
	DefaultCount int
	Recent       []Run
	History      []ports.RunRecord
	Error        string
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		CompanyTypes: registry.CompanyTypes,
		MinCount:     MinTargetCount,
		MaxCount:     MaxTargetCount,
		DefaultCount: 200,
		Recent:       a.runs.Recent(),
		Error:        r.URL.Query().Get("error"),
	}

	if a.history != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		history, err := a.history.ListRuns(ctx, 10)
		if err != nil {
			a.logger.Warn("failed to load run history: %v", err)
		} else {
			data.History = history
		}
	}

	a.render(w, "index.html", data)
}

func (a *App) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	count, err := strconv.Atoi(r.FormValue("count"))
	if err != nil {
		a.redirectWithError(w, r, "record count must be a number")
		return
	}
	companyType := r.FormValue("company_type")
	if !registry.ValidCompanyType(companyType) {
		a.redirectWithError(w, r, fmt.Sprintf("unknown company type %q", companyType))
		return
	}

	runID, err := a.runs.Start(count, companyType)
	if err != nil {
		a.redirectWithError(w, r, err.Error())
		return
	}

	http.Redirect(w, r, "/runs/"+runID.String(), http.StatusSeeOther)
}

func (a *App) redirectWithError(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (a *App) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.render(w, "run.html", run)
}

func (a *App) handleStep1Download(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.serveWorkbook(w, run.Step1, Step1FileName)
}

func (a *App) handleStep2Download(w http.ResponseWriter, r *http.Request) {
	run, ok := a.lookupRun(w, r)
	if !ok {
		return
	}
	a.serveWorkbook(w, run.Step2, Step2FileName)
}

func (a *App) lookupRun(w http.ResponseWriter, r *http.Request) (Run, bool) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "run id required", http.StatusBadRequest)
		return Run{}, false
	}
	run, ok := a.runs.Get(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return Run{}, false
	}
	return run, true
}

func (a *App) serveWorkbook(w http.ResponseWriter, blob []byte, filename string) {
	if len(blob) == 0 {
		http.Error(w, "workbook not ready", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob)))
	w.Write(blob)
}
