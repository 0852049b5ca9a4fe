package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/export"
	"github.com/vivaneiona/tabextract/gsheets"
	"github.com/vivaneiona/tabextract/history"
	"github.com/vivaneiona/tabextract/source"
)

const (
	workspaceKey = "workspace"
	previewRows  = 5
)

var (
	errNoTable       = errors.New("no table loaded")
	errNoResults     = errors.New("no results yet, run the extraction first")
	errNoSheets      = errors.New("google sheets is not configured")
	errUnknownColumn = errors.New("unknown column")
)

func (s *Server) loadWorkspace(c *gin.Context) {
	ws, ok := s.store.Get(c.Param("id"))
	if !ok {
		abort(c, http.StatusNotFound, fmt.Errorf("session %q not found", c.Param("id")))
		return
	}
	c.Set(workspaceKey, ws)
	c.Next()
}

func workspace(c *gin.Context) *Workspace {
	return c.MustGet(workspaceKey).(*Workspace)
}

type tableView struct {
	Columns []string         `json:"columns"`
	Rows    int              `json:"rows"`
	Preview []map[string]any `json:"preview"`
}

func viewTable(t *source.Table) *tableView {
	if t == nil {
		return nil
	}
	head := t.Head(previewRows)
	preview := make([]map[string]any, len(head))
	for i, r := range head {
		preview[i] = r.Map()
	}
	return &tableView{Columns: t.Columns, Rows: t.Len(), Preview: preview}
}

func (s *Server) createSession(c *gin.Context) {
	ws := s.store.Create()
	c.JSON(http.StatusCreated, ws.Session)
}

func (s *Server) getSession(c *gin.Context) {
	ws := workspace(c)
	ws.mu.Lock()
	defer ws.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"session": ws.Session,
		"table":   viewTable(ws.Table),
		"results": len(ws.Records),
	})
}

func (s *Server) deleteSession(c *gin.Context) {
	s.store.Delete(c.Param("id"))
	c.Status(http.StatusNoContent)
}

type sheetRequest struct {
	SheetURL string `json:"sheetUrl" binding:"required"`
}

func (s *Server) uploadTable(c *gin.Context) {
	ws := workspace(c)

	var (
		tbl *source.Table
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		tbl, err = readUpload(c)
		if err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
	} else {
		var req sheetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		if !gsheets.ValidateSheetURL(req.SheetURL) {
			abort(c, http.StatusBadRequest, gsheets.ErrInvalidURL)
			return
		}
		if s.opts.Sheets == nil {
			abort(c, http.StatusNotImplemented, errNoSheets)
			return
		}
		tbl, err = s.opts.Sheets.Read(c.Request.Context(), req.SheetURL)
		if err != nil {
			abort(c, http.StatusBadGateway, err)
			return
		}
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.Table = tbl
	ws.Records = nil
	ws.Session.SelectEntities(keepKnown(ws.Session.EntityColumns, tbl.Columns)...)
	c.JSON(http.StatusOK, viewTable(tbl))
}

func readUpload(c *gin.Context) (*source.Table, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return source.Load(fh.Filename, data)
}

func keepKnown(cols, known []string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if slices.Contains(known, c) {
			out = append(out, c)
		}
	}
	return out
}

type selectionRequest struct {
	EntityColumns []string              `json:"entityColumns"`
	Fields        []string              `json:"fields"`
	CustomFields  []string              `json:"customFields"`
	Mode          tabextract.PromptMode `json:"mode"`
	CustomPrompt  string                `json:"customPrompt"`
	// Preset renders a named preset into the custom prompt.
	Preset string `json:"preset"`
}

func (s *Server) updateSelection(c *gin.Context) {
	ws := workspace(c)
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()
	sess := ws.Session

	if req.EntityColumns != nil {
		if ws.Table != nil {
			for _, col := range req.EntityColumns {
				if !slices.Contains(ws.Table.Columns, col) {
					abort(c, http.StatusBadRequest, fmt.Errorf("%w: %q", errUnknownColumn, col))
					return
				}
			}
		}
		sess.SelectEntities(req.EntityColumns...)
	}
	if req.Fields != nil {
		sess.SelectFields(req.Fields...)
	}
	for _, f := range req.CustomFields {
		sess.AddCustomField(f)
	}

	switch {
	case req.Preset != "":
		if s.opts.Prompts == nil {
			abort(c, http.StatusNotImplemented, errors.New("no prompt presets configured"))
			return
		}
		tpl, err := s.opts.Prompts.Get(req.Preset, tabextract.SelectionVars(sess.Fields, sess.EntityColumns))
		if err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		sess.UseCustomPrompt(tpl)
	case req.Mode == tabextract.PromptCustom:
		sess.UseCustomPrompt(req.CustomPrompt)
	case req.Mode == tabextract.PromptGenerated:
		sess.UseGeneratedPrompt()
	case req.Mode != "":
		abort(c, http.StatusBadRequest, fmt.Errorf("unknown prompt mode %q", req.Mode))
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) getPrompt(c *gin.Context) {
	ws := workspace(c)
	ws.mu.Lock()
	defer ws.mu.Unlock()

	prompt := ws.Session.Prompt()
	resp := gin.H{
		"prompt":       prompt,
		"placeholders": tabextract.Placeholders(prompt),
	}
	if ws.Table != nil {
		resp["missing"] = tabextract.Missing(prompt, ws.Session.EntityColumns)
		resp["preview"] = tabextract.Preview(ws.Table.Select(ws.Session.EntityColumns...).Head(3), prompt)
	}
	if err := ws.Session.Validate(); err != nil {
		resp["error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) run(c *gin.Context) {
	ws := workspace(c)
	ws.mu.Lock()
	if ws.Table == nil {
		ws.mu.Unlock()
		abort(c, http.StatusConflict, errNoTable)
		return
	}
	if err := ws.Session.Validate(); err != nil {
		ws.mu.Unlock()
		abort(c, http.StatusBadRequest, err)
		return
	}
	tpl := ws.Session.Prompt()
	primary := ws.Session.PrimaryColumn()
	rows := ws.Table.Select(ws.Session.EntityColumns...).Rows
	sessionID := ws.Session.ID
	ws.mu.Unlock()

	// the batch runs unlocked so the session stays readable meanwhile
	started := time.Now()
	results := s.opts.Extractor.RunBatch(c.Request.Context(), rows, tpl)
	records := tabextract.Records(rows, primary, results)

	run := history.NewRun(sessionID, tpl, started, records)
	if err := s.opts.History.SaveRun(c.Request.Context(), run); err != nil {
		zap.S().Warnf("save run %s: %v", run.ID, err)
	}

	ws.mu.Lock()
	ws.Session.Record(run.ID, tpl, results)
	ws.Records = records
	ws.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"runId":   run.ID,
		"summary": tabextract.Summarize(results),
		"records": records,
	})
}

func (s *Server) export(c *gin.Context) {
	ws := workspace(c)
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.CSV)))
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	ws.mu.Lock()
	records := ws.Records
	ws.mu.Unlock()
	if len(records) == 0 {
		abort(c, http.StatusConflict, errNoResults)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, records); err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(format.FileName()))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) writeSheet(c *gin.Context) {
	ws := workspace(c)
	var req sheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if !gsheets.ValidateSheetURL(req.SheetURL) {
		abort(c, http.StatusBadRequest, gsheets.ErrInvalidURL)
		return
	}
	if s.opts.Sheets == nil {
		abort(c, http.StatusNotImplemented, errNoSheets)
		return
	}

	ws.mu.Lock()
	records := ws.Records
	ws.mu.Unlock()
	if len(records) == 0 {
		abort(c, http.StatusConflict, errNoResults)
		return
	}
	if err := s.opts.Sheets.Write(c.Request.Context(), req.SheetURL, records); err != nil {
		abort(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": len(records)})
}

type templateView struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

func (s *Server) listTemplates(c *gin.Context) {
	var out []templateView
	if s.opts.Prompts != nil {
		for _, name := range s.opts.Prompts.Names() {
			src, _ := s.opts.Prompts.Source(name)
			out = append(out, templateView{Name: name, Template: src})
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"templates":      out,
		"fields":         tabextract.DefaultFields,
		"selectedFields": tabextract.DefaultSelectedFields,
		"customPrompt":   tabextract.DefaultCustomPrompt,
	})
}

func (s *Server) listHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		abort(c, http.StatusBadRequest, fmt.Errorf("limit: %w", err))
		return
	}
	runs, err := s.opts.History.ListRuns(c.Request.Context(), limit)
	if err != nil {
		abort(c, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
