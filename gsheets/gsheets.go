// Package gsheets reads tables from and writes results back to Google Sheets.
package gsheets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/vivaneiona/tabextract"
	"github.com/vivaneiona/tabextract/export"
	"github.com/vivaneiona/tabextract/source"
)

// Scopes are the OAuth scopes needed to read and write spreadsheets.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

var (
	ErrInvalidURL    = errors.New("invalid Google Sheets URL")
	ErrSheetNotFound = errors.New("sheet not found")
)

var (
	sheetURLPattern = regexp.MustCompile(`^https://docs\.google\.com/spreadsheets/d/[a-zA-Z0-9-_]+(/edit#gid=[0-9]+)?$`)
	idPattern       = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidPattern      = regexp.MustCompile(`[#?&]gid=([0-9]+)`)
)

// ValidateSheetURL reports whether url is a spreadsheet link, optionally
// pointing at one tab with #gid=N.
func ValidateSheetURL(url string) bool {
	return sheetURLPattern.MatchString(strings.TrimSpace(url))
}

// SpreadsheetID extracts the spreadsheet ID and, when present, the tab gid.
func SpreadsheetID(url string) (id string, gid int64, hasGID bool, err error) {
	m := idPattern.FindStringSubmatch(url)
	if m == nil {
		return "", 0, false, errors.Wrap(ErrInvalidURL, url)
	}
	id = m[1]
	if g := gidPattern.FindStringSubmatch(url); g != nil {
		gid, err = strconv.ParseInt(g[1], 10, 64)
		if err != nil {
			return "", 0, false, errors.Wrapf(ErrInvalidURL, "gid %q", g[1])
		}
		hasGID = true
	}
	return id, gid, hasGID, nil
}

// Client wraps the Sheets API.
type Client struct {
	svc *sheets.Service
	log *slog.Logger
}

// NewClient creates a Sheets client. Typical options are
// option.WithCredentialsFile and option.WithScopes(Scopes...).
func NewClient(ctx context.Context, log *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{svc: svc, log: log}, nil
}

// sheetTitle resolves the tab a URL refers to: the gid when given,
// otherwise the first tab.
func (c *Client) sheetTitle(ctx context.Context, url string) (string, string, error) {
	id, gid, hasGID, err := SpreadsheetID(url)
	if err != nil {
		return "", "", err
	}
	ss, err := c.svc.Spreadsheets.Get(id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", "", errors.Wrapf(err, "get spreadsheet %s", id)
	}
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		if !hasGID || s.Properties.SheetId == gid {
			return id, s.Properties.Title, nil
		}
	}
	return "", "", errors.Wrapf(ErrSheetNotFound, "spreadsheet %s gid %d", id, gid)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// Read loads a tab as a table. The first row is the header.
func (c *Client) Read(ctx context.Context, url string) (*source.Table, error) {
	id, title, err := c.sheetTitle(ctx, url)
	if err != nil {
		return nil, err
	}
	vr, err := c.svc.Spreadsheets.Values.Get(id, quoteTitle(title)).Context(ctx).Do()
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", title)
	}
	if len(vr.Values) == 0 {
		return nil, source.ErrEmptyTable
	}

	records := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = tabextract.Stringify(v)
		}
		records[i] = cells
	}
	t := source.FromRecords(records[0], records[1:])
	c.log.Info("Read sheet", "spreadsheet", id, "sheet", title, "rows", t.Len())
	return t, nil
}

// Write replaces the tab's content with the records under export.Header.
func (c *Client) Write(ctx context.Context, url string, records []tabextract.Record) error {
	id, title, err := c.sheetTitle(ctx, url)
	if err != nil {
		return err
	}
	rng := quoteTitle(title)
	if _, err := c.svc.Spreadsheets.Values.Clear(id, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return errors.Wrapf(err, "clear %s", title)
	}

	values := make([][]any, 0, len(records)+1)
	header := make([]any, len(export.Header))
	for i, h := range export.Header {
		header[i] = h
	}
	values = append(values, header)
	for _, row := range export.Rows(records) {
		values = append(values, []any{row[0], row[1]})
	}

	_, err = c.svc.Spreadsheets.Values.Update(id, fmt.Sprintf("%s!A1", rng), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "update %s", title)
	}
	c.log.Info("Wrote sheet", "spreadsheet", id, "sheet", title, "rows", len(records))
	return nil
}
