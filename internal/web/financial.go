package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/erazemk/resaledesk/internal/aggregate"
	"github.com/erazemk/resaledesk/internal/format"
	"github.com/erazemk/resaledesk/internal/model"
	"github.com/erazemk/resaledesk/internal/view"
)

// PageLink is one link in the financial table's pager.
type PageLink struct {
	Number  int
	URL     string
	Current bool
}

type financialPage struct {
	PageData
	Loaded    bool
	Rows      []model.FinancialRecord
	Filtered  int
	Totals    aggregate.Totals
	Daily     []Bar
	Start     string
	End       string
	PerPage   int
	PageSizes []int
	Pages     []PageLink
	Prev      string
	Next      string
}

// FinancialPage handles GET /financial. Query parameters: start and end
// (YYYY-MM-DD), per_page, and the one-based page.
func (s *Server) FinancialPage(w http.ResponseWriter, r *http.Request) {
	v := view.NewFinancial(s.backend(r))
	if err := v.SetPerPage(s.PageSize); err != nil {
		slog.Warn("ignoring configured page size", "page_size", s.PageSize, "error", err)
	}
	if err := v.Load(r.Context()); err != nil && s.needsLogin(w, r, err) {
		return
	}

	q := r.URL.Query()
	var notice *view.Notice
	start, errStart := parseDay(q.Get("start"))
	end, errEnd := parseDay(q.Get("end"))
	if errStart != nil || errEnd != nil {
		notice = &view.Notice{Level: view.NoticeError, Message: "Dates must look like 2006-01-02."}
	} else {
		_ = v.SetRange(start, end)
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil {
		if err := v.SetPerPage(n); err != nil {
			notice = &view.Notice{Level: view.NoticeError, Message: err.Error()}
		}
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		v.SetPage(p - 1)
	}

	if n := v.Notice(); n != nil {
		notice = n
	}

	rangeStart, rangeEnd := v.Range()
	page, perPage := v.Page()
	pageCount := v.PageCount()

	link := func(p int) string {
		values := url.Values{}
		if !rangeStart.IsZero() {
			values.Set("start", rangeStart.Format(aggregate.DateLayout))
		}
		if !rangeEnd.IsZero() {
			values.Set("end", rangeEnd.Format(aggregate.DateLayout))
		}
		values.Set("per_page", strconv.Itoa(perPage))
		values.Set("page", strconv.Itoa(p+1))
		return "/financial?" + values.Encode()
	}

	pages := make([]PageLink, 0, pageCount)
	for p := range pageCount {
		pages = append(pages, PageLink{Number: p + 1, URL: link(p), Current: p == page})
	}
	var prev, next string
	if page > 0 {
		prev = link(page - 1)
	}
	if page < pageCount-1 {
		next = link(page + 1)
	}

	data := &financialPage{
		PageData:  s.page(w, r, "Financial", "financial", notice),
		Loaded:    v.Loaded(),
		Rows:      v.Rows(),
		Filtered:  len(v.Filtered()),
		Totals:    v.Totals(),
		Daily:     chartBars(v.Daily(), format.Date),
		PerPage:   perPage,
		PageSizes: view.PageSizes,
		Pages:     pages,
		Prev:      prev,
		Next:      next,
	}
	if !rangeStart.IsZero() {
		data.Start = rangeStart.Format(aggregate.DateLayout)
	}
	if !rangeEnd.IsZero() {
		data.End = rangeEnd.Format(aggregate.DateLayout)
	}
	s.Templates.Render(w, "financial.html", data)
}

// FinancialDeleteSubmit handles POST /financial/{id}/delete.
func (s *Server) FinancialDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	v := view.NewFinancial(s.backend(r))
	if err := v.Delete(r.Context(), id); err == nil {
		slog.Info("financial record deleted", "transaction", id)
	} else if s.needsLogin(w, r, err) {
		return
	}
	redirectWithNotice(w, r, "/financial", v.Notice())
}

// parseDay parses an optional YYYY-MM-DD query value.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(aggregate.DateLayout, s)
}
