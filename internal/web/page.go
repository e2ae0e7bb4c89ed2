package web

import (
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/jobs"
	"github.com/spigell/jobmatch/internal/service"
)

var templateFuncs = template.FuncMap{
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"join":    strings.Join,
	"date": func(r jobs.JobListing) string {
		if r.Source.PostedAt.IsZero() {
			return ""
		}
		return r.Source.PostedAt.Format("2006-01-02")
	},
}

type option struct {
	Value string
	Label string
}

var (
	employmentOptions = []option{
		{"", "Any type"}, {"fulltime", "Full-time"}, {"parttime", "Part-time"},
		{"contract", "Contract"}, {"intern", "Internship"},
	}
	datePostedOptions = []option{
		{"all", "Any time"}, {"today", "Today"}, {"3days", "Last 3 days"},
		{"week", "Last week"}, {"month", "Last month"},
	}
	experienceOptions = []option{
		{"", "Any experience"}, {"no_experience", "No experience"},
		{"under_3_years_experience", "Under 3 years"},
		{"more_than_3_years_experience", "More than 3 years"}, {"no_degree", "No degree"},
	}
)

type pageData struct {
	Resumes  []string
	Resume   string
	Results  *service.Results
	Statuses []jobs.Status
	Selected map[jobs.Status]bool
	Counts   map[jobs.Status]int
	Filters  []filtering.Status

	// Query is the current view encoded for redirects back to it.
	Query   string
	Message string
	Error   string

	EmploymentOptions []option
	DatePostedOptions []option
	ExperienceOptions []option
}

func (s *Server) index(c *gin.Context) {
	ctx := c.Request.Context()
	data := pageData{
		Statuses:          jobs.Statuses(),
		Selected:          map[jobs.Status]bool{},
		Message:           c.Query("msg"),
		Error:             c.Query("err"),
		Filters:           s.svc.Filters(),
		EmploymentOptions: employmentOptions,
		DatePostedOptions: datePostedOptions,
		ExperienceOptions: experienceOptions,
	}

	resumes, err := s.svc.Resumes()
	if err != nil {
		s.renderError(c, data, err)
		return
	}
	data.Resumes = resumes

	// An explicit empty resume selects the unscored view.
	if name, ok := c.GetQuery("resume"); ok {
		data.Resume = strings.TrimSpace(name)
	} else if len(resumes) > 0 {
		data.Resume = resumes[0]
	}

	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		data.Error = userMessage(err)
		statuses = nil
	}
	for _, st := range statuses {
		data.Selected[st] = true
	}
	data.Query = viewQuery(data.Resume, statuses)

	if data.Counts, err = s.svc.StatusCounts(ctx); err != nil {
		s.renderError(c, data, err)
		return
	}

	results, err := s.svc.Matches(ctx, data.Resume, statuses)
	if err != nil {
		s.renderError(c, data, err)
		return
	}
	data.Results = results

	c.HTML(http.StatusOK, "index.html", data)
}

// renderError shows the page with an error banner instead of a bare error response.
func (s *Server) renderError(c *gin.Context, data pageData, err error) {
	_ = c.Error(err)
	status, _ := classify(err)
	data.Error = userMessage(err)
	c.HTML(status, "index.html", data)
}

func (s *Server) fetchForm(c *gin.Context) {
	back := c.PostForm("return")

	var criteria jobs.SearchCriteria
	if err := c.ShouldBind(&criteria); err != nil {
		s.redirect(c, back, "", userMessage(fmt.Errorf("%w: %w", jobs.ErrInvalidCriteria, err)))
		return
	}

	res, err := s.svc.FetchAndStore(c.Request.Context(), criteria)
	if err != nil {
		_ = c.Error(err)
		s.redirect(c, back, "", userMessage(err))
		return
	}

	s.redirect(c, back, fmt.Sprintf("Fetched %d jobs, %d new.", res.Fetched, res.Inserted), "")
}

func (s *Server) statusForm(c *gin.Context) {
	back := c.PostForm("return")

	status, err := s.svc.UpdateStatus(c.Request.Context(), c.Param("id"), c.PostForm("status"))
	if err != nil {
		_ = c.Error(err)
		s.redirect(c, back, "", userMessage(err))
		return
	}

	s.redirect(c, back, fmt.Sprintf("Marked as %s.", status), "")
}

func (s *Server) uploadForm(c *gin.Context) {
	back := c.PostForm("return")

	fh, err := c.FormFile("file")
	if err != nil {
		s.redirect(c, back, "", userMessage(fmt.Errorf("%w: missing file", jobs.ErrInvalidResume)))
		return
	}

	file, err := fh.Open()
	if err != nil {
		_ = c.Error(err)
		s.redirect(c, back, "", userMessage(err))
		return
	}
	defer file.Close()

	name, err := s.svc.UploadResume(fh.Filename, file)
	if err != nil {
		_ = c.Error(err)
		s.redirect(c, back, "", userMessage(err))
		return
	}

	s.redirect(c, viewQuery(name, nil), fmt.Sprintf("Uploaded %s.", name), "")
}

// redirect sends the browser back to the page view encoded in back, adding a flash message.
func (s *Server) redirect(c *gin.Context, back, msg, errMsg string) {
	q, err := url.ParseQuery(back)
	if err != nil {
		q = url.Values{}
	}
	q.Del("msg")
	q.Del("err")
	if msg != "" {
		q.Set("msg", msg)
	}
	if errMsg != "" {
		q.Set("err", errMsg)
	}

	target := "/"
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusSeeOther, target)
}

func viewQuery(resumeName string, statuses []jobs.Status) string {
	q := url.Values{}
	q.Set("resume", resumeName)
	for _, st := range statuses {
		q.Add("status", string(st))
	}
	return q.Encode()
}
