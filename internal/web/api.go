package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spigell/jobmatch/internal/jobs"
)

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

func (s *Server) listResumes(c *gin.Context) {
	names, err := s.svc.Resumes()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumes": names})
}

func (s *Server) listJobs(c *gin.Context) {
	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.svc.Matches(c.Request.Context(), c.Query("resume"), statuses)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.svc.Job(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %w", jobs.ErrInvalidStatus, err))
		return
	}

	status, err := s.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func (s *Server) fetch(c *gin.Context) {
	var criteria jobs.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		writeError(c, fmt.Errorf("%w: %w", jobs.ErrInvalidCriteria, err))
		return
	}

	res, err := s.svc.FetchAndStore(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filters": s.svc.Filters()})
}

// parseStatuses accepts repeated values and comma separated lists.
func parseStatuses(raw []string) ([]jobs.Status, error) {
	var out []jobs.Status
	seen := map[jobs.Status]bool{}
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := jobs.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			if !seen[st] {
				seen[st] = true
				out = append(out, st)
			}
		}
	}
	return out, nil
}
