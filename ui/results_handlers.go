package ui

import (
	"bytes"
	"net/http"
	"os"

	"grouprank/adapters/excel"
	"grouprank/domain/submission"
	apperrors "grouprank/internal/errors"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleSubmitGroup(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, apperrors.InvalidPayload("Invalid payload"))
		return
	}

	single, err := submission.DecodeSingle(body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if user, ok := s.sessionUser(c); ok {
		single.UserID = user
	}

	if err := s.container.Aggregator.SubmitGroup(c.Request.Context(), single); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleSubmitAll(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		s.respondError(c, apperrors.InvalidPayload("results must be a list"))
		return
	}

	userID, records, err := submission.DecodeBatch(body)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if userID == "" {
		userID, _ = s.sessionUser(c)
	}

	savedTo, err := s.container.Aggregator.SubmitAll(c.Request.Context(), userID, records)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "saved_to": savedTo})
}

func (s *Server) handleExportResults(c *gin.Context) {
	s.sendResultFile(c, s.container.Aggregator.FlatLogPath(), "results.csv", "text/csv")
}

func (s *Server) handleExportResultsJSON(c *gin.Context) {
	s.sendResultFile(c, s.container.Aggregator.ResultsPath(), "results.json", "application/json")
}

func (s *Server) sendResultFile(c *gin.Context, path, filename, contentType string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results file found"})
		return
	}
	c.Header("Content-Type", contentType)
	c.FileAttachment(path, filename)
}

func (s *Server) handleExportResultsXLSX(c *gin.Context) {
	agg := s.container.Aggregator

	rows, rowsErr := agg.ReadFlatLog()
	results, resultsErr := agg.ReadResults()
	if apperrors.Is(rowsErr, apperrors.CodeFileNotFound) && apperrors.Is(resultsErr, apperrors.CodeFileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No results file found"})
		return
	}
	for _, err := range []error{rowsErr, resultsErr} {
		if err != nil && !apperrors.Is(err, apperrors.CodeFileNotFound) {
			s.respondError(c, err)
			return
		}
	}

	var buf bytes.Buffer
	if _, err := excel.NewWriter(rows, results).WriteTo(&buf); err != nil {
		s.respondError(c, apperrors.IOFailure("failed to build workbook", err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="results.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
