package server

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Response headers set on a successful /convert.
const (
	HeaderConversionTime = "X-Conversion-Time-Ms"
	HeaderTasks          = "X-Tasks-Count"
	HeaderResources      = "X-Resources-Count"
	HeaderCalendars      = "X-Calendars-Count"
	HeaderSourceFormat   = "X-Source-Format"
	HeaderAdvisories     = "X-Advisory-Count"
	HeaderContentType    = "X-Detected-Content-Type"
	HeaderConversionID   = "X-Conversion-Id"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "healthy", Service: serviceName, Version: s.version})
}

func (s *Server) handleConvert(c *gin.Context) {
	up, closeUpload, err := s.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeUpload()

	out, err := s.svc.Convert(c.Request.Context(), up)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.OutputFilename}))
	c.Header(HeaderConversionTime, strconv.FormatInt(out.Stats.ElapsedMillis, 10))
	c.Header(HeaderTasks, strconv.Itoa(out.Stats.TaskCount))
	c.Header(HeaderResources, strconv.Itoa(out.Stats.ResourceCount))
	c.Header(HeaderCalendars, strconv.Itoa(out.Stats.CalendarCount))
	c.Header(HeaderSourceFormat, string(out.Format))
	c.Header(HeaderAdvisories, strconv.Itoa(len(out.Notes)))
	c.Header(HeaderContentType, out.ContentType)
	if out.RecordID != "" {
		c.Header(HeaderConversionID, out.RecordID)
	}
	c.Data(http.StatusOK, "application/xml", out.XML)
}

func (s *Server) handleInfo(c *gin.Context) {
	up, closeUpload, err := s.readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeUpload()

	info, err := s.svc.Inspect(c.Request.Context(), up)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, infoResponse{
		Name:        info.Name,
		Format:      string(info.Format),
		StartDate:   info.StartDate,
		FinishDate:  info.FinishDate,
		Stats:       info.Stats,
		Notes:       notesJSON(info.Notes),
		Tasks:       info.Tasks,
		ContentType: info.ContentType,
		InputBytes:  info.InputBytes,
	})
}

func (s *Server) handleListConversions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(c, &requestError{status: http.StatusBadRequest, body: errorBody{
				Stage: stageHistory, Kind: kindInvalidRequest, Message: "limit must be a non-negative integer",
			}})
			return
		}
		limit = n
	}

	records, err := s.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := conversionListResponse{Conversions: make([]conversionJSON, 0, len(records))}
	for _, r := range records {
		resp.Conversions = append(resp.Conversions, toConversionJSON(r))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetConversion(c *gin.Context) {
	entry, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conversionDetailResponse{
		Conversion: toConversionJSON(entry.Record),
		Notes:      notesJSON(entry.Notes),
	})
}
