package rest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/pkg/errors"
	"github.com/gestprev/backend/pkg/excel"
	"github.com/gestprev/backend/pkg/grid"
)

// GridHandler serves the service-management grid endpoints
type GridHandler struct {
	gridSvc *services.GridService
	authSvc *services.AuthService
}

// NewGridHandler creates a new GridHandler
func NewGridHandler(gridSvc *services.GridService, authSvc *services.AuthService) *GridHandler {
	return &GridHandler{gridSvc: gridSvc, authSvc: authSvc}
}

// RegisterRoutes registers the grid endpoints
func (h *GridHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/servizi/ge/data", h.Data)
	r.GET("/servizi/ge/export", h.Export)
	r.GET("/servizi/ge/columns", h.Columns)
	r.GET("/servizi/ge/months", h.Months)
	r.GET("/servizi/ge/unique_values", h.UniqueValues)
	r.POST("/servizi/ge/unique_values", h.UniqueValuesForListing)
	r.POST("/servizi/ge/update", h.Update)
}

// dataRequest is the grid protocol's request body: pagination window, one
// sort directive, global and per-column search terms, and the month filter
type dataRequest struct {
	Draw   int `json:"draw"`
	Start  int `json:"start"`
	Length int `json:"length"`
	Search struct {
		Value string `json:"value"`
	} `json:"search"`
	Order []struct {
		Column int    `json:"column"`
		Dir    string `json:"dir"`
	} `json:"order"`
	Columns []struct {
		Search grid.SearchTerm `json:"search"`
	} `json:"columns"`
	MonthFilter string `json:"month_filter"`
	RTCFilter   string `json:"rtc_filter"`
}

func (r dataRequest) toListing() services.ListingRequest {
	req := services.ListingRequest{
		Draw:         r.Draw,
		Start:        r.Start,
		Length:       r.Length,
		GlobalSearch: r.Search.Value,
		MonthFilter:  r.MonthFilter,
		RTCFilter:    r.RTCFilter,
	}
	if len(r.Order) > 0 {
		req.OrderColumn = r.Order[0].Column
		req.OrderDir = r.Order[0].Dir
	}
	for _, col := range r.Columns {
		req.ColumnSearches = append(req.ColumnSearches, col.Search)
	}
	return req
}

// Data answers one grid page request. A malformed body is a 400; everything
// past decoding soft-fails inside the 200 response.
func (h *GridHandler) Data(c *gin.Context) {
	var req dataRequest
	if !BindJSON(c, &req) {
		return
	}
	result := h.gridSvc.List(c.Request.Context(), req.toListing())
	c.JSON(http.StatusOK, result)
}

// Export streams the filtered rows as an xlsx attachment; no matching rows
// yields 204
func (h *GridHandler) Export(c *gin.Context) {
	rows, err := h.gridSvc.Export(c.Request.Context(),
		c.Query("month"), c.Query("global_search"), c.Query("column_filters"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if len(rows) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	workbook, err := excel.Workbook(rows, excel.DefaultOptions())
	if err != nil {
		RespondAppError(c, errors.NewInternalError("generazione excel", err))
		return
	}

	filename := fmt.Sprintf("gestione_servizi_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		// Headers are gone; nothing left to do but log
		RespondAppError(c, errors.NewInternalError("scrittura excel", err))
	}
}

// columnDescriptor describes one grid column for the client. Hidden columns
// stay in the list with Visible false so the grid keeps positional indices
// aligned with the catalog.
type columnDescriptor struct {
	Field   string `json:"field"`
	Title   string `json:"title"`
	Visible bool   `json:"visible"`
}

// Columns returns the column descriptors in table order; visibility comes
// from the caller role's permission overlay
func (h *GridHandler) Columns(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}

	catalog, err := h.gridSvc.Columns(c.Request.Context())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	hidden, err := h.authSvc.HiddenColumns(c.Request.Context(), user.RoleID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	descriptors := make([]columnDescriptor, 0, len(catalog))
	for _, col := range catalog {
		descriptors = append(descriptors, columnDescriptor{
			Field:   col,
			Title:   humanizeTitle(col),
			Visible: !hidden[col],
		})
	}
	c.JSON(http.StatusOK, descriptors)
}

// humanizeTitle turns a column identifier into a display title: underscores
// become spaces and each word is capitalized
func humanizeTitle(col string) string {
	words := strings.Fields(strings.ReplaceAll(col, "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// Months returns the month filter options, the all-months sentinel included
func (h *GridHandler) Months(c *gin.Context) {
	c.JSON(http.StatusOK, grid.Months)
}

// UniqueValues enumerates a column's possible values given the other active
// filters, passed as query parameters
func (h *GridHandler) UniqueValues(c *gin.Context) {
	values, err := h.gridSvc.DistinctValues(c.Request.Context(),
		c.Query("column"), c.Query("month"), c.Query("filters"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// uniqueValuesRequest is the grid-protocol variant of the distinct lookup:
// the listing request shape plus the target column
type uniqueValuesRequest struct {
	dataRequest
	Column string `json:"column"`
}

// UniqueValuesForListing answers the distinct lookup with filters in listing
// shape; the target column's own filter is excluded
func (h *GridHandler) UniqueValuesForListing(c *gin.Context) {
	var req uniqueValuesRequest
	if !BindJSON(c, &req) {
		return
	}

	values, err := h.gridSvc.DistinctValuesForListing(c.Request.Context(), req.Column, req.toListing())
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

// auditEntryView is one audit record on the wire
type auditEntryView struct {
	ID       int64   `json:"id"`
	Utente   string  `json:"utente"`
	CampoOld *string `json:"campo_old"`
	CampoNew *string `json:"campo_new"`
	Data     string  `json:"data"`
	PK       string  `json:"id_tabella"`
	Colonna  string  `json:"colonna"`
}

// AuditTrail returns the most recent cell changes, newest first. The route
// is administrator-gated.
func (h *GridHandler) AuditTrail(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.gridSvc.AuditTrail(c.Request.Context(), limit)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	views := make([]auditEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, auditEntryView{
			ID:       e.ID,
			Utente:   e.Utente,
			CampoOld: e.CampoOld,
			CampoNew: e.CampoNew,
			Data:     e.Data.Format("2006-01-02 15:04:05"),
			PK:       e.IDTabella,
			Colonna:  e.Colonna,
		})
	}
	c.JSON(http.StatusOK, views)
}

// updateRequest is one audited cell edit. PK arrives as any JSON scalar
// (clients send numbers as well as strings) and is stringified before the
// presence check.
type updateRequest struct {
	PK    interface{} `json:"pk"`
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// scalarToString renders a JSON scalar as its key form; nil and missing
// values become the empty string so the service rejects them
func scalarToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Update performs one audited cell edit as the session user
func (h *GridHandler) Update(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondAppError(c, errors.NewUnauthorizedError("sessione mancante"))
		return
	}

	var req updateRequest
	if !BindJSON(c, &req) {
		return
	}

	err := h.gridSvc.Update(c.Request.Context(), scalarToString(req.PK), req.Field, req.Value, user.Login)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Record aggiornato con successo",
	})
}
