package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gestprev/backend/internal/application/services"
	"github.com/gestprev/backend/internal/infrastructure/persistence"
	"github.com/gestprev/backend/pkg/errors"
	"github.com/gestprev/backend/pkg/excel"
	"github.com/gestprev/backend/pkg/grid"
)

// MaterialsHandler serves the warehouse inventory search
type MaterialsHandler struct {
	materialsSvc *services.MaterialsService
}

// NewMaterialsHandler creates a new MaterialsHandler
func NewMaterialsHandler(materialsSvc *services.MaterialsService) *MaterialsHandler {
	return &MaterialsHandler{materialsSvc: materialsSvc}
}

// materialsSearchRequest is the materials grid request: pagination, the
// fixed filter fields and positional sort directives
type materialsSearchRequest struct {
	Draw        int    `json:"draw"`
	Start       int    `json:"start"`
	Length      int    `json:"length"`
	Codice      string `json:"codice"`
	CodiceNet   string `json:"codicenet"`
	Descrizione string `json:"descrizione"`
	Year        string `json:"year"`
	Order       []struct {
		Column int    `json:"column"`
		Dir    string `json:"dir"`
	} `json:"order"`
}

func (r materialsSearchRequest) filter() persistence.ArticleFilter {
	return persistence.ArticleFilter{
		Codice:      r.Codice,
		CodiceNet:   r.CodiceNet,
		Descrizione: r.Descrizione,
		Year:        r.Year,
	}
}

func (r materialsSearchRequest) sorts() []persistence.ArticleSort {
	sorts := make([]persistence.ArticleSort, 0, len(r.Order))
	for _, o := range r.Order {
		sorts = append(sorts, persistence.ArticleSort{Column: o.Column, Dir: o.Dir})
	}
	return sorts
}

// Search answers one materials grid request
func (h *MaterialsHandler) Search(c *gin.Context) {
	var req materialsSearchRequest
	if !BindJSON(c, &req) {
		return
	}

	result := h.materialsSvc.Search(c.Request.Context(), req.Draw,
		req.filter(), req.sorts(), req.Start, req.Length)
	c.JSON(http.StatusOK, result)
}

// Export streams the filtered articles as an xlsx attachment
func (h *MaterialsHandler) Export(c *gin.Context) {
	filter := persistence.ArticleFilter{
		Codice:      c.Query("codice"),
		CodiceNet:   c.Query("codicenet"),
		Descrizione: c.Query("descrizione"),
		Year:        c.Query("year"),
	}

	views, err := h.materialsSvc.Export(c.Request.Context(), filter, nil)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	if len(views) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	workbook, err := excel.Workbook(articleRows(views), excel.DefaultOptions())
	if err != nil {
		RespondAppError(c, errors.NewInternalError("generazione excel", err))
		return
	}

	filename := fmt.Sprintf("materiali_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		RespondAppError(c, errors.NewInternalError("scrittura excel", err))
	}
}

var articleColumns = []string{
	"Codice", "Codice NET", "Descrizione",
	"Giacenza Torino", "Giacenza Milano", "Giacenza Genova",
	"Giacenza Bologna", "Giacenza Roma", "Importo",
}

func articleRows(views []services.ArticleView) []grid.Row {
	rows := make([]grid.Row, 0, len(views))
	for _, v := range views {
		rows = append(rows, grid.NewRow(articleColumns, map[string]interface{}{
			"Codice":           v.Codice,
			"Codice NET":       v.CodiceNet,
			"Descrizione":      v.Descrizione,
			"Giacenza Torino":  v.GiacenzaTorino,
			"Giacenza Milano":  v.GiacenzaMilano,
			"Giacenza Genova":  v.GiacenzaGenova,
			"Giacenza Bologna": v.GiacenzaBologna,
			"Giacenza Roma":    v.GiacenzaRoma,
			"Importo":          v.Importo,
		}))
	}
	return rows
}
