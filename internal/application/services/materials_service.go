package services

import (
	"context"
	"log"
	"math"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
	apperrors "github.com/gestprev/backend/pkg/errors"
)

// ArticleView is one materials row ready for the grid: stock per branch and
// the discount-adjusted unit price
type ArticleView struct {
	ID              string  `json:"id"`
	Codice          string  `json:"codice"`
	CodiceNet       string  `json:"codice_net"`
	Descrizione     string  `json:"descrizione"`
	GiacenzaTorino  float64 `json:"giacenza_torino"`
	GiacenzaMilano  float64 `json:"giacenza_milano"`
	GiacenzaGenova  float64 `json:"giacenza_genova"`
	GiacenzaBologna float64 `json:"giacenza_bologna"`
	GiacenzaRoma    float64 `json:"giacenza_roma"`
	Importo         float64 `json:"importo"`
}

// MaterialsResult is the grid-protocol response for the materials search
type MaterialsResult struct {
	Draw            int           `json:"draw"`
	RecordsTotal    int64         `json:"recordsTotal"`
	RecordsFiltered int64         `json:"recordsFiltered"`
	Data            []ArticleView `json:"data"`
	Error           string        `json:"error,omitempty"`
}

// MaterialsService searches the warehouse inventory
type MaterialsService struct {
	repo *persistence.MaterialsRepository
}

// NewMaterialsService creates a new MaterialsService
func NewMaterialsService(repo *persistence.MaterialsRepository) *MaterialsService {
	return &MaterialsService{repo: repo}
}

// Search answers one materials grid request. Failures degrade to an empty
// result with the diagnostic in Error, like the services grid.
func (s *MaterialsService) Search(ctx context.Context, draw int, f persistence.ArticleFilter, sorts []persistence.ArticleSort, offset, limit int) MaterialsResult {
	total, err := s.repo.CountAll(ctx)
	if err != nil {
		log.Printf("materials search: total count failed: %v", err)
		return MaterialsResult{Draw: draw, Data: []ArticleView{}, Error: "Errore interno del server"}
	}

	filtered, err := s.repo.CountFiltered(ctx, f)
	if err != nil {
		log.Printf("materials search: filtered count failed: %v", err)
		return MaterialsResult{Draw: draw, Data: []ArticleView{}, Error: "Errore interno del server"}
	}

	articles, err := s.repo.Search(ctx, f, sorts, offset, limit)
	if err != nil {
		log.Printf("materials search: query failed: %v", err)
		return MaterialsResult{Draw: draw, Data: []ArticleView{}, Error: "Errore interno del server"}
	}

	return MaterialsResult{
		Draw:            draw,
		RecordsTotal:    total,
		RecordsFiltered: filtered,
		Data:            toViews(articles),
	}
}

// Export returns every article matching the filter, in sort order
func (s *MaterialsService) Export(ctx context.Context, f persistence.ArticleFilter, sorts []persistence.ArticleSort) ([]ArticleView, error) {
	articles, err := s.repo.Search(ctx, f, sorts, 0, -1)
	if err != nil {
		return nil, apperrors.NewInternalError("esportazione materiali", err)
	}
	return toViews(articles), nil
}

func toViews(articles []persistence.Article) []ArticleView {
	views := make([]ArticleView, 0, len(articles))
	for _, a := range articles {
		views = append(views, ArticleView{
			ID:              a.ID,
			Codice:          a.Codice,
			CodiceNet:       a.CodiceNet,
			Descrizione:     a.Descrizione,
			GiacenzaTorino:  a.GiacenzaTorino,
			GiacenzaMilano:  a.GiacenzaMilano,
			GiacenzaGenova:  a.GiacenzaGenova,
			GiacenzaBologna: a.GiacenzaBologna,
			GiacenzaRoma:    a.GiacenzaRoma,
			Importo:         netPrice(a.Importo, a.Sconto),
		})
	}
	return views
}

// netPrice applies the percentage discount and rounds to two decimals
func netPrice(importo, sconto float64) float64 {
	net := importo * (1 - sconto/100)
	return math.Round(net*100) / 100
}
