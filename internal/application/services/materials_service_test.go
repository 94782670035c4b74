package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gestprev/backend/internal/infrastructure/persistence"
)

func TestNetPrice(t *testing.T) {
	assert.Equal(t, 90.0, netPrice(100, 10))
	assert.Equal(t, 100.0, netPrice(100, 0))
	assert.Equal(t, 33.33, netPrice(49.99, 33.33), "rounded to two decimals")
	assert.Equal(t, 0.0, netPrice(0, 50))
}

func TestToViewsAppliesDiscount(t *testing.T) {
	views := toViews([]persistence.Article{
		{ID: "a", Codice: "K1", Importo: 200, Sconto: 25},
	})

	assert.Len(t, views, 1)
	assert.Equal(t, 150.0, views[0].Importo)
	assert.Equal(t, "K1", views[0].Codice)
}
