package presenter

import (
	"time"

	"github.com/soocke/print-prep-go/ui/model"
)

// StatsView displays backend request counters.
type StatsView interface {
	SetStats(model.Stats)
}

// StatsPresenter pushes request statistics from the model to the view.
type StatsPresenter struct {
	stats *model.StatsModel
	view  StatsView
	last  model.Stats
}

// NewStatsPresenter returns a new StatsPresenter.
func NewStatsPresenter(stats *model.StatsModel, view StatsView) *StatsPresenter {
	return &StatsPresenter{stats: stats, view: view}
}

// Tick pushes the values to the view when they changed.
func (p *StatsPresenter) Tick(now time.Time) {
	if p == nil || p.stats == nil || p.view == nil {
		return
	}
	s := p.stats.Values()
	if s == p.last {
		return
	}
	p.last = s
	p.view.SetStats(s)
}
