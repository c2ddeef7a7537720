package application

import "github.com/bnema/arthas-cli/internal/domain"

type resultAggregator struct {
	records       []domain.ResultRecord
	lastHadMarker bool
}

func newResultAggregator() *resultAggregator {
	return &resultAggregator{records: []domain.ResultRecord{}}
}

// Add appends the whole batch, records after a terminal marker included.
func (a *resultAggregator) Add(batch domain.PollBatch) bool {
	a.records = append(a.records, batch...)
	a.lastHadMarker = batch.HasTerminalMarker()
	return a.lastHadMarker
}

func (a *resultAggregator) Count() int {
	return len(a.records)
}

func (a *resultAggregator) Completed() bool {
	return a.lastHadMarker
}

func (a *resultAggregator) Results() []domain.ResultRecord {
	out := make([]domain.ResultRecord, len(a.records))
	copy(out, a.records)
	return out
}
