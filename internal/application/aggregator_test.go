package application

import (
	"encoding/json"
	"testing"

	"github.com/bnema/arthas-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBatch(t *testing.T, raw string) domain.PollBatch {
	t.Helper()

	var batch domain.PollBatch
	require.NoError(t, json.Unmarshal([]byte(raw), &batch))
	return batch
}

func TestResultAggregatorKeepsArrivalOrder(t *testing.T) {
	aggregate := newResultAggregator()

	assert.False(t, aggregate.Add(decodeBatch(t, `[{"type":"watch","value":1}]`)))
	assert.False(t, aggregate.Completed())
	assert.True(t, aggregate.Add(decodeBatch(t, `[{"type":"watch","value":2},{"type":"status","statusCode":0}]`)))
	assert.True(t, aggregate.Completed())

	results := aggregate.Results()
	require.Len(t, results, 3)
	assert.Equal(t, 3, aggregate.Count())
	assert.JSONEq(t, `{"type":"watch","value":1}`, string(results[0].Raw()))
	assert.JSONEq(t, `{"type":"watch","value":2}`, string(results[1].Raw()))
	assert.True(t, results[2].IsTerminal())
}

func TestResultAggregatorRetainsRecordsAfterMarker(t *testing.T) {
	aggregate := newResultAggregator()

	completed := aggregate.Add(decodeBatch(t, `[{"type":"status","statusCode":0},{"type":"watch","late":true}]`))

	assert.True(t, completed)
	assert.Equal(t, 2, aggregate.Count())
}

func TestResultAggregatorNonZeroStatusIsNotTerminal(t *testing.T) {
	aggregate := newResultAggregator()

	assert.False(t, aggregate.Add(decodeBatch(t, `[{"type":"status","statusCode":1,"message":"failed"}]`)))
	assert.False(t, aggregate.Add(decodeBatch(t, `[{"type":"status"}]`)))
	assert.Equal(t, 2, aggregate.Count())
}

func TestResultAggregatorResultsIsACopy(t *testing.T) {
	aggregate := newResultAggregator()
	assert.NotNil(t, aggregate.Results())
	assert.Empty(t, aggregate.Results())

	aggregate.Add(decodeBatch(t, `[{"type":"watch"}]`))
	results := aggregate.Results()
	results[0] = domain.ResultRecord{Type: "mutated"}

	assert.Equal(t, "watch", aggregate.Results()[0].Type)
}
