package coverage

import (
	"sync"
	"testing"

	"github.com/erraggy/oasguard/definition"
	"github.com/erraggy/oasguard/httpvalidator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const spec = `
openapi: "3.1.0"
info: {title: Pets, version: "1.0"}
paths:
  /pets:
    get:
      operationId: listPets
      responses:
        "200": {description: OK}
        default: {description: error}
    post:
      operationId: createPet
      responses:
        "201": {description: created}
        4XX: {description: client error}
`

func mustTracker(t *testing.T) (*definition.Definition, *Tracker) {
	t.Helper()
	def, err := definition.Parse([]byte(spec))
	require.NoError(t, err)
	return def, New(def)
}

func TestTracker_Declared(t *testing.T) {
	_, tr := mustTracker(t)
	assert.Equal(t, []Pair{
		{"listPets", "200"},
		{"listPets", "default"},
		{"createPet", "201"},
		{"createPet", "4XX"},
	}, tr.Declared())
	assert.Equal(t, tr.Declared(), tr.Unexercised())
}

func TestTracker_Record(t *testing.T) {
	_, tr := mustTracker(t)

	assert.True(t, tr.Record("listPets", "200"))
	assert.True(t, tr.Record("listPets", "200"))
	assert.True(t, tr.Record("createPet", "4XX"))

	assert.Equal(t, int64(2), tr.Count("listPets", "200"))
	assert.Equal(t, []Pair{{"listPets", "default"}, {"createPet", "201"}}, tr.Unexercised(),
		"recording a pair twice marks it exercised once")

	assert.False(t, tr.Record("listPets", "418"))
	assert.False(t, tr.Record("ghost", "200"))
	assert.Equal(t, int64(1), tr.Count("listPets", "418"))
	assert.Equal(t, []Pair{{"ghost", "200"}, {"listPets", "418"}}, tr.Undeclared())
	assert.Equal(t, int64(0), tr.Count("nope", "200"))
}

func TestTracker_RecordResponse(t *testing.T) {
	def, tr := mustTracker(t)
	op, _ := def.Operation("createPet")

	assert.True(t, tr.RecordResponse(&httpvalidator.ResponseResult{Operation: op, StatusCode: 404, ResponseKey: "4XX"}))
	assert.Equal(t, int64(1), tr.Count("createPet", "4XX"))

	assert.False(t, tr.RecordResponse(&httpvalidator.ResponseResult{Operation: op, StatusCode: 500}))
	assert.Equal(t, int64(1), tr.Count("createPet", "500"))

	assert.False(t, tr.RecordResponse(nil))
	assert.False(t, tr.RecordResponse(&httpvalidator.ResponseResult{}))
}

func TestTracker_Report(t *testing.T) {
	_, tr := mustTracker(t)
	tr.Record("listPets", "200")
	tr.Record("createPet", "201")
	tr.Record("createPet", "201")
	tr.Record("createPet", "299")

	r := tr.Report()
	assert.Equal(t, 4, r.Declared)
	assert.Equal(t, 2, r.Exercised)
	assert.InDelta(t, 50.0, r.Percent(), 0.001)
	assert.Equal(t, "2/4 responses exercised (50.0%)", r.String())
	require.Len(t, r.Operations, 2)
	assert.Equal(t, OperationCoverage{
		ID:     "createPet",
		Method: "POST",
		Path:   "/pets",
		Responses: []ResponseCoverage{
			{Status: "201", Count: 2},
			{Status: "4XX", Count: 0},
		},
	}, r.Operations[1])
	assert.Equal(t, []Pair{{"createPet", "299"}}, r.Undeclared)

	assert.Equal(t, float64(100), Report{}.Percent())
}

func TestTracker_Reset(t *testing.T) {
	_, tr := mustTracker(t)
	tr.Record("listPets", "200")
	tr.Record("x", "1")
	tr.Reset()
	assert.Len(t, tr.Unexercised(), 4)
	assert.Empty(t, tr.Undeclared())
	assert.Equal(t, int64(0), tr.Count("listPets", "200"))
}

func TestTracker_Concurrent(t *testing.T) {
	_, tr := mustTracker(t)

	const workers = 16
	const perWorker = 100
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.Record("listPets", "200")
				tr.Record("listPets", "999")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers*perWorker), tr.Count("listPets", "200"))
	assert.Equal(t, int64(workers*perWorker), tr.Count("listPets", "999"))
}
