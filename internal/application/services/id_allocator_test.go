package services_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/Medicalqueryreview/internal/application/services"
	"github.com/zatekoja/Medicalqueryreview/internal/domain/entities"
)

func TestIDAllocator_PerKindSequences(t *testing.T) {
	ids := services.NewIDAllocator()

	assert.Equal(t, "patient_1", ids.Next(services.KindPatient))
	assert.Equal(t, "patient_2", ids.Next(services.KindPatient))
	assert.Equal(t, "doctor_1", ids.Next(services.KindDoctor))
	assert.Equal(t, "query_1", ids.Next(services.KindQuery))

	assert.Equal(t, entities.Counters{Patient: 2, Doctor: 1, Query: 1}, ids.Counters())
}

func TestIDAllocator_ConcurrentNextIsUnique(t *testing.T) {
	ids := services.NewIDAllocator()

	const n = 200
	var wg sync.WaitGroup
	results := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ids.Next(services.KindQuery)
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for id := range results {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, uint64(n), ids.Counters().Query)
}

func TestIDAllocator_RestoreContinuesSequence(t *testing.T) {
	ids := services.NewIDAllocator()
	ids.Restore(entities.Counters{Patient: 7, Doctor: 3, Query: 12})

	assert.Equal(t, "patient_8", ids.Next(services.KindPatient))
	assert.Equal(t, "doctor_4", ids.Next(services.KindDoctor))
	assert.Equal(t, "query_13", ids.Next(services.KindQuery))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		kind services.EntityKind
		id   string
		want uint64
		ok   bool
	}{
		{"patient", services.KindPatient, "patient_42", 42, true},
		{"wrong kind", services.KindDoctor, "patient_42", 0, false},
		{"missing number", services.KindQuery, "query_", 0, false},
		{"zero", services.KindQuery, "query_0", 0, false},
		{"not numeric", services.KindQuery, "query_abc", 0, false},
		{"leading zero", services.KindPatient, "patient_01", 0, false},
		{"signed", services.KindDoctor, "doctor_+3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := services.ParseID(tt.kind, tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
