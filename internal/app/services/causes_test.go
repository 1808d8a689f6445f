package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fr0stylo/trustguard/internal/app/domain"
	"github.com/fr0stylo/trustguard/internal/app/ports"
)

func TestGetVerifiedCausesKeepsSourceOrder(t *testing.T) {
	sources := []ports.CauseSource{
		fakeCauseSource{name: "https://a.example/causes.json", causes: []domain.Cause{
			{Chain: domain.ChainSolana, Address: "A1", Name: "a1"},
			{Chain: domain.ChainSolana, Address: "A2", Name: "a2"},
		}},
		fakeCauseSource{name: "https://b.example/causes.json", err: errBoom},
		fakeCauseSource{name: "https://c.example/causes.json", causes: []domain.Cause{
			{Chain: domain.ChainEVM, ChainID: int64Ptr(1), Address: "0xc1", Name: "c1"},
			{Chain: domain.ChainEVM, ChainID: int64Ptr(1), Address: "0xc2", Name: "c2"},
			{Chain: domain.ChainEVM, ChainID: int64Ptr(56), Address: "0xc3", Name: "c3"},
		}},
	}

	snapshot := NewCauseRegistry(sources, nil, nil).GetVerifiedCauses(context.Background())

	names := make([]string, 0, len(snapshot.Causes))
	for _, cause := range snapshot.Causes {
		names = append(names, cause.Name)
	}
	assert.Equal(t, []string{"a1", "a2", "c1", "c2", "c3"}, names)
	assert.Equal(t, []domain.SourceFailure{{Source: "https://b.example/causes.json", Error: "boom"}}, snapshot.FailedSources)
	assert.False(t, snapshot.Unreliable())
}

func TestGetVerifiedCausesAllFailed(t *testing.T) {
	sources := []ports.CauseSource{
		fakeCauseSource{name: "a", err: errBoom},
		fakeCauseSource{name: "b", err: errBoom},
	}

	snapshot := NewCauseRegistry(sources, nil, nil).GetVerifiedCauses(context.Background())

	assert.Empty(t, snapshot.Causes)
	assert.Len(t, snapshot.FailedSources, 2)
	assert.True(t, snapshot.Unreliable())
}

func TestGetVerifiedCausesNoSources(t *testing.T) {
	snapshot := NewCauseRegistry(nil, nil, nil).GetVerifiedCauses(context.Background())

	assert.NotNil(t, snapshot.Causes)
	assert.NotNil(t, snapshot.FailedSources)
	assert.False(t, snapshot.Unreliable())
}
