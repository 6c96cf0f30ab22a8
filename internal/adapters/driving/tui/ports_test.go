package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPorts(t *testing.T) {
	query := &MockQueryService{}
	source := &MockSourceService{}
	index := &MockIndexService{}

	ports := NewPorts(query, source, index)

	assert.Equal(t, query, ports.Query)
	assert.Equal(t, source, ports.Source)
	assert.Equal(t, index, ports.Index)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		err   error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing query", &Ports{Source: &MockSourceService{}}, ErrMissingQueryService},
		{"missing source", &Ports{Query: &MockQueryService{}}, ErrMissingSourceService},
		{"index optional", &Ports{Query: &MockQueryService{}, Source: &MockSourceService{}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestPortErrors_NameTheMissingService(t *testing.T) {
	assert.Contains(t, ErrMissingQueryService.Error(), "query service")
	assert.Contains(t, ErrMissingSourceService.Error(), "source service")
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
	assert.NotEqual(t, ErrMissingQueryService.Error(), ErrMissingSourceService.Error())
}
