package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/nchu-course-helper/internal/catalog"
)

func TestParseCareers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single", "U", []string{"U"}, false},
		{"several", "U,G,D", []string{"U", "G", "D"}, false},
		{"spaces and case", " u , g ", []string{"U", "G"}, false},
		{"blanks dropped", "U,,G,", []string{"U", "G"}, false},
		{"only commas", ",,,", nil, true},
		{"unknown", "U,X", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCareers(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, []string{"U", "G"}, &catalog.RefreshReport{
		Fetched:   map[string]int{"U": 120},
		Failed:    []string{"G"},
		Indexed:   120,
		Duration:  1500 * time.Millisecond,
		Published: true,
	})

	out := buf.String()
	assert.Contains(t, out, "U")
	assert.Contains(t, out, "120 courses")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "120 courses indexed in 1.5s, snapshot published")
}
