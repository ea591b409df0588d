package course

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfessorUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantNames    []string
		wantMultiple bool
		wantJoined   string
	}{
		{"single", `"王小明"`, []string{"王小明"}, false, "王小明"},
		{"list", `["王小明","李大華"]`, []string{"王小明", "李大華"}, true, "王小明 李大華"},
		{"list with blanks", `["王小明"," ",""]`, []string{"王小明"}, true, "王小明"},
		{"empty string", `""`, nil, false, ""},
		{"null", `null`, nil, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p Professor
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.wantNames, p.Names())
			assert.Equal(t, tt.wantMultiple, p.IsMultiple())
			assert.Equal(t, tt.wantJoined, p.Joined())
		})
	}
}

func TestProfessorUnmarshal_InvalidShape(t *testing.T) {
	t.Parallel()
	var p Professor
	assert.Error(t, json.Unmarshal([]byte(`42`), &p))
}

func TestProfessorMarshalPreservesShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(SingleProfessor("王小明"))
	require.NoError(t, err)
	assert.JSONEq(t, `"王小明"`, string(data))

	data, err = json.Marshal(MultipleProfessors("王小明", "李大華"))
	require.NoError(t, err)
	assert.JSONEq(t, `["王小明","李大華"]`, string(data))
}

func TestCourseUnmarshalCatalogRecord(t *testing.T) {
	t.Parallel()

	raw := `{
		"code": "1234",
		"title": "資料結構` + "`" + `Data Structures",
		"department": "資訊工程學系",
		"for_dept": "資工系2A",
		"professor": ["王小明", "李大華"],
		"credits": "3",
		"credits_parsed": 3,
		"time": ["一234"],
		"time_parsed": [{"day": 1, "time": [2, 3, 4]}],
		"location": ["理工大樓101"],
		"obligatory_tf": true
	}`

	var c Course
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, "1234", c.Code)
	assert.Equal(t, "資料結構", c.DisplayTitle())
	assert.Equal(t, "王小明 李大華", c.Professor.Joined())
	assert.Equal(t, 3, c.CreditsParsed)
	assert.Equal(t, "一234", c.Time.Joined())
	require.Len(t, c.TimeParsed, 1)
	assert.Equal(t, []int{2, 3, 4}, c.TimeParsed[0].Periods)
	assert.True(t, c.MeetsOn(1))
	assert.False(t, c.MeetsOn(2))
	assert.True(t, c.MeetsInAny(map[int]struct{}{4: {}}))
	assert.False(t, c.MeetsInAny(map[int]struct{}{5: {}}))
}

func TestDisplayTitlePrefersParsed(t *testing.T) {
	t.Parallel()
	c := Course{Title: "raw`Raw", TitleParsed: &Title{ZH: "線性代數", EN: "Linear Algebra"}}
	assert.Equal(t, "線性代數", c.DisplayTitle())
}
