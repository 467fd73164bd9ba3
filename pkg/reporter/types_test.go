package reporter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Shapes(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{`"ABC"`, "ABC"},
		{`null`, ""},
		{`12345`, "12345"},
		{`5.0`, "5"},
		{`1.5`, "1.5"},
		{`true`, "true"},
		{`["078861598", "123"]`, "078861598; 123"},
		{`[]`, ""},
		{`[null, "x"]`, "x"},
		{`{"nested": 1}`, ""},
	}
	for _, tt := range tests {
		var v Text
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &v), "raw: %s", tt.raw)
		assert.Equal(t, tt.expected, v.String(), "raw: %s", tt.raw)
	}
}

func TestAward_Decode(t *testing.T) {
	data := []byte(`{
		"appl_id": 10950001,
		"fiscal_year": 2024,
		"project_num": "5R01CA000001-02",
		"funding_mechanism": "Non-SBIR/STTR",
		"activity_code": "R01",
		"application_type": 5,
		"award_notice_date": "2024-03-15T00:00:00",
		"opportunity_number": "PA-20-185",
		"organization": {
			"org_name": "YALE UNIVERSITY",
			"org_duns": ["043207562"],
			"city_name": "NEW HAVEN",
			"state_name": "CONNECTICUT",
			"zip_code": "065208327",
			"congressional_district": "03"
		},
		"award_data": {"direct_cost_amt": 250000, "indirect_cost_amt": null},
		"contact_pi": {"full_name": "Jane Doe", "profile_id": 1234567},
		"project": {"project_title": "A study"}
	}`)

	var a Award
	require.NoError(t, json.Unmarshal(data, &a))

	assert.Equal(t, Text("10950001"), a.ApplID)
	assert.Equal(t, Text("5"), a.ApplicationType)
	assert.Equal(t, Text("043207562"), a.Organization.OrgDUNS)
	assert.Equal(t, Text("03"), a.Organization.CongressionalDistrict)
	require.NotNil(t, a.AwardData.DirectCostAmt)
	assert.InDelta(t, 250000, *a.AwardData.DirectCostAmt, 0.001)
	assert.Nil(t, a.AwardData.IndirectCostAmt)
	assert.Nil(t, a.AwardData.TotalCost)
	assert.Equal(t, Text("1234567"), a.ContactPI.ProfileID)
	assert.Equal(t, Text("A study"), a.Project.ProjectTitle)
}

func TestAwardData_Amounts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"number", `{"direct_cost_amt": 100000}`, ptr(100000)},
		{"numeric string", `{"direct_cost_amt": "100000"}`, ptr(100000)},
		{"formatted string", `{"direct_cost_amt": " $1,250.50 "}`, ptr(1250.5)},
		{"null", `{"direct_cost_amt": null}`, nil},
		{"absent", `{}`, nil},
		{"word", `{"direct_cost_amt": "n/a"}`, nil},
		{"empty string", `{"direct_cost_amt": ""}`, nil},
		{"bool", `{"direct_cost_amt": true}`, nil},
		{"array", `{"direct_cost_amt": [1, 2]}`, nil},
		{"object", `{"direct_cost_amt": {"value": 1}}`, nil},
		{"not finite", `{"direct_cost_amt": "NaN"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d AwardData
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &d))
			if tt.want == nil {
				assert.Nil(t, d.DirectCostAmt)
				return
			}
			require.NotNil(t, d.DirectCostAmt)
			assert.InDelta(t, *tt.want, *d.DirectCostAmt, 0.001)
		})
	}
}

func TestAward_SubObjectShapes(t *testing.T) {
	data := []byte(`{
		"project_num": "5R01CA000001-02",
		"organization": "",
		"award_data": [100, 200],
		"contact_pi": 42,
		"project": true
	}`)

	var a Award
	require.NoError(t, json.Unmarshal(data, &a))

	assert.Equal(t, Text("5R01CA000001-02"), a.ProjectNum)
	assert.Nil(t, a.Organization)
	assert.Nil(t, a.AwardData)
	assert.Nil(t, a.ContactPI)
	assert.Nil(t, a.Project)
}

func TestSearchResponse_OneBadFieldKeepsPage(t *testing.T) {
	data := []byte(`{
		"meta": {"total": 3},
		"results": [
			{"project_num": "A", "award_data": {"direct_cost_amt": "100000", "indirect_cost_amt": {}}},
			{"project_num": "B", "organization": "", "award_data": {"total_cost": 5}},
			"garbage"
		]
	}`)

	var resp SearchResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Len(t, resp.Results, 3)

	first := resp.Results[0]
	assert.Equal(t, Text("A"), first.ProjectNum)
	require.NotNil(t, first.AwardData)
	require.NotNil(t, first.AwardData.DirectCostAmt)
	assert.InDelta(t, 100000, *first.AwardData.DirectCostAmt, 0.001)
	assert.Nil(t, first.AwardData.IndirectCostAmt)

	second := resp.Results[1]
	assert.Equal(t, Text("B"), second.ProjectNum)
	assert.Nil(t, second.Organization)
	require.NotNil(t, second.AwardData)
	require.NotNil(t, second.AwardData.TotalCost)
	assert.InDelta(t, 5, *second.AwardData.TotalCost, 0.001)

	assert.Equal(t, Award{}, resp.Results[2])
}

func TestAward_NullDecodesZero(t *testing.T) {
	a := Award{ProjectNum: "stale"}
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.Equal(t, Award{}, a)
}

func ptr(v float64) *float64 { return &v }
