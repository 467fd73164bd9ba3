package awards

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/awards-cli/internal/transform"
	"github.com/sells-group/awards-cli/pkg/reporter"
)

func ptr(v float64) *float64 { return &v }

func decodeAward(t *testing.T, raw string) reporter.Award {
	t.Helper()
	var a reporter.Award
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	return a
}

func TestTransform_FullRecord(t *testing.T) {
	a := decodeAward(t, `{
		"project_num": "5R01CA000001-02",
		"funding_mechanism": "Non-SBIR/STTR",
		"activity_code": "R01",
		"application_type": 5,
		"award_notice_date": "2024-03-15",
		"opportunity_number": "PA-20-185",
		"organization": {
			"org_name": "Yale University School of Medicine",
			"org_duns": "043207562",
			"dept_name": "INTERNAL MEDICINE/MEDICINE",
			"congressional_district": "03",
			"city_name": "New Haven",
			"state_name": "CONNECTICUT",
			"zip_code": "065208327"
		},
		"award_data": {"direct_cost_amt": 250000, "indirect_cost_amt": 162500, "total_cost": 412500},
		"contact_pi": {"full_name": "DOE, JANE", "profile_id": 1234567},
		"project": {"project_title": "Tumor immunology"}
	}`)

	row := NewTransformer(nil, "").Transform(a)

	assert.Equal(t, "YALE UNIVERSITY", row.OrganizationName)
	assert.Equal(t, "043207562", row.OrganizationID)
	assert.Equal(t, "5R01CA000001-02", row.ProjectNumber)
	assert.Equal(t, "5R01CA000001-02", row.NIHReference)
	assert.Equal(t, "Non-SBIR/STTR", row.FundingMechanism)
	assert.Equal(t, "DOE, JANE", row.PIName)
	assert.Equal(t, "1234567", row.PIPersonID)
	assert.Equal(t, "Tumor immunology", row.ProjectTitle)
	assert.Equal(t, "INTERNAL MEDICINE/MEDICINE", row.DeptName)
	assert.Equal(t, "INTERNAL MEDICINE/MEDICINE", row.NIHDeptCombiningName)
	assert.Equal(t, "$250,000", row.DirectCost)
	assert.Equal(t, "$162,500", row.IndirectCost)
	assert.Equal(t, "$412,500", row.Funding)
	assert.Equal(t, "03", row.CongressionalDistrict)
	assert.Equal(t, "NEW HAVEN", row.City)
	assert.Equal(t, "CONNECTICUT", row.StateOrCountryName)
	assert.Equal(t, "065208327", row.ZipCode)
	assert.Equal(t, "03/15/24", row.AwardNoticeDate)
	assert.Equal(t, "PA-20-185", row.OpportunityNumber)
	assert.Equal(t, "R01", row.ActivityCode)
	assert.Equal(t, "5", row.ApplicationTypeCode)

	// Organization name is repeated under the legacy layout's columns.
	for _, v := range []string{row.NIHMCCombiningName, row.MedicalSchoolLocation, row.MajorComponentName, row.MedicalSchoolName} {
		assert.Equal(t, "YALE UNIVERSITY", v)
	}

	// Filter-derived constants.
	assert.Equal(t, "Y", row.AttributedToMedSchool)
	assert.Equal(t, "Y", row.MedicalSchoolFlag)
	assert.Equal(t, "N", row.MultiCampusInstitution)
	assert.Equal(t, "SCHOOLS OF MEDICINE", row.InstitutionType)
}

func TestTransform_NoFinancials(t *testing.T) {
	row := NewTransformer(nil, "").Transform(reporter.Award{ProjectNum: "X"})
	assert.Equal(t, "$0", row.DirectCost)
	assert.Equal(t, "$0", row.IndirectCost)
	assert.Equal(t, "$0", row.Funding)
}

func TestTransform_EmptyRecord(t *testing.T) {
	row := NewTransformer(nil, "").Transform(reporter.Award{})
	assert.Len(t, row.Values(), len(Columns))
	assert.Empty(t, row.OrganizationName)
	assert.Empty(t, row.City)
	assert.Empty(t, row.AwardNoticeDate)
	assert.Equal(t, "$0", row.Funding)
	assert.Equal(t, "Y", row.MedicalSchoolFlag)
}

func TestTransform_OddFieldShapes(t *testing.T) {
	a := decodeAward(t, `{
		"project_num": "5R01CA000001-02",
		"organization": "",
		"award_data": {"direct_cost_amt": "100000", "indirect_cost_amt": "n/a"}
	}`)

	row := NewTransformer(nil, "").Transform(a)
	assert.Equal(t, "5R01CA000001-02", row.ProjectNumber)
	assert.Empty(t, row.OrganizationName)
	assert.Equal(t, "$100,000", row.DirectCost)
	assert.Equal(t, "$0", row.IndirectCost)
	assert.Equal(t, "$100,000", row.Funding)
}

func TestTransform_FundingFallback(t *testing.T) {
	tests := []struct {
		name string
		data *reporter.AwardData
		want string
	}{
		{"sum when total absent", &reporter.AwardData{DirectCostAmt: ptr(100000), IndirectCostAmt: ptr(50000)}, "$150,000"},
		{"sum when total zero", &reporter.AwardData{DirectCostAmt: ptr(100000), IndirectCostAmt: ptr(50000), TotalCost: ptr(0)}, "$150,000"},
		{"explicit total wins", &reporter.AwardData{DirectCostAmt: ptr(1), IndirectCostAmt: ptr(2), TotalCost: ptr(999999)}, "$999,999"},
		{"direct only", &reporter.AwardData{DirectCostAmt: ptr(42000)}, "$42,000"},
		{"all nil", &reporter.AwardData{}, "$0"},
	}
	tr := NewTransformer(nil, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := tr.Transform(reporter.Award{AwardData: tt.data})
			assert.Equal(t, tt.want, row.Funding)
		})
	}
}

func TestTransform_UnparseableDatePassesThrough(t *testing.T) {
	row := NewTransformer(nil, "").Transform(reporter.Award{AwardNoticeDate: "sometime in March"})
	assert.Equal(t, "sometime in March", row.AwardNoticeDate)
}

func TestTransform_CustomRulesAndInstitution(t *testing.T) {
	names := transform.NewNameNormalizer(transform.Rules{
		City: []transform.Rule{{Match: "BRONX", Replace: "NEW YORK"}},
	})
	tr := NewTransformer(names, "SCHOOLS OF PUBLIC HEALTH")
	row := tr.Transform(reporter.Award{Organization: &reporter.Organization{
		OrgName:  "Albert Einstein College of Medicine",
		CityName: "Bronx",
	}})

	assert.Equal(t, "ALBERT EINSTEIN COLLEGE OF MEDICINE", row.OrganizationName)
	assert.Equal(t, "NEW YORK", row.City)
	assert.Equal(t, "SCHOOLS OF PUBLIC HEALTH", row.InstitutionType)
}

func TestTransformAll_PreservesOrder(t *testing.T) {
	rows := NewTransformer(nil, "").TransformAll(makeAwards(5, 10))
	require.Len(t, rows, 5)
	for i, r := range rows {
		assert.Equal(t, makeAwards(1, 10+i)[0].ProjectNum.String(), r.ProjectNumber)
	}
	assert.Empty(t, NewTransformer(nil, "").TransformAll(nil))
}

func TestRow_ColumnsAndRecord(t *testing.T) {
	assert.Len(t, Columns, 29)
	assert.Equal(t, "ORGANIZATION NAME", Columns[0])
	assert.Equal(t, "APPLICATION TYPE CODE", Columns[28])

	seen := make(map[string]bool)
	for _, c := range Columns {
		assert.False(t, seen[c], "duplicate column %q", c)
		seen[c] = true
	}

	row := Row{OrganizationName: "A", Funding: "$1", ApplicationTypeCode: "5"}
	rec := row.Record()
	assert.Len(t, rec, 29)
	assert.Equal(t, "A", rec[ColOrganizationName])
	assert.Equal(t, "$1", rec[ColFunding])
	assert.Equal(t, "5", rec[ColApplicationTypeCode])
	assert.Equal(t, "$1", row.Values()[13])
}

func TestFilledCounts(t *testing.T) {
	rows := []Row{
		{OrganizationName: "A", Funding: "$0"},
		{OrganizationName: "B"},
	}
	counts := FilledCounts(rows)
	require.Len(t, counts, len(Columns))
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[13])
	assert.Equal(t, 0, counts[1])
	assert.Equal(t, make([]int, len(Columns)), FilledCounts(nil))
}
