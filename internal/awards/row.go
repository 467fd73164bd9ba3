package awards

// Column names of the medical-school reference spreadsheet, in output order.
const (
	ColOrganizationName       = "ORGANIZATION NAME"
	ColOrganizationID         = "ORGANIZATION ID (IPF)"
	ColProjectNumber          = "PROJECT NUMBER"
	ColFundingMechanism       = "FUNDING MECHANISM"
	ColNIHReference           = "NIH REFERENCE"
	ColPIName                 = "PI NAME"
	ColPIPersonID             = "PI PERSON ID"
	ColProjectTitle           = "PROJECT TITLE"
	ColDeptName               = "DEPT NAME"
	ColNIHDeptCombiningName   = "NIH DEPT COMBINING NAME"
	ColNIHMCCombiningName     = "NIH MC COMBINING NAME"
	ColDirectCost             = "DIRECT COST"
	ColIndirectCost           = "INDIRECT COST"
	ColFunding                = "FUNDING"
	ColCongressionalDistrict  = "CONGRESSIONAL DISTRICT"
	ColCity                   = "CITY"
	ColStateOrCountryName     = "STATE OR COUNTRY NAME"
	ColZipCode                = "ZIP CODE"
	ColAttributedToMedSchool  = "ATTRIBUTED TO MEDICAL SCHOOL"
	ColMedicalSchoolLocation  = "MEDICAL SCHOOL LOCATION"
	ColInstitutionType        = "INSTITUTION TYPE"
	ColAwardNoticeDate        = "AWARD NOTICE DATE"
	ColOpportunityNumber      = "OPPORTUNITY NUMBER"
	ColMajorComponentName     = "MAJOR COMPONENT NAME"
	ColMedicalSchoolFlag      = "MEDICAL SCHOOL FLAG"
	ColMedicalSchoolName      = "MEDICAL SCHOOL NAME"
	ColMultiCampusInstitution = "MULTI CAMPUS INSTITUTION"
	ColActivityCode           = "ACTIVITY CODE"
	ColApplicationTypeCode    = "APPLICATION TYPE CODE"
)

// Columns is the fixed output column order.
var Columns = []string{
	ColOrganizationName,
	ColOrganizationID,
	ColProjectNumber,
	ColFundingMechanism,
	ColNIHReference,
	ColPIName,
	ColPIPersonID,
	ColProjectTitle,
	ColDeptName,
	ColNIHDeptCombiningName,
	ColNIHMCCombiningName,
	ColDirectCost,
	ColIndirectCost,
	ColFunding,
	ColCongressionalDistrict,
	ColCity,
	ColStateOrCountryName,
	ColZipCode,
	ColAttributedToMedSchool,
	ColMedicalSchoolLocation,
	ColInstitutionType,
	ColAwardNoticeDate,
	ColOpportunityNumber,
	ColMajorComponentName,
	ColMedicalSchoolFlag,
	ColMedicalSchoolName,
	ColMultiCampusInstitution,
	ColActivityCode,
	ColApplicationTypeCode,
}

// Row is one award in the reference spreadsheet layout. Every value is a
// display string. Several fields repeat the same source value under
// different column names because the legacy layout does.
type Row struct {
	OrganizationName       string
	OrganizationID         string
	ProjectNumber          string
	FundingMechanism       string
	NIHReference           string
	PIName                 string
	PIPersonID             string
	ProjectTitle           string
	DeptName               string
	NIHDeptCombiningName   string
	NIHMCCombiningName     string
	DirectCost             string
	IndirectCost           string
	Funding                string
	CongressionalDistrict  string
	City                   string
	StateOrCountryName     string
	ZipCode                string
	AttributedToMedSchool  string
	MedicalSchoolLocation  string
	InstitutionType        string
	AwardNoticeDate        string
	OpportunityNumber      string
	MajorComponentName     string
	MedicalSchoolFlag      string
	MedicalSchoolName      string
	MultiCampusInstitution string
	ActivityCode           string
	ApplicationTypeCode    string
}

// Values returns the row's fields in Columns order.
func (r Row) Values() []string {
	return []string{
		r.OrganizationName,
		r.OrganizationID,
		r.ProjectNumber,
		r.FundingMechanism,
		r.NIHReference,
		r.PIName,
		r.PIPersonID,
		r.ProjectTitle,
		r.DeptName,
		r.NIHDeptCombiningName,
		r.NIHMCCombiningName,
		r.DirectCost,
		r.IndirectCost,
		r.Funding,
		r.CongressionalDistrict,
		r.City,
		r.StateOrCountryName,
		r.ZipCode,
		r.AttributedToMedSchool,
		r.MedicalSchoolLocation,
		r.InstitutionType,
		r.AwardNoticeDate,
		r.OpportunityNumber,
		r.MajorComponentName,
		r.MedicalSchoolFlag,
		r.MedicalSchoolName,
		r.MultiCampusInstitution,
		r.ActivityCode,
		r.ApplicationTypeCode,
	}
}

// Record returns the row keyed by column name.
func (r Row) Record() map[string]string {
	vals := r.Values()
	m := make(map[string]string, len(Columns))
	for i, c := range Columns {
		m[c] = vals[i]
	}
	return m
}

// FilledCounts returns, per column in Columns order, how many rows carry a
// non-empty value.
func FilledCounts(rows []Row) []int {
	counts := make([]int, len(Columns))
	for _, r := range rows {
		for i, v := range r.Values() {
			if v != "" {
				counts[i]++
			}
		}
	}
	return counts
}
