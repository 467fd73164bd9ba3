package awards

import (
	"github.com/sells-group/awards-cli/internal/transform"
	"github.com/sells-group/awards-cli/pkg/reporter"
)

// Flag values fixed by the organization-type filter: every record returned
// for a medical-school query is attributed to a medical school, and the API
// has no multi-campus attribute.
const (
	flagYes = "Y"
	flagNo  = "N"
)

// Transformer maps raw awards onto Row.
type Transformer struct {
	names           *transform.NameNormalizer
	institutionType string
}

// NewTransformer returns a Transformer. institutionType is the organization
// type the records were filtered by; it is written to INSTITUTION TYPE.
// A nil normalizer uses the default rule tables.
func NewTransformer(names *transform.NameNormalizer, institutionType string) *Transformer {
	if names == nil {
		names = transform.NewNameNormalizer(transform.DefaultRules())
	}
	if institutionType == "" {
		institutionType = DefaultOrganizationType
	}
	return &Transformer{names: names, institutionType: institutionType}
}

// Transform projects one award. Missing sub-objects and fields become empty
// strings or "$0"; nothing in the input can make it fail.
func (t *Transformer) Transform(a reporter.Award) Row {
	org := a.Organization
	if org == nil {
		org = &reporter.Organization{}
	}
	pi := a.ContactPI
	if pi == nil {
		pi = &reporter.ContactPI{}
	}
	project := a.Project
	if project == nil {
		project = &reporter.Project{}
	}

	orgName := t.names.NormalizeOrganization(org.OrgName.String())
	direct, indirect, total := costs(a.AwardData)

	return Row{
		OrganizationName:       orgName,
		OrganizationID:         org.OrgDUNS.String(),
		ProjectNumber:          a.ProjectNum.String(),
		FundingMechanism:       a.FundingMechanism.String(),
		NIHReference:           a.ProjectNum.String(),
		PIName:                 pi.FullName.String(),
		PIPersonID:             pi.ProfileID.String(),
		ProjectTitle:           project.ProjectTitle.String(),
		DeptName:               org.DeptName.String(),
		NIHDeptCombiningName:   org.DeptName.String(),
		NIHMCCombiningName:     orgName,
		DirectCost:             transform.FormatCurrency(direct),
		IndirectCost:           transform.FormatCurrency(indirect),
		Funding:                transform.FormatCurrency(total),
		CongressionalDistrict:  org.CongressionalDistrict.String(),
		City:                   t.names.NormalizeCity(org.CityName.String()),
		StateOrCountryName:     org.StateName.String(),
		ZipCode:                org.ZipCode.String(),
		AttributedToMedSchool:  flagYes,
		MedicalSchoolLocation:  orgName,
		InstitutionType:        t.institutionType,
		AwardNoticeDate:        transform.FormatNoticeDate(a.AwardNoticeDate.String()),
		OpportunityNumber:      a.OpportunityNumber.String(),
		MajorComponentName:     orgName,
		MedicalSchoolFlag:      flagYes,
		MedicalSchoolName:      orgName,
		MultiCampusInstitution: flagNo,
		ActivityCode:           a.ActivityCode.String(),
		ApplicationTypeCode:    a.ApplicationType.String(),
	}
}

// TransformAll maps each award independently, preserving order.
func (t *Transformer) TransformAll(awards []reporter.Award) []Row {
	rows := make([]Row, 0, len(awards))
	for _, a := range awards {
		rows = append(rows, t.Transform(a))
	}
	return rows
}

// costs resolves direct, indirect and total cost. An explicit non-zero
// total wins; otherwise total is direct plus indirect.
func costs(d *reporter.AwardData) (direct, indirect, total float64) {
	if d == nil {
		return 0, 0, 0
	}
	direct = deref(d.DirectCostAmt)
	indirect = deref(d.IndirectCostAmt)
	total = deref(d.TotalCost)
	if total == 0 {
		total = direct + indirect
	}
	return direct, indirect, total
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
