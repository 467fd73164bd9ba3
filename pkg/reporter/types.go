package reporter

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SearchRequest is the body of POST /projects/search.
type SearchRequest struct {
	Criteria  Criteria `json:"criteria"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
	SortField string   `json:"sort_field,omitempty"`
	SortOrder string   `json:"sort_order,omitempty"`
}

// Criteria narrows a project search.
type Criteria struct {
	FiscalYears      []int      `json:"fiscal_years,omitempty"`
	OrganizationType []string   `json:"organization_type,omitempty"`
	AwardNoticeDate  *DateRange `json:"award_notice_date,omitempty"`
}

// DateRange bounds a date criterion. Dates are YYYY-MM-DD.
type DateRange struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// SearchResponse is the body returned by a successful search.
type SearchResponse struct {
	Meta    Meta    `json:"meta"`
	Results []Award `json:"results"`
}

// Meta carries paging metadata.
type Meta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Award is one project record as returned by RePORTER. Sub-objects are
// pointers because the API omits them for some records; a sub-object of any
// shape other than a JSON object decodes as nil.
type Award struct {
	ApplID            Text          `json:"appl_id"`
	FiscalYear        Text          `json:"fiscal_year"`
	ProjectNum        Text          `json:"project_num"`
	FundingMechanism  Text          `json:"funding_mechanism"`
	ActivityCode      Text          `json:"activity_code"`
	ApplicationType   Text          `json:"application_type"`
	AwardNoticeDate   Text          `json:"award_notice_date"`
	OpportunityNumber Text          `json:"opportunity_number"`
	Organization      *Organization `json:"organization"`
	AwardData         *AwardData    `json:"award_data"`
	ContactPI         *ContactPI    `json:"contact_pi"`
	Project           *Project      `json:"project"`
}

// UnmarshalJSON implements json.Unmarshaler. A record that is not a JSON
// object decodes as the zero Award.
func (a *Award) UnmarshalJSON(data []byte) error {
	*a = Award{}
	if !isObject(data) {
		return nil
	}

	type plain Award
	var aux struct {
		plain
		Organization json.RawMessage `json:"organization"`
		AwardData    json.RawMessage `json:"award_data"`
		ContactPI    json.RawMessage `json:"contact_pi"`
		Project      json.RawMessage `json:"project"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*a = Award(aux.plain)
	a.Organization = decodeObject[Organization](aux.Organization)
	a.AwardData = decodeObject[AwardData](aux.AwardData)
	a.ContactPI = decodeObject[ContactPI](aux.ContactPI)
	a.Project = decodeObject[Project](aux.Project)
	return nil
}

// Organization is the awardee institution.
type Organization struct {
	OrgName               Text `json:"org_name"`
	OrgDUNS               Text `json:"org_duns"`
	DeptName              Text `json:"dept_name"`
	CongressionalDistrict Text `json:"congressional_district"`
	CityName              Text `json:"city_name"`
	StateName             Text `json:"state_name"`
	ZipCode               Text `json:"zip_code"`
}

// AwardData holds award financials. Nil fields were absent, null, or not
// readable as a number. Numeric strings such as "1,250.00" are accepted.
type AwardData struct {
	DirectCostAmt   *float64 `json:"direct_cost_amt"`
	IndirectCostAmt *float64 `json:"indirect_cost_amt"`
	TotalCost       *float64 `json:"total_cost"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *AwardData) UnmarshalJSON(data []byte) error {
	*d = AwardData{}
	if !isObject(data) {
		return nil
	}
	var raw struct {
		DirectCostAmt   json.RawMessage `json:"direct_cost_amt"`
		IndirectCostAmt json.RawMessage `json:"indirect_cost_amt"`
		TotalCost       json.RawMessage `json:"total_cost"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.DirectCostAmt = decodeAmount(raw.DirectCostAmt)
	d.IndirectCostAmt = decodeAmount(raw.IndirectCostAmt)
	d.TotalCost = decodeAmount(raw.TotalCost)
	return nil
}

// ContactPI is the contact principal investigator.
type ContactPI struct {
	FullName  Text `json:"full_name"`
	ProfileID Text `json:"profile_id"`
}

// Project holds descriptive project fields.
type Project struct {
	ProjectTitle Text `json:"project_title"`
}

// Text is a scalar field decoded leniently: strings, numbers and booleans
// keep their literal text, null is empty, and arrays are joined with "; ".
// A field of an unexpected shape therefore never fails the whole record.
type Text string

// String returns the decoded text.
func (t Text) String() string { return string(t) }

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(decodeText(data))
	return nil
}

func decodeText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return ""
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if s := decodeText(it); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case '{':
		return ""
	default:
		// Numbers and booleans: keep the literal, trimming float noise on integers.
		if f, err := strconv.ParseFloat(string(data), 64); err == nil && f == float64(int64(f)) && bytes.ContainsAny(data, ".eE") {
			return strconv.FormatInt(int64(f), 10)
		}
		return string(data)
	}
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// decodeObject decodes raw into a new T, or returns nil when raw is absent,
// null, or not an object.
func decodeObject[T any](raw json.RawMessage) *T {
	if !isObject(raw) {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil
	}
	return v
}

// decodeAmount reads a JSON number or numeric string. Anything else is nil.
func decodeAmount(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		s = strings.TrimPrefix(strings.TrimSpace(s), "$")
		text = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
