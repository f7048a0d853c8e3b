// Package types provides type definitions for structured data used throughout the jobflow system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// CompanyProfile is the seven-section company summary recovered from a research response.
// Every slot is always present; an empty string means the section could not be extracted.
type CompanyProfile struct {
	CompanyOverview     string `json:"company_overview"`
	MarketCustomers     string `json:"market_customers"`
	KeyProducts         string `json:"key_products"`
	CultureValues       string `json:"culture_values"`
	IndustryCompetition string `json:"industry_competition"`
	GrowthOpportunities string `json:"growth_opportunities"`
	AdditionalInsights  string `json:"additional_insights"`
}

// ProfileField identifies one of the seven CompanyProfile sections.
type ProfileField int

// Profile sections in declaration order. The order is used by positional fallback.
const (
	FieldCompanyOverview ProfileField = iota
	FieldMarketCustomers
	FieldKeyProducts
	FieldCultureValues
	FieldIndustryCompetition
	FieldGrowthOpportunities
	FieldAdditionalInsights
)

// ProfileFields lists every section in declaration order.
var ProfileFields = []ProfileField{
	FieldCompanyOverview,
	FieldMarketCustomers,
	FieldKeyProducts,
	FieldCultureValues,
	FieldIndustryCompetition,
	FieldGrowthOpportunities,
	FieldAdditionalInsights,
}

// String returns the JSON name of the section.
func (f ProfileField) String() string {
	switch f {
	case FieldCompanyOverview:
		return "company_overview"
	case FieldMarketCustomers:
		return "market_customers"
	case FieldKeyProducts:
		return "key_products"
	case FieldCultureValues:
		return "culture_values"
	case FieldIndustryCompetition:
		return "industry_competition"
	case FieldGrowthOpportunities:
		return "growth_opportunities"
	case FieldAdditionalInsights:
		return "additional_insights"
	default:
		return "unknown"
	}
}

// Get returns the value of a section.
func (p *CompanyProfile) Get(f ProfileField) string {
	switch f {
	case FieldCompanyOverview:
		return p.CompanyOverview
	case FieldMarketCustomers:
		return p.MarketCustomers
	case FieldKeyProducts:
		return p.KeyProducts
	case FieldCultureValues:
		return p.CultureValues
	case FieldIndustryCompetition:
		return p.IndustryCompetition
	case FieldGrowthOpportunities:
		return p.GrowthOpportunities
	case FieldAdditionalInsights:
		return p.AdditionalInsights
	default:
		return ""
	}
}

// Set assigns the value of a section. Unknown sections are ignored.
func (p *CompanyProfile) Set(f ProfileField, value string) {
	switch f {
	case FieldCompanyOverview:
		p.CompanyOverview = value
	case FieldMarketCustomers:
		p.MarketCustomers = value
	case FieldKeyProducts:
		p.KeyProducts = value
	case FieldCultureValues:
		p.CultureValues = value
	case FieldIndustryCompetition:
		p.IndustryCompetition = value
	case FieldGrowthOpportunities:
		p.GrowthOpportunities = value
	case FieldAdditionalInsights:
		p.AdditionalInsights = value
	}
}

// IsEmpty reports whether no section holds any text.
func (p *CompanyProfile) IsEmpty() bool {
	for _, f := range ProfileFields {
		if p.Get(f) != "" {
			return false
		}
	}
	return true
}

// PopulatedCount returns the number of non-empty sections.
func (p *CompanyProfile) PopulatedCount() int {
	n := 0
	for _, f := range ProfileFields {
		if p.Get(f) != "" {
			n++
		}
	}
	return n
}
