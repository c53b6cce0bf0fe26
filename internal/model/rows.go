package model

import "strconv"

// DocumentColumns lists the document-source flat row columns in display order.
var DocumentColumns = []string{
	"_id",
	"reportedAddress_addressLines", "reportedAddress_city", "reportedAddress_phoneNumbers",
	"reportedAddress_faxNumbers", "reportedAddress_postCode",
	"standardizedAddress_addressLines", "standardizedAddress_provider",
	"standardizedAddress_verificationCode", "standardizedAddress_qualityIndex",
	"standardizedAddress_countryName", "standardizedAddress_ISO31662",
	"standardizedAddress_ISO31663", "standardizedAddress_ISO3166N",
	"standardizedAddress_superAdministrativeArea", "standardizedAddress_administrativeArea",
	"standardizedAddress_locality", "standardizedAddress_dependentLocality",
	"standardizedAddress_thoroughfare", "standardizedAddress_building",
	"standardizedAddress_premise", "standardizedAddress_subBuilding",
	"standardizedAddress_longitude", "standardizedAddress_latitude",
	"standardizedAddress_postalCode", "standardizedAddress_postalCodePrimary",
	"standardizedAddress_postBox",
}

// LocationColumns lists the API-source flat row columns in display order.
var LocationColumns = []string{
	"entity_id", "bvd_id", "location_category_code", "location_category_label",
	"reported_address_lines", "reported_city", "reported_post_code",
	"reported_country_code", "reported_country_label",
	"reported_phone_numbers", "reported_fax_numbers",
	"standardized_address_lines", "standardized_provider",
	"standardized_verification_code", "standardized_quality_index",
	"standardized_country_name", "standardized_iso31662", "standardized_iso31663",
	"standardized_iso3166n", "standardized_super_admin_area", "standardized_admin_area",
	"standardized_sub_admin_area", "standardized_locality", "standardized_thoroughfare",
	"standardized_building", "standardized_premise", "standardized_postal_code",
	"standardized_postal_code_primary", "standardized_post_box",
	"standardized_longitude", "standardized_latitude",
}

var (
	documentColumnIndex = indexOf(DocumentColumns)
	locationColumnIndex = indexOf(LocationColumns)
)

// DocumentRow is one flattened localized address of a document-store record.
// Nil pointers and nil lists are absent values.
type DocumentRow struct {
	ID string `json:"_id"`

	ReportedAddressLines StringList `json:"reportedAddress_addressLines"`
	ReportedCity         *string    `json:"reportedAddress_city"`
	ReportedPhoneNumbers StringList `json:"reportedAddress_phoneNumbers"`
	ReportedFaxNumbers   StringList `json:"reportedAddress_faxNumbers"`
	ReportedPostCode     *string    `json:"reportedAddress_postCode"`

	StandardizedAddressLines            StringList `json:"standardizedAddress_addressLines"`
	StandardizedProvider                *string    `json:"standardizedAddress_provider"`
	StandardizedVerificationCode        *string    `json:"standardizedAddress_verificationCode"`
	StandardizedQualityIndex            *string    `json:"standardizedAddress_qualityIndex"`
	StandardizedCountryName             *string    `json:"standardizedAddress_countryName"`
	StandardizedISO31662                *string    `json:"standardizedAddress_ISO31662"`
	StandardizedISO31663                *string    `json:"standardizedAddress_ISO31663"`
	StandardizedISO3166N                *string    `json:"standardizedAddress_ISO3166N"`
	StandardizedSuperAdministrativeArea *string    `json:"standardizedAddress_superAdministrativeArea"`
	StandardizedAdministrativeArea      *string    `json:"standardizedAddress_administrativeArea"`
	StandardizedLocality                *string    `json:"standardizedAddress_locality"`
	StandardizedDependentLocality       *string    `json:"standardizedAddress_dependentLocality"`
	StandardizedThoroughfare            *string    `json:"standardizedAddress_thoroughfare"`
	StandardizedBuilding                *string    `json:"standardizedAddress_building"`
	StandardizedPremise                 *string    `json:"standardizedAddress_premise"`
	StandardizedSubBuilding             *string    `json:"standardizedAddress_subBuilding"`
	StandardizedLongitude               *float64   `json:"standardizedAddress_longitude"`
	StandardizedLatitude                *float64   `json:"standardizedAddress_latitude"`
	StandardizedPostalCode              *string    `json:"standardizedAddress_postalCode"`
	StandardizedPostalCodePrimary       *string    `json:"standardizedAddress_postalCodePrimary"`
	StandardizedPostBox                 *string    `json:"standardizedAddress_postBox"`
}

// MapText applies fn to every text and list-of-text field of the row,
// including the parent id.
func (r *DocumentRow) MapText(fn func(string) string) {
	r.ID = fn(r.ID)
	for _, l := range []*StringList{
		&r.ReportedAddressLines, &r.ReportedPhoneNumbers, &r.ReportedFaxNumbers,
		&r.StandardizedAddressLines,
	} {
		*l = l.Map(fn)
	}
	for _, p := range []**string{
		&r.ReportedCity, &r.ReportedPostCode,
		&r.StandardizedProvider, &r.StandardizedVerificationCode, &r.StandardizedQualityIndex,
		&r.StandardizedCountryName, &r.StandardizedISO31662, &r.StandardizedISO31663,
		&r.StandardizedISO3166N, &r.StandardizedSuperAdministrativeArea,
		&r.StandardizedAdministrativeArea, &r.StandardizedLocality,
		&r.StandardizedDependentLocality, &r.StandardizedThoroughfare,
		&r.StandardizedBuilding, &r.StandardizedPremise, &r.StandardizedSubBuilding,
		&r.StandardizedPostalCode, &r.StandardizedPostalCodePrimary, &r.StandardizedPostBox,
	} {
		*p = mapPtr(*p, fn)
	}
}

// Record renders the row as strings in DocumentColumns order. Absent values
// render as "".
func (r DocumentRow) Record() []string {
	return []string{
		r.ID,
		r.ReportedAddressLines.Join(), deref(r.ReportedCity), r.ReportedPhoneNumbers.Join(),
		r.ReportedFaxNumbers.Join(), deref(r.ReportedPostCode),
		r.StandardizedAddressLines.Join(), deref(r.StandardizedProvider),
		deref(r.StandardizedVerificationCode), deref(r.StandardizedQualityIndex),
		deref(r.StandardizedCountryName), deref(r.StandardizedISO31662),
		deref(r.StandardizedISO31663), deref(r.StandardizedISO3166N),
		deref(r.StandardizedSuperAdministrativeArea), deref(r.StandardizedAdministrativeArea),
		deref(r.StandardizedLocality), deref(r.StandardizedDependentLocality),
		deref(r.StandardizedThoroughfare), deref(r.StandardizedBuilding),
		deref(r.StandardizedPremise), deref(r.StandardizedSubBuilding),
		formatFloat(r.StandardizedLongitude), formatFloat(r.StandardizedLatitude),
		deref(r.StandardizedPostalCode), deref(r.StandardizedPostalCodePrimary),
		deref(r.StandardizedPostBox),
	}
}

// Columns returns DocumentColumns.
func (DocumentRow) Columns() []string { return DocumentColumns }

// Cell returns the rendered value of the named column, "" for unknown columns.
func (r DocumentRow) Cell(column string) string {
	i, ok := documentColumnIndex[column]
	if !ok {
		return ""
	}
	return r.Record()[i]
}

// Provider returns the standardized provider, "" when absent.
func (r DocumentRow) Provider() string {
	return deref(r.StandardizedProvider)
}

// LocationRow is one flattened address of a CDS locations response.
type LocationRow struct {
	EntityID              *int64  `json:"entity_id"`
	BvdID                 *string `json:"bvd_id"`
	LocationCategoryCode  *string `json:"location_category_code"`
	LocationCategoryLabel *string `json:"location_category_label"`

	ReportedAddressLines string  `json:"reported_address_lines"`
	ReportedCity         *string `json:"reported_city"`
	ReportedPostCode     *string `json:"reported_post_code"`
	ReportedCountryCode  *string `json:"reported_country_code"`
	ReportedCountryLabel *string `json:"reported_country_label"`
	ReportedPhoneNumbers string  `json:"reported_phone_numbers"`
	ReportedFaxNumbers   string  `json:"reported_fax_numbers"`

	StandardizedAddressLines      string   `json:"standardized_address_lines"`
	StandardizedProvider          *string  `json:"standardized_provider"`
	StandardizedVerificationCode  *string  `json:"standardized_verification_code"`
	StandardizedQualityIndex      *string  `json:"standardized_quality_index"`
	StandardizedCountryName       *string  `json:"standardized_country_name"`
	StandardizedISO31662          *string  `json:"standardized_iso31662"`
	StandardizedISO31663          *string  `json:"standardized_iso31663"`
	StandardizedISO3166N          *string  `json:"standardized_iso3166n"`
	StandardizedSuperAdminArea    *string  `json:"standardized_super_admin_area"`
	StandardizedAdminArea         *string  `json:"standardized_admin_area"`
	StandardizedSubAdminArea      *string  `json:"standardized_sub_admin_area"`
	StandardizedLocality          *string  `json:"standardized_locality"`
	StandardizedThoroughfare      *string  `json:"standardized_thoroughfare"`
	StandardizedBuilding          *string  `json:"standardized_building"`
	StandardizedPremise           *string  `json:"standardized_premise"`
	StandardizedPostalCode        *string  `json:"standardized_postal_code"`
	StandardizedPostalCodePrimary *string  `json:"standardized_postal_code_primary"`
	StandardizedPostBox           *string  `json:"standardized_post_box"`
	StandardizedLongitude         *float64 `json:"standardized_longitude"`
	StandardizedLatitude          *float64 `json:"standardized_latitude"`
}

// MapText applies fn to every text field of the row.
func (r *LocationRow) MapText(fn func(string) string) {
	for _, s := range []*string{
		&r.ReportedAddressLines, &r.ReportedPhoneNumbers, &r.ReportedFaxNumbers,
		&r.StandardizedAddressLines,
	} {
		*s = fn(*s)
	}
	for _, p := range []**string{
		&r.BvdID, &r.LocationCategoryCode, &r.LocationCategoryLabel,
		&r.ReportedCity, &r.ReportedPostCode, &r.ReportedCountryCode, &r.ReportedCountryLabel,
		&r.StandardizedProvider, &r.StandardizedVerificationCode, &r.StandardizedQualityIndex,
		&r.StandardizedCountryName, &r.StandardizedISO31662, &r.StandardizedISO31663,
		&r.StandardizedISO3166N, &r.StandardizedSuperAdminArea, &r.StandardizedAdminArea,
		&r.StandardizedSubAdminArea, &r.StandardizedLocality, &r.StandardizedThoroughfare,
		&r.StandardizedBuilding, &r.StandardizedPremise, &r.StandardizedPostalCode,
		&r.StandardizedPostalCodePrimary, &r.StandardizedPostBox,
	} {
		*p = mapPtr(*p, fn)
	}
}

// Record renders the row as strings in LocationColumns order.
func (r LocationRow) Record() []string {
	entityID := ""
	if r.EntityID != nil {
		entityID = strconv.FormatInt(*r.EntityID, 10)
	}
	return []string{
		entityID, deref(r.BvdID), deref(r.LocationCategoryCode), deref(r.LocationCategoryLabel),
		r.ReportedAddressLines, deref(r.ReportedCity), deref(r.ReportedPostCode),
		deref(r.ReportedCountryCode), deref(r.ReportedCountryLabel),
		r.ReportedPhoneNumbers, r.ReportedFaxNumbers,
		r.StandardizedAddressLines, deref(r.StandardizedProvider),
		deref(r.StandardizedVerificationCode), deref(r.StandardizedQualityIndex),
		deref(r.StandardizedCountryName), deref(r.StandardizedISO31662), deref(r.StandardizedISO31663),
		deref(r.StandardizedISO3166N), deref(r.StandardizedSuperAdminArea), deref(r.StandardizedAdminArea),
		deref(r.StandardizedSubAdminArea), deref(r.StandardizedLocality), deref(r.StandardizedThoroughfare),
		deref(r.StandardizedBuilding), deref(r.StandardizedPremise), deref(r.StandardizedPostalCode),
		deref(r.StandardizedPostalCodePrimary), deref(r.StandardizedPostBox),
		formatFloat(r.StandardizedLongitude), formatFloat(r.StandardizedLatitude),
	}
}

// Columns returns LocationColumns.
func (LocationRow) Columns() []string { return LocationColumns }

// Cell returns the rendered value of the named column, "" for unknown columns.
func (r LocationRow) Cell(column string) string {
	i, ok := locationColumnIndex[column]
	if !ok {
		return ""
	}
	return r.Record()[i]
}

// Provider returns the standardized provider, "" when absent.
func (r LocationRow) Provider() string {
	return deref(r.StandardizedProvider)
}

// Map returns a copy of the list with fn applied to every element. A nil
// list stays nil.
func (l StringList) Map(fn func(string) string) StringList {
	if l == nil {
		return nil
	}
	out := make(StringList, len(l))
	for i, s := range l {
		out[i] = fn(s)
	}
	return out
}

func mapPtr(p *string, fn func(string) string) *string {
	if p == nil {
		return nil
	}
	s := fn(*p)
	return &s
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func indexOf(cols []string) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		m[c] = i
	}
	return m
}
