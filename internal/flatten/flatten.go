// Package flatten turns nested document-store records and CDS locations
// responses into flat address rows.
package flatten

import (
	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/internal/normalize"
)

// Options controls post-processing of flattened rows.
type Options struct {
	// ASCII runs every text field through normalize.ASCII.
	ASCII bool
}

// Documents emits one row per localized address of every document. Missing
// nested members become absent values; documents without addresses emit
// nothing.
func Documents(docs []model.Document, opts Options) []model.DocumentRow {
	var rows []model.DocumentRow
	for _, doc := range docs {
		id := doc.ID()
		for _, group := range doc.AddressGroups() {
			for _, loc := range group.LocalizedAddresses {
				row := model.DocumentRow{ID: id}
				reportedFields(&row, loc.ReportedAddress)
				standardizedFields(&row, loc.StandardizedAddress)
				if opts.ASCII {
					row.MapText(normalize.ASCII)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func reportedFields(row *model.DocumentRow, r *model.ReportedAddress) {
	if r == nil {
		return
	}
	row.ReportedAddressLines = r.AddressLines
	row.ReportedCity = r.City.StringPtr()
	row.ReportedPhoneNumbers = r.PhoneNumbers
	row.ReportedFaxNumbers = r.FaxNumbers
	row.ReportedPostCode = r.PostCode.StringPtr()
}

func standardizedFields(row *model.DocumentRow, s *model.StandardizedAddress) {
	if s == nil {
		return
	}
	row.StandardizedAddressLines = s.AddressLines
	row.StandardizedProvider = s.Provider.StringPtr()
	row.StandardizedVerificationCode = s.VerificationCode.StringPtr()
	row.StandardizedQualityIndex = s.QualityIndex.StringPtr()
	row.StandardizedCountryName = s.CountryName.StringPtr()
	row.StandardizedISO31662 = s.ISO31662.StringPtr()
	row.StandardizedISO31663 = s.ISO31663.StringPtr()
	row.StandardizedISO3166N = s.ISO3166N.StringPtr()
	row.StandardizedSuperAdministrativeArea = s.SuperAdministrativeArea.StringPtr()
	row.StandardizedAdministrativeArea = s.AdministrativeArea.StringPtr()
	row.StandardizedLocality = s.Locality.StringPtr()
	row.StandardizedDependentLocality = s.DependentLocality.StringPtr()
	row.StandardizedThoroughfare = s.Thoroughfare.StringPtr()
	row.StandardizedBuilding = s.Building.StringPtr()
	row.StandardizedPremise = s.Premise.StringPtr()
	row.StandardizedSubBuilding = s.SubBuilding.StringPtr()
	row.StandardizedLongitude = s.Longitude.Float64Ptr()
	row.StandardizedLatitude = s.Latitude.Float64Ptr()
	row.StandardizedPostalCode = s.PostalCode.StringPtr()
	row.StandardizedPostalCodePrimary = s.PostalCodePrimary.StringPtr()
	row.StandardizedPostBox = s.PostBox.StringPtr()
}

// Locations emits one row per address of every location of every entity.
// Each row carries the entity ids and the first category of its location;
// list fields are joined with ", ". A nil response emits nothing.
func Locations(resp *model.LocationsResponse, opts Options) []model.LocationRow {
	if resp == nil {
		return nil
	}
	var rows []model.LocationRow
	for _, entity := range resp.Data {
		entityID := entity.EntityID.Int64Ptr()
		bvdID := entity.BvdID.StringPtr()
		for _, loc := range entity.Locations {
			var code, label *string
			if len(loc.Categories) > 0 {
				code = loc.Categories[0].Code.StringPtr()
				label = loc.Categories[0].Label.StringPtr()
			}
			for _, addr := range loc.Addresses {
				row := model.LocationRow{
					EntityID:              entityID,
					BvdID:                 bvdID,
					LocationCategoryCode:  code,
					LocationCategoryLabel: label,
				}
				reportedLocation(&row, addr.Reported)
				standardizedLocation(&row, addr.Standardized)
				if opts.ASCII {
					row.MapText(normalize.ASCII)
				}
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func reportedLocation(row *model.LocationRow, r *model.ReportedLocation) {
	if r == nil {
		return
	}
	row.ReportedAddressLines = r.AddressLines.Join()
	row.ReportedCity = r.City.StringPtr()
	row.ReportedPostCode = r.PostCode.StringPtr()
	if r.Country != nil {
		row.ReportedCountryCode = r.Country.Code.StringPtr()
		row.ReportedCountryLabel = r.Country.Label.StringPtr()
	}
	row.ReportedPhoneNumbers = r.PhoneNumbers.Join()
	row.ReportedFaxNumbers = r.FaxNumbers.Join()
}

func standardizedLocation(row *model.LocationRow, s *model.StandardizedLocation) {
	if s == nil {
		return
	}
	row.StandardizedAddressLines = s.AddressLines.Join()
	row.StandardizedProvider = s.Provider.StringPtr()
	row.StandardizedVerificationCode = s.VerificationCode.StringPtr()
	row.StandardizedQualityIndex = s.QualityIndex.StringPtr()
	row.StandardizedCountryName = s.CountryName.StringPtr()
	row.StandardizedISO31662 = s.ISO31662.StringPtr()
	row.StandardizedISO31663 = s.ISO31663.StringPtr()
	row.StandardizedISO3166N = s.ISO3166N.StringPtr()
	row.StandardizedSuperAdminArea = s.SuperAdministrativeArea.StringPtr()
	row.StandardizedAdminArea = s.AdministrativeArea.StringPtr()
	row.StandardizedSubAdminArea = s.SubAdministrativeArea.StringPtr()
	row.StandardizedLocality = s.Locality.StringPtr()
	row.StandardizedThoroughfare = s.Thoroughfare.StringPtr()
	row.StandardizedBuilding = s.Building.StringPtr()
	row.StandardizedPremise = s.Premise.StringPtr()
	row.StandardizedPostalCode = s.PostalCode.StringPtr()
	row.StandardizedPostalCodePrimary = s.PostalCodePrimary.StringPtr()
	row.StandardizedPostBox = s.PostBox.StringPtr()
	row.StandardizedLongitude = s.Longitude.Float64Ptr()
	row.StandardizedLatitude = s.Latitude.Float64Ptr()
}
