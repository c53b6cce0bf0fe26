package model

// Document is a raw document-store record. Stored documents nest their
// address groups under "d" ({_id, d: {addresses}}); the flat {id, addresses}
// layout is accepted as well.
type Document struct {
	DocID     *Text          `json:"_id,omitempty"`
	PlainID   *Text          `json:"id,omitempty"`
	D         *DocumentBody  `json:"d,omitempty"`
	Addresses []AddressGroup `json:"addresses,omitempty"`
}

// DocumentBody is the "d" wrapper of a stored document.
type DocumentBody struct {
	Addresses []AddressGroup `json:"addresses,omitempty"`
}

// ID returns the document identifier, preferring "_id" over "id".
func (d Document) ID() string {
	if d.DocID != nil {
		return string(*d.DocID)
	}
	if d.PlainID != nil {
		return string(*d.PlainID)
	}
	return ""
}

// AddressGroups returns the address groups, preferring "d.addresses".
func (d Document) AddressGroups() []AddressGroup {
	if d.D != nil && d.D.Addresses != nil {
		return d.D.Addresses
	}
	return d.Addresses
}

// AddressGroup is one entry of a document's addresses array.
type AddressGroup struct {
	LocalizedAddresses []LocalizedAddress `json:"localizedAddresses,omitempty"`
}

// LocalizedAddress pairs the reported address with its standardized form.
type LocalizedAddress struct {
	ReportedAddress     *ReportedAddress     `json:"reportedAddress,omitempty"`
	StandardizedAddress *StandardizedAddress `json:"standardizedAddress,omitempty"`
}

// ReportedAddress is the address as originally supplied.
type ReportedAddress struct {
	AddressLines StringList `json:"addressLines,omitempty"`
	City         *Text      `json:"city,omitempty"`
	PhoneNumbers StringList `json:"phoneNumbers,omitempty"`
	FaxNumbers   StringList `json:"faxNumbers,omitempty"`
	PostCode     *Text      `json:"postCode,omitempty"`
}

// StandardizedAddress is the address after a standardization provider
// processed it.
type StandardizedAddress struct {
	AddressLines            StringList  `json:"addressLines,omitempty"`
	Provider                *Text       `json:"provider,omitempty"`
	VerificationCode        *Text       `json:"verificationCode,omitempty"`
	QualityIndex            *Text       `json:"qualityIndex,omitempty"`
	CountryName             *Text       `json:"countryName,omitempty"`
	ISO31662                *Text       `json:"ISO31662,omitempty"`
	ISO31663                *Text       `json:"ISO31663,omitempty"`
	ISO3166N                *Text       `json:"ISO3166N,omitempty"`
	SuperAdministrativeArea *Text       `json:"superAdministrativeArea,omitempty"`
	AdministrativeArea      *Text       `json:"administrativeArea,omitempty"`
	Locality                *Text       `json:"locality,omitempty"`
	DependentLocality       *Text       `json:"dependentLocality,omitempty"`
	Thoroughfare            *Text       `json:"thoroughfare,omitempty"`
	Building                *Text       `json:"building,omitempty"`
	Premise                 *Text       `json:"premise,omitempty"`
	SubBuilding             *Text       `json:"subBuilding,omitempty"`
	Longitude               *Coordinate `json:"longitude,omitempty"`
	Latitude                *Coordinate `json:"latitude,omitempty"`
	PostalCode              *Text       `json:"postalCode,omitempty"`
	PostalCodePrimary       *Text       `json:"postalCodePrimary,omitempty"`
	PostBox                 *Text       `json:"postBox,omitempty"`
}
