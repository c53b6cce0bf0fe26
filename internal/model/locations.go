package model

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LocationsResponse is the CDS firmographics/locations response body.
type LocationsResponse struct {
	Data []Entity `json:"data"`
}

// Entity is one legal entity of a locations response.
type Entity struct {
	EntityID  *Integer   `json:"entityId,omitempty"`
	BvdID     *Text      `json:"bvdId,omitempty"`
	Locations []Location `json:"locations,omitempty"`
}

// Location groups the category tags and addresses of one entity site.
type Location struct {
	Categories []Category        `json:"categories,omitempty"`
	Addresses  []LocationAddress `json:"addresses,omitempty"`
}

// Category is a location category tag.
type Category struct {
	Code  *Text `json:"code,omitempty"`
	Label *Text `json:"label,omitempty"`
}

// LocationAddress pairs a reported address with its standardized form.
type LocationAddress struct {
	Reported     *ReportedLocation     `json:"reported,omitempty"`
	Standardized *StandardizedLocation `json:"standardized,omitempty"`
}

// ReportedLocation is the reported side of a CDS address.
type ReportedLocation struct {
	AddressLines StringList `json:"addressLines,omitempty"`
	City         *Text      `json:"city,omitempty"`
	PostCode     *Text      `json:"postCode,omitempty"`
	Country      *Country   `json:"country,omitempty"`
	PhoneNumbers StringList `json:"phoneNumbers,omitempty"`
	FaxNumbers   StringList `json:"faxNumbers,omitempty"`
}

// Country is a code/label pair.
type Country struct {
	Code  *Text `json:"code,omitempty"`
	Label *Text `json:"label,omitempty"`
}

// StandardizedLocation is the standardized side of a CDS address.
type StandardizedLocation struct {
	AddressLines            StringList  `json:"addressLines,omitempty"`
	Provider                *Text       `json:"provider,omitempty"`
	VerificationCode        *Text       `json:"verificationCode,omitempty"`
	QualityIndex            *Text       `json:"qualityIndex,omitempty"`
	CountryName             *Text       `json:"countryName,omitempty"`
	ISO31662                *Text       `json:"iso31662,omitempty"`
	ISO31663                *Text       `json:"iso31663,omitempty"`
	ISO3166N                *Text       `json:"iso3166N,omitempty"`
	SuperAdministrativeArea *Text       `json:"superAdministrativeArea,omitempty"`
	AdministrativeArea      *Text       `json:"administrativeArea,omitempty"`
	SubAdministrativeArea   *Text       `json:"subAdministrativeArea,omitempty"`
	Locality                *Text       `json:"locality,omitempty"`
	Thoroughfare            *Text       `json:"thoroughfare,omitempty"`
	Building                *Text       `json:"building,omitempty"`
	Premise                 *Text       `json:"premise,omitempty"`
	PostalCode              *Text       `json:"postalCode,omitempty"`
	PostalCodePrimary       *Text       `json:"postalCodePrimary,omitempty"`
	PostBox                 *Text       `json:"postBox,omitempty"`
	Longitude               *Coordinate `json:"longitude,omitempty"`
	Latitude                *Coordinate `json:"latitude,omitempty"`
}

// Integer is a numeric identifier. It accepts a JSON number or a numeric
// string; anything else decodes as absent.
type Integer struct {
	value int64
	valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Integer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return nil
	}
	raw, ok, err := numericText(data)
	if err != nil || !ok {
		return eris.Wrap(err, "model: decode integer")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		zap.L().Debug("model: integer is not numeric", zap.String("value", raw))
		return nil
	}
	*n = Integer{value: v, valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Integer) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return null, nil
	}
	return json.Marshal(n.value)
}

// Int64Ptr returns the value as *int64, nil when n is nil or absent.
func (n *Integer) Int64Ptr() *int64 {
	if n == nil || !n.valid {
		return nil
	}
	v := n.value
	return &v
}

// ParseLocations decodes a raw locations body. A body that is not a JSON
// object, or whose data member is not an array, is a malformed response.
func ParseLocations(body []byte) (*LocationsResponse, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, eris.Wrap(ErrMalformedResponse, "model: locations body is not an object")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "model: decode locations: %v", err)
	}
	if data, ok := top["data"]; ok {
		d := bytes.TrimSpace(data)
		if len(d) > 0 && d[0] != '[' && !bytes.Equal(d, null) {
			return nil, eris.Wrap(ErrMalformedResponse, "model: locations data is not an array")
		}
	}

	var resp LocationsResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, eris.Wrapf(ErrMalformedResponse, "model: decode locations: %v", err)
	}
	return &resp, nil
}
