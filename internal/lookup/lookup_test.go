package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-compare/internal/compare"
	"github.com/sells-group/address-compare/internal/docstore"
	"github.com/sells-group/address-compare/internal/identifier"
	"github.com/sells-group/address-compare/internal/model"
	"github.com/sells-group/address-compare/pkg/cds"
)

type fakeSource struct {
	docs       []model.Document
	err        error
	lastFilter docstore.Filter
	lastProj   docstore.Projection
}

func (f *fakeSource) Find(_ context.Context, flt docstore.Filter, p docstore.Projection) ([]model.Document, error) {
	f.lastFilter = flt
	f.lastProj = p
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type fakeCDS struct {
	bodies map[string]string
	errs   map[string]error
	calls  []string
}

func (f *fakeCDS) Lookup(_ context.Context, id string) (*model.LocationsResponse, error) {
	f.calls = append(f.calls, id)
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	body, ok := f.bodies[id]
	if !ok {
		return nil, eris.Wrapf(model.ErrLookupNotFound, "cds: no record for %s", id)
	}
	return model.ParseLocations([]byte(body))
}

func (f *fakeCDS) LookupByEntityID(ctx context.Context, id int64) (*model.LocationsResponse, error) {
	return f.Lookup(ctx, strconv.FormatInt(id, 10))
}

func (f *fakeCDS) LookupByBvdID(ctx context.Context, id string) (*model.LocationsResponse, error) {
	return f.Lookup(ctx, id)
}

func mustDocs(t *testing.T, raw string) []model.Document {
	t.Helper()
	var docs []model.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &docs))
	return docs
}

const entityBody = `{"data": [{"entityId": 105842360, "bvdId": "CA*S00222833", "locations": [
	{"categories": [{"code": "HQ", "label": "Headquarters"}], "addresses": [
		{"reported": {"addressLines": ["100 King St W"], "city": "Montréal", "country": {"code": "CA", "label": "Canada"}},
		 "standardized": {"addressLines": ["100 King St W"], "provider": "Loqate", "locality": "Montréal", "countryName": "Canada"}},
		{"reported": {"city": "Toronto"}, "standardized": {"provider": "Google"}}
	]}
]}]}`

const bvdBody = `{"data": [{"entityId": 7, "bvdId": "CA*S00222833", "locations": [
	{"addresses": [{"reported": {"city": "Ottawa"}, "standardized": {"provider": "Loqate"}}]}
]}]}`

func newTestService(docs docstore.Source, api cds.Client) *Service {
	return NewService(docs, api, Config{NormalizeDocuments: true, MaxResults: 50})
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" Documents ")
	require.NoError(t, err)
	assert.Equal(t, Documents, src)

	src, err = ParseSource("cds")
	require.NoError(t, err)
	assert.Equal(t, CDS, src)

	_, err = ParseSource("mongo")
	assert.Error(t, err)
}

func TestDocuments_GroupsByID(t *testing.T) {
	src := &fakeSource{docs: mustDocs(t, `[
		{"_id": "A", "d": {"addresses": [{"localizedAddresses": [
			{"reportedAddress": {"city": "Málaga"}, "standardizedAddress": {"provider": "Loqate", "locality": "Málaga"}},
			{"reportedAddress": {"city": "Cádiz"}, "standardizedAddress": {"provider": "Google"}}
		]}]}},
		{"_id": "B", "d": {"addresses": [{"localizedAddresses": []}]}},
		{"_id": "C", "d": {"addresses": [{"localizedAddresses": [
			{"reportedAddress": {"city": "Leeds"}, "standardizedAddress": {"provider": "Loqate"}}
		]}]}}
	]`)}
	svc := newTestService(src, nil)

	res, err := svc.Documents(context.Background(), []string{"A", "B", "C"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, docstore.Filter{IDs: []string{"A", "B", "C"}, Limit: 50}, src.lastFilter)
	assert.Equal(t, docstore.AddressProjection, src.lastProj)
	assert.NotEmpty(t, res.LookupID)
	assert.Equal(t, "A,B,C", res.Identifier)
	assert.Equal(t, model.DocumentColumns, res.Columns())

	require.Len(t, res.Documents, 3)
	assert.Equal(t, "Malaga", *res.Documents[0].ReportedCity, "document rows are normalized by default")

	require.Len(t, res.Groups, 2, "a document without localized addresses has no group")
	assert.Equal(t, "A", res.Groups[0].Key)
	assert.Len(t, res.Groups[0].Entries, 2)
	assert.Equal(t, "C", res.Groups[1].Key)

	records := res.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0][0])
}

func TestDocuments_LoqateOnly(t *testing.T) {
	src := &fakeSource{docs: mustDocs(t, `[{"_id": "A", "d": {"addresses": [{"localizedAddresses": [
		{"standardizedAddress": {"provider": "Loqate"}},
		{"standardizedAddress": {"provider": "Google"}},
		{"reportedAddress": {"city": "X"}}
	]}]}}]`)}
	svc := newTestService(src, nil)

	res, err := svc.Documents(context.Background(), []string{"A"}, Options{LoqateOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "Loqate", res.Documents[0].Provider())
}

func TestDocuments_AllWhenNoIDs(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(src, nil)

	res, err := svc.Lookup(context.Background(), Documents, " , ", Options{})
	require.NoError(t, err)
	assert.Empty(t, src.lastFilter.IDs)
	assert.Equal(t, 50, src.lastFilter.Limit)
	assert.Empty(t, res.Groups)
}

func TestDocuments_FindError(t *testing.T) {
	svc := newTestService(&fakeSource{err: errors.New("connection refused")}, nil)

	_, err := svc.Documents(context.Background(), []string{"A"}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestDocuments_Unavailable(t *testing.T) {
	svc := NewService(nil, nil, Config{})

	_, err := svc.Documents(context.Background(), []string{"A"}, Options{})
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestLocations_EntityID(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"105842360": entityBody}}
	svc := newTestService(nil, api)

	res, err := svc.Lookup(context.Background(), CDS, " 105842360 ", Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"105842360"}, api.calls)
	assert.Equal(t, identifier.EntityID, res.Kind)
	assert.Equal(t, model.LocationColumns, res.Columns())
	require.Len(t, res.Locations, 2)
	assert.Equal(t, "Montréal", *res.Locations[0].ReportedCity, "API rows are not normalized by default")
	assert.Equal(t, "HQ", *res.Locations[0].LocationCategoryCode)

	require.Len(t, res.Groups, 1)
	assert.Equal(t, "105842360", res.Groups[0].Key)
	assert.Equal(t, "Canada", res.Groups[0].Entries[0].ReportedCountryLabel)
}

func TestLocations_NormalizeAPI(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"105842360": entityBody}}
	svc := NewService(nil, api, Config{NormalizeAPI: true})

	res, err := svc.Locations(context.Background(), "105842360", Options{LoqateOnly: true})
	require.NoError(t, err)
	require.Len(t, res.Locations, 1)
	assert.Equal(t, "Montreal", *res.Locations[0].ReportedCity)
}

func TestLocations_InvalidIdentifierSkipsUpstream(t *testing.T) {
	api := &fakeCDS{}
	svc := newTestService(nil, api)

	for _, id := range []string{"", "   ", "12.5", "!!"} {
		_, err := svc.Locations(context.Background(), id, Options{})
		assert.True(t, errors.Is(err, model.ErrInvalidIdentifier), id)
	}
	assert.Empty(t, api.calls)
}

func TestLocations_UpstreamError(t *testing.T) {
	api := &fakeCDS{errs: map[string]error{
		"42": eris.Wrap(model.ErrAuthentication, "cds: token service status 403"),
	}}
	svc := newTestService(nil, api)

	_, err := svc.Locations(context.Background(), "42", Options{})
	assert.True(t, errors.Is(err, model.ErrAuthentication))
}

func TestLocations_MultipleEntitiesGroupedPerEntity(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"CA*S00222833": `{"data": [
		{"entityId": 7, "locations": [{"addresses": [{"reported": {"city": "Ottawa"}}]}]},
		{"entityId": 8, "locations": [{"addresses": [{"reported": {"city": {"name": "Hull"}}}, {"reported": {"city": "Gatineau"}}]}]}
	]}`}}
	svc := newTestService(nil, api)

	res, err := svc.Locations(context.Background(), "CA*S00222833", Options{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "CA*S00222833 / 7", res.Groups[0].Key)
	assert.Equal(t, "CA*S00222833 / 8", res.Groups[1].Key)
	require.Len(t, res.Groups[1].Entries, 2)
	assert.Equal(t, "Gatineau", res.Groups[1].Entries[1].ReportedCity)
}

func TestLocations_EmptyResponse(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"42": `{"data": []}`}}
	svc := newTestService(nil, api)

	res, err := svc.Locations(context.Background(), "42", Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Locations)
	assert.Empty(t, res.Groups)
}

func TestLookup_UnknownSource(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.Lookup(context.Background(), Source("ftp"), "1", Options{})
	assert.Error(t, err)
}

func TestBatch_OneFailure(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{
		"105842360":    entityBody,
		"CA*S00222833": bvdBody,
	}}
	svc := newTestService(nil, api)

	ids := []string{"105842360", "bad id", "CA*S00222833"}
	entries := svc.Batch(context.Background(), ids, Options{})
	require.Len(t, entries, len(ids))

	assert.Equal(t, "105842360", entries[0].Identifier)
	assert.Equal(t, "entity_id", entries[0].Kind)
	assert.Len(t, entries[0].Rows, 2)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, "bad id", entries[1].Identifier)
	assert.Equal(t, KindError, entries[1].Kind)
	assert.True(t, entries[1].Failed())
	assert.Contains(t, entries[1].Error, "lookup not found")
	assert.Equal(t, "not_found", entries[1].ErrorKind)
	assert.Empty(t, entries[1].Rows)

	assert.Equal(t, "CA*S00222833", entries[2].Identifier)
	assert.Equal(t, "bvd_id", entries[2].Kind)
	require.Len(t, entries[2].Groups, 1)
	assert.Equal(t, "CA*S00222833", entries[2].Groups[0].Key)
}

func TestBatch_ClassificationFailure(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"1": bvdBody}}
	svc := newTestService(nil, api)

	entries := svc.Batch(context.Background(), []string{"--", "1"}, Options{LoqateOnly: true})
	require.Len(t, entries, 2)
	assert.Equal(t, KindError, entries[0].Kind)
	assert.Equal(t, "invalid_identifier", entries[0].ErrorKind)
	assert.Equal(t, "entity_id", entries[1].Kind)
	assert.Equal(t, []string{"1"}, api.calls)
}

func TestBatch_CanceledContext(t *testing.T) {
	api := &fakeCDS{bodies: map[string]string{"1": bvdBody}}
	svc := newTestService(nil, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := svc.Batch(ctx, []string{"1", "2"}, Options{})
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.True(t, e.Failed())
	}
	assert.Empty(t, api.calls)
}

func TestBatch_Empty(t *testing.T) {
	svc := newTestService(nil, &fakeCDS{})
	assert.Empty(t, svc.Batch(context.Background(), nil, Options{}))
}

func TestResult_JSON(t *testing.T) {
	res := &Result{LookupID: "x", Source: CDS, Identifier: "1", Groups: []compare.Group{}}
	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"lookup_id": "x", "source": "cds", "identifier": "1", "groups": []}`, string(out))
}
