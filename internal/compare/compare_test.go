package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-compare/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestGroupBy_FirstSeenOrder(t *testing.T) {
	rows := []model.DocumentRow{
		{ID: "A", ReportedCity: ptr("one")},
		{ID: "B", ReportedCity: ptr("two")},
		{ID: "A", ReportedCity: ptr("three")},
	}

	buckets := GroupBy(rows, func(r model.DocumentRow) string { return r.ID })
	require.Len(t, buckets, 2)
	assert.Equal(t, "A", buckets[0].Key)
	assert.Equal(t, "B", buckets[1].Key)
	require.Len(t, buckets[0].Rows, 2)
	assert.Equal(t, "one", *buckets[0].Rows[0].ReportedCity)
	assert.Equal(t, "three", *buckets[0].Rows[1].ReportedCity)
}

func TestGroupBy_Empty(t *testing.T) {
	assert.Empty(t, GroupBy([]int(nil), func(int) string { return "" }))
}

func TestDocumentGroups(t *testing.T) {
	rows := []model.DocumentRow{
		{
			ID:                       "A",
			ReportedAddressLines:     model.StringList{"1 Main St", "Unit 4"},
			StandardizedAddressLines: model.StringList{"1 Main Street"},
			ReportedCity:             ptr("Leeds"),
			StandardizedLocality:     ptr("Leeds"),
			ReportedPostCode:         ptr("LS1"),
			StandardizedPostalCode:   ptr("LS1 4AP"),
			StandardizedCountryName:  ptr("United Kingdom"),
		},
		{ID: "B"},
		{ID: "A", ReportedCity: ptr("York")},
		{},
	}

	groups := DocumentGroups(rows)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"A", "B", MissingKey}, []string{groups[0].Key, groups[1].Key, groups[2].Key})

	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, Entry{
		ReportedAddressLines:     "1 Main St, Unit 4",
		StandardizedAddressLines: "1 Main Street",
		ReportedCity:             "Leeds",
		StandardizedLocality:     "Leeds",
		ReportedPostCode:         "LS1",
		StandardizedPostalCode:   "LS1 4AP",
	}, groups[0].Entries[0])
	assert.Equal(t, "York", groups[0].Entries[1].ReportedCity)
	assert.Equal(t, Entry{}, groups[1].Entries[0])
}

func TestLocationGroups(t *testing.T) {
	rows := []model.LocationRow{
		{
			EntityID:                 ptr(int64(1)),
			ReportedAddressLines:     "100 King St W, Suite 200",
			StandardizedAddressLines: "100 King St W Suite 200",
			ReportedCity:             ptr("Toronto"),
			StandardizedLocality:     ptr("Toronto"),
			ReportedPostCode:         ptr("M5X 1A9"),
			StandardizedPostalCode:   ptr("M5X 1A9"),
			ReportedCountryLabel:     ptr("Canada"),
			StandardizedCountryName:  ptr("Canada"),
		},
		{EntityID: ptr(int64(1))},
	}

	groups := LocationGroups("105842360", rows)
	require.Len(t, groups, 1)
	assert.Equal(t, "105842360", groups[0].Key)
	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "Canada", groups[0].Entries[0].ReportedCountryLabel)
	assert.Equal(t, "Canada", groups[0].Entries[0].StandardizedCountryName)
	assert.Equal(t, Entry{}, groups[0].Entries[1])

	assert.Empty(t, LocationGroups("x", nil))
}

func TestLocationGroups_MultipleEntities(t *testing.T) {
	rows := []model.LocationRow{
		{EntityID: ptr(int64(7)), ReportedCity: ptr("Toronto")},
		{BvdID: ptr("CA*S00222833"), ReportedCity: ptr("Ottawa")},
		{EntityID: ptr(int64(7)), ReportedCity: ptr("Montreal")},
		{ReportedCity: ptr("Calgary")},
	}

	groups := LocationGroups("CA*S00222833", rows)
	require.Len(t, groups, 3)
	assert.Equal(t, "CA*S00222833 / 7", groups[0].Key)
	require.Len(t, groups[0].Entries, 2)
	assert.Equal(t, "Toronto", groups[0].Entries[0].ReportedCity)
	assert.Equal(t, "Montreal", groups[0].Entries[1].ReportedCity)
	assert.Equal(t, "CA*S00222833 / CA*S00222833", groups[1].Key)
	assert.Equal(t, "CA*S00222833 / "+MissingKey, groups[2].Key)
	assert.Equal(t, "Calgary", groups[2].Entries[0].ReportedCity)
}

func TestEntityKey(t *testing.T) {
	assert.Equal(t, "7", EntityKey(model.LocationRow{EntityID: ptr(int64(7)), BvdID: ptr("X")}))
	assert.Equal(t, "X", EntityKey(model.LocationRow{BvdID: ptr("X")}))
	assert.Equal(t, MissingKey, EntityKey(model.LocationRow{}))
}

func TestLoqateOnly(t *testing.T) {
	docs := []model.DocumentRow{
		{ID: "1", StandardizedProvider: ptr("Loqate")},
		{ID: "2", StandardizedProvider: ptr("Google")},
		{ID: "3"},
		{ID: "4", StandardizedProvider: ptr("LQT")},
		{ID: "5", StandardizedProvider: ptr("loqate")},
	}
	kept := LoqateOnly(docs)
	require.Len(t, kept, 2)
	assert.Equal(t, "1", kept[0].ID)
	assert.Equal(t, "4", kept[1].ID)

	locs := []model.LocationRow{{StandardizedProvider: ptr("Google")}}
	assert.Empty(t, LoqateOnly(locs))
}
