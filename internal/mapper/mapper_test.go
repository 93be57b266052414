package mapper

import (
	"testing"

	"catalog-migrator/internal/clients/bigcommerce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestProductStatus(t *testing.T) {
	assert.Equal(t, "active", ProductStatus(true))
	assert.Equal(t, "draft", ProductStatus(false))
}

func TestOptionsPreservesOrder(t *testing.T) {
	src := []bigcommerce.Option{
		{ID: 10, DisplayName: "Color", OptionValues: []bigcommerce.OptionValue{{Label: "Red"}, {Label: "Blue"}}},
		{ID: 20, DisplayName: "Size", OptionValues: []bigcommerce.OptionValue{{Label: "S"}, {Label: "M"}, {Label: "L"}}},
	}

	options := Options(src)

	require.Len(t, options, 2)
	assert.Equal(t, "Color", options[0].Name)
	assert.Equal(t, []string{"Red", "Blue"}, options[0].Values)
	assert.Equal(t, "Size", options[1].Name)
	assert.Equal(t, []string{"S", "M", "L"}, options[1].Values)
}

func TestImagesThumbnailFirstStable(t *testing.T) {
	src := []bigcommerce.Image{
		{ID: 1, URLZoom: "a", IsThumbnail: false},
		{ID: 2, URLZoom: "b", IsThumbnail: true},
		{ID: 3, URLZoom: "c", IsThumbnail: false},
	}

	images := Images(src)

	require.Len(t, images, 3)
	assert.Equal(t, "b", images[0].Src)
	assert.Equal(t, "a", images[1].Src)
	assert.Equal(t, "c", images[2].Src)

	// input order untouched
	assert.Equal(t, "a", src[0].URLZoom)
	assert.Equal(t, "b", src[1].URLZoom)
}

func TestImageAltPrefersDescription(t *testing.T) {
	assert.Equal(t, "desc", ImageAlt(bigcommerce.Image{Description: "desc", Alt: "alt"}))
	assert.Equal(t, "alt", ImageAlt(bigcommerce.Image{Alt: "alt"}))
	assert.Equal(t, "", ImageAlt(bigcommerce.Image{}))
}

func TestMetafieldKey(t *testing.T) {
	cases := map[string]string{
		"Gift Wrap?":        "gift_wrap_",
		"ID":                "_id",
		"Country of Origin": "country_of_origin",
		"Care -- Notes":     "care_notes",
		"fit":               "fit",
	}
	for name, want := range cases {
		assert.Equal(t, want, MetafieldKey(name), "key for %q", name)
	}
}

func TestVariantOptionAssignment(t *testing.T) {
	srcOptions := []bigcommerce.Option{
		{ID: 10, DisplayName: "Color"},
		{ID: 20, DisplayName: "Size"},
	}
	variant := bigcommerce.Variant{
		SKU:          "SKU-1",
		OptionValues: []bigcommerce.VariantOptionValue{{OptionID: 10, Label: "Red"}},
	}

	payload := Variant(variant, srcOptions)

	require.NotNil(t, payload.Option1)
	assert.Equal(t, "Red", *payload.Option1)
	assert.Nil(t, payload.Option2)
	assert.Nil(t, payload.Option3)
}

func TestVariantPricesAndBarcode(t *testing.T) {
	variant := bigcommerce.Variant{
		SKU:            "SKU-1",
		SalePrice:      floatPtr(10.5),
		RetailPrice:    floatPtr(12),
		CostPrice:      floatPtr(5.25),
		InventoryLevel: 7,
		Weight:         floatPtr(1.2),
		UPC:            "012345",
		EAN:            "998877",
	}

	payload := Variant(variant, nil)

	assert.Equal(t, "10.50", payload.Price)
	require.NotNil(t, payload.CompareAtPrice)
	assert.Equal(t, "12.00", *payload.CompareAtPrice)
	require.NotNil(t, payload.Cost)
	assert.Equal(t, "5.25", *payload.Cost)
	assert.Equal(t, "shopify", payload.InventoryManagement)
	assert.Equal(t, 7, payload.InventoryQuantity)
	assert.Equal(t, 1.2, payload.Weight)
	assert.Equal(t, "kg", payload.WeightUnit)
	require.NotNil(t, payload.Barcode)
	assert.Equal(t, "012345", *payload.Barcode)
	assert.True(t, payload.RequiresShipping)
}

func TestVariantMissingFieldsDegrade(t *testing.T) {
	payload := Variant(bigcommerce.Variant{EAN: "998877"}, nil)

	assert.Equal(t, "0.00", payload.Price)
	assert.Nil(t, payload.CompareAtPrice)
	assert.Nil(t, payload.Cost)
	assert.Equal(t, 0.0, payload.Weight)
	require.NotNil(t, payload.Barcode)
	assert.Equal(t, "998877", *payload.Barcode)
}

func TestVariantMetafields(t *testing.T) {
	variant := bigcommerce.Variant{
		InventoryWarningLevel: 3,
		BinPickingNumber:      "A-12",
		MPN:                   "MPN-9",
		CountryOfOrigin:       "DE",
		HSCode:                "620342",
		Width:                 floatPtr(10),
		Height:                floatPtr(2.5),
	}

	payload := Variant(variant, nil)
	require.Len(t, payload.Metafields, 8)

	byKey := map[string]string{}
	for _, mf := range payload.Metafields {
		assert.Equal(t, VariantMetafieldNamespace, mf.Namespace)
		byKey[mf.Key] = mf.Value
	}

	assert.Equal(t, "3", byKey["low_stock"])
	assert.Equal(t, "number_integer", payload.Metafields[0].Type)
	assert.Equal(t, "A-12", byKey["bin_picking_number"])
	assert.Equal(t, "MPN-9", byKey["mpn"])
	assert.Equal(t, "DE", byKey["country_of_origin"])
	assert.Equal(t, "620342", byKey["hs_code"])
	assert.Equal(t, "10", byKey["width"])
	assert.Equal(t, "2.5", byKey["height"])
	assert.Equal(t, "", byKey["depth"])
}

func TestVariantMetafieldDefaults(t *testing.T) {
	payload := Variant(bigcommerce.Variant{}, nil)
	require.Len(t, payload.Metafields, 8)
	assert.Equal(t, "low_stock", payload.Metafields[0].Key)
	assert.Equal(t, "0", payload.Metafields[0].Value)
	for _, mf := range payload.Metafields[1:] {
		assert.Equal(t, "single_line_text_field", mf.Type)
		assert.Equal(t, "", mf.Value)
	}
}

func TestProductMetafields(t *testing.T) {
	metafields := ProductMetafields([]bigcommerce.CustomField{
		{Name: "Gift Wrap?", Value: "Yes"},
		{Name: "ID", Value: "X-1"},
	})

	require.Len(t, metafields, 2)
	assert.Equal(t, "gift_wrap_", metafields[0].Key)
	assert.Equal(t, "Yes", metafields[0].Value)
	assert.Equal(t, CustomFieldNamespace, metafields[0].Namespace)
	assert.Equal(t, "single_line_text_field", metafields[0].Type)
	assert.Equal(t, "_id", metafields[1].Key)
}

func TestMappersAreIdempotent(t *testing.T) {
	srcOptions := []bigcommerce.Option{{ID: 10, DisplayName: "Color", OptionValues: []bigcommerce.OptionValue{{Label: "Red"}}}}
	variant := bigcommerce.Variant{
		SKU:          "SKU-1",
		SalePrice:    floatPtr(9.99),
		OptionValues: []bigcommerce.VariantOptionValue{{OptionID: 10, Label: "Red"}},
	}
	images := []bigcommerce.Image{
		{URLZoom: "a"},
		{URLZoom: "b", IsThumbnail: true},
	}

	assert.Equal(t, Variant(variant, srcOptions), Variant(variant, srcOptions))
	assert.Equal(t, Images(images), Images(images))
	assert.Equal(t, Options(srcOptions), Options(srcOptions))
}
