// Package mapper holds the pure transforms between BigCommerce catalog
// entities and Shopify payloads. Nothing in here performs I/O; absent
// optional fields degrade to empty values instead of failing.
package mapper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"catalog-migrator/internal/clients/bigcommerce"
	"catalog-migrator/internal/clients/shopify"
	"github.com/shopspring/decimal"
)

const (
	// Namespace for variant attributes that have no first-class Shopify field
	VariantMetafieldNamespace = "bigcommerce"
	// Namespace for migrated product custom fields
	CustomFieldNamespace = "custom"

	textMetafieldType    = "single_line_text_field"
	integerMetafieldType = "number_integer"
)

var nonWordRun = regexp.MustCompile(`\W+`)

// ProductStatus derives the Shopify product status from the source
// visibility flag
func ProductStatus(isVisible bool) string {
	if isVisible {
		return "active"
	}
	return "draft"
}

// Options maps the source option declarations, preserving declaration order
// and value order
func Options(src []bigcommerce.Option) []shopify.Option {
	options := make([]shopify.Option, 0, len(src))
	for _, opt := range src {
		values := make([]string, 0, len(opt.OptionValues))
		for _, v := range opt.OptionValues {
			values = append(values, v.Label)
		}
		options = append(options, shopify.Option{Name: opt.DisplayName, Values: values})
	}
	return options
}

// Images maps the source gallery with thumbnail-flagged images sorted first.
// The sort is stable, so images with the same flag keep their relative order.
func Images(src []bigcommerce.Image) []shopify.ImagePayload {
	ordered := make([]bigcommerce.Image, len(src))
	copy(ordered, src)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsThumbnail && !ordered[j].IsThumbnail
	})

	images := make([]shopify.ImagePayload, 0, len(ordered))
	for _, img := range ordered {
		images = append(images, shopify.ImagePayload{Src: img.URLZoom, Alt: ImageAlt(img)})
	}
	return images
}

// ImageAlt picks the alt text for an image: description preferred, then the
// source alt text, then empty
func ImageAlt(img bigcommerce.Image) string {
	if img.Description != "" {
		return img.Description
	}
	return img.Alt
}

// Variant maps one source variant onto a Shopify variant payload. The source
// option declarations determine the positional option slots: slot N carries
// the label the variant selected for option N, matched by option identity,
// and stays unset when the variant selected nothing for that option.
func Variant(src bigcommerce.Variant, srcOptions []bigcommerce.Option) shopify.VariantPayload {
	payload := shopify.VariantPayload{
		SKU:                 src.SKU,
		Price:               moneyOrZero(src.SalePrice),
		CompareAtPrice:      money(src.RetailPrice),
		Cost:                money(src.CostPrice),
		InventoryManagement: "shopify",
		InventoryQuantity:   src.InventoryLevel,
		Weight:              floatOrZero(src.Weight),
		WeightUnit:          "kg",
		Barcode:             barcode(src),
		RequiresShipping:    true,
		Metafields:          variantMetafields(src),
	}

	slots := []**string{&payload.Option1, &payload.Option2, &payload.Option3}
	for i, opt := range srcOptions {
		if i >= len(slots) {
			break
		}
		for _, selected := range src.OptionValues {
			if selected.OptionID == opt.ID {
				label := selected.Label
				*slots[i] = &label
				break
			}
		}
	}

	return payload
}

// ProductMetafields maps free-text custom fields onto single-line text
// metafields
func ProductMetafields(src []bigcommerce.CustomField) []shopify.MetafieldPayload {
	metafields := make([]shopify.MetafieldPayload, 0, len(src))
	for _, field := range src {
		metafields = append(metafields, shopify.MetafieldPayload{
			Namespace: CustomFieldNamespace,
			Key:       MetafieldKey(field.Name),
			Value:     field.Value,
			Type:      textMetafieldType,
		})
	}
	return metafields
}

// MetafieldKey derives a metafield key from a custom field name: lowercased,
// every run of non-word characters collapsed to one underscore. Keys shorter
// than three characters get a leading underscore, since very short keys are
// commonly rejected.
func MetafieldKey(name string) string {
	key := nonWordRun.ReplaceAllString(strings.ToLower(name), "_")
	if len(key) < 3 {
		key = "_" + key
	}
	return key
}

// variantMetafields emits the fixed set of attributes Shopify variants have
// no field for
func variantMetafields(src bigcommerce.Variant) []shopify.MetafieldPayload {
	text := func(key, value string) shopify.MetafieldPayload {
		return shopify.MetafieldPayload{
			Namespace: VariantMetafieldNamespace,
			Key:       key,
			Value:     value,
			Type:      textMetafieldType,
		}
	}

	return []shopify.MetafieldPayload{
		{
			Namespace: VariantMetafieldNamespace,
			Key:       "low_stock",
			Value:     strconv.Itoa(src.InventoryWarningLevel),
			Type:      integerMetafieldType,
		},
		text("bin_picking_number", src.BinPickingNumber),
		text("mpn", src.MPN),
		text("country_of_origin", src.CountryOfOrigin),
		text("hs_code", src.HSCode),
		text("width", dimension(src.Width)),
		text("height", dimension(src.Height)),
		text("depth", dimension(src.Depth)),
	}
}

func money(f *float64) *string {
	if f == nil {
		return nil
	}
	s := decimal.NewFromFloat(*f).StringFixed(2)
	return &s
}

func moneyOrZero(f *float64) string {
	if s := money(f); s != nil {
		return *s
	}
	return "0.00"
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func dimension(f *float64) string {
	if f == nil {
		return ""
	}
	return decimal.NewFromFloat(*f).String()
}

func barcode(src bigcommerce.Variant) *string {
	if src.UPC != "" {
		return &src.UPC
	}
	if src.EAN != "" {
		return &src.EAN
	}
	return nil
}
