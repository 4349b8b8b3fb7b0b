package domain

import (
	"github.com/yungbote/geocatalog-backend/internal/domain/catalog"
)

type Record = catalog.Record
type Resource = catalog.Resource
type ResourceValue = catalog.ResourceValue
type Distribution = catalog.Distribution
type SearchDocument = catalog.SearchDocument
type AssetCacheEntry = catalog.AssetCacheEntry

type SearchRequest = catalog.SearchRequest
type SearchResult = catalog.SearchResult
type FieldFilter = catalog.FieldFilter
type FacetRequest = catalog.FacetRequest
type FacetValue = catalog.FacetValue
type BBox = catalog.BBox
type Sort = catalog.Sort
type Page = catalog.Page
type Neighbors = catalog.Neighbors

const OrdinalField = catalog.OrdinalField

var (
	ScalarFields    = catalog.ScalarFields
	RepeatedFields  = catalog.RepeatedFields
	RequiredFields  = catalog.RequiredFields
	IsScalarField   = catalog.IsScalarField
	IsRepeatedField = catalog.IsRepeatedField
	IsRequiredField = catalog.IsRequiredField
	IsBooleanField  = catalog.IsBooleanField
	IsKnownField    = catalog.IsKnownField
	NewRecord       = catalog.NewRecord
)
