package marketplace

import (
	"encoding/json"
	"strings"
)

// SuccessCode is the application-level code of an accepted response.
const SuccessCode = "SUCCESS"

// Product is an entry of the seller product list.
type Product struct {
	SellerProductID   int64  `json:"sellerProductId"`
	SellerProductName string `json:"sellerProductName"`
	StatusName        string `json:"statusName,omitempty"`
}

// Item is a sellable option (vendor item) of a product.
type Item struct {
	VendorItemID    int64  `json:"vendorItemId"`
	ItemName        string `json:"itemName"`
	MaximumBuyCount int    `json:"maximumBuyCount"`
}

// ProductPage is the response of the product list endpoint.
type ProductPage struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	NextToken string    `json:"nextToken"`
	Data      []Product `json:"data"`
}

// Succeeded reports whether the page carries the success code, case-insensitively.
func (p *ProductPage) Succeeded() bool {
	return strings.EqualFold(p.Code, SuccessCode)
}

// ProductDetail is the product body of the detail endpoint.
type ProductDetail struct {
	SellerProductID   int64  `json:"sellerProductId"`
	SellerProductName string `json:"sellerProductName"`
	Items             []Item `json:"items"`
}

type productDetailResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Data    ProductDetail `json:"data"`
}

// UpdateResult is the confirmation returned by the quantity update endpoint. Raw keeps the
// full payload for logging.
type UpdateResult struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Raw     json.RawMessage `json:"-"`
}
