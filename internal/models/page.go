package models

// PageInfo is the pagination metadata of a list response.
type PageInfo struct {
	Page       int `json:"page" yaml:"page"`
	Limit      int `json:"limit" yaml:"limit"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"totalPages" yaml:"totalPages"`
}

// Page is one page of normalized rows.
type Page[T any] struct {
	Rows     []T      `json:"rows" yaml:"rows"`
	PageInfo PageInfo `json:"pageInfo" yaml:"pageInfo"`
}
