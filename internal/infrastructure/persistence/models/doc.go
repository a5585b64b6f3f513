// Package models contains the GORM persistence models and their conversions
// to and from domain types. Models are a persistence detail: domain code
// never imports this package.
package models
