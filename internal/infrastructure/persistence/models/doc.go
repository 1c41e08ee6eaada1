// Package models contains GORM persistence models. Domain entities carry no
// ORM tags; each model converts with ToDomain / FromDomain.
//
// Timestamps are owned by the domain, so auto create/update time is turned
// off on every model and the stored values are exactly what the domain set.
package models
