// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update invoices, abstracting SQL logic away from the service layer.
// Errors are returned wrapped; the service layer runs them through
// sqlerr.HandleError.
package repository
