package store

import _ "embed"

// Schema holds the DDL for the wills tables. Applied by integration test
// setup; production deployments run it through their migration tooling.
//
//go:embed schema.sql
var Schema string
