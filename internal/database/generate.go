package database

// This file documents code generation for the database package.
//
// The Schema constant in schema.go is derived from the migration files.
// To regenerate it after adding a migration:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
