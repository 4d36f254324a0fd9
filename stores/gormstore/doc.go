// Package gormstore provides a GORM-backed identity store for the credential
// provider and a claims-to-user resolver for OAuth providers. It works with
// any database GORM supports (PostgreSQL, MySQL, SQLite, etc.) and is
// suitable for production deployments requiring relational storage.
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	store := gormstore.New(db)
//	if err := gormstore.AutoMigrate(db); err != nil { ... }
//
//	credentialProvider := credential.New(credential.Config{Store: store, ...})
//	googleProvider := google.New(google.Config{Users: store, ...})
package gormstore
