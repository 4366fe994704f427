package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/asaidimu/go-hati/core/persistence"
	"github.com/asaidimu/go-hati/core/schema"
	"github.com/asaidimu/go-hati/sqlite"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dbFileName = "blog.db"

func main() {
	// Remove the database file if it already exists to start fresh
	if err := os.Remove(dbFileName); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing database file %s: %v", dbFileName, err)
	}
	fmt.Printf("Starting fresh: removed existing %s (if any).\n", dbFileName)

	db, err := sql.Open("sqlite3", dbFileName)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer func() {
		if cErr := db.Close(); cErr != nil {
			log.Printf("Error closing database connection: %v", cErr)
		}
		fmt.Println("Database connection closed.")
	}()

	catalog, err := sqlite.NewSQLiteCatalog(db, nil)
	if err != nil {
		log.Fatalf("Failed to initialize catalog: %v", err)
	}
	reconciler, err := persistence.NewReconciler(catalog, nil)
	if err != nil {
		log.Fatalf("Failed to initialize reconciler: %v", err)
	}
	fmt.Println("Initialized index reconciler.")

	// A polymorphic blog post schema with declared, inherited and implicit
	// unique indexes. Subclasses share the root collection.
	blogPost := &schema.SchemaDefinition{
		Name:             "BlogPost",
		AllowInheritance: true,
		Fields: []*schema.FieldDefinition{
			{Name: "title", Type: schema.FieldTypeString},
			{Name: "slug", Type: schema.FieldTypeString, Unique: true},
			{Name: "addDate", Type: schema.FieldTypeDateTime, StorageKey: "add_date"},
			{Name: "category", Type: schema.FieldTypeString},
			{Name: "tags", Type: schema.FieldTypeList},
		},
		Indexes: []any{
			"-addDate",
			"tags",
			[]any{"category", "-addDate"},
		},
	}

	subID := reconciler.RegisterSubscription(persistence.RegisterSubscriptionOptions{
		Event: persistence.IndexCreateSuccess,
		Callback: func(ctx context.Context, event persistence.IndexEvent) error {
			fmt.Printf("  created index %v on %s\n", event.Output, *event.Collection)
			return nil
		},
	})
	defer reconciler.UnregisterSubscription(subID)

	ctx := context.Background()

	fmt.Println("Ensuring indexes for BlogPost...")
	if err := reconciler.EnsureIndexes(ctx, blogPost); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// A second call is a no-op: the catalog already matches the spec list.
	fmt.Println("Ensuring indexes again (expect no creates)...")
	if err := reconciler.EnsureIndexes(ctx, blogPost); err != nil {
		log.Fatalf("Failed to re-ensure indexes: %v", err)
	}

	entries, err := catalog.ListIndexes(ctx, blogPost.CollectionName())
	if err != nil {
		log.Fatalf("Failed to list indexes: %v", err)
	}
	fmt.Printf("Catalog of %q:\n", blogPost.CollectionName())
	for _, entry := range entries {
		fmt.Printf("  %s unique=%v\n", entry.Name, entry.Spec.Unique)
	}

	// The slug field carries an implicit unique index, so a second document
	// with the same slug must be rejected.
	if _, err := catalog.InsertDocument(ctx, blogPost.CollectionName(), schema.Document{
		"slug": "hello-world", "title": "Hello, World",
	}); err != nil {
		log.Fatalf("Failed to insert first document: %v", err)
	}
	_, err = catalog.InsertDocument(ctx, blogPost.CollectionName(), schema.Document{
		"slug": "hello-world", "title": "Hello Again",
	})
	if persistence.IsDuplicateKey(err) {
		fmt.Println("Duplicate slug rejected by unique index, as expected.")
	} else if err != nil {
		log.Fatalf("Unexpected insert error: %v", err)
	} else {
		log.Fatalf("Duplicate slug was accepted; unique index missing")
	}

	geo, err := blogPost.GeoIndexes()
	if err != nil {
		log.Fatalf("Failed to collect geo indexes: %v", err)
	}
	fmt.Printf("BlogPost declares %d geo indexes.\n", len(geo))
}
