// Package importers loads seed data into the catalog.
//
// Two formats are understood, chosen by file extension:
//
//	books.csv   book_id,title,author,year   (book_id is ignored, ids are reassigned)
//	books.yaml  books: [{title, author, year}]
//
// Parsed rows are handed to a Pipeline, which adds them to any catalog.Store:
//
//	books, problems, err := importers.ParseFile(path)
//	result, err := importers.NewPipeline(store).Import(ctx, books)
package importers
