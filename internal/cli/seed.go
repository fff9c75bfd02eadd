package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mrlokans/bookstore/internal/config"
	"github.com/mrlokans/bookstore/internal/database"
	"github.com/mrlokans/bookstore/internal/database/authors"
	"github.com/mrlokans/bookstore/internal/database/books"
	"github.com/mrlokans/bookstore/internal/database/genres"
	"github.com/mrlokans/bookstore/internal/entities"
)

type SeedCommand struct {
	DatabasePath string
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the catalog with a small sample dataset for local development.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

type seedBook struct {
	title    string
	isbn     string
	price    float64
	language string
	pages    int
	year     int
	author   string
	genre    string
}

var sampleAuthors = []entities.Author{
	{Name: "Ursula K. Le Guin", Nationality: "American"},
	{Name: "Stanislaw Lem", Nationality: "Polish"},
	{Name: "Octavia E. Butler", Nationality: "American"},
	{Name: "Italo Calvino", Nationality: "Italian"},
}

var sampleBooks = []seedBook{
	{"The Dispossessed", "9780060512750", 15.99, "en", 387, 1974, "Ursula K. Le Guin", "Science Fiction"},
	{"The Left Hand of Darkness", "9780441478125", 12.99, "en", 304, 1969, "Ursula K. Le Guin", "Science Fiction"},
	{"Solaris", "9780156027601", 14.50, "en", 204, 1961, "Stanislaw Lem", "Science Fiction"},
	{"Kindred", "9780807083697", 16.00, "en", 264, 1979, "Octavia E. Butler", "Fiction"},
	{"Invisible Cities", "9780156453806", 13.25, "en", 165, 1972, "Italo Calvino", "Fantasy"},
}

func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	authorsRepo := authors.NewRepository(db.DB)
	genresRepo := genres.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)

	authorIDs := make(map[string]uint, len(sampleAuthors))
	for i := range sampleAuthors {
		author := sampleAuthors[i]
		if err := authorsRepo.Create(&author); err != nil {
			return fmt.Errorf("failed to create author %q: %w", author.Name, err)
		}
		authorIDs[author.Name] = author.ID
	}

	created := 0
	for _, sample := range sampleBooks {
		genre, err := genresRepo.GetByName(sample.genre)
		if err != nil {
			return fmt.Errorf("unknown genre %q: %w", sample.genre, err)
		}

		published := time.Date(sample.year, time.January, 1, 0, 0, 0, 0, time.UTC)
		book := entities.Book{
			Title:           sample.title,
			ISBN:            sample.isbn,
			Price:           sample.price,
			Language:        sample.language,
			Pages:           sample.pages,
			PublicationDate: &published,
			IsAvailable:     true,
			StockQuantity:   10,
		}

		err = booksRepo.Create(&book, []uint{authorIDs[sample.author]}, []uint{genre.ID})
		if errors.Is(err, books.ErrDuplicateISBN) {
			fmt.Printf("Skipping %q, already present\n", sample.title)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create book %q: %w", sample.title, err)
		}
		created++
	}

	fmt.Printf("Seeded %d books across %d authors\n", created, len(sampleAuthors))
	return nil
}
