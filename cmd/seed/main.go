package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ikkim/bizmarket-backend/config"
	"github.com/ikkim/bizmarket-backend/internal/app/model"
	"github.com/ikkim/bizmarket-backend/internal/app/repository"
	"github.com/ikkim/bizmarket-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Column layout of the directory import sheet. The first row is a header.
const (
	colOwnerEmail = iota
	colCategory
	colName
	colTagline
	colDescription
	colContactEmail
	colContactPhone
	colWebsite
	colAddress
	colCity
	colState
	colPincode
	colServices
	minColumns = colCity + 1
)

type listingRow struct {
	Line       int
	OwnerEmail string
	Category   string
	Business   model.Business
	Location   model.BusinessLocation
	Services   []model.BusinessService
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run ./cmd/seed <xlsx_file_path> [-y]")
	}

	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && (os.Args[2] == "-y" || os.Args[2] == "--yes")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	listings, skipped, err := readListings(f)
	f.Close()
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Listings to import: %d (skipped %d rows)\n", len(listings), skipped)

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	imported, failed := importListings(db.GetDB(), listings)

	fmt.Println("Import completed!")
	fmt.Printf("  Imported: %d\n", imported)
	fmt.Printf("  Failed:   %d\n", failed)
}

// readListings parses the first sheet of f. Rows missing an owner, category,
// name, address or city are counted as skipped.
func readListings(f *excelize.File) ([]listingRow, int, error) {
	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, errors.New("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, errors.New("no data found in XLSX file")
	}

	var listings []listingRow
	seen := make(map[string]bool)
	skipped := 0

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < minColumns {
			skipped++
			continue
		}

		cell := func(idx int) string {
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		listing := listingRow{
			Line:       i + 1,
			OwnerEmail: strings.ToLower(cell(colOwnerEmail)),
			Category:   cell(colCategory),
			Business: model.Business{
				Name:         cell(colName),
				Tagline:      cell(colTagline),
				Description:  cell(colDescription),
				ContactEmail: cell(colContactEmail),
				ContactPhone: cell(colContactPhone),
				WebsiteURL:   cell(colWebsite),
				IsActive:     true,
				IsApproved:   true,
			},
			Location: model.BusinessLocation{
				AddressLine1: cell(colAddress),
				City:         cell(colCity),
				State:        cell(colState),
				Pincode:      cell(colPincode),
				Country:      "India",
				IsActive:     true,
			},
			Services: parseServices(cell(colServices)),
		}

		if listing.OwnerEmail == "" || listing.Category == "" || listing.Business.Name == "" ||
			listing.Location.AddressLine1 == "" || listing.Location.City == "" {
			skipped++
			continue
		}

		key := strings.ToLower(listing.Business.Name + "|" + listing.Location.City)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		listings = append(listings, listing)
	}

	return listings, skipped, nil
}

// parseServices reads "Name:price; Name" into services in the order given.
// A price that does not parse leaves the service unpriced.
func parseServices(raw string) []model.BusinessService {
	var services []model.BusinessService
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		service := model.BusinessService{IsActive: true, SortOrder: len(services)}
		name, price, hasPrice := strings.Cut(part, ":")
		service.Name = strings.TrimSpace(name)
		if service.Name == "" {
			continue
		}
		if hasPrice {
			if v, err := strconv.ParseFloat(strings.TrimSpace(price), 64); err == nil && v >= 0 {
				service.BasePrice = &v
			}
		}
		services = append(services, service)
	}
	return services
}

// importListings writes each listing in its own transaction so one bad row
// does not abort the rest.
func importListings(gormDB *gorm.DB, listings []listingRow) (int, int) {
	userRepo := repository.NewUserRepository(gormDB)
	imported, failed := 0, 0

	for _, listing := range listings {
		owner, err := userRepo.FindByEmail(listing.OwnerEmail)
		if err != nil {
			fmt.Printf("  line %d: owner %s not found, skipping\n", listing.Line, listing.OwnerEmail)
			failed++
			continue
		}

		err = gormDB.Transaction(func(tx *gorm.DB) error {
			catalog := repository.NewCatalogRepository(tx)
			businesses := repository.NewBusinessRepository(tx)

			category, err := catalog.FindCategoryByName(listing.Category)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				category = &model.BusinessCategory{Name: listing.Category, IsActive: true}
				err = catalog.CreateCategory(category)
			}
			if err != nil {
				return err
			}

			business := listing.Business
			business.OwnerID = owner.ID
			business.CategoryID = category.ID
			if err := businesses.Create(&business); err != nil {
				return err
			}

			location := listing.Location
			location.BusinessID = business.ID
			if err := catalog.CreateLocation(&location); err != nil {
				return err
			}

			for _, service := range listing.Services {
				service.BusinessID = business.ID
				if err := catalog.CreateService(&service); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			fmt.Printf("  line %d: %v\n", listing.Line, err)
			failed++
			continue
		}
		imported++
	}

	return imported, failed
}
