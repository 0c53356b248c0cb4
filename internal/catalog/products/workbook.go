package products

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// BuildWorkbook turns a full product listing into a single-sheet workbook.
// Used both by the background export job and by tests.
func BuildWorkbook(items []Product) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "Products"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := []any{"SKU", "Name", "Category", "Price", "Compare Price", "Stock", "Active", "Images"}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, p := range items {
		row := []any{p.SKU, p.Name, p.CategoryName, p.Price, p.ComparePrice, p.Stock, p.Active, strings.Join(p.Images, ", ")}
		if err := book.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}
	}
	return book, nil
}
