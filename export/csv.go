package export

import (
	"encoding/csv"
	"os"

	"github.com/tolisxo/gmaps-leads/models"
)

func WriteCSV(path string, records []models.BusinessRecord, order []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(headers(order)); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write(r.Row(order)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}
