package stock

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// WriteMovementsCSV serialises movement records to CSV for operator exports.
func WriteMovementsCSV(w io.Writer, movements []Movement) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"ID", "Product", "Location", "Type", "Quantity", "Unit", "From", "To", "Order", "Reference", "Notes", "Actor", "Date"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, m := range movements {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			strconv.FormatInt(m.ProductID, 10),
			strconv.FormatInt(m.LocationID, 10),
			string(m.Type),
			strconv.FormatInt(m.Quantity, 10),
			m.UnitType,
			formatID(m.FromLocationID),
			formatID(m.ToLocationID),
			formatID(m.OrderID),
			m.ReferenceNumber,
			m.Notes,
			strconv.FormatInt(m.PerformedBy, 10),
			m.MovementDate.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
